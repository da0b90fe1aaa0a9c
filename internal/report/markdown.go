package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"uibench/internal/benchmark"
	"uibench/internal/stats"
	"uibench/internal/utils"
)

// Chart image paths referenced from report.md, relative to the output directory.
const (
	RenderChartFile = benchmark.PlotsDir + "/render_comparison.png"
	BulkChartFile   = benchmark.PlotsDir + "/bulk_comparison.png"
	ChurnChartFile  = benchmark.PlotsDir + "/churn_comparison.png"
	HTMLChartFile   = benchmark.PlotsDir + "/charts.html"
)

// Markdown renders the three comparison tables with one column per target.
func Markdown(reports []benchmark.TargetReport, params Params, generated time.Time) string {
	var b strings.Builder

	b.WriteString("# Benchmark Results\n\n")
	fmt.Fprintf(&b, "_Generated: %s_\n\n", generated.UTC().Format(time.RFC3339))

	b.WriteString("## Render time (median ms)\n\n")
	header(&b, "Rows", reports)
	for _, size := range Sizes(reports) {
		cells := make([]string, len(reports))
		for i, r := range reports {
			cells[i] = utils.FormatMillis(Value(r.Stats.Render[size], Median))
		}
		row(&b, strconv.Itoa(size), cells)
	}
	fmt.Fprintf(&b, "\n![Render Comparison](%s)\n\n", RenderChartFile)

	fmt.Fprintf(&b, "## Bulk updates (%d rows, %d updates, ms)\n\n",
		params.Bulk.RowsCount, params.Bulk.UpdatesCount)
	statTable(&b, reports, func(r benchmark.TargetReport) *stats.Summary { return r.Stats.Bulk })
	fmt.Fprintf(&b, "\n![Bulk Comparison](%s)\n\n", BulkChartFile)

	fmt.Fprintf(&b, "## Mount/Unmount churn (%d components, %d cycles, ms)\n\n",
		params.Churn.Components, params.Churn.Cycles)
	statTable(&b, reports, func(r benchmark.TargetReport) *stats.Summary { return r.Stats.Churn })
	fmt.Fprintf(&b, "\n![Churn Comparison](%s)\n", ChurnChartFile)

	if failed := failures(reports); len(failed) > 0 {
		b.WriteString("\n## Failed targets\n\n")
		for _, r := range failed {
			fmt.Fprintf(&b, "- %s: %s\n", r.Framework, r.Error)
		}
	}

	return b.String()
}

func statTable(b *strings.Builder, reports []benchmark.TargetReport, pick func(benchmark.TargetReport) *stats.Summary) {
	header(b, "Stat", reports)
	for _, stat := range Stats {
		cells := make([]string, len(reports))
		for i, r := range reports {
			cells[i] = utils.FormatMillis(Value(pick(r), stat))
		}
		row(b, string(stat), cells)
	}
	runs := make([]string, len(reports))
	for i, r := range reports {
		runs[i] = formatRuns(pick(r))
	}
	row(b, "runs", runs)
}

func header(b *strings.Builder, first string, reports []benchmark.TargetReport) {
	names := make([]string, len(reports))
	seps := make([]string, len(reports))
	for i, r := range reports {
		names[i] = strings.ToUpper(r.Framework)
		seps[i] = "---:"
	}
	row(b, first, names)
	row(b, "---", seps)
}

func row(b *strings.Builder, first string, cells []string) {
	fmt.Fprintf(b, "| %s | %s |\n", first, strings.Join(cells, " | "))
}

func formatRuns(s *stats.Summary) string {
	if s == nil {
		return utils.NotAvailable
	}
	parts := make([]string, len(s.Runs))
	for i, v := range s.Runs {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func failures(reports []benchmark.TargetReport) []benchmark.TargetReport {
	var out []benchmark.TargetReport
	for _, r := range reports {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}
