package report

import (
	"strconv"

	"uibench/internal/benchmark"
	"uibench/internal/chart"
	"uibench/internal/stats"
)

// RenderChart groups the median render time of every target by row count.
func RenderChart(reports []benchmark.TargetReport) chart.Spec {
	sizes := Sizes(reports)
	spec := chart.Spec{
		Title:      "Render time (median ms)",
		XLabel:     "rows",
		YLabel:     "ms",
		Categories: make([]string, len(sizes)),
	}
	for i, size := range sizes {
		spec.Categories[i] = strconv.Itoa(size)
	}
	for _, r := range reports {
		s := chart.Series{Name: r.Framework, Values: make([]*float64, len(sizes))}
		for i, size := range sizes {
			s.Values[i] = Value(r.Stats.Render[size], Median)
		}
		spec.Series = append(spec.Series, s)
	}
	return spec
}

// BulkChart compares the median bulk update time across targets.
func BulkChart(reports []benchmark.TargetReport) chart.Spec {
	return summaryChart("Bulk updates", reports, func(r benchmark.TargetReport) *stats.Summary { return r.Stats.Bulk })
}

// ChurnChart compares the median mount/unmount time across targets.
func ChurnChart(reports []benchmark.TargetReport) chart.Spec {
	return summaryChart("Mount/Unmount churn", reports, func(r benchmark.TargetReport) *stats.Summary { return r.Stats.Churn })
}

func summaryChart(metric string, reports []benchmark.TargetReport, pick func(benchmark.TargetReport) *stats.Summary) chart.Spec {
	title := metric + " (median ms)"
	spec := chart.Spec{
		Title:  title,
		XLabel: "framework",
		YLabel: "ms",
	}
	s := chart.Series{Name: title}
	for _, r := range reports {
		spec.Categories = append(spec.Categories, r.Framework)
		s.Values = append(s.Values, Value(pick(r), Median))
	}
	spec.Series = []chart.Series{s}
	return spec
}
