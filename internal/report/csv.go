package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"uibench/internal/benchmark"
	"uibench/internal/stats"
	"uibench/internal/utils"
)

// CSVHeader is the first line of results.csv.
var CSVHeader = []string{"framework", "test", "detail1", "detail2", "stat", "value"}

// CSV emits one row per target, test, parameter set and statistic.
// Absent statistics are written as N/A.
func CSV(reports []benchmark.TargetReport, params Params) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(CSVHeader)

	sizes := Sizes(reports)
	for _, r := range reports {
		for _, size := range sizes {
			writeStats(w, r.Framework, "render", "rows="+strconv.Itoa(size), "-", r.Stats.Render[size])
		}
		writeStats(w, r.Framework, "bulk",
			fmt.Sprintf("rows=%d", params.Bulk.RowsCount),
			fmt.Sprintf("updates=%d", params.Bulk.UpdatesCount),
			r.Stats.Bulk)
		writeStats(w, r.Framework, "churn",
			fmt.Sprintf("components=%d", params.Churn.Components),
			fmt.Sprintf("cycles=%d", params.Churn.Cycles),
			r.Stats.Churn)
	}

	w.Flush()
	return buf.String()
}

func writeStats(w *csv.Writer, framework, test, d1, d2 string, s *stats.Summary) {
	for _, stat := range Stats {
		_ = w.Write([]string{framework, test, d1, d2, string(stat), utils.FormatRaw(Value(s, stat))})
	}
}
