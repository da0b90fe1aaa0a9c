// Package report renders target reports as CSV, Markdown and chart series.
// Every function here is pure; writing files is the caller's job.
package report

import (
	"uibench/internal/benchmark"
	"uibench/internal/stats"
)

// Stat names one summary statistic.
type Stat string

const (
	Median Stat = "median"
	Mean   Stat = "mean"
	Min    Stat = "min"
	Max    Stat = "max"
)

// Stats is the order statistics appear in every output.
var Stats = []Stat{Median, Mean, Min, Max}

// Params are the fixed arguments the bulk and churn tests ran with.
type Params struct {
	Bulk  benchmark.BulkParams
	Churn benchmark.ChurnParams
}

// DefaultParams matches the defaults of the benchmark pages.
var DefaultParams = Params{
	Bulk:  benchmark.BulkParams{RowsCount: 10000, UpdatesCount: 1000},
	Churn: benchmark.ChurnParams{Components: 1000, Cycles: 100},
}

// Value returns the named statistic, nil when the summary is absent.
func Value(s *stats.Summary, stat Stat) *float64 {
	if s == nil {
		return nil
	}
	var v float64
	switch stat {
	case Median:
		v = s.Median
	case Mean:
		v = s.Mean
	case Min:
		v = s.Min
	case Max:
		v = s.Max
	default:
		return nil
	}
	return &v
}

// Sizes returns the union of render sizes across every report, ascending.
func Sizes(reports []benchmark.TargetReport) []int {
	sets := make([]map[int]*stats.Summary, len(reports))
	for i, r := range reports {
		sets[i] = r.Stats.Render
	}
	return benchmark.UnionSizes(sets...)
}
