package benchmark

import (
	"sort"
	"time"

	"uibench/internal/stats"
)

// Sizes returns the union of render sizes across iterations, ascending.
func Sizes(raw []IterationResult) []int {
	sets := make([]map[int]float64, len(raw))
	for i, it := range raw {
		sets[i] = it.Render
	}
	return UnionSizes(sets...)
}

// UnionSizes returns every row count keyed in any of sets, ascending.
func UnionSizes[V any](sets ...map[int]V) []int {
	seen := make(map[int]struct{})
	for _, set := range sets {
		for size := range set {
			seen[size] = struct{}{}
		}
	}
	sizes := make([]int, 0, len(seen))
	for size := range seen {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

// Aggregate derives a target's statistics from its raw history.
func Aggregate(raw []IterationResult) TargetStats {
	out := TargetStats{Render: make(map[int]*stats.Summary)}

	for _, size := range Sizes(raw) {
		var samples []float64
		for _, it := range raw {
			if v, ok := it.Render[size]; ok {
				samples = append(samples, v)
			}
		}
		out.Render[size] = stats.Summarize(samples)
	}

	var bulk, churn []float64
	for _, it := range raw {
		if it.Bulk != nil {
			bulk = append(bulk, it.Bulk.TotalMs)
		}
		if it.Churn != nil {
			churn = append(churn, it.Churn.TotalMs)
		}
	}
	out.Bulk = stats.Summarize(bulk)
	out.Churn = stats.Summarize(churn)
	return out
}

// NewReport assembles the report of a completed target run.
func NewReport(name string, iterations int, raw []IterationResult, now time.Time) *TargetReport {
	return &TargetReport{
		Framework:  name,
		Iterations: iterations,
		Timestamp:  now,
		Raw:        raw,
		Stats:      Aggregate(raw),
	}
}

// FailedReport stands in for a target that never produced results.
func FailedReport(name string, iterations int, err error, now time.Time) *TargetReport {
	return &TargetReport{
		Framework:  name,
		Iterations: iterations,
		Timestamp:  now,
		Raw:        []IterationResult{},
		Stats:      TargetStats{Render: map[int]*stats.Summary{}},
		Error:      err.Error(),
	}
}
