package stats

import "sort"

// Summary holds the aggregate of one sample set.
type Summary struct {
	Runs   []float64 `json:"runs"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Median float64   `json:"median"`
	Mean   float64   `json:"mean"`
}

// Summarize returns nil for an empty sample set. Runs keeps the caller's
// order; the order statistics are taken from a sorted copy.
func Summarize(samples []float64) *Summary {
	if len(samples) == 0 {
		return nil
	}

	runs := make([]float64, len(samples))
	copy(runs, samples)

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return &Summary{
		Runs:   runs,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: median(sorted),
		Mean:   sum / float64(len(sorted)),
	}
}

func median(sorted []float64) float64 {
	m := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[m]
	}
	return (sorted[m-1] + sorted[m]) / 2
}
