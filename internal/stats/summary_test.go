package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	assert.Nil(t, Summarize(nil))
	assert.Nil(t, Summarize([]float64{}))
}

func TestSummarize_Single(t *testing.T) {
	s := Summarize([]float64{7.5})
	require.NotNil(t, s)
	assert.Equal(t, 7.5, s.Min)
	assert.Equal(t, 7.5, s.Max)
	assert.Equal(t, 7.5, s.Median)
	assert.Equal(t, 7.5, s.Mean)
}

func TestSummarize_Median(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"odd", []float64{1, 2, 3}, 2},
		{"even", []float64{1, 2, 3, 4}, 2.5},
		{"unsorted odd", []float64{9, 1, 5}, 5},
		{"duplicates", []float64{2, 2, 2, 8}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.samples)
			require.NotNil(t, s)
			assert.Equal(t, tt.want, s.Median)
		})
	}
}

func TestSummarize_OrderInvariant(t *testing.T) {
	a := Summarize([]float64{4, 1, 3, 2, 10})
	b := Summarize([]float64{10, 2, 3, 1, 4})
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.Equal(t, a.Min, b.Min)
	assert.Equal(t, a.Max, b.Max)
	assert.Equal(t, a.Median, b.Median)
	assert.InDelta(t, a.Mean, b.Mean, 1e-9)
}

func TestSummarize_DuplicationInvariant(t *testing.T) {
	base := []float64{3, 1, 7, 5}
	doubled := append(append([]float64{}, base...), base...)

	a := Summarize(base)
	b := Summarize(doubled)
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.Equal(t, a.Median, b.Median)
	assert.InDelta(t, a.Mean, b.Mean, 1e-9)
	assert.Len(t, b.Runs, 8)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	s := Summarize(in)
	require.NotNil(t, s)

	assert.Equal(t, []float64{3, 1, 2}, in)
	assert.Equal(t, []float64{3, 1, 2}, s.Runs)

	in[0] = 100
	assert.Equal(t, 3.0, s.Runs[0])
}
