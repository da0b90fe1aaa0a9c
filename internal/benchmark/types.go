package benchmark

import (
	"fmt"
	"time"

	"uibench/internal/stats"
)

// Target is one benchmarked UI stack.
type Target struct {
	Name  string   `mapstructure:"name" json:"name"`
	Dir   string   `mapstructure:"dir" json:"dir"`
	Port  int      `mapstructure:"port" json:"port"`
	Build []string `mapstructure:"build" json:"build"`
	Start []string `mapstructure:"start" json:"start"`
}

// URL returns the address the target's server is browsed at.
func (t Target) URL() string {
	return fmt.Sprintf("http://localhost:%d", t.Port)
}

// Addr returns the host:port probed for readiness.
func (t Target) Addr() string {
	return fmt.Sprintf("localhost:%d", t.Port)
}

// RenderSamples maps a row count to the elapsed milliseconds reported for it.
type RenderSamples map[int]float64

// BulkResult is the payload of runBulkUpdates.
type BulkResult struct {
	Rows    int     `json:"rows"`
	Updates int     `json:"updates"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
}

// ChurnResult is the payload of runMountUnmount.
type ChurnResult struct {
	Components int     `json:"components"`
	Cycles     int     `json:"cycles"`
	TotalMs    float64 `json:"total_ms"`
	AvgCycleMs float64 `json:"avg_cycle_ms"`
}

// IterationResult is one pass of the three tests against a fresh page load.
// Bulk and Churn are nil when the test never produced a valid result.
type IterationResult struct {
	Index           int           `json:"index"`
	Render          RenderSamples `json:"render"`
	RenderAttempts  int           `json:"render_attempts"`
	RenderValidated bool          `json:"render_validated"`
	Bulk            *BulkResult   `json:"bulk"`
	Churn           *ChurnResult  `json:"churn"`
}

// TargetStats is derived from a target's raw history.
type TargetStats struct {
	Render map[int]*stats.Summary `json:"render"`
	Bulk   *stats.Summary         `json:"bulk"`
	Churn  *stats.Summary         `json:"churn"`
}

// TargetReport is everything recorded for one target in a run.
type TargetReport struct {
	Framework  string            `json:"framework"`
	Iterations int               `json:"iterations"`
	Timestamp  time.Time         `json:"timestamp"`
	Raw        []IterationResult `json:"raw"`
	Stats      TargetStats       `json:"stats"`
	Error      string            `json:"error,omitempty"`
}

// Failed reports whether the target never produced results.
func (r TargetReport) Failed() bool {
	return r.Error != ""
}

// RunSummary is the content of all-results.json.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Iterations int            `json:"iterations"`
	Reports    []TargetReport `json:"reports"`
}

// BulkParams configures runBulkUpdates.
type BulkParams struct {
	RowsCount    int `json:"rowsCount"`
	UpdatesCount int `json:"updatesCount"`
}

// ChurnParams configures runMountUnmount.
type ChurnParams struct {
	Components int `json:"components"`
	Cycles     int `json:"cycles"`
}
