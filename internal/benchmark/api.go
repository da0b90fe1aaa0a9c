package benchmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// EntryPoint names a function the benchmark page exposes for remote invocation.
type EntryPoint string

const (
	EntryRender EntryPoint = "runRenderBenchmark"
	EntryBulk   EntryPoint = "runBulkUpdates"
	EntryChurn  EntryPoint = "runMountUnmount"
)

// EntryPoints lists every function a page must expose before it is usable.
var EntryPoints = []EntryPoint{EntryRender, EntryBulk, EntryChurn}

// Invoker calls an entry point inside the page and returns its JSON result.
// A nil result means the entry point was absent, failed or returned nothing.
type Invoker interface {
	Invoke(ctx context.Context, entry EntryPoint, args any) json.RawMessage
}

// PageAPI is the typed client of the in-page benchmark contract.
type PageAPI struct {
	inv Invoker
}

// NewPageAPI wraps an Invoker.
func NewPageAPI(inv Invoker) *PageAPI {
	return &PageAPI{inv: inv}
}

// Render runs the render sweep.
func (a *PageAPI) Render(ctx context.Context) (RenderSweep, error) {
	return DecodeRender(a.inv.Invoke(ctx, EntryRender, nil))
}

// Bulk runs the bulk update test.
func (a *PageAPI) Bulk(ctx context.Context, p BulkParams) (*BulkResult, error) {
	return DecodeBulk(a.inv.Invoke(ctx, EntryBulk, p))
}

// Churn runs the mount/unmount test.
func (a *PageAPI) Churn(ctx context.Context, p ChurnParams) (*ChurnResult, error) {
	return DecodeChurn(a.inv.Invoke(ctx, EntryChurn, p))
}

// RenderSweep is a decoded render result. Requested lists every row-count key
// of the payload, ascending, whatever its value; Samples keeps only the sizes
// with a usable timing.
type RenderSweep struct {
	Samples   RenderSamples
	Requested []int
}

// Largest returns the biggest requested size, false when none was requested.
func (s RenderSweep) Largest() (int, bool) {
	if len(s.Requested) == 0 {
		return 0, false
	}
	return s.Requested[len(s.Requested)-1], true
}

// DecodeRender reads a render payload keyed by row count. Keys that are not
// non-negative integers are ignored; a size whose value is not a non-negative
// finite number is requested but has no sample.
func DecodeRender(raw json.RawMessage) (RenderSweep, error) {
	if isNull(raw) {
		return RenderSweep{}, fmt.Errorf("%w: render returned nothing", ErrInvalidResultShape)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return RenderSweep{}, fmt.Errorf("%w: render result is not an object: %v", ErrInvalidResultShape, err)
	}

	sweep := RenderSweep{
		Samples:   make(RenderSamples, len(fields)),
		Requested: make([]int, 0, len(fields)),
	}
	for k, v := range fields {
		size, err := strconv.Atoi(k)
		if err != nil || size < 0 {
			continue
		}
		sweep.Requested = append(sweep.Requested, size)
		if ms, ok := number(v); ok {
			sweep.Samples[size] = ms
		}
	}
	slices.Sort(sweep.Requested)
	return sweep, nil
}

// timedResult carries the total time of bulk and churn results. total_ms is
// canonical; total is read only when total_ms is missing.
type timedResult struct {
	TotalMs *float64 `json:"total_ms"`
	Total   *float64 `json:"total"`
}

func (r timedResult) total() (float64, bool) {
	switch {
	case r.TotalMs != nil:
		return *r.TotalMs, valid(*r.TotalMs)
	case r.Total != nil:
		return *r.Total, valid(*r.Total)
	}
	return 0, false
}

// DecodeBulk accepts a result object or a bare number of milliseconds.
func DecodeBulk(raw json.RawMessage) (*BulkResult, error) {
	total, err := decodeTotal(raw, "bulk")
	if err != nil {
		return nil, err
	}

	var res BulkResult
	if raw = bytes.TrimSpace(raw); raw[0] == '{' {
		var body struct {
			Rows    json.RawMessage `json:"rows"`
			Updates json.RawMessage `json:"updates"`
			AvgMs   json.RawMessage `json:"avg_ms"`
		}
		_ = json.Unmarshal(raw, &body)
		res.Rows = integer(body.Rows)
		res.Updates = integer(body.Updates)
		res.AvgMs, _ = number(body.AvgMs)
	}
	res.TotalMs = total
	return &res, nil
}

// DecodeChurn accepts a result object or a bare number of milliseconds.
func DecodeChurn(raw json.RawMessage) (*ChurnResult, error) {
	total, err := decodeTotal(raw, "churn")
	if err != nil {
		return nil, err
	}

	var res ChurnResult
	if raw = bytes.TrimSpace(raw); raw[0] == '{' {
		var body struct {
			Components json.RawMessage `json:"components"`
			Cycles     json.RawMessage `json:"cycles"`
			AvgCycleMs json.RawMessage `json:"avg_cycle_ms"`
		}
		_ = json.Unmarshal(raw, &body)
		res.Components = integer(body.Components)
		res.Cycles = integer(body.Cycles)
		res.AvgCycleMs, _ = number(body.AvgCycleMs)
	}
	res.TotalMs = total
	return &res, nil
}

func decodeTotal(raw json.RawMessage, test string) (float64, error) {
	if isNull(raw) {
		return 0, fmt.Errorf("%w: %s returned nothing", ErrInvalidResultShape, test)
	}
	if v, ok := number(raw); ok {
		return v, nil
	}

	var r timedResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, fmt.Errorf("%w: %s result: %v", ErrInvalidResultShape, test, err)
	}
	total, ok := r.total()
	if !ok {
		return 0, fmt.Errorf("%w: %s result has no non-negative total_ms", ErrInvalidResultShape, test)
	}
	return total, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func number(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, valid(v)
}

func integer(raw json.RawMessage) int {
	v, ok := number(raw)
	if !ok {
		return 0
	}
	return int(v)
}

func valid(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
