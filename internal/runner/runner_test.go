package runner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uibench/internal/benchmark"
	"uibench/internal/metrics"
	"uibench/internal/server"
)

type fakeHandle struct{ done chan struct{} }

func (h *fakeHandle) PID() int              { return 4242 }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) Stop() error           { return nil }

type fakeLifecycle struct {
	buildErr error
	startErr error
	readyErr error

	mu      sync.Mutex
	started int
	stopped int
}

func (f *fakeLifecycle) Build(ctx context.Context, t benchmark.Target) error { return f.buildErr }

func (f *fakeLifecycle) Start(ctx context.Context, t benchmark.Target) (server.Handle, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return &fakeHandle{done: make(chan struct{})}, nil
}

func (f *fakeLifecycle) AwaitReady(ctx context.Context, t benchmark.Target, timeout time.Duration) error {
	return f.readyErr
}

func (f *fakeLifecycle) Stop(h server.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

// fakeSession replays scripted results per entry point; the last script
// element repeats once the script is exhausted.
type fakeSession struct {
	apiErr    error
	reloadErr error
	results   map[benchmark.EntryPoint][]string
	rows      []int

	mu      sync.Mutex
	calls   map[benchmark.EntryPoint]int
	args    map[benchmark.EntryPoint]any
	rowCall int
	reloads int
	closed  bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		results: map[benchmark.EntryPoint][]string{
			benchmark.EntryRender: {`{"10": 5, "100": 20}`},
			benchmark.EntryBulk:   {`{"rows": 10000, "updates": 1000, "total_ms": 120.5, "avg_ms": 0.12}`},
			benchmark.EntryChurn:  {`{"components": 1000, "cycles": 100, "total_ms": 80, "avg_cycle_ms": 0.8}`},
		},
		rows:  []int{100},
		calls: map[benchmark.EntryPoint]int{},
		args:  map[benchmark.EntryPoint]any{},
	}
}

func (s *fakeSession) Invoke(ctx context.Context, entry benchmark.EntryPoint, args any) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	script := s.results[entry]
	n := s.calls[entry]
	s.calls[entry]++
	s.args[entry] = args
	if len(script) == 0 {
		return nil
	}
	v := script[min(n, len(script)-1)]
	if v == "" {
		return nil
	}
	return json.RawMessage(v)
}

func (s *fakeSession) AwaitAPIReady(ctx context.Context, timeout time.Duration) error { return s.apiErr }

func (s *fakeSession) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads++
	return s.reloadErr
}

func (s *fakeSession) DOMRowCount(ctx context.Context, selector string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.rows[min(s.rowCall, len(s.rows)-1)]
	s.rowCall++
	return n, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type memStore struct {
	benchmark.Store
	saved []benchmark.TargetReport
}

func (m *memStore) SaveTarget(r benchmark.TargetReport) error {
	m.saved = append(m.saved, r)
	return nil
}

var reactTarget = benchmark.Target{Name: "react", Port: 4173, Start: []string{"npm", "start"}}

func newTestRunner(lc *fakeLifecycle, sess *fakeSession) (*Runner, *memStore) {
	store := &memStore{}
	open := func(ctx context.Context, url string, timeout time.Duration) (Session, error) {
		return sess, nil
	}
	r := New(lc, open, store, metrics.NewMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)), DefaultOptions())
	r.Sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	r.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r, store
}

func TestRun_AcceptsFirstAttempt(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	r, store := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 1)
	require.NoError(t, err)

	require.Len(t, report.Raw, 1)
	it := report.Raw[0]
	assert.Equal(t, 1, it.Index)
	assert.Equal(t, benchmark.RenderSamples{10: 5, 100: 20}, it.Render)
	assert.Equal(t, 1, it.RenderAttempts)
	assert.True(t, it.RenderValidated)
	require.NotNil(t, it.Bulk)
	assert.Equal(t, 120.5, it.Bulk.TotalMs)
	require.NotNil(t, it.Churn)
	assert.Equal(t, 80.0, it.Churn.TotalMs)

	assert.Equal(t, 1, sess.calls[benchmark.EntryRender])
	assert.Equal(t, benchmark.BulkParams{RowsCount: 10000, UpdatesCount: 1000}, sess.args[benchmark.EntryBulk])
	assert.Equal(t, benchmark.ChurnParams{Components: 1000, Cycles: 100}, sess.args[benchmark.EntryChurn])
	assert.Equal(t, 1, sess.reloads)
	assert.True(t, sess.closed)
	assert.Equal(t, 1, lc.stopped)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "react", store.saved[0].Framework)
	assert.Equal(t, 20.0, report.Stats.Render[100].Median)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Iterations.WithLabelValues("react")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Attempts.WithLabelValues("react", "render")))
}

func TestRun_RenderRetriesUntilDOMMatches(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.rows = []int{0, 50, 100}
	r, _ := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 1)
	require.NoError(t, err)

	it := report.Raw[0]
	assert.Equal(t, 3, it.RenderAttempts)
	assert.True(t, it.RenderValidated)
	assert.Equal(t, 3, sess.calls[benchmark.EntryRender])
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Metrics.ValidationFailures.WithLabelValues("react", "render", "mismatch")))
}

func TestRun_RenderKeepsLastResultOnExhaustion(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.results[benchmark.EntryRender] = []string{`{"100": 1}`, `{"100": 2}`, `{"100": 3}`}
	sess.rows = []int{7}
	r, _ := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 1)
	require.NoError(t, err)

	it := report.Raw[0]
	assert.Equal(t, 3, it.RenderAttempts)
	assert.False(t, it.RenderValidated)
	assert.Equal(t, benchmark.RenderSamples{100: 3}, it.Render)
}

func TestRun_RenderValidatesAgainstLargestRequestedSize(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.results[benchmark.EntryRender] = []string{`{"10": 5, "50000": null}`}
	sess.rows = []int{50000}
	r, _ := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 1)
	require.NoError(t, err)

	it := report.Raw[0]
	assert.Equal(t, 1, it.RenderAttempts)
	assert.True(t, it.RenderValidated)
	assert.Equal(t, benchmark.RenderSamples{10: 5}, it.Render)
	assert.Equal(t, 1, sess.rowCall)
}

func TestRun_EmptyRenderAcceptedWithoutDOMCheck(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.results[benchmark.EntryRender] = []string{`{}`}
	r, _ := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 1)
	require.NoError(t, err)

	it := report.Raw[0]
	assert.True(t, it.RenderValidated)
	assert.Equal(t, 1, it.RenderAttempts)
	assert.Empty(t, it.Render)
	assert.Equal(t, 0, sess.rowCall)
}

func TestRun_NullRenderIsRetried(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.results[benchmark.EntryRender] = []string{"", `{"100": 20}`}
	r, _ := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 1)
	require.NoError(t, err)

	it := report.Raw[0]
	assert.Equal(t, 2, it.RenderAttempts)
	assert.True(t, it.RenderValidated)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.ValidationFailures.WithLabelValues("react", "render", "shape")))
}

func TestRun_InvalidBulkAndChurnBecomeNil(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.results[benchmark.EntryBulk] = []string{`{"rows": 10000}`}
	sess.results[benchmark.EntryChurn] = []string{`{"total_ms": -1}`}
	r, _ := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 1)
	require.NoError(t, err)

	it := report.Raw[0]
	assert.Nil(t, it.Bulk)
	assert.Nil(t, it.Churn)
	assert.Equal(t, 3, sess.calls[benchmark.EntryBulk])
	assert.Equal(t, 3, sess.calls[benchmark.EntryChurn])
	assert.Nil(t, report.Stats.Bulk)
	assert.Nil(t, report.Stats.Churn)
}

func TestRun_IterationCount(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	r, _ := newTestRunner(lc, sess)

	var cooldowns []time.Duration
	r.Sleep = func(ctx context.Context, d time.Duration) error {
		cooldowns = append(cooldowns, d)
		return nil
	}

	report, err := r.Run(context.Background(), reactTarget, 3)
	require.NoError(t, err)

	require.Len(t, report.Raw, 3)
	for i, it := range report.Raw {
		assert.Equal(t, i+1, it.Index)
	}
	assert.Equal(t, 3, report.Iterations)
	assert.Equal(t, 3, sess.reloads)
	assert.Equal(t, []float64{5, 5, 5}, report.Stats.Render[10].Runs)
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}, cooldowns)
}

func TestRun_ReloadFailureDoesNotAbort(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.reloadErr = errors.New("reload timed out")
	r, _ := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 2)
	require.NoError(t, err)
	assert.Len(t, report.Raw, 2)
}

func TestRun_BuildFailure(t *testing.T) {
	lc := &fakeLifecycle{buildErr: benchmark.ErrBuildFailure}
	sess := newFakeSession()
	r, store := newTestRunner(lc, sess)

	report, err := r.Run(context.Background(), reactTarget, 3)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, benchmark.ErrTargetUnavailable)
	assert.ErrorIs(t, err, benchmark.ErrBuildFailure)

	var te *benchmark.TargetError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StageBuild, te.Stage)

	assert.Equal(t, 0, lc.started)
	assert.Empty(t, sess.calls)
	assert.Empty(t, store.saved)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.TargetFailures.WithLabelValues("react", "build")))
}

func TestRun_ServerTimeoutStopsProcess(t *testing.T) {
	lc := &fakeLifecycle{readyErr: benchmark.ErrServerTimeout}
	sess := newFakeSession()
	r, _ := newTestRunner(lc, sess)

	_, err := r.Run(context.Background(), reactTarget, 1)
	assert.ErrorIs(t, err, benchmark.ErrServerTimeout)
	assert.ErrorIs(t, err, benchmark.ErrTargetUnavailable)
	assert.Equal(t, 1, lc.started)
	assert.Equal(t, 1, lc.stopped)
	assert.Empty(t, sess.calls)
}

func TestRun_NavigationFailure(t *testing.T) {
	lc := &fakeLifecycle{}
	r, _ := newTestRunner(lc, newFakeSession())
	r.Open = func(ctx context.Context, url string, timeout time.Duration) (Session, error) {
		assert.Equal(t, "http://localhost:4173", url)
		assert.Equal(t, 120*time.Second, timeout)
		return nil, benchmark.ErrNavigationFailure
	}

	_, err := r.Run(context.Background(), reactTarget, 1)
	assert.ErrorIs(t, err, benchmark.ErrNavigationFailure)
	assert.Equal(t, 1, lc.stopped)
}

func TestRun_APINotExposedClosesSession(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	sess.apiErr = benchmark.ErrAPINotExposed
	r, _ := newTestRunner(lc, sess)

	_, err := r.Run(context.Background(), reactTarget, 1)
	assert.ErrorIs(t, err, benchmark.ErrAPINotExposed)
	assert.True(t, sess.closed)
	assert.Equal(t, 1, lc.stopped)
	assert.Empty(t, sess.calls)
}

func TestRun_Cancelled(t *testing.T) {
	lc := &fakeLifecycle{}
	sess := newFakeSession()
	r, store := newTestRunner(lc, sess)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, reactTarget, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, benchmark.ErrTargetUnavailable)
	assert.Equal(t, 1, lc.stopped)
	assert.Empty(t, store.saved)
}
