// Package runner executes the benchmark tests against one target at a time.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"uibench/internal/benchmark"
	"uibench/internal/browser"
	"uibench/internal/metrics"
	"uibench/internal/server"
)

// Stages at which a target can be abandoned.
const (
	StageBuild    = "build"
	StageStart    = "start"
	StageReady    = "ready"
	StageNavigate = "navigate"
	StageAPI      = "api"
	StageIterate  = "iterate"
)

// ServerLifecycle builds, starts and stops a target's server.
type ServerLifecycle interface {
	Build(ctx context.Context, t benchmark.Target) error
	Start(ctx context.Context, t benchmark.Target) (server.Handle, error)
	AwaitReady(ctx context.Context, t benchmark.Target, timeout time.Duration) error
	Stop(h server.Handle) error
}

// Session is a loaded benchmark page.
type Session interface {
	benchmark.Invoker
	AwaitAPIReady(ctx context.Context, timeout time.Duration) error
	Reload(ctx context.Context) error
	DOMRowCount(ctx context.Context, selector string) (int, error)
	Close() error
}

// OpenFunc opens a page session on url.
type OpenFunc func(ctx context.Context, url string, timeout time.Duration) (Session, error)

// BrowserOpener adapts a browser.Launcher to OpenFunc.
func BrowserOpener(l *browser.Launcher) OpenFunc {
	return func(ctx context.Context, url string, timeout time.Duration) (Session, error) {
		s, err := l.Open(ctx, url, timeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Options tunes a run.
type Options struct {
	ServerReadyTimeout time.Duration
	NavigationTimeout  time.Duration
	APIReadyTimeout    time.Duration
	Retry              RetryPolicy
	Cooldown           time.Duration
	RenderSelector     string
	Bulk               benchmark.BulkParams
	Churn              benchmark.ChurnParams
}

// DefaultOptions returns the stock timeouts and workload sizes.
func DefaultOptions() Options {
	return Options{
		ServerReadyTimeout: 180 * time.Second,
		NavigationTimeout:  120 * time.Second,
		APIReadyTimeout:    60 * time.Second,
		Retry:              RetryPolicy{MaxAttempts: 3, Pause: 500 * time.Millisecond},
		Cooldown:           300 * time.Millisecond,
		RenderSelector:     "table tbody",
		Bulk:               benchmark.BulkParams{RowsCount: 10000, UpdatesCount: 1000},
		Churn:              benchmark.ChurnParams{Components: 1000, Cycles: 100},
	}
}

// Runner benchmarks targets. A Runner runs one target at a time; targets
// share ports and must not overlap.
type Runner struct {
	Lifecycle ServerLifecycle
	Open      OpenFunc
	// Store receives each completed report; nil skips persistence.
	Store   benchmark.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Options Options
	Now     func() time.Time
	Sleep   SleepFunc
}

// New returns a Runner with the real clock.
func New(lc ServerLifecycle, open OpenFunc, store benchmark.Store, m *metrics.Metrics, logger *slog.Logger, opts Options) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Runner{
		Lifecycle: lc,
		Open:      open,
		Store:     store,
		Metrics:   m,
		Logger:    logger,
		Options:   opts,
		Now:       time.Now,
		Sleep:     sleepContext,
	}
}

// Run benchmarks t for the given number of iterations. Any error abandons the
// target and wraps benchmark.ErrTargetUnavailable; the server is stopped on
// every path once started.
func (r *Runner) Run(ctx context.Context, t benchmark.Target, iterations int) (*benchmark.TargetReport, error) {
	log := r.Logger.With("target", t.Name)
	opts := r.Options

	log.Info("building target")
	if err := r.Lifecycle.Build(ctx, t); err != nil {
		return nil, r.fail(log, t, StageBuild, err)
	}

	h, err := r.Lifecycle.Start(ctx, t)
	if err != nil {
		return nil, r.fail(log, t, StageStart, err)
	}
	defer func() {
		if err := r.Lifecycle.Stop(h); err != nil {
			log.Warn("failed to stop server", "error", err)
		}
	}()

	if err := r.Lifecycle.AwaitReady(ctx, t, opts.ServerReadyTimeout); err != nil {
		return nil, r.fail(log, t, StageReady, err)
	}

	sess, err := r.Open(ctx, t.URL(), opts.NavigationTimeout)
	if err != nil {
		return nil, r.fail(log, t, StageNavigate, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("failed to close browser", "error", err)
		}
	}()

	if err := sess.AwaitAPIReady(ctx, opts.APIReadyTimeout); err != nil {
		return nil, r.fail(log, t, StageAPI, err)
	}

	raw := make([]benchmark.IterationResult, 0, iterations)
	for i := 1; i <= iterations; i++ {
		res := r.iterate(ctx, log.With("iteration", i), sess, t, i)
		if err := ctx.Err(); err != nil {
			return nil, r.fail(log, t, StageIterate, err)
		}
		raw = append(raw, res)
		r.Metrics.RecordIteration(t.Name)

		if err := r.sleep(ctx, opts.Cooldown); err != nil {
			return nil, r.fail(log, t, StageIterate, err)
		}
	}

	report := benchmark.NewReport(t.Name, iterations, raw, r.now())
	if r.Store != nil {
		if err := r.Store.SaveTarget(*report); err != nil {
			log.Error("failed to save target results", "error", err)
		}
	}
	log.Info("target complete", "iterations", iterations)
	return report, nil
}

// iterate reloads the page and runs the three tests once.
func (r *Runner) iterate(ctx context.Context, log *slog.Logger, sess Session, t benchmark.Target, index int) benchmark.IterationResult {
	opts := r.Options

	if err := sess.Reload(ctx); err != nil {
		log.Warn("reload failed, continuing on current page", "error", err)
	}

	api := benchmark.NewPageAPI(&recordingInvoker{inv: sess, target: t.Name, m: r.Metrics})

	renderPolicy := opts.Retry
	renderPolicy.AcceptOnExhaustion = true
	render := Retry(ctx, renderPolicy, r.Sleep, func(ctx context.Context, n int) (benchmark.RenderSamples, error) {
		sweep, err := api.Render(ctx)
		if err == nil {
			err = r.validateRows(ctx, sess, sweep)
		}
		r.attemptResult(log, t, "render", n, err)
		return sweep.Samples, err
	})
	if !render.Valid {
		log.Warn("render never validated, keeping last result", "attempts", render.Attempts, "error", render.Err)
	}

	bulkPolicy := opts.Retry
	bulkPolicy.AcceptOnExhaustion = false
	bulk := Retry(ctx, bulkPolicy, r.Sleep, func(ctx context.Context, n int) (*benchmark.BulkResult, error) {
		res, err := api.Bulk(ctx, opts.Bulk)
		r.attemptResult(log, t, "bulk", n, err)
		return res, err
	})
	if !bulk.Valid {
		log.Warn("bulk result discarded", "attempts", bulk.Attempts, "error", bulk.Err)
	}

	churn := Retry(ctx, bulkPolicy, r.Sleep, func(ctx context.Context, n int) (*benchmark.ChurnResult, error) {
		res, err := api.Churn(ctx, opts.Churn)
		r.attemptResult(log, t, "churn", n, err)
		return res, err
	})
	if !churn.Valid {
		log.Warn("churn result discarded", "attempts", churn.Attempts, "error", churn.Err)
	}

	return benchmark.IterationResult{
		Index:           index,
		Render:          render.Value,
		RenderAttempts:  render.Attempts,
		RenderValidated: render.Valid,
		Bulk:            bulk.Value,
		Churn:           churn.Value,
	}
}

// validateRows checks the DOM holds as many rows as the largest requested
// size, whether or not its timing was usable. An empty sweep has nothing to
// check.
func (r *Runner) validateRows(ctx context.Context, sess Session, sweep benchmark.RenderSweep) error {
	want, ok := sweep.Largest()
	if !ok {
		return nil
	}

	got, err := sess.DOMRowCount(ctx, r.Options.RenderSelector)
	if err != nil {
		return fmt.Errorf("%w: %v", benchmark.ErrValidationMismatch, err)
	}
	if got != want {
		return fmt.Errorf("%w: found %d rows, expected %d", benchmark.ErrValidationMismatch, got, want)
	}
	return nil
}

func (r *Runner) attemptResult(log *slog.Logger, t benchmark.Target, test string, n int, err error) {
	if err == nil {
		log.Debug("attempt accepted", "test", test, "attempt", n)
		return
	}
	r.Metrics.RecordValidationFailure(t.Name, test, failureReason(err))
	log.Warn("attempt rejected", "test", test, "attempt", n, "error", err)
}

func (r *Runner) fail(log *slog.Logger, t benchmark.Target, stage string, err error) error {
	r.Metrics.RecordTargetFailure(t.Name, stage)
	log.Error("target abandoned", "stage", stage, "error", err)
	return benchmark.NewTargetError(t.Name, stage, err)
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep == nil {
		return sleepContext(ctx, d)
	}
	return r.Sleep(ctx, d)
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, benchmark.ErrValidationMismatch):
		return "mismatch"
	case errors.Is(err, benchmark.ErrInvalidResultShape):
		return "shape"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// recordingInvoker times every in-page call.
type recordingInvoker struct {
	inv    benchmark.Invoker
	target string
	m      *metrics.Metrics
}

var testNames = map[benchmark.EntryPoint]string{
	benchmark.EntryRender: "render",
	benchmark.EntryBulk:   "bulk",
	benchmark.EntryChurn:  "churn",
}

func (i *recordingInvoker) Invoke(ctx context.Context, entry benchmark.EntryPoint, args any) json.RawMessage {
	start := time.Now()
	res := i.inv.Invoke(ctx, entry, args)
	i.m.RecordAttempt(i.target, testNames[entry], time.Since(start))
	return res
}
