// Package browser drives a benchmark page in headless Chrome.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"uibench/internal/benchmark"
	"uibench/internal/polling"
)

// Options configures the browser process.
type Options struct {
	Headless     bool
	NoSandbox    bool
	ExecPath     string
	PollInterval time.Duration
	// APITimeout bounds the readiness check that follows every reload.
	APITimeout time.Duration
	// NavTimeout bounds every reload.
	NavTimeout time.Duration
}

// Launcher opens sessions with a fixed set of options.
type Launcher struct {
	opts   Options
	logger *slog.Logger
}

// NewLauncher returns a Launcher.
func NewLauncher(opts Options, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	return &Launcher{opts: opts, logger: logger}
}

// Session is one browser tab on a benchmark page. Every page operation holds
// the session semaphore, so calls from different goroutines never overlap.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *slog.Logger
	sem    *semaphore.Weighted
	idle   chan struct{}
}

// Open starts a browser, navigates to url and waits for the network to go idle.
func (l *Launcher) Open(ctx context.Context, url string, timeout time.Duration) (*Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", l.opts.Headless))
	if l.opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox, chromedp.Flag("disable-setuid-sandbox", true))
	}
	if l.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.opts.ExecPath))
	}

	// The browser lives until Close, not until the caller's ctx ends.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		opts:   l.opts,
		logger: l.logger,
		sem:    semaphore.NewWeighted(1),
		idle:   make(chan struct{}, 1),
	}

	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case s.idle <- struct{}{}:
			default:
			}
		}
	})

	// Starts the browser.
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetCacheDisabled(true),
		page.Enable(),
		page.SetLifecycleEventsEnabled(true),
	); err != nil {
		s.cancel()
		return nil, fmt.Errorf("%w: failed to launch browser: %v", benchmark.ErrNavigationFailure, err)
	}

	if err := s.navigate(ctx, chromedp.Navigate(url), timeout); err != nil {
		s.cancel()
		return nil, fmt.Errorf("%w: %s: %v", benchmark.ErrNavigationFailure, url, err)
	}

	s.logger.Info("page loaded", "url", url)
	return s, nil
}

// AwaitAPIReady polls the page until all benchmark entry points exist.
func (s *Session) AwaitAPIReady(ctx context.Context, timeout time.Duration) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	return s.awaitAPI(ctx, timeout)
}

// Reload forces a full reload and waits until the API is exposed again.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	if err := s.navigate(ctx, chromedp.Reload(), s.opts.NavTimeout); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return s.awaitAPI(ctx, s.opts.APITimeout)
}

// Invoke calls an entry point and returns its JSON result; nil stands for an
// absent entry point, a failed call or an undefined result.
func (s *Session) Invoke(ctx context.Context, entry benchmark.EntryPoint, args any) json.RawMessage {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer s.sem.Release(1)

	expr, err := invokeExpr(entry, args)
	if err != nil {
		s.logger.Warn("invoke failed", "entry", entry, "error", err)
		return nil
	}

	actx, cancel := s.actionContext(ctx, 0)
	defer cancel()

	var res []byte
	if err := chromedp.Run(actx, chromedp.Evaluate(expr, &res, awaitPromise)); err != nil {
		s.logger.Warn("invoke failed", "entry", entry, "error", err)
		return nil
	}
	return json.RawMessage(res)
}

// DOMRowCount returns the number of tr elements under selector.
func (s *Session) DOMRowCount(ctx context.Context, selector string) (int, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer s.sem.Release(1)

	actx, cancel := s.actionContext(ctx, 0)
	defer cancel()

	var n int
	if err := chromedp.Run(actx, chromedp.Evaluate(rowCountExpr(selector), &n)); err != nil {
		return 0, fmt.Errorf("count rows of %q: %w", selector, err)
	}
	return n, nil
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() error {
	s.cancel()
	return nil
}

func (s *Session) awaitAPI(ctx context.Context, timeout time.Duration) error {
	expr := apiReadyExpr(benchmark.EntryPoints)
	poller := polling.NewPoller(&polling.Config{Interval: s.opts.PollInterval, Timeout: timeout})

	err := poller.Until(ctx, func(ctx context.Context) bool {
		actx, cancel := s.actionContext(ctx, time.Second)
		defer cancel()

		var ready bool
		if err := chromedp.Run(actx, chromedp.Evaluate(expr, &ready)); err != nil {
			return false
		}
		return ready
	})
	if err != nil {
		return fmt.Errorf("%w: %v", benchmark.ErrAPINotExposed, err)
	}
	return nil
}

// navigate runs a page load action and waits for the next networkIdle event.
func (s *Session) navigate(ctx context.Context, action chromedp.Action, timeout time.Duration) error {
	// Drop an idle signal left over from the previous load.
	select {
	case <-s.idle:
	default:
	}

	actx, cancel := s.actionContext(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(actx, action); err != nil {
		return err
	}
	select {
	case <-s.idle:
		return nil
	case <-actx.Done():
		return actx.Err()
	}
}

// actionContext derives a context from the tab that also ends with ctx.
// Cancelling it aborts the action without closing the tab.
func (s *Session) actionContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var actx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		actx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		actx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return actx, func() {
		stop()
		cancel()
	}
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
