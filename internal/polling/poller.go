package polling

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the condition never held within the timeout.
var ErrTimeout = errors.New("polling timed out")

// Condition reports whether the awaited state has been reached.
type Condition func(ctx context.Context) bool

// Poller checks a condition at a fixed interval.
type Poller struct {
	config *Config
}

// NewPoller creates a new poller instance
func NewPoller(cfg *Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{config: cfg}
}

// Until checks cond immediately and then on every tick. It returns nil once
// cond holds, ErrTimeout after the configured timeout, or the context error
// if ctx ends first. A zero timeout waits for ctx alone.
func (p *Poller) Until(ctx context.Context, cond Condition) error {
	var deadline <-chan time.Time
	if p.config.Timeout > 0 {
		timer := time.NewTimer(p.config.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		if cond(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return ErrTimeout
		case <-ticker.C:
		}
	}
}
