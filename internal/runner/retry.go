package runner

import (
	"context"
	"time"
)

// SleepFunc pauses for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy bounds how often a test is attempted.
type RetryPolicy struct {
	MaxAttempts int
	Pause       time.Duration
	// AcceptOnExhaustion keeps the last value when no attempt validated.
	AcceptOnExhaustion bool
}

// Outcome is the result of a retried test.
type Outcome[T any] struct {
	Value    T
	Attempts int
	Valid    bool
	// Err is the last validation error, or the context error when the
	// retries were interrupted.
	Err error
}

// Attempt runs attempt n (1-based). A non-nil error rejects the value.
type Attempt[T any] func(ctx context.Context, n int) (T, error)

// Retry runs attempt until it validates or the policy is exhausted, pausing
// between attempts.
func Retry[T any](ctx context.Context, p RetryPolicy, sleep SleepFunc, attempt Attempt[T]) Outcome[T] {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = sleepContext
	}

	var out Outcome[T]
	var last T
	for n := 1; n <= p.MaxAttempts; n++ {
		v, err := attempt(ctx, n)
		out.Attempts = n
		if err == nil {
			out.Value = v
			out.Valid = true
			out.Err = nil
			return out
		}
		last = v
		out.Err = err

		if n < p.MaxAttempts {
			if serr := sleep(ctx, p.Pause); serr != nil {
				out.Err = serr
				break
			}
		}
	}

	if p.AcceptOnExhaustion {
		out.Value = last
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
