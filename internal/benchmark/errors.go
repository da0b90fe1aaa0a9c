package benchmark

import (
	"errors"
	"fmt"
)

var (
	// ErrBuildFailure means the build command exited non-zero.
	ErrBuildFailure = errors.New("build failed")
	// ErrServerTimeout means the server port never accepted a connection.
	ErrServerTimeout = errors.New("server readiness timeout")
	// ErrNavigationFailure means the first page load did not settle in time.
	ErrNavigationFailure = errors.New("navigation failed")
	// ErrAPINotExposed means the page never exposed the benchmark entry points.
	ErrAPINotExposed = errors.New("benchmark api not exposed")
	// ErrValidationMismatch means the DOM disagrees with the reported result.
	ErrValidationMismatch = errors.New("validation mismatch")
	// ErrInvalidResultShape means a result lacks the expected numeric fields.
	ErrInvalidResultShape = errors.New("invalid result shape")
	// ErrTargetUnavailable wraps every error that abandons a target.
	ErrTargetUnavailable = errors.New("target unavailable")
)

// TargetError records the stage at which a target run was abandoned.
type TargetError struct {
	Target string
	Stage  string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Target, e.Stage, e.Err)
}

func (e *TargetError) Unwrap() []error {
	return []error{ErrTargetUnavailable, e.Err}
}

// NewTargetError builds a TargetError for the given stage.
func NewTargetError(target, stage string, err error) *TargetError {
	return &TargetError{Target: target, Stage: stage, Err: err}
}
