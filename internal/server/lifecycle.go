// Package server builds, starts and stops the HTTP server of a benchmark target.
//
// Build and start commands are opaque argv lists executed in the target's
// directory with the console inherited. The server is considered ready once
// its port accepts a TCP connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"time"

	"uibench/internal/benchmark"
	"uibench/internal/polling"
)

// CommandFunc creates the command for an argv. Tests replace it.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// DialFunc probes an address. Tests replace it.
type DialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// Handle is a running server process.
type Handle interface {
	PID() int
	Done() <-chan struct{}
	Stop() error
}

// Lifecycle manages server processes. It is not safe for concurrent use on the
// same target; one process per target is expected.
type Lifecycle struct {
	Command      CommandFunc
	Dial         DialFunc
	PollInterval time.Duration
	StopGrace    time.Duration
	Stdout       io.Writer
	Stderr       io.Writer
	Logger       *slog.Logger
}

// NewLifecycle returns a Lifecycle wired to os/exec and the real network.
func NewLifecycle(logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		Command:      exec.CommandContext,
		Dial:         net.DialTimeout,
		PollInterval: polling.DefaultInterval,
		StopGrace:    5 * time.Second,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Logger:       logger,
	}
}

// Build runs the target's build command to completion.
func (l *Lifecycle) Build(ctx context.Context, t benchmark.Target) error {
	if len(t.Build) == 0 {
		l.Logger.Debug("no build command", "target", t.Name)
		return nil
	}

	l.Logger.Info("building", "target", t.Name, "cmd", t.Build)
	cmd := l.Command(ctx, t.Build[0], t.Build[1:]...)
	cmd.Dir = t.Dir
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v", benchmark.ErrBuildFailure, t.Name, err)
	}
	return nil
}

// Start spawns the target's server and returns without waiting for readiness.
// The process lives in its own process group so Stop reaches its children.
func (l *Lifecycle) Start(ctx context.Context, t benchmark.Target) (Handle, error) {
	if len(t.Start) == 0 {
		return nil, fmt.Errorf("target %s has no start command", t.Name)
	}

	// The server must outlive the ctx of the call that started it.
	cmd := l.Command(context.WithoutCancel(ctx), t.Start[0], t.Start[1:]...)
	cmd.Dir = t.Dir
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", t.Name, err)
	}

	p := newProcess(cmd, l.StopGrace)
	l.Logger.Info("server started", "target", t.Name, "pid", p.PID(), "port", t.Port)
	return p, nil
}

// AwaitReady probes the target's port until a connection succeeds.
func (l *Lifecycle) AwaitReady(ctx context.Context, t benchmark.Target, timeout time.Duration) error {
	addr := t.Addr()
	poller := polling.NewPoller(&polling.Config{Interval: l.PollInterval, Timeout: timeout})

	err := poller.Until(ctx, func(ctx context.Context) bool {
		conn, err := l.Dial("tcp", addr, time.Second)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	})
	switch {
	case err == nil:
		l.Logger.Info("server ready", "target", t.Name, "port", t.Port)
		return nil
	case errors.Is(err, polling.ErrTimeout):
		return fmt.Errorf("%w: %s on %s after %v", benchmark.ErrServerTimeout, t.Name, addr, timeout)
	default:
		return err
	}
}

// Stop terminates the server. Calling it on a dead or nil handle is a no-op.
func (l *Lifecycle) Stop(h Handle) error {
	if h == nil {
		return nil
	}
	return h.Stop()
}
