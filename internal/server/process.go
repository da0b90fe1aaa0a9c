package server

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"uibench/internal/polling"
)

const stopPollInterval = 20 * time.Millisecond

// process is a Handle over an exec.Cmd that has been started in its own
// process group.
type process struct {
	cmd   *exec.Cmd
	grace time.Duration
	done  chan struct{}

	once sync.Once
	err  error
}

func newProcess(cmd *exec.Cmd, grace time.Duration) *process {
	p := &process{cmd: cmd, grace: grace, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p
}

func (p *process) PID() int {
	return p.cmd.Process.Pid
}

// Done is closed once the leader has been reaped. Children may outlive it.
func (p *process) Done() <-chan struct{} {
	return p.done
}

// Stop sends SIGTERM to the whole process group, even when the leader has
// already exited, and SIGKILL if any member survives the grace period. Only
// the first call signals; later calls return its result.
func (p *process) Stop() error {
	p.once.Do(func() {
		if err := terminate(p.cmd); err != nil {
			p.err = err
			return
		}
		if p.awaitGroupExit() {
			return
		}

		if err := kill(p.cmd); err != nil {
			p.err = err
			return
		}
		// Members still listed after SIGKILL are zombies waiting for init.
		p.awaitGroupExit()
	})
	return p.err
}

func (p *process) awaitGroupExit() bool {
	poller := polling.NewPoller(&polling.Config{Interval: stopPollInterval, Timeout: p.grace})
	err := poller.Until(context.Background(), func(context.Context) bool {
		return !groupAlive(p)
	})
	if err != nil {
		return false
	}
	<-p.done
	return true
}
