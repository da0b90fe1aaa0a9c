package runner

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task is a unit of work run by a pool worker.
type Task func(ctx context.Context, workerID int) error

// WorkerPool runs submitted tasks on a fixed number of goroutines. With one
// worker, tasks run strictly in submission order.
type WorkerPool struct {
	NumWorkers int

	queue   chan Task
	logger  *slog.Logger
	workers sync.WaitGroup
	pending sync.WaitGroup
	active  atomic.Int64
	failed  atomic.Int64
}

// NewWorkerPool creates a pool; numWorkers below one means one.
func NewWorkerPool(numWorkers int, logger *slog.Logger) *WorkerPool {
	numWorkers = max(numWorkers, 1)
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		NumWorkers: numWorkers,
		// Submit blocks only once this many tasks are queued.
		queue:  make(chan Task, max(numWorkers*10, 100)),
		logger: logger,
	}
}

// Start launches the workers. Every task receives ctx.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Debug("starting worker pool", "workers", p.NumWorkers)
	for id := range p.NumWorkers {
		p.workers.Go(func() { p.work(ctx, id) })
	}
}

func (p *WorkerPool) work(ctx context.Context, id int) {
	for task := range p.queue {
		p.active.Add(1)
		if err := task(ctx, id); err != nil {
			p.failed.Add(1)
			p.logger.Debug("task failed", "worker", id, "error", err)
		}
		p.active.Add(-1)
		p.pending.Done()
	}
}

// Submit queues a task.
func (p *WorkerPool) Submit(t Task) {
	p.pending.Add(1)
	p.queue <- t
}

// Wait blocks until every submitted task has finished.
func (p *WorkerPool) Wait() {
	p.pending.Wait()
}

// Stop closes the queue and waits for the workers to exit.
func (p *WorkerPool) Stop() {
	close(p.queue)
	p.workers.Wait()
}

// ActiveCount returns the number of tasks currently running.
func (p *WorkerPool) ActiveCount() int {
	return int(p.active.Load())
}

// FailedCount returns the number of tasks that returned an error.
func (p *WorkerPool) FailedCount() int {
	return int(p.failed.Load())
}
