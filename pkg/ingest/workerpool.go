package ingest

import (
	"context"
	"sync"
)

// Job is a unit of work run by the WorkerPool. Its error is not collected;
// jobs report results through their own channels.
type Job func(ctx context.Context) error

// WorkerPool runs jobs on a fixed number of goroutines. The ingester uses it
// to keep several sentences in flight against the engine.
type WorkerPool struct {
	jobs      chan Job
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	workers   int
}

// NewWorkerPool creates a pool with the given number of workers and queue
// capacity.
func NewWorkerPool(workers, queue int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	return &WorkerPool{
		jobs:    make(chan Job, queue),
		quit:    make(chan struct{}),
		workers: workers,
	}
}

// Start launches the workers. They run until ctx is done, or until Close is
// called and the queue is drained.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-p.jobs:
					_ = job(ctx)
				case <-p.quit:
					p.drain(ctx)
					return
				}
			}
		}()
	}
}

func (p *WorkerPool) drain(ctx context.Context) {
	for {
		select {
		case job := <-p.jobs:
			if ctx.Err() != nil {
				return
			}
			_ = job(ctx)
		default:
			return
		}
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (p *WorkerPool) Submit(job Job) error {
	return p.SubmitCtx(context.Background(), job)
}

// SubmitCtx enqueues a job but gives up when ctx is done or the pool closes.
func (p *WorkerPool) SubmitCtx(ctx context.Context, job Job) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for the workers to finish the queue.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = &PoolError{"worker pool closed"}

// PoolError is the error type of pool operations.
type PoolError struct{ msg string }

func (e *PoolError) Error() string { return e.msg }
