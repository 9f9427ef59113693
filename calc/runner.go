package calc

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Task is one unit of work. It must only write state it owns.
type Task func(ctx context.Context)

// Runner executes tasks on a bounded number of goroutines shared by all callers.
type Runner struct {
	size int
	sem  *semaphore.Weighted

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewRunner creates a runner executing at most size tasks at once; size < 1 means 1.
func NewRunner(size int) *Runner {
	if size < 1 {
		size = 1
	}
	return &Runner{size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Size is the maximum number of concurrently running tasks.
func (r *Runner) Size() int { return r.size }

// Run executes tasks and blocks until all of them have finished or ctx is done.
// On cancellation it returns ctx.Err() at once; tasks already started keep running
// and Close waits for them. Tasks not yet started are skipped.
func (r *Runner) Run(ctx context.Context, tasks []Task) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRunnerClosed
	}
	r.inflight.Add(len(tasks))
	r.mu.Unlock()

	var g errgroup.Group
	for _, task := range tasks {
		g.Go(func() error {
			defer r.inflight.Done()
			if err := r.sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)
			if err := ctx.Err(); err != nil {
				return err
			}
			task(ctx)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Closed reports whether Close has been called.
func (r *Runner) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close rejects further work and waits for in-flight tasks, including those
// abandoned by a cancelled Run. It is safe to call more than once.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.inflight.Wait()
}
