package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WorkerPool runs jobs on a bounded number of goroutines, starting at
// most one job per rate interval. The first job error is kept and the
// remaining queued jobs see a cancelled context.
type WorkerPool struct {
	semaphore chan struct{}
	limiter   *rate.Limiter
	wg        sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	errOnce sync.Once
	err     error
}

// NewWorkerPool creates a WorkerPool with the given concurrency and
// minimum interval between job starts. A zero interval disables limiting.
func NewWorkerPool(ctx context.Context, maxWorkers int, interval time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		limiter:   rate.NewLimiter(limit, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Submit enqueues a job for execution in the pool. It blocks while all
// workers are busy.
func (wp *WorkerPool) Submit(job func(ctx context.Context) error) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.limiter.Wait(wp.ctx); err != nil {
			wp.fail(err)
			return
		}
		if err := job(wp.ctx); err != nil {
			wp.fail(err)
		}
	}()
}

// Wait blocks until all submitted jobs have completed and returns the
// first job error, if any.
func (wp *WorkerPool) Wait() error {
	wp.wg.Wait()
	wp.cancel()
	return wp.err
}

func (wp *WorkerPool) fail(err error) {
	wp.errOnce.Do(func() {
		wp.err = err
		wp.cancel()
	})
}
