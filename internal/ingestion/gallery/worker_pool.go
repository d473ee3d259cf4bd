package gallery

import (
	"context"
	"log/slog"
	"sync"
)

// Task represents a unit of work to be processed by the worker pool
type Task func(ctx context.Context) error

// WorkerPool runs tasks on a fixed number of goroutines. The first task
// error cancels the pool and is returned from Wait.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger

	closed   bool
	closeMux sync.Mutex

	errOnce sync.Once
	err     error
}

// NewWorkerPool creates a pool bound to ctx. Cancelling ctx stops the workers.
func NewWorkerPool(ctx context.Context, workerCount int, logger *slog.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         poolCtx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.logger.Debug("worker pool started", "workers", wp.workerCount)
}

// Submit queues a task. It returns false once the pool is cancelled.
func (wp *WorkerPool) Submit(task Task) bool {
	if wp.ctx.Err() != nil {
		return false
	}
	select {
	case wp.taskQueue <- task:
		return true
	case <-wp.ctx.Done():
		return false
	}
}

// Wait closes the queue, blocks until every worker exits and returns the
// first task error or the cancellation cause.
func (wp *WorkerPool) Wait() error {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()
	defer wp.cancel()

	if wp.err != nil {
		return wp.err
	}
	return wp.ctx.Err()
}

func (wp *WorkerPool) fail(err error) {
	wp.errOnce.Do(func() {
		wp.err = err
		wp.cancel()
	})
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		select {
		case <-wp.ctx.Done():
			// drain so Submit never blocks on a full queue
			continue
		default:
		}

		if err := task(wp.ctx); err != nil {
			wp.logger.Debug("task failed", "worker", id, "error", err)
			wp.fail(err)
		}
	}
}
