// internal/app/system/workers/queue.go
package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of best-effort background work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue runs submitted tasks on a fixed pool of goroutines fed by a bounded
// buffer. Submit never blocks: when the buffer is full the task is dropped
// and logged. Task errors are logged and never retried.
type Queue struct {
	log     *zap.Logger
	tasks   chan Task
	workers int
	timeout time.Duration

	stopCh  chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup
	once    sync.Once
}

// NewQueue creates a queue.
//
// Parameters:
//   - logger: zap logger for logging
//   - size: buffered capacity; submissions beyond it are dropped
//   - workers: number of goroutines draining the buffer
//   - timeout: per-task context timeout
func NewQueue(logger *zap.Logger, size, workers int, timeout time.Duration) *Queue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Queue{
		log:     logger,
		tasks:   make(chan Task, size),
		workers: workers,
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.log.Info("background queue started",
		zap.Int("workers", q.workers),
		zap.Int("capacity", cap(q.tasks)))
}

// Submit enqueues t without blocking. It reports false when the queue is
// full or already stopped.
func (q *Queue) Submit(t Task) bool {
	if q.stopped.Load() {
		q.log.Warn("background task dropped (queue stopped)", zap.String("task", t.Name))
		return false
	}
	select {
	case q.tasks <- t:
		return true
	default:
		q.log.Warn("background task dropped (queue full)", zap.String("task", t.Name))
		return false
	}
}

// Stop signals the workers to finish what is already buffered and waits
// for them to exit. Safe to call more than once.
func (q *Queue) Stop() {
	q.once.Do(func() {
		q.stopped.Store(true)
		close(q.stopCh)
		q.wg.Wait()
		q.log.Info("background queue stopped")
	})
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		select {
		case t := <-q.tasks:
			q.exec(t)
		case <-q.stopCh:
			q.drain()
			return
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case t := <-q.tasks:
			q.exec(t)
		default:
			return
		}
	}
}

func (q *Queue) exec(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			q.log.Error("background task panicked", zap.String("task", t.Name), zap.Any("panic", r))
		}
	}()

	if err := t.Run(ctx); err != nil {
		q.log.Warn("background task failed", zap.String("task", t.Name), zap.Error(err))
	}
}
