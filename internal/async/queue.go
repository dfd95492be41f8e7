package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler processes one job. Errors are logged by the queue.
type Handler[T any] func(ctx context.Context, job T) error

// Queue is a bounded, best-effort worker pool. Enqueue never blocks the caller:
// when the buffer is full or the queue is shutting down the job is dropped.
type Queue[T any] struct {
	handle Handler[T]
	logger *slog.Logger
	name   string

	workers int
	timeout time.Duration

	ch   chan T
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type settings struct {
	workers   int
	queueSize int
	timeout   time.Duration
}

type Option func(*settings)

func WithWorkers(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewQueue[T any](name string, handle Handler[T], logger *slog.Logger, opts ...Option) *Queue[T] {
	if logger == nil {
		logger = slog.Default()
	}
	s := settings{workers: 1, queueSize: 256, timeout: 30 * time.Second}
	for _, o := range opts {
		o(&s)
	}
	q := &Queue[T]{
		handle:  handle,
		logger:  logger,
		name:    name,
		workers: s.workers,
		timeout: s.timeout,
		ch:      make(chan T, s.queueSize),
	}
	q.start()
	return q
}

func (q *Queue[T]) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("async.worker.started", "queue", q.name, "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("async.worker.stopped", "queue", q.name, "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue[T]) run(workerID int, job T) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("async.job.panic", "queue", q.name, "worker_id", workerID, "panic", r)
		}
	}()
	if err := q.handle(ctx, job); err != nil {
		q.logger.Warn("async.job.failed", "queue", q.name, "worker_id", workerID, "error", err)
	}
}

// Enqueue reports whether the job was accepted.
func (q *Queue[T]) Enqueue(job T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.closed", "queue", q.name)
		return false
	}
	select {
	case q.ch <- job:
		return true
	default:
		q.logger.Warn("async.enqueue.full", "queue", q.name, "capacity", cap(q.ch))
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to end.
func (q *Queue[T]) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted", "queue", q.name)
	case <-done:
		q.logger.Info("async.shutdown.drained", "queue", q.name)
	}
}
