// Package queue implements the sequential dispatcher that turns detected
// URLs into processing tasks, strictly one at a time.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"LinkAnalyzer/internal/domain"
)

// Handler runs the full pipeline for one task. Errors are terminal for the
// task only; the queue records and moves on.
type Handler func(ctx context.Context, task domain.LinkTask) error

// Queue is a FIFO dispatcher with at most one task in flight. The queue
// itself never retries; retrying is internal to the orchestrator.
type Queue struct {
	handler Handler
	delay   time.Duration
	logger  *slog.Logger

	mu         sync.Mutex
	pending    []domain.LinkTask
	processing bool
	wg         sync.WaitGroup
}

// New builds a queue draining into the given handler, pausing delay
// between consecutive tasks.
func New(handler Handler, delay time.Duration, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{handler: handler, delay: delay, logger: logger}
}

// Enqueue appends a task and starts the drain loop if idle.
func (q *Queue) Enqueue(ctx context.Context, task domain.LinkTask) {
	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.wg.Add(1)
	start := !q.processing
	if start {
		q.processing = true
	}
	q.mu.Unlock()

	if start {
		go q.drain(ctx)
	}
}

// Len reports the number of tasks still waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Wait blocks until every enqueued task has finished. Intended for tests
// and shutdown.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		task := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.run(ctx, task)
		q.wg.Done()

		if q.delay > 0 {
			time.Sleep(q.delay)
		}
	}
}

// run executes the handler for one task, catching errors and panics at the
// task boundary so the drain loop can never die.
func (q *Queue) run(ctx context.Context, task domain.LinkTask) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", "url", task.URL, "panic", r)
		}
	}()

	if err := q.handler(ctx, task); err != nil {
		q.logger.Error("task failed", "url", task.URL, "platform", task.Platform, "error", err)
	}
}
