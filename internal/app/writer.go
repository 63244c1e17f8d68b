package app

import (
	"context"
	"log/slog"
	"sync"
)

const writeQueueSize = 256

type writeJob struct {
	name string
	fn   func(ctx context.Context) error
}

// asyncWriter runs persistence jobs on one goroutine so saves keep their
// order without blocking game transitions. Failures are logged only.
type asyncWriter struct {
	jobs   chan writeJob
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newAsyncWriter(logger *slog.Logger) *asyncWriter {
	w := &asyncWriter{
		jobs:   make(chan writeJob, writeQueueSize),
		logger: logger,
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer w.wg.Done()
	ctx := context.Background()
	for job := range w.jobs {
		if err := job.fn(ctx); err != nil {
			w.logger.Error("persist failed", "job", job.name, "error", err)
		}
	}
}

// enqueue schedules fn. Jobs arriving after close are dropped and logged.
func (w *asyncWriter) enqueue(name string, fn func(ctx context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.logger.Warn("persist skipped, writer closed", "job", name)
		return
	}
	w.jobs <- writeJob{name: name, fn: fn}
}

// close drains pending jobs and stops the worker. It is safe to call twice.
func (w *asyncWriter) close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
