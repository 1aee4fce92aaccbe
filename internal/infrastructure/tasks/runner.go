// Package tasks runs fire-and-forget background work with bounded concurrency.
package tasks

import (
	"sync"
	"time"

	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// Runner executes named background tasks. Failures are logged and dropped,
// never retried. Callers must not depend on a task having run.
type Runner struct {
	logger *logging.ChanneledLogger
	sem    chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a Runner with the configured in-flight limit.
func NewRunner(logger *logging.ChanneledLogger) *Runner {
	max := config.TaskMaxInFlight
	if max < 1 {
		max = 1
	}
	return &Runner{
		logger: logger,
		sem:    make(chan struct{}, max),
	}
}

// Submit schedules fn on its own goroutine. If the runner is saturated or
// shutting down the task is dropped with a log line.
func (r *Runner) Submit(name string, fn func() error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Tasks().Warn("Task dropped, runner is shutting down", "task", name)
		return
	}

	select {
	case r.sem <- struct{}{}:
	default:
		r.mu.Unlock()
		r.logger.Tasks().Warn("Task dropped, runner saturated", "task", name)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Tasks().Error("Task panicked", "task", name, "panic", rec)
			}
			<-r.sem
			r.wg.Done()
		}()

		start := time.Now()
		if err := fn(); err != nil {
			r.logger.Tasks().Warn("Task failed", "task", name, "error", err.Error(), "duration", time.Since(start).String())
			return
		}
		r.logger.Tasks().Debug("Task completed", "task", name, "duration", time.Since(start).String())
	}()
}

// Drain stops accepting new tasks and waits up to the configured timeout
// for in-flight work to finish.
func (r *Runner) Drain() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Tasks().Info("All background tasks drained")
	case <-time.After(config.TaskDrainTimeout):
		r.logger.Tasks().Warn("Drain timed out with tasks still in flight")
	}
}
