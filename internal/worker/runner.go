// Package worker runs one background job at a time with cooperative
// cancellation. The collectors and the download pipeline execute on a runner
// so the caller can cancel them and wait for the goroutine to drain.
package worker

import (
	"context"
	"sync"
	"time"
)

// Runner executes at most one job at a time
type Runner struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRunner creates an idle runner
func NewRunner() *Runner {
	return &Runner{}
}

// Start launches fn on its own goroutine. It returns false without starting
// anything when a job is already in flight. fn must honor ctx cancellation.
func (r *Runner) Start(fn func(ctx context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.running = true

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.cancel = nil
			r.mu.Unlock()
			close(done)
		}()
		fn(ctx)
	}()

	return true
}

// Running reports whether a job is in flight
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop cancels the in-flight job and waits up to timeout for it to finish.
// It returns true when the job has drained (or none was running).
func (r *Runner) Stop(timeout time.Duration) bool {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return true
	}
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Wait blocks until the current job finishes. It returns immediately when
// nothing is running.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	running := r.running
	r.mu.Unlock()

	if running {
		<-done
	}
}
