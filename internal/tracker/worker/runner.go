// Package worker runs detached background tasks with log-and-drop error
// handling. The ownership cache uses it for stale-while-revalidate
// refreshes; task failures never propagate into the request that spawned
// them.
package worker

import (
	"context"
	"log"
	"sync"
)

// Runner executes detached tasks. Tasks receive a background context, not
// the caller's: an abandoned user action must not cancel a refresh that
// could still warm a cache.
type Runner struct {
	logf func(format string, args ...any)
	wg   sync.WaitGroup
}

// New creates a Runner. A nil logf defaults to the standard logger.
func New(logf func(format string, args ...any)) *Runner {
	if logf == nil {
		logf = log.Printf
	}
	return &Runner{logf: logf}
}

// Go runs task on a new goroutine. Errors and panics are logged under name
// and dropped.
func (r *Runner) Go(name string, task func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.logf("background task %s panicked: %v", name, rec)
			}
		}()
		if err := task(context.Background()); err != nil {
			r.logf("background task %s: %v", name, err)
		}
	}()
}

// Wait blocks until every spawned task has finished. Used on shutdown and
// in tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
