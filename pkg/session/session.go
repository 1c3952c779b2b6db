// Package session implements task-session impersonation: a client-visible
// handle binding a submitted task to the worker that accepted it and
// exposing a blocking wait for its result.
package session

import (
	"context"
	"time"

	"silotxn/pkg/worker"
)

// Session binds a submitted Task to the Worker that accepted it.
type Session struct {
	worker *worker.Worker
	task   *worker.Task
}

// TryImpersonate is the sole submission entry point: CAS task onto w's
// pending slot. On success it wakes w and returns a bound Session with
// ok=true. On failure — the slot was already non-nil — it returns ok=false
// and the caller must pick a different worker. A busy worker is surfaced as
// a plain boolean rather than an error, since it is an expected, routine
// outcome of racing submitters, not a failure.
func TryImpersonate(w *worker.Worker, task *worker.Task) (*Session, bool) {
	if !w.TryAcceptTask(task) {
		return nil, false
	}
	w.Wake()
	return &Session{worker: w, task: task}, true
}

// Worker returns the worker this session was bound to.
func (s *Session) Worker() *worker.Worker {
	return s.worker
}

// Wait blocks until the task completes or ctx is done, re-checking every
// tick — a client waiting on a result uses the same periodic-recheck idiom
// a worker uses waiting on work (see pkg/wakeup).
func (s *Session) Wait(ctx context.Context, tick time.Duration) (any, error) {
	return s.task.AwaitResult(ctx, tick)
}
