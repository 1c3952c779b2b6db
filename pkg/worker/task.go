package worker

import (
	"context"
	"time"

	"silotxn/pkg/wakeup"
)

// Task is a client-submitted unit of work bound to whichever worker accepts
// it. Fn runs with the accepting worker as its execution context, giving it
// access to the worker's private OCC transaction workspace.
type Task struct {
	Fn func(*Worker) (any, error)

	// RetryBudget bounds how many times the executing worker re-runs Fn
	// after a dberr.CategoryTransientAbort before giving up and surfacing
	// the error to the client. Zero means unlimited retries; this is a
	// policy knob left to the caller, not a protocol requirement.
	RetryBudget int

	done   *wakeup.Signal
	result any
	err    error
}

// NewTask wraps fn as a submittable Task with an unlimited retry budget.
func NewTask(fn func(*Worker) (any, error)) *Task {
	return &Task{Fn: fn, done: wakeup.New()}
}

// complete records fn's outcome and wakes anyone waiting on it. Called
// exactly once, by the worker that executed the task.
func (t *Task) complete(result any, err error) {
	t.result, t.err = result, err
	t.done.Wake()
}

// AwaitResult blocks until the task completes or ctx is done, re-checking
// ctx every tick — the same periodic-recheck idiom a worker uses waiting on
// work, reused here for a client waiting on a result.
func (t *Task) AwaitResult(ctx context.Context, tick time.Duration) (any, error) {
	for {
		switch t.done.Wait(ctx, tick) {
		case wakeup.Woken:
			return t.result, t.err
		case wakeup.Canceled:
			return nil, ctx.Err()
		case wakeup.TimedOut:
			continue
		}
	}
}
