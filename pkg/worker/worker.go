// Package worker implements the pinned per-core task executor: a
// single-slot atomic task handoff, a wait/wake loop, and a private OCC
// transaction workspace reused across tasks.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"silotxn/pkg/dberr"
	"silotxn/pkg/logging"
	"silotxn/pkg/numa"
	"silotxn/pkg/occ"
	"silotxn/pkg/wakeup"
)

// Worker is a pinned task executor. ID is its small-integer slot in the
// engine's worker table — an arena-plus-index-handle design chosen over a
// back-pointer to the owning engine to avoid cyclic ownership — and doubles
// as the thread id stamped into every TID this worker commits.
type Worker struct {
	ID  uint16
	cpu int
	pin bool

	pending atomic.Pointer[Task]
	wake    *wakeup.Signal
	stopped atomic.Bool

	// Txn is this worker's private, reused commit-protocol workspace.
	Txn *occ.Transaction
}

// New creates a Worker bound to logical CPU cpu, with the given OCC
// workspace. txn is typically built via occ.New(clock, id, sink) by the
// caller, which owns the clock and sink lifecycles. pin controls whether
// Run actually calls numa.Pin; engine.Config.PinToNUMA=false threads through
// to here for tests running where SchedSetaffinity is unavailable.
func New(id uint16, cpu int, txn *occ.Transaction, pin bool) *Worker {
	return &Worker{
		ID:  id,
		cpu: cpu,
		pin: pin,
		Txn: txn,

		wake: wakeup.New(),
	}
}

// TryAcceptTask attempts the CAS that binds task to this worker's pending
// slot. Only one caller can win a transition from nil to non-nil; everyone
// else observes a non-nil slot and must pick a different worker. This is the
// mechanism session.TryImpersonate drives.
func (w *Worker) TryAcceptTask(task *Task) bool {
	return w.pending.CompareAndSwap(nil, task)
}

// Wake signals the worker's wait/wake primitive. Called by a submitter
// immediately after winning TryAcceptTask.
func (w *Worker) Wake() {
	w.wake.Wake()
}

// Stop requests that the worker loop exit after finishing any task it is
// currently draining. It does not cancel an in-flight task — tasks are
// never cancellable mid-flight.
func (w *Worker) Stop() {
	w.stopped.Store(true)
	w.wake.Wake()
}

// Run executes the worker loop until ctx is canceled or Stop is called.
// initBarrier is closed by the engine once the transaction manager (epoch
// clock, worker table) has finished initializing; the worker blocks on it
// before entering its wait/wake loop. A channel receive stands in for a
// literal spin-wait here, since nothing in this loop needs to observe
// partial initialization.
func (w *Worker) Run(ctx context.Context, initBarrier <-chan struct{}, wakeupTick time.Duration) error {
	if w.pin {
		if err := numa.Pin(w.cpu); err != nil {
			return dberr.Wrap(err, "worker.pin_failed", "Run", "worker")
		}
	}

	select {
	case <-initBarrier:
	case <-ctx.Done():
		return ctx.Err()
	}

	log := logging.WithWorker(int(w.ID))
	log.Debug("worker loop started", "cpu", w.cpu)

	for {
		if w.stopped.Load() {
			log.Debug("worker loop stopping")
			return nil
		}

		switch w.wake.Wait(ctx, wakeupTick) {
		case wakeup.Canceled:
			return ctx.Err()
		case wakeup.TimedOut:
			continue
		case wakeup.Woken:
		}

		w.drain(log)
	}
}

// drain repeatedly claims and executes the pending task until the slot reads
// nil, so a task queued the instant this one finishes is picked up without
// waiting for another wake.
func (w *Worker) drain(log *slog.Logger) {
	for {
		task := w.pending.Swap(nil)
		if task == nil {
			return
		}
		w.execute(task, log)
	}
}

// execute runs task.Fn, re-running it on a transient abort until it either
// succeeds, fails with a non-transient error, or exhausts task.RetryBudget.
// A transaction's read set is only meaningful for the reads that produced
// it, so "retry" here means re-running the caller's task body from scratch,
// not replaying the failed commit attempt.
func (w *Worker) execute(task *Task, log *slog.Logger) {
	attempts := 0
	for {
		result, err := task.Fn(w)
		if err != nil && dberr.IsCategory(err, dberr.CategoryTransientAbort) {
			if task.RetryBudget == 0 || attempts < task.RetryBudget {
				attempts++
				log.Debug("retrying after transient abort", "attempt", attempts)
				continue
			}
		}
		if err != nil {
			log.Debug("task execution failed", "error", err)
		}
		task.complete(result, err)
		return
	}
}
