// Package engine owns the module's global mutable state — the epoch clock
// and the worker table — and their start/shutdown lifecycles. These two are
// deliberately the only process-wide mutable state in the module; everything
// else lives inside a per-worker transaction workspace or a per-record
// owner word.
package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"silotxn/pkg/dberr"
	"silotxn/pkg/epoch"
	"silotxn/pkg/logging"
	"silotxn/pkg/logsink"
	"silotxn/pkg/numa"
	"silotxn/pkg/occ"
	"silotxn/pkg/worker"
)

// Engine is the top-level object owning the process-wide epoch clock and
// the small-integer-addressed worker table.
type Engine struct {
	cfg    Config
	clock  *epoch.Clock
	sink   logsink.Sink
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	// Workers is the engine-scoped worker arena, indexed by WorkerID — an
	// arena-plus-index-handle design chosen over a worker↔engine
	// back-pointer to avoid cyclic ownership.
	Workers []*worker.Worker
}

// New builds an Engine from cfg and sink, without starting anything. sink
// may be nil, defaulting to logsink.Discard.
func New(cfg Config, sink logsink.Sink) *Engine {
	if sink == nil {
		sink = logsink.Discard{}
	}
	return &Engine{
		cfg:   cfg.withDefaults(),
		clock: epoch.NewClock(),
		sink:  sink,
	}
}

// Clock returns the engine's epoch clock.
func (e *Engine) Clock() *epoch.Clock { return e.clock }

// Start launches the epoch clock and every worker's loop via an
// errgroup.Group, which is purely a lifecycle convenience here — it
// introduces no new suspension point beyond the worker loop's own wait/wake
// cycle, and its first returned error cancels the shared context, stopping
// every other goroutine in the group.
func (e *Engine) Start(ctx context.Context) error {
	workerCount := e.cfg.WorkerCount
	if workerCount <= 0 {
		n, err := numa.GetConfigured()
		if err != nil {
			return dberr.Wrap(err, "engine.numa_discovery_failed", "Start", "engine")
		}
		workerCount = n
	}
	if workerCount <= 0 {
		return dberr.New(dberr.CategoryLifecycle, "engine.no_workers", "resolved worker count is zero")
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(e.ctx)
	e.group = group

	e.Workers = make([]*worker.Worker, workerCount)
	for i := 0; i < workerCount; i++ {
		id := uint16(i)
		txn := occ.New(e.clock, id, e.sink)
		e.Workers[i] = worker.New(id, cpuForWorker(i), txn, e.cfg.PinToNUMA)
	}

	initBarrier := make(chan struct{})

	group.Go(func() error {
		return e.clock.Run(gctx, e.cfg.EpochTick)
	})

	for _, w := range e.Workers {
		w := w
		group.Go(func() error {
			return w.Run(gctx, initBarrier, e.cfg.WakeupTick)
		})
	}

	close(initBarrier)

	logging.WithComponent("engine").Info("engine started",
		"worker_count", workerCount, "pin_to_numa", e.cfg.PinToNUMA)

	return nil
}

// Shutdown cancels every worker and the epoch clock, then waits for them to
// return. It returns nil without doing anything if Start was never called or
// returned an error before launching any goroutine.
func (e *Engine) Shutdown() error {
	if e.cancel == nil {
		return nil
	}
	for _, w := range e.Workers {
		w.Stop()
	}
	e.cancel()

	if err := e.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return dberr.Wrap(err, "engine.shutdown_error", "Shutdown", "engine")
	}
	return nil
}

// cpuForWorker maps a worker index to a logical CPU. When PinToNUMA is
// false this value is never used by numa.Pin's non-pinning callers, but it
// is still computed so Worker.cpu is always meaningful for diagnostics.
func cpuForWorker(i int) int { return i }

func (e *Engine) String() string {
	return fmt.Sprintf("Engine(workers=%d)", len(e.Workers))
}
