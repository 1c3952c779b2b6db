package engine

import (
	"time"

	"silotxn/pkg/epoch"
)

// Config carries the ambient knobs needed to actually start a process:
// worker count, clock and wakeup cadences, and whether to pin threads to
// NUMA cores. This module has no CLI or config-file loader of its own, so
// Config is a plain struct built and passed in by the embedding program.
type Config struct {
	// WorkerCount is the number of pinned workers to start. Zero means use
	// numa.GetConfigured().
	WorkerCount int

	// EpochTick is the epoch clock's advance interval. Zero defaults to
	// epoch.DefaultTick (20ms).
	EpochTick time.Duration

	// WakeupTick is the wait/wake primitive's periodic re-check interval.
	// Zero defaults to 100ms.
	WakeupTick time.Duration

	// PinToNUMA controls whether workers call numa.Pin. False is used by
	// tests running under `go test -race` on CI containers that refuse
	// SchedSetaffinity.
	PinToNUMA bool
}

const defaultWakeupTick = 100 * time.Millisecond

func (c Config) withDefaults() Config {
	if c.EpochTick <= 0 {
		c.EpochTick = epoch.DefaultTick
	}
	if c.WakeupTick <= 0 {
		c.WakeupTick = defaultWakeupTick
	}
	return c
}
