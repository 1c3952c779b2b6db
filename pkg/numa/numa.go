// Package numa provides NUMA-node-aware core counting and OS-thread pinning
// for the worker runtime, so each worker can bind to its node for the
// lifetime of its loop. This module does not model NUMA topology directly
// — Go's runtime gives no portable handle on memory locality — so "bind to
// its NUMA node" is approximated as "pin to a specific logical CPU", which is
// the closest a goroutine-based worker can get without cgo.
package numa

import (
	"fmt"

	"github.com/tklauser/go-sysconf"
	"github.com/tklauser/numcpus"
)

// GetConfigured returns the number of configured logical CPUs, used to size
// the worker pool when engine.Config.WorkerCount is left at zero.
func GetConfigured() (int, error) {
	n, err := numcpus.GetConfigured()
	if err != nil {
		return 0, fmt.Errorf("numa: reading configured cpu count: %w", err)
	}
	return int(n), nil
}

// ClockTicksPerSecond exposes the kernel's USER_HZ setting. It isn't used by
// the pinning path, but is the other half of what go-sysconf is grounded on
// in the rest of the retrieval pack, and is handy for a worker that wants to
// convert scheduler-reported CPU time into wall-clock units.
func ClockTicksPerSecond() (int64, error) {
	hz, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil {
		return 0, fmt.Errorf("numa: reading clock ticks per second: %w", err)
	}
	return hz, nil
}
