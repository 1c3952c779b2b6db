//go:build linux

package numa

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its current OS thread and restricts
// that thread's scheduling affinity to cpu, so the worker loop that calls it
// spends its entire lifetime on one core.
//
// LockOSThread is called before SchedSetaffinity and is never undone: a
// pinned worker goroutine is meant to own its OS thread for the process
// lifetime, for as long as its loop runs.
func Pin(cpu int) error {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("numa: pinning to cpu %d: %w", cpu, err)
	}
	return nil
}
