//go:build !linux

package numa

import "runtime"

// Pin locks the calling goroutine to its current OS thread. CPU-affinity
// syscalls have no portable equivalent outside Linux, so non-Linux builds
// get thread pinning without core pinning.
func Pin(cpu int) error {
	runtime.LockOSThread()
	return nil
}
