// Package dbgassert provides debug-only contract assertions: checks that
// indicate a bug rather than a recoverable condition, compiled away
// entirely in release builds.
//
// Build with -tags debugassert to enable; without the tag, Assert is a
// zero-cost no-op.
package dbgassert

import "fmt"

// Assert panics with a *dberr.TxError of category CategoryContractViolation
// if cond is false (debugassert builds only).
// Call sites are meant for invariants that must never be violated by
// correct code, e.g. the apply step asserting that the old owner's TID
// precedes the one it is about to publish.
func Assert(cond bool, format string, args ...any) {
	assert(cond, format, args...)
}

// Failuref formats an assertion-failure message consistently regardless of
// build tag, so both the enabled and disabled implementations produce the
// same text if a caller chooses to log it themselves.
func Failuref(format string, args ...any) string {
	return fmt.Sprintf("contract violation: "+format, args...)
}
