// Package dberr provides the structured error taxonomy used throughout the
// transaction core: transient aborts, busy workers, lifecycle failures, and
// debug-only contract violations.
package dberr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Category classifies an error by the handling strategy it implies.
type Category int

const (
	// CategoryTransientAbort is a read-validation failure or an observed
	// moved bit. Locally recovered by re-running the transaction from the
	// beginning; never surfaced to a caller unless a retry budget is spent.
	CategoryTransientAbort Category = iota

	// CategoryBusyWorker means try_impersonate lost the CAS race for a
	// worker's pending-task slot. Surfaced as a retryable signal to the
	// submitter, never as an error value (see session.TryImpersonate).
	CategoryBusyWorker

	// CategoryLifecycle is an initialization or shutdown failure of a
	// collaborator (log sink, NUMA pinning). Fatal to the worker or engine
	// that reported it; propagates to the engine boundary.
	CategoryLifecycle

	// CategoryContractViolation marks a debug-only assertion failure: lock
	// ownership, TID monotonicity, or payload-length invariants. Indicates
	// a bug, not a recoverable condition, and is never expected in release
	// builds.
	CategoryContractViolation
)

func (c Category) String() string {
	switch c {
	case CategoryTransientAbort:
		return "TRANSIENT_ABORT"
	case CategoryBusyWorker:
		return "BUSY_WORKER"
	case CategoryLifecycle:
		return "LIFECYCLE"
	case CategoryContractViolation:
		return "CONTRACT_VIOLATION"
	default:
		return "UNKNOWN"
	}
}

// Retryable reports whether a caller can reasonably re-attempt the operation
// that produced an error of this category without any external
// intervention. Transient aborts and a busy worker both clear on their own
// with no state change other than trying again; lifecycle failures and
// contract violations do not.
func (c Category) Retryable() bool {
	return c == CategoryTransientAbort || c == CategoryBusyWorker
}

// Frame records one hop of an error's propagation through the call stack, as
// it is re-wrapped by each layer it crosses (e.g. txnid -> occ -> worker ->
// engine). Unlike a single overwrite-once Operation/Component pair, the full
// trail survives every Wrap call, which matters here because a lifecycle
// error routinely crosses three or four package boundaries before it
// reaches the engine.
type Frame struct {
	Operation string
	Component string
}

func (f Frame) String() string {
	if f.Component == "" {
		return f.Operation
	}
	return f.Component + "." + f.Operation
}

// TxError is a structured error carrying enough context to decide whether a
// caller should retry, surface the failure, or treat it as a bug.
type TxError struct {
	// Code is a unique identifier for this error type (e.g. "MOVED_RECORD",
	// "VALIDATION_FAILED").
	Code string

	// Category classifies the error for the caller's handling strategy.
	Category Category

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific instance.
	Detail string

	// Trail records every layer this error was re-wrapped through, oldest
	// first, so a failure that crosses package boundaries keeps its full
	// propagation path instead of just the first or last hop.
	Trail []Frame

	// Cause is the underlying error that triggered this one, if any.
	Cause error

	// Stack is the call stack captured when this error was created.
	Stack []uintptr
}

// New creates a TxError with the given category, code and message.
func New(category Category, code, message string) *TxError {
	return &TxError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Wrap records a propagation hop. If err is already a *TxError, operation
// and component are appended to its Trail and the same error is returned;
// otherwise a new CategoryLifecycle error is created wrapping err as Cause,
// with a one-frame Trail. Every layer a failure crosses calls Wrap again, so
// the resulting Trail reads top-to-bottom as the path the error actually
// took, not just the place it was first raised.
func Wrap(err error, code, operation, component string) *TxError {
	if err == nil {
		return nil
	}

	frame := Frame{Operation: operation, Component: component}

	var txErr *TxError
	if errors.As(err, &txErr) {
		txErr.Trail = append(txErr.Trail, frame)
		return txErr
	}

	return &TxError{
		Code:     code,
		Category: CategoryLifecycle,
		Message:  err.Error(),
		Trail:    []Frame{frame},
		Cause:    err,
		Stack:    captureStack(),
	}
}

// captureStack skips the first 3 frames (runtime.Callers, captureStack and
// New/Wrap), so the trace starts at the code that created the error.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard error interface:
// [CODE] Message: Detail (via frame1 < frame2 < ...) caused by: cause
func (e *TxError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if len(e.Trail) > 0 {
		frames := make([]string, len(e.Trail))
		for i, f := range e.Trail {
			frames[i] = f.String()
		}
		b.WriteString(fmt.Sprintf(" (via %s)", strings.Join(frames, " < ")))
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// IsCategory reports whether err is a *TxError (anywhere in its Unwrap
// chain) belonging to cat. Used by retry loops that only want to distinguish
// "transient, re-run me" from every other kind of failure.
func IsCategory(err error, cat Category) bool {
	var txErr *TxError
	if !errors.As(err, &txErr) {
		return false
	}
	return txErr.Category == cat
}

// Retryable reports whether err is a *TxError whose category marks it safe
// to retry without any external state change (see Category.Retryable).
// Non-TxError values are never considered retryable.
func Retryable(err error) bool {
	var txErr *TxError
	if !errors.As(err, &txErr) {
		return false
	}
	return txErr.Category.Retryable()
}

// Unwrap enables errors.Is/errors.As chain traversal through Cause.
func (e *TxError) Unwrap() error {
	return e.Cause
}

// FormatStack renders the captured call stack for debugging.
func (e *TxError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
