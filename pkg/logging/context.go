package logging

import (
	"fmt"
	"log/slog"
)

// WithTxn creates a logger with commit-protocol transaction context.
//
// Example:
//
//	log := logging.WithTxn(tid)
//	log.Info("validating read set")
func WithTxn(tid fmt.Stringer) *slog.Logger {
	return GetLogger().With("txn", tid.String())
}

// WithWorker creates a logger with worker context.
// Use this for per-core task-executor operations.
//
// Example:
//
//	log := logging.WithWorker(workerID)
//	log.Info("entering wait/wake loop")
func WithWorker(workerID int) *slog.Logger {
	return GetLogger().With("worker_id", workerID)
}

// WithEpoch creates a logger with epoch context.
//
// Example:
//
//	log := logging.WithEpoch(epoch)
//	log.Debug("epoch advanced")
func WithEpoch(epoch uint32) *slog.Logger {
	return GetLogger().With("epoch", epoch)
}

// WithRecord creates a logger with record-addressing context.
// Useful for the commit protocol and array-overwrite log records.
//
// Example:
//
//	log := logging.WithRecord(storageID, offset)
//	log.Debug("key lock acquired")
func WithRecord(storageID uint32, offset uint64) *slog.Logger {
	return GetLogger().With("storage_id", storageID, "array_offset", offset)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("occ")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("commit failed", "operation", "validate")
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
