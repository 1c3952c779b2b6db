// Package logsink defines the durability collaborator a committed
// transaction's log records are handed to. Durability itself — flushing to
// stable storage, group commit, checkpointing — is out of scope for the
// concurrency core; this package only fixes the boundary.
package logsink

import "sync"

// Record is anything a committed write's log entry can be appended as: the
// record's own serialized wire form.
type Record interface {
	Bytes() []byte
}

// Sink receives a worker's committed log records in commit order. A real
// deployment would back this with a durable, append-only segment; this
// module stops at the interface.
type Sink interface {
	Append(rec Record) error
}

// Discard is a Sink that keeps nothing. Useful for benchmarks and tests that
// only care about the concurrency protocol, not durability.
type Discard struct{}

// Append implements Sink.
func (Discard) Append(Record) error { return nil }

// Buffer is an in-memory Sink that retains every appended record in order,
// for tests that assert on what a transaction logged.
type Buffer struct {
	mu   sync.Mutex
	recs []Record
}

// Append implements Sink.
func (b *Buffer) Append(rec Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs = append(b.recs, rec)
	return nil
}

// Records returns a snapshot of the records appended so far, in order.
func (b *Buffer) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, len(b.recs))
	copy(out, b.recs)
	return out
}
