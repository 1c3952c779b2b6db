// Package occ implements the sort-lock-validate-stamp-apply-release commit
// protocol: the serializability mechanism of the whole module. A Transaction
// is a single worker's reusable per-task workspace, not a long-lived object
// — it is private state a worker carries across tasks.
package occ

import (
	"context"
	"fmt"
	"sort"

	"silotxn/pkg/dberr"
	"silotxn/pkg/epoch"
	"silotxn/pkg/logsink"
	"silotxn/pkg/record"
	"silotxn/pkg/txnid"
)

// LogRecord is anything a write entry's log record must support: applying
// itself under the caller's already-held lock, and serializing for the log
// buffer, the two things the apply and log-append phases of commit need.
type LogRecord interface {
	Apply(commitTID txnid.TIDWord, rec *record.Record)
	logsink.Record
}

type readEntry struct {
	rec      *record.Record
	snapshot txnid.TIDWord
}

type writeEntry struct {
	canonicalKey uint64
	rec          *record.Record
	log          LogRecord
	locked       txnid.TIDWord // the word observed at lock-acquisition time
}

// Transaction accumulates one task's read and write sets and drives them
// through the commit protocol. Callers reuse a single Transaction across
// many tasks via Reset rather than allocating a fresh workspace per task.
type Transaction struct {
	clock    *epoch.Clock
	threadID uint16
	ordinal  uint16

	readSet  []readEntry
	writeSet []writeEntry
	sink     logsink.Sink
}

// New creates a Transaction bound to a worker's thread id and epoch clock.
// threadID must fit the TID word's 16-bit thread field and is typically the
// worker's small-integer slot in the engine's worker table.
func New(clock *epoch.Clock, threadID uint16, sink logsink.Sink) *Transaction {
	if sink == nil {
		sink = logsink.Discard{}
	}
	return &Transaction{clock: clock, threadID: threadID, sink: sink}
}

// Reset clears the read and write sets so the Transaction can be reused for
// the next task. The thread id, ordinal counter and sink survive a reset.
func (t *Transaction) Reset() {
	t.readSet = t.readSet[:0]
	t.writeSet = t.writeSet[:0]
}

// AddRead records that the caller observed rec's owner word as snapshot
// (taken with Load or SpinWhileKeylocked) while reading its payload.
func (t *Transaction) AddRead(rec *record.Record, snapshot txnid.TIDWord) {
	t.readSet = append(t.readSet, readEntry{rec: rec, snapshot: snapshot})
}

// AddWrite records an intended write: rec is the target record, log is the
// already-populated log record describing the change, and canonicalKey is
// the system-wide ordering key the commit protocol's global lock order sorts
// by. Callers typically derive canonicalKey via
// logrecord.CanonicalKey from the same (storageID, arrayOffset) the log
// record itself carries.
func (t *Transaction) AddWrite(canonicalKey uint64, rec *record.Record, log LogRecord) {
	t.writeSet = append(t.writeSet, writeEntry{canonicalKey: canonicalKey, rec: rec, log: log})
}

// Commit runs the full sort-lock-validate-stamp-apply-release protocol. On
// success it returns the committed TID; on any validation
// or moved-bit failure it releases every lock it had acquired, in reverse
// order, and returns a dberr.CategoryTransientAbort error the caller should
// retry from a fresh read. Reset is NOT called automatically; the caller
// decides whether to retry the same workspace or discard it.
func (t *Transaction) Commit(ctx context.Context) (txnid.TIDWord, error) {
	if err := ctx.Err(); err != nil {
		return txnid.TIDWord(0), dberr.Wrap(err, "occ.ctx_canceled", "Commit", "occ")
	}

	// Phase 1: sort writes by canonical key — the global lock order that
	// precludes deadlock.
	sort.Slice(t.writeSet, func(i, j int) bool {
		return t.writeSet[i].canonicalKey < t.writeSet[j].canonicalKey
	})

	// Phase 2: lock writes in sorted order. Any moved-bit observation aborts.
	locked := 0
	for i := range t.writeSet {
		word, ok := t.writeSet[i].rec.Owner.KeylockFailIfMoved()
		if !ok {
			t.releaseLocks(locked)
			return txnid.TIDWord(0), transientAbort("moved record observed acquiring write lock", t.writeSet[i].canonicalKey)
		}
		t.writeSet[i].locked = word
		locked = i + 1
	}

	// Phase 3: sample the epoch only after every write is locked.
	commitEpoch := t.clock.Current()

	// Phase 4: validate every read.
	writeIdx := t.writeIndexByRecord()
	for _, re := range t.readSet {
		cur := re.rec.Owner.Load()
		if !cur.EqualsSerialOrder(re.snapshot) {
			t.releaseLocks(locked)
			return txnid.TIDWord(0), transientAbort("read validation: owner changed serialization order", 0)
		}
		if _, inWriteSet := writeIdx[re.rec]; !inWriteSet && cur.KeyLocked() {
			t.releaseLocks(locked)
			return txnid.TIDWord(0), transientAbort("read validation: record locked by another transaction", 0)
		}
	}

	// Phase 5: derive the commit TID, strictly after every observed
	// dependency.
	t.ordinal++
	commit := txnid.NewClean(commitEpoch, t.ordinal, t.threadID)
	for _, re := range t.readSet {
		commit = t.laterThan(commit, re.rec.Owner.Load())
	}
	for _, we := range t.writeSet {
		commit = t.laterThan(commit, we.locked)
	}

	// Phase 6: apply every write — memcpy payload, release-publish the new
	// owner word (the store itself is the release fence and the unlock).
	for _, we := range t.writeSet {
		we.log.Apply(commit, we.rec)
	}

	// Phase 7: append every write's log record to the sink this Transaction
	// was built with; there is no separate per-worker log buffer.
	for _, we := range t.writeSet {
		if err := t.sink.Append(we.log); err != nil {
			// Durability failures do not unwind an already-published commit
			// (the data is visible); they are reported so the caller can
			// decide how to react. Durability itself is this package's
			// caller's concern, not the commit protocol's.
			return commit, dberr.Wrap(err, "occ.log_append_failed", "Commit", "occ")
		}
	}

	return commit, nil
}

// releaseLocks releases the first n entries of the write set's locks, in
// reverse order, undoing a partially-locked write set on abort.
func (t *Transaction) releaseLocks(n int) {
	for i := n - 1; i >= 0; i-- {
		t.writeSet[i].rec.Owner.ReleaseKeylock()
	}
}

func (t *Transaction) writeIndexByRecord() map[*record.Record]struct{} {
	idx := make(map[*record.Record]struct{}, len(t.writeSet))
	for _, we := range t.writeSet {
		idx[we.rec] = struct{}{}
	}
	return idx
}

// laterThan is the store-max step of commit's TID-derivation phase: it
// returns commit unchanged if dep (status bits ignored) already precedes it,
// and otherwise the next ordinal after dep in dep's epoch, stamped with this
// worker's thread id, so the result is strictly after dep and carries no
// status bits.
func (t *Transaction) laterThan(commit, dep txnid.TIDWord) txnid.TIDWord {
	clean := txnid.NewClean(dep.Epoch(), dep.Ordinal(), dep.ThreadID())
	if clean.Before(commit) {
		return commit
	}
	return txnid.NewClean(clean.Epoch(), clean.Ordinal()+1, t.threadID)
}

func transientAbort(reason string, canonicalKey uint64) error {
	return dberr.New(dberr.CategoryTransientAbort, "occ.commit_aborted",
		fmt.Sprintf("%s (canonical_key=%#x)", reason, canonicalKey))
}
