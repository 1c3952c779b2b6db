// Package txnid implements the packed 64-bit transaction-id word: the
// canonical serialization-order identity, per-record lock, and publication
// vehicle for commits.
//
// Bit layout, MSB first (must match the on-page/on-wire format exactly):
//
//	| 28 bits epoch | 16 bits ordinal | 16 bits thread | key | range | del | moved |
package txnid

import (
	"fmt"
	"runtime"

	"go.uber.org/atomic"

	"silotxn/pkg/epoch"
)

// Bit widths and shift positions of the packed word's fields.
const (
	shiftMoved     = 0
	shiftDelete    = 1
	shiftRangeLock = 2
	shiftKeyLock   = 3
	shiftThread    = 4
	shiftOrdinal   = shiftThread + 16
	shiftEpoch     = shiftOrdinal + 16
)

const (
	maskMoved     uint64 = 1 << shiftMoved
	maskDelete    uint64 = 1 << shiftDelete
	maskRangeLock uint64 = 1 << shiftRangeLock
	maskKeyLock   uint64 = 1 << shiftKeyLock
	// maskStatus covers the four low status bits masked off by
	// EqualsSerialOrder.
	maskStatus  uint64 = maskMoved | maskDelete | maskRangeLock | maskKeyLock
	maskThread  uint64 = 0xFFFF << shiftThread
	maskOrdinal uint64 = 0xFFFF << shiftOrdinal
	maskEpoch   uint64 = 0xFFFFFFF << shiftEpoch
)

// TIDWord is an immutable snapshot of a transaction-id word.
type TIDWord uint64

// NewClean packs an epoch, ordinal and thread id into a word with every
// status bit cleared. Callers must ensure epoch fits in 28 bits.
func NewClean(ep epoch.Epoch, ordinal, thread uint16) TIDWord {
	return TIDWord(uint64(ep)<<shiftEpoch&maskEpoch |
		uint64(ordinal)<<shiftOrdinal |
		uint64(thread)<<shiftThread)
}

// Epoch returns the word's epoch field.
func (w TIDWord) Epoch() epoch.Epoch {
	return epoch.Epoch((uint64(w) & maskEpoch) >> shiftEpoch)
}

// Ordinal returns the word's per-epoch serial number.
func (w TIDWord) Ordinal() uint16 {
	return uint16((uint64(w) & maskOrdinal) >> shiftOrdinal)
}

// ThreadID returns the committing worker's identity.
func (w TIDWord) ThreadID() uint16 {
	return uint16((uint64(w) & maskThread) >> shiftThread)
}

// KeyLocked reports whether the key-lock status bit is set.
func (w TIDWord) KeyLocked() bool { return uint64(w)&maskKeyLock != 0 }

// RangeLocked reports whether the range-lock status bit is set.
func (w TIDWord) RangeLocked() bool { return uint64(w)&maskRangeLock != 0 }

// Deleted reports whether the logical-tombstone bit is set.
func (w TIDWord) Deleted() bool { return uint64(w)&maskDelete != 0 }

// Moved reports whether the structural moved bit is set. Once set, this bit
// is never cleared; any locker must abort and retry via fresh lookup.
func (w TIDWord) Moved() bool { return uint64(w)&maskMoved != 0 }

// IsValid reports whether the word carries a real (non-zero) epoch.
func (w TIDWord) IsValid() bool { return w.Epoch().Valid() }

// withKeyLock returns a copy of w with the key-lock bit set.
func (w TIDWord) withKeyLock() TIDWord { return TIDWord(uint64(w) | maskKeyLock) }

// withoutKeyLock returns a copy of w with the key-lock bit cleared.
func (w TIDWord) withoutKeyLock() TIDWord { return TIDWord(uint64(w) &^ maskKeyLock) }

// Before reports whether w strictly precedes other in serialization order.
// Requires other.IsValid(); if w itself has an invalid epoch, the result is
// always true (an invalid TID is before every valid one). Otherwise epochs
// are compared wrap-around aware, and on a tie the full 64-bit word —
// including status bits — is compared as an unsigned integer.
func (w TIDWord) Before(other TIDWord) bool {
	if !w.IsValid() {
		return true
	}
	we, oe := w.Epoch(), other.Epoch()
	if we != oe {
		return we.Before(oe)
	}
	return uint64(w) < uint64(other)
}

// EqualsSerialOrder reports whether w and other agree once the four status
// bits are masked off.
func (w TIDWord) EqualsSerialOrder(other TIDWord) bool {
	return uint64(w)&^maskStatus == uint64(other)&^maskStatus
}

// EqualsAll reports bit-wise equality, status bits included.
func (w TIDWord) EqualsAll(other TIDWord) bool { return w == other }

// InEpochOrder returns the 32-bit concatenation of ordinal (high half) and
// thread id (low half) recorded in log records for in-epoch replay
// ordering. Ordinal occupies the high half because in-epoch replay needs to
// sort primarily by the per-epoch serial number (see DESIGN.md Open
// Question 1).
func (w TIDWord) InEpochOrder() uint32 {
	return uint32(w.Ordinal())<<16 | uint32(w.ThreadID())
}

func (w TIDWord) String() string {
	return fmt.Sprintf("TID(epoch=%d,ord=%d,thread=%d,lock=%t,range=%t,del=%t,moved=%t)",
		w.Epoch(), w.Ordinal(), w.ThreadID(), w.KeyLocked(), w.RangeLocked(), w.Deleted(), w.Moved())
}

// TID is the mutable, atomically-synchronized cell embedded in every
// record. It is the sole per-record mutex and version container: acquiring
// its key-lock bit is the exclusive write permit, and publishing a new word
// with the bit cleared both commits a new payload and releases the lock in
// a single store.
type TID struct {
	word atomic.Uint64
}

// Load returns the current word with acquire ordering, so a reader taking
// an unlocked snapshot pairs it with an acquire fence. Go's atomic
// operations are sequentially consistent, which is at least as strong as
// the acquire/release pairing this protocol needs.
func (t *TID) Load() TIDWord { return TIDWord(t.word.Load()) }

// SetClean replaces the entire word, zeroing status bits.
func (t *TID) SetClean(ep epoch.Epoch, ordinal, thread uint16) {
	t.word.Store(uint64(NewClean(ep, ordinal, thread)))
}

// StoreMax copies other's word into t if other is valid and strictly after
// t's current value in serialization order. Used during commit to derive a
// TID later than every observed dependency.
func (t *TID) StoreMax(other TIDWord) {
	if !other.IsValid() {
		return
	}
	for {
		cur := TIDWord(t.word.Load())
		if !cur.Before(other) {
			return
		}
		if t.word.CompareAndSwap(uint64(cur), uint64(other)) {
			return
		}
	}
}

// KeylockUnconditional spins until the key-lock bit is observed clear, then
// atomically sets it. It never inspects the moved bit and never fails —
// callers that might be touching a moved record must use
// KeylockFailIfMoved instead (see DESIGN.md Open Question 2).
func (t *TID) KeylockUnconditional() TIDWord {
	cur := TIDWord(t.word.Load())
	for {
		for cur.KeyLocked() {
			runtime.Gosched()
			cur = TIDWord(t.word.Load())
		}
		locked := cur.withKeyLock()
		if t.word.CompareAndSwap(uint64(cur), uint64(locked)) {
			return locked
		}
		cur = TIDWord(t.word.Load())
	}
}

// KeylockFailIfMoved behaves like KeylockUnconditional, except that any
// observation of the moved bit returns ok=false without acquiring the lock.
// This is the only non-fatal lock failure in the module; callers must abort
// and retry the transaction from read.
func (t *TID) KeylockFailIfMoved() (word TIDWord, ok bool) {
	cur := TIDWord(t.word.Load())
	for {
		if cur.Moved() {
			return cur, false
		}
		for cur.KeyLocked() {
			runtime.Gosched()
			cur = TIDWord(t.word.Load())
			if cur.Moved() {
				return cur, false
			}
		}
		locked := cur.withKeyLock()
		if t.word.CompareAndSwap(uint64(cur), uint64(locked)) {
			return locked, true
		}
		cur = TIDWord(t.word.Load())
	}
}

// SpinWhileKeylocked returns a snapshot of the word taken after the key-lock
// bit was observed clear, with acquire ordering. Used by readers to obtain
// a stable version without acquiring the lock themselves.
func (t *TID) SpinWhileKeylocked() TIDWord {
	cur := TIDWord(t.word.Load())
	for cur.KeyLocked() {
		runtime.Gosched()
		cur = TIDWord(t.word.Load())
	}
	return cur
}

// ReleaseKeylock clears the key-lock bit with a plain store. This is valid
// only because the holder's prior release-fenced write of the payload
// establishes the happens-before relationship required to make the clear
// visible; only the lock holder may call this.
func (t *TID) ReleaseKeylock() {
	cur := t.word.Load()
	t.word.Store(cur &^ maskKeyLock)
}

// Publish assigns the owner word to newWord in a single atomic store. Since
// a legitimate commit TID always has its key-lock bit clear, this single
// store is simultaneously the commit's publication point and the lock's
// release — no separate unlock step is needed.
func (t *TID) Publish(newWord TIDWord) {
	t.word.Store(uint64(newWord))
}

// MarkMoved sets the moved bit unconditionally. Once set it is never
// cleared; this is how a record-split operation marks the source record as
// structurally relocated so any future locker aborts and retries through
// fresh lookup. Callers must already hold the key-lock bit.
func (t *TID) MarkMoved() {
	for {
		cur := t.word.Load()
		next := cur | maskMoved
		if cur == next {
			return
		}
		if t.word.CompareAndSwap(cur, next) {
			return
		}
	}
}

// WideCASAvailable records whether this CPU supports a double-word (128-bit)
// compare-and-swap (cmpxchg16b on amd64), which KeylockUnconditionalBatch
// could in principle use to lock two adjacent TID cells in one instruction.
// Go's portable sync/atomic package exposes no such primitive, so this flag
// is recorded for instrumentation only and never changes
// KeylockUnconditionalBatch's control flow — see DESIGN.md Open Question 3.
var WideCASAvailable = probeWideCAS()

// KeylockUnconditionalBatch acquires every TID in tids in order. It is
// semantically identical to calling KeylockUnconditional on each in turn:
// unconditional success, no reordering with respect to the caller's
// canonical lock order (batching is always safe here because that order is
// total). The error return exists for forward compatibility with a genuine
// hardware-CAS fast path and is currently always nil.
func KeylockUnconditionalBatch(tids []*TID) error {
	for _, t := range tids {
		t.KeylockUnconditional()
	}
	return nil
}
