// Package record defines the flat, array-addressed record the array-overwrite
// log record targets: opaque payload bytes preceded by an embedded TID word
// called the owner.
package record

import "silotxn/pkg/txnid"

// Record is a single slot of an array-storage table. The owner word is
// always the synchronization point for the record: acquiring its key-lock
// bit is the exclusive write permit, and publishing a new TID (with the
// key-lock bit cleared) both commits the new payload and releases the lock
// in a single store.
type Record struct {
	Owner   txnid.TID
	Payload []byte
}

// New allocates a record with payloadSize bytes of zeroed payload and an
// owner TID left at its zero value (invalid epoch — "before everything").
func New(payloadSize int) *Record {
	return &Record{Payload: make([]byte, payloadSize)}
}
