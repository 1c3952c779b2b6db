package logrecord

import (
	"encoding/binary"
	"fmt"

	"silotxn/pkg/dbgassert"
	"silotxn/pkg/record"
	"silotxn/pkg/txnid"
)

// payloadBase is the byte offset where the inline payload begins, right
// after the fixed header and addressing fields.
const payloadBase = 24

// ArrayOverwrite is the worked log-record example: an overwrite of a byte
// range within one array-storage record.
type ArrayOverwrite struct {
	Header
	ArrayOffset     uint64 // offset of the target record within its array
	InEpochXctOrder uint32 // populated at apply time from the commit TID
	PayloadOffset   uint16 // offset within the record's payload
	PayloadLength   uint16
	Payload         []byte
}

// PopulateArrayOverwrite stamps the storage id and log-type code, computes
// the 8-byte-aligned length, and copies the caller's payload into the
// inline buffer.
func PopulateArrayOverwrite(storageID uint32, arrayOffset uint64, payloadOffset uint16, payload []byte) *ArrayOverwrite {
	length := align8(payloadBase + len(payload))
	buf := make([]byte, len(payload))
	copy(buf, payload)

	return &ArrayOverwrite{
		Header: Header{
			Type:      TypeArrayOverwrite,
			Length:    uint16(length),
			StorageID: storageID,
		},
		ArrayOffset:   arrayOffset,
		PayloadOffset: payloadOffset,
		PayloadLength: uint16(len(payload)),
		Payload:       buf,
	}
}

// CanonicalKey returns the write-set ordering key for this record, the
// total order the commit protocol sorts and locks writes by.
func (r *ArrayOverwrite) CanonicalKey() uint64 {
	return CanonicalKey(r.StorageID, r.ArrayOffset)
}

// Bytes serializes r into its little-endian, 8-byte-aligned wire form.
func (r *ArrayOverwrite) Bytes() []byte {
	buf := make([]byte, r.Length)
	r.Header.encode(buf[0:8])
	binary.LittleEndian.PutUint64(buf[8:16], r.ArrayOffset)
	binary.LittleEndian.PutUint32(buf[16:20], r.InEpochXctOrder)
	binary.LittleEndian.PutUint16(buf[20:22], r.PayloadOffset)
	binary.LittleEndian.PutUint16(buf[22:24], r.PayloadLength)
	copy(buf[payloadBase:payloadBase+int(r.PayloadLength)], r.Payload)
	return buf
}

// ParseArrayOverwrite decodes a serialized array-overwrite record.
func ParseArrayOverwrite(buf []byte) (*ArrayOverwrite, error) {
	if len(buf) < payloadBase {
		return nil, fmt.Errorf("logrecord: buffer too short for header (%d bytes)", len(buf))
	}

	h := decodeHeader(buf[0:8])
	if h.Type != TypeArrayOverwrite {
		return nil, fmt.Errorf("logrecord: expected type %d, got %d", TypeArrayOverwrite, h.Type)
	}

	r := &ArrayOverwrite{
		Header:          h,
		ArrayOffset:     binary.LittleEndian.Uint64(buf[8:16]),
		InEpochXctOrder: binary.LittleEndian.Uint32(buf[16:20]),
		PayloadOffset:   binary.LittleEndian.Uint16(buf[20:22]),
		PayloadLength:   binary.LittleEndian.Uint16(buf[22:24]),
	}

	end := payloadBase + int(r.PayloadLength)
	if len(buf) < end {
		return nil, fmt.Errorf("logrecord: buffer too short for payload (need %d, have %d)", end, len(buf))
	}
	r.Payload = append([]byte(nil), buf[payloadBase:end]...)

	return r, nil
}

// Apply writes r's payload into rec under the caller's already-held
// key-lock, then publishes commitTID as the record's new owner in the same
// store that releases the lock.
//
// Preconditions: the caller already holds rec.Owner's key-lock bit and has
// verified the payload length fits. Both are checked by debug assertion
// only — violating either is a bug in the caller, not a recoverable
// condition.
func (r *ArrayOverwrite) Apply(commitTID txnid.TIDWord, rec *record.Record) {
	old := rec.Owner.Load()
	dbgassert.Assert(old.KeyLocked(), "apply requires the record's key-lock bit to be held")
	dbgassert.Assert(old.Before(commitTID), "old owner TID must precede the commit TID: old=%v commit=%v", old, commitTID)

	end := int(r.PayloadOffset) + int(r.PayloadLength)
	dbgassert.Assert(end <= len(rec.Payload), "payload range [%d:%d] exceeds record of length %d", r.PayloadOffset, end, len(rec.Payload))

	r.InEpochXctOrder = commitTID.InEpochOrder()
	copy(rec.Payload[r.PayloadOffset:end], r.Payload)

	// rec.Owner.Publish issues the release store that both makes the
	// payload write visible and atomically clears the key-lock bit; no
	// separate unlock step is needed.
	rec.Owner.Publish(commitTID)
}
