package logrecord

import (
	"encoding/binary"
	"fmt"

	"silotxn/pkg/dbgassert"
	"silotxn/pkg/record"
	"silotxn/pkg/txnid"
)

// primitive8Length is the total on-wire size of a Primitive8 record: the
// 8-byte header plus array_offset(8) + in_epoch_xct_order(4) + value(8),
// 28 bytes, rounded up to 32 so the record stays 8-byte aligned.
const primitive8Length = (headerSize + 8 + 4 + 8 + 7) &^ 7

// Primitive8 is the fixed-width variant of ArrayOverwrite for payloads whose
// size is always known up front: a single 8-byte value overwrite with none
// of the variable-length bookkeeping a general payload needs.
type Primitive8 struct {
	Header
	ArrayOffset     uint64
	InEpochXctOrder uint32
	Value           uint64
}

// PopulatePrimitive8 builds a fixed-width 8-byte overwrite record.
func PopulatePrimitive8(storageID uint32, arrayOffset uint64, value uint64) *Primitive8 {
	return &Primitive8{
		Header: Header{
			Type:      TypePrimitive8,
			Length:    primitive8Length,
			StorageID: storageID,
		},
		ArrayOffset: arrayOffset,
		Value:       value,
	}
}

// CanonicalKey returns the write-set ordering key for this record, the
// total order the commit protocol sorts and locks writes by.
func (r *Primitive8) CanonicalKey() uint64 {
	return CanonicalKey(r.StorageID, r.ArrayOffset)
}

// Bytes serializes r into its little-endian wire form.
func (r *Primitive8) Bytes() []byte {
	buf := make([]byte, primitive8Length)
	r.Header.encode(buf[0:8])
	binary.LittleEndian.PutUint64(buf[8:16], r.ArrayOffset)
	binary.LittleEndian.PutUint32(buf[16:20], r.InEpochXctOrder)
	binary.LittleEndian.PutUint64(buf[20:28], r.Value)
	return buf
}

// ParsePrimitive8 decodes a serialized fixed-width overwrite record.
func ParsePrimitive8(buf []byte) (*Primitive8, error) {
	if len(buf) < primitive8Length {
		return nil, fmt.Errorf("logrecord: buffer too short for primitive8 (%d bytes)", len(buf))
	}

	h := decodeHeader(buf[0:8])
	if h.Type != TypePrimitive8 {
		return nil, fmt.Errorf("logrecord: expected type %d, got %d", TypePrimitive8, h.Type)
	}

	return &Primitive8{
		Header:          h,
		ArrayOffset:     binary.LittleEndian.Uint64(buf[8:16]),
		InEpochXctOrder: binary.LittleEndian.Uint32(buf[16:20]),
		Value:           binary.LittleEndian.Uint64(buf[20:28]),
	}, nil
}

// Apply overwrites the 8-byte value at ArrayOffset within rec and publishes
// commitTID as the record's new owner, mirroring ArrayOverwrite.Apply.
func (r *Primitive8) Apply(commitTID txnid.TIDWord, rec *record.Record) {
	old := rec.Owner.Load()
	dbgassert.Assert(old.KeyLocked(), "apply requires the record's key-lock bit to be held")
	dbgassert.Assert(old.Before(commitTID), "old owner TID must precede the commit TID: old=%v commit=%v", old, commitTID)

	end := int(r.ArrayOffset) + 8
	dbgassert.Assert(end <= len(rec.Payload), "value range [%d:%d] exceeds record of length %d", r.ArrayOffset, end, len(rec.Payload))

	r.InEpochXctOrder = commitTID.InEpochOrder()
	binary.LittleEndian.PutUint64(rec.Payload[r.ArrayOffset:end], r.Value)

	rec.Owner.Publish(commitTID)
}
