// Package logrecord implements the array-overwrite log record: how a log
// record is populated while a transaction runs and applied under lock at
// commit.
package logrecord

import "encoding/binary"

// headerSize is the size in bytes of the common header shared by every log
// record type.
const headerSize = 8

// LogType identifies the payload shape following the common header.
type LogType uint16

const (
	// TypeArrayOverwrite is the worked array-overwrite example.
	TypeArrayOverwrite LogType = 1
	// TypePrimitive8 stores a fixed-width 8-byte value with known size.
	TypePrimitive8 LogType = 2
	// TypeFiller pads a log buffer so a record always has room to follow.
	TypeFiller LogType = 0xFFFF
)

// Header is the common 8-byte prefix of every log record, little-endian:
// log_type_code:2, log_length:2, storage_id:4.
type Header struct {
	Type      LogType
	Length    uint16
	StorageID uint32
}

func (h Header) encode(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(h.Type))
	binary.LittleEndian.PutUint16(buf[2:4], h.Length)
	binary.LittleEndian.PutUint32(buf[4:8], h.StorageID)
}

func decodeHeader(buf []byte) Header {
	return Header{
		Type:      LogType(binary.LittleEndian.Uint16(buf[0:2])),
		Length:    binary.LittleEndian.Uint16(buf[2:4]),
		StorageID: binary.LittleEndian.Uint32(buf[4:8]),
	}
}

// align8 rounds n up to the next multiple of 8, the alignment that keeps a
// filler record always able to follow.
func align8(n int) int {
	return (n + 7) &^ 7
}

// CanonicalKey packs a (storageID, arrayOffset) pair into the 64-bit key the
// commit protocol's write set sorts by — a stand-in for record address,
// since any system-wide total order works as the global lock order. Array
// storage in this module is bounded to 2^32 slots, so the low 32 bits of
// arrayOffset are sufficient to keep the key unique per (storage, offset)
// pair.
func CanonicalKey(storageID uint32, arrayOffset uint64) uint64 {
	return uint64(storageID)<<32 | (arrayOffset & 0xFFFFFFFF)
}
