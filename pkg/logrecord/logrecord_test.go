package logrecord

import (
	"testing"

	"github.com/stretchr/testify/require"

	"silotxn/pkg/record"
	"silotxn/pkg/txnid"
)

func TestAlign8(t *testing.T) {
	require.Equal(t, 24, align8(24))
	require.Equal(t, 32, align8(25))
	require.Equal(t, 32, align8(31))
	require.Equal(t, 32, align8(32))
}

func TestCanonicalKeyPacksStorageAndOffset(t *testing.T) {
	k := CanonicalKey(1, 2)
	require.Equal(t, uint64(1)<<32|2, k)
}

func TestPopulateArrayOverwriteLengthAndFields(t *testing.T) {
	payload := []byte{0xAB, 0xCD}
	r := PopulateArrayOverwrite(7, 42, 3, payload)

	require.Equal(t, uint16(32), r.Length)
	require.Equal(t, TypeArrayOverwrite, r.Type)
	require.Equal(t, uint32(7), r.StorageID)
	require.Equal(t, uint64(42), r.ArrayOffset)
	require.Equal(t, uint16(3), r.PayloadOffset)
	require.Equal(t, uint16(2), r.PayloadLength)
	require.Equal(t, payload, r.Payload)
}

func TestArrayOverwriteRoundTrip(t *testing.T) {
	orig := PopulateArrayOverwrite(7, 42, 3, []byte{0xAB, 0xCD})
	orig.InEpochXctOrder = 0x12345678

	buf := orig.Bytes()
	require.Len(t, buf, int(orig.Length))

	parsed, err := ParseArrayOverwrite(buf)
	require.NoError(t, err)
	require.Equal(t, orig.Bytes(), parsed.Bytes())
	require.Equal(t, orig.ArrayOffset, parsed.ArrayOffset)
	require.Equal(t, orig.InEpochXctOrder, parsed.InEpochXctOrder)
	require.Equal(t, orig.PayloadOffset, parsed.PayloadOffset)
	require.Equal(t, orig.PayloadLength, parsed.PayloadLength)
	require.Equal(t, orig.Payload, parsed.Payload)
}

func TestParseArrayOverwriteRejectsWrongType(t *testing.T) {
	p8 := PopulatePrimitive8(1, 0, 99)
	_, err := ParseArrayOverwrite(p8.Bytes())
	require.Error(t, err)
}

func TestParseArrayOverwriteRejectsShortBuffer(t *testing.T) {
	_, err := ParseArrayOverwrite(make([]byte, 4))
	require.Error(t, err)

	full := PopulateArrayOverwrite(1, 0, 0, []byte{1, 2, 3, 4}).Bytes()
	_, err = ParseArrayOverwrite(full[:payloadBase+1])
	require.Error(t, err)
}

func TestArrayOverwriteApplyWritesPayloadAndPublishes(t *testing.T) {
	rec := record.New(8)
	rec.Owner.SetClean(0, 0, 0)
	rec.Owner.KeylockUnconditional()

	logRec := PopulateArrayOverwrite(1, 0, 3, []byte{0xAB, 0xCD})
	commit := txnid.NewClean(5, 1, 0)

	logRec.Apply(commit, rec)

	require.Equal(t, []byte{0, 0, 0, 0xAB, 0xCD, 0, 0, 0}, rec.Payload)
	require.True(t, rec.Owner.Load().EqualsSerialOrder(commit))
	require.False(t, rec.Owner.Load().KeyLocked())
	require.Equal(t, commit.InEpochOrder(), logRec.InEpochXctOrder)
}

func TestPopulatePrimitive8RoundTrip(t *testing.T) {
	orig := PopulatePrimitive8(3, 8, 0xDEADBEEF)
	orig.InEpochXctOrder = 7

	buf := orig.Bytes()
	require.Len(t, buf, primitive8Length)

	parsed, err := ParsePrimitive8(buf)
	require.NoError(t, err)
	require.Equal(t, orig.ArrayOffset, parsed.ArrayOffset)
	require.Equal(t, orig.Value, parsed.Value)
	require.Equal(t, orig.InEpochXctOrder, parsed.InEpochXctOrder)
}

func TestPrimitive8ApplyWritesValue(t *testing.T) {
	rec := record.New(16)
	rec.Owner.SetClean(0, 0, 0)
	rec.Owner.KeylockUnconditional()

	logRec := PopulatePrimitive8(1, 8, 0x1122334455667788)
	commit := txnid.NewClean(2, 1, 0)
	logRec.Apply(commit, rec)

	require.Equal(t, uint64(0x1122334455667788),
		bytesToUint64LE(rec.Payload[8:16]))
	require.True(t, rec.Owner.Load().EqualsSerialOrder(commit))
}

func bytesToUint64LE(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
