package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutU8(0x7f)
	w.PutU16(0x1234)
	w.PutU32(0xdeadbeef)
	w.PutU64(0x0102030405060708)
	w.PutString("hello")

	r := NewReader(w.Bytes())

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), u8)

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := r.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	assert.Equal(t, 0, r.Remaining())
}

func TestReaderInsufficientData(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.U32()
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestByteStringRejectsTruncatedPayload(t *testing.T) {
	w := NewWriter()
	w.PutU32(10) // claims 10 bytes but none follow
	r := NewReader(w.Bytes())
	_, err := r.ByteString()
	assert.ErrorIs(t, err, ErrInsufficientData)
}
