package protocol

import (
	"encoding/binary"
	"fmt"
)

// ErrInsufficientData is returned by Reader methods when fewer bytes
// remain in the buffer than the value being decoded requires.
type CodecError string

func (e CodecError) Error() string { return string(e) }

const ErrInsufficientData CodecError = "protocol: insufficient data to decode value"

// Reader decodes the big-endian primitives and tagged values that make
// up reply and event payloads. It walks a byte slice with an explicit
// cursor rather than wrapping io.Reader, matching the direct
// offset-slicing style used elsewhere for wire structures.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential decoding starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return ErrInsufficientData
	}
	return nil
}

// U8 reads a single byte.
func (r *Reader) U8() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.off : r.off+2])
	r.off += 2
	return v, nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.off : r.off+8])
	r.off += 8
	return v, nil
}

// I32 reads a big-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

// ByteString reads a wire string: a u32 length prefix followed by that
// many raw (UTF-8) bytes.
func (r *Reader) ByteString() ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// String is ByteString converted to a Go string.
func (r *Reader) String() (string, error) {
	b, err := r.ByteString()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Writer builds an outbound request payload. Like Reader, it holds an
// explicit growable buffer rather than wrapping io.Writer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutU16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) PutU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) PutU64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) PutI32(v int32) { w.PutU32(uint32(v)) }

func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutByteString writes a u32 length prefix followed by b.
func (w *Writer) PutByteString(b []byte) {
	w.PutU32(uint32(len(b)))
	w.PutBytes(b)
}

// PutString is PutByteString over the UTF-8 encoding of s.
func (w *Writer) PutString(s string) {
	w.PutByteString([]byte(s))
}

// ValueTypeID tags carried inline before a VALUETYPE's class id, or in
// place of a regular type tag for the null/type/parent-vtype markers.
const (
	ValueTypeIDNull        = 0xf0
	ValueTypeIDType        = 0xf1
	ValueTypeIDParentVType = 0xf2
)

// Value type tags (the "type" byte preceding an encoded value), as
// carried on the wire for ElementType-derived values plus the
// debugger-specific object/array/string/vtype extensions.
const (
	VTEnd        = 0x00
	VTVoid       = 0x01
	VTBoolean    = 0x02
	VTChar       = 0x03
	VTI1         = 0x04
	VTU1         = 0x05
	VTI2         = 0x06
	VTU2         = 0x07
	VTI4         = 0x08
	VTU4         = 0x09
	VTI8         = 0x0a
	VTU8         = 0x0b
	VTR4         = 0x0c
	VTR8         = 0x0d
	VTString     = 0x0e
	VTPtr        = 0x0f
	VTByRef      = 0x10
	VTValueType  = 0x11
	VTClass      = 0x12
	VTVar        = 0x13
	VTArray      = 0x14
	VTGenericInst = 0x15
	VTTypedByRef = 0x16
	VTI          = 0x18
	VTU          = 0x19
	VTFnPtr      = 0x1b
	VTObject     = 0x1c
	VTSZArray    = 0x1d
	VTMVar       = 0x1e
	VTCModReqd   = 0x1f
	VTCModOpt    = 0x20
	VTInternal   = 0x21
	VTModifier   = 0x40
	VTSentinel   = 0x41
	VTPinned     = 0x45
	VTType       = 0x50
	VTBoxed      = 0x51
	VTEnum       = 0x55
)

func unsupportedTagError(tag byte) error {
	return fmt.Errorf("protocol: unsupported value tag 0x%02x", tag)
}
