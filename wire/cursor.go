// Package wire implements the primitive readers of the block format:
// fixed-width integers, floats, decimals, dates/timestamps, UUIDs, IPs,
// fixed and length-prefixed strings, and unsigned-varint length prefixes.
//
// Every reader is a method on Cursor, consuming a prefix of the underlying
// byte slice, advancing Cursor.Offset, and returning a borrowed slice or
// parsed value.
package wire

import (
	"math"

	"github.com/night-crawler/chbr/endian"
	"github.com/night-crawler/chbr/errs"
)

// Cursor is a read-only view over one block's byte buffer plus the current
// read offset. All readers return borrowed subslices of Data; the caller
// decides whether to materialize an owned copy, via the copy-on-decode
// option in package block.
type Cursor struct {
	Data   []byte
	Offset int
	engine endian.EndianEngine
}

// NewCursor wraps data for little-endian reads, the only byte order the
// format ever uses.
func NewCursor(data []byte) *Cursor {
	return &Cursor{Data: data, engine: endian.GetLittleEndianEngine()}
}

// Len reports the number of unconsumed bytes.
func (c *Cursor) Len() int {
	return len(c.Data) - c.Offset
}

// Remaining returns the unconsumed suffix of Data, borrowed.
func (c *Cursor) Remaining() []byte {
	return c.Data[c.Offset:]
}

func (c *Cursor) require(n int) error {
	if n < 0 || c.Len() < n {
		return errs.Wrap(errs.ErrTruncatedInput, c.Offset, "")
	}

	return nil
}

// take advances the cursor by n bytes and returns the consumed, borrowed
// subslice. Caller must call require(n) first.
func (c *Cursor) take(n int) []byte {
	b := c.Data[c.Offset : c.Offset+n]
	c.Offset += n

	return b
}

// ReadBytes consumes and returns n raw bytes, borrowed from Data.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}

	return c.take(n), nil
}

// ReadUint8 reads one unsigned byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	if err := c.require(1); err != nil {
		return 0, err
	}

	return c.take(1)[0], nil
}

// ReadInt8 reads one signed byte.
func (c *Cursor) ReadInt8() (int8, error) {
	v, err := c.ReadUint8()

	return int8(v), err
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	if err := c.require(2); err != nil {
		return 0, err
	}

	return c.engine.Uint16(c.take(2)), nil
}

// ReadInt16 reads a little-endian int16.
func (c *Cursor) ReadInt16() (int16, error) {
	v, err := c.ReadUint16()

	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	if err := c.require(4); err != nil {
		return 0, err
	}

	return c.engine.Uint32(c.take(4)), nil
}

// ReadInt32 reads a little-endian int32.
func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()

	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (c *Cursor) ReadUint64() (uint64, error) {
	if err := c.require(8); err != nil {
		return 0, err
	}

	return c.engine.Uint64(c.take(8)), nil
}

// ReadInt64 reads a little-endian int64.
func (c *Cursor) ReadInt64() (int64, error) {
	v, err := c.ReadUint64()

	return int64(v), err
}

// ReadWide reads a width-bit (128 or 256) two's-complement little-endian
// integer as its raw bytes, borrowed. Int128/Int256/UInt128/UInt256 have no
// native Go representation, so they are exposed the way the format stores
// them: width/8 little-endian bytes that the caller may hand to math/big
// (big.Int.SetBytes after reversing) if arithmetic is needed.
func (c *Cursor) ReadWide(width int) ([]byte, error) {
	n := width / 8

	return c.ReadBytes(n)
}

// ReadFloat32 reads an IEEE-754 binary32.
func (c *Cursor) ReadFloat32() (float32, error) {
	bits, err := c.ReadUint32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(bits), nil
}

// ReadFloat64 reads an IEEE-754 binary64.
func (c *Cursor) ReadFloat64() (float64, error) {
	bits, err := c.ReadUint64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(bits), nil
}

// ReadBFloat16 reads a BFloat16: the stored 16 bits are the upper half of an
// IEEE-754 binary32, so the value is recovered by left-shifting into a
// binary32 with a zero lower half.
func (c *Cursor) ReadBFloat16() (float32, error) {
	bits, err := c.ReadUint16()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(uint32(bits) << 16), nil
}

// ReadDecimal reads a decimal's underlying two's-complement integer of the
// given storage width (32/64/128/256 bits), returned as raw little-endian
// bytes; the value equals raw * 10^-scale, a conversion left to the caller
// since it depends on arbitrary precision beyond int64 for width > 64.
func (c *Cursor) ReadDecimal(width int) ([]byte, error) {
	return c.ReadWide(width)
}

// ReadDate reads a Date: a 16-bit unsigned day offset from the Unix epoch.
func (c *Cursor) ReadDate() (uint16, error) {
	return c.ReadUint16()
}

// ReadDate32 reads a Date32: a 32-bit signed (possibly negative) day offset.
func (c *Cursor) ReadDate32() (int32, error) {
	return c.ReadInt32()
}

// ReadDateTime reads a DateTime: 32-bit unsigned seconds since epoch.
func (c *Cursor) ReadDateTime() (uint32, error) {
	return c.ReadUint32()
}

// ReadDateTime64 reads a DateTime64(p): a 64-bit signed tick count, one tick
// equalling 10^-p seconds.
func (c *Cursor) ReadDateTime64() (int64, error) {
	return c.ReadInt64()
}

// ReadTime reads a Time(p): a 32-bit signed tick count since midnight.
func (c *Cursor) ReadTime() (int32, error) {
	return c.ReadInt32()
}

// UUID is the canonical 16-byte form of a decoded UUID value (RFC 4122 byte
// order), after undoing the format's half-swapped storage.
type UUID [16]byte

// DecodeUUID converts a 16-byte wire-order UUID (two little-endian 64-bit
// halves, high half first) to canonical (big-endian, high-half-first) form
// by reversing each 8-byte half. Exported so column/row decoders can apply
// it to an already-borrowed raw slice without re-reading through a Cursor.
func DecodeUUID(raw []byte) UUID {
	var out UUID
	for i := 0; i < 8; i++ {
		out[i] = raw[7-i]
		out[8+i] = raw[15-i]
	}

	return out
}

// ReadUUID reads a UUID. The wire form is two little-endian 64-bit halves,
// high half first; within each half the bytes are little-endian. Converting
// to canonical (big-endian, high-half-first) form means reversing each
// 8-byte half in place after reading them in wire order.
func (c *Cursor) ReadUUID() (UUID, error) {
	raw, err := c.ReadBytes(16)
	if err != nil {
		return UUID{}, err
	}

	return DecodeUUID(raw), nil
}

// DecodeIPv4 converts a 4-byte little-endian wire value to canonical
// (dotted left-to-right) network-order form.
func DecodeIPv4(raw []byte) [4]byte {
	return [4]byte{raw[3], raw[2], raw[1], raw[0]}
}

// ReadIPv4 reads an IPv4 address: 4 bytes little-endian, numerically equal
// to the packed address with byte order reversed relative to dotted
// notation. The returned array is in canonical network-order (dotted
// left-to-right) form.
func (c *Cursor) ReadIPv4() ([4]byte, error) {
	raw, err := c.ReadBytes(4)
	if err != nil {
		return [4]byte{}, err
	}

	return DecodeIPv4(raw), nil
}

// ReadIPv6 reads an IPv6 address: 16 bytes in network order, returned as an
// array copy (IPv6 has no byte-order ambiguity, unlike IPv4).
func (c *Cursor) ReadIPv6() ([16]byte, error) {
	raw, err := c.ReadBytes(16)
	if err != nil {
		return [16]byte{}, err
	}

	var out [16]byte
	copy(out[:], raw)

	return out, nil
}

// ReadVarint reads an unsigned LEB128-style varint: 7 data bits per byte,
// continuation bit in the MSB. Used for every length and row count in the
// format.
func (c *Cursor) ReadVarint() (uint64, error) {
	var (
		result uint64
		shift  uint
	)

	for {
		if c.Len() < 1 {
			return 0, errs.Wrap(errs.ErrTruncatedInput, c.Offset, "")
		}

		if shift >= 64 {
			return 0, errs.Wrap(errs.ErrInvalidLength, c.Offset, "")
		}

		b := c.take(1)[0]
		result |= uint64(b&0x7f) << shift

		if b&0x80 == 0 {
			return result, nil
		}

		shift += 7
	}
}

// ReadString reads a varint length prefix followed by that many bytes of
// string content, borrowed from Data. Strings need not be valid UTF-8 and
// are exposed as opaque byte views; UTF-8 validation, when requested,
// happens at a higher layer.
func (c *Cursor) ReadString() ([]byte, error) {
	n, err := c.ReadVarint()
	if err != nil {
		return nil, err
	}

	if n > uint64(c.Len()) {
		return nil, errs.Wrap(errs.ErrInvalidLength, c.Offset, "")
	}

	return c.ReadBytes(int(n))
}

// ReadFixedString reads exactly n bytes; trailing NULs, if any, are
// preserved verbatim rather than trimmed.
func (c *Cursor) ReadFixedString(n int) ([]byte, error) {
	return c.ReadBytes(n)
}
