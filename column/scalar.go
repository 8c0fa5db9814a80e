package column

import (
	"unicode/utf8"
	"unsafe"

	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// FixedWidthColumn holds row_count contiguous fixed-width values: every
// scalar family except String/FixedString/Enum. Raw is a borrowed or owned
// (per the copy-on-decode option) view over
// row_count*WidthBytes bytes; RawAt slices out one row's bytes for the row
// package to interpret according to Type().Kind.
type FixedWidthColumn struct {
	typ        *schema.Type
	rows       int
	raw        []byte
	widthBytes int
}

func (c *FixedWidthColumn) Type() *schema.Type { return c.typ }
func (c *FixedWidthColumn) Len() int           { return c.rows }

// WidthBytes is the per-row storage width.
func (c *FixedWidthColumn) WidthBytes() int { return c.widthBytes }

// RawAt returns row i's raw little-endian (or, for UUID/IPv6, wire-order)
// bytes, borrowed from the column's backing storage.
func (c *FixedWidthColumn) RawAt(i int) []byte {
	return c.raw[i*c.widthBytes : (i+1)*c.widthBytes]
}

// Uint64At reinterprets row i as an unsigned little-endian integer, valid
// for any fixed-width kind up to 64 bits (Int*/UInt* up to 64 bits, Date,
// Date32, DateTime, DateTime64, Time, Bool). Wider kinds must use RawAt.
func (c *FixedWidthColumn) Uint64At(i int) uint64 {
	b := c.RawAt(i)

	var v uint64
	for k := len(b) - 1; k >= 0; k-- {
		v = v<<8 | uint64(b[k])
	}

	return v
}

// Float64Slice exposes the column as a borrowed []float64 via a zero-copy
// unsafe cast, valid because the wire layout of a Float64 column matches the
// in-memory layout of a float64 slice. ok is false when the kind isn't
// Float64 or the data is empty.
func (c *FixedWidthColumn) Float64Slice() (vals []float64, ok bool) {
	if c.typ.Kind != schema.KindFloat64 || len(c.raw) == 0 {
		return nil, false
	}

	return unsafe.Slice((*float64)(unsafe.Pointer(&c.raw[0])), len(c.raw)/8), true
}

func widthBytesFor(t *schema.Type) (int, error) {
	switch t.Kind {
	case schema.KindInt8, schema.KindUInt8, schema.KindBool, schema.KindNothing:
		// Nothing still occupies one placeholder byte per row on the wire.
		return 1, nil
	case schema.KindInt16, schema.KindUInt16, schema.KindBFloat16, schema.KindDate:
		return 2, nil
	case schema.KindInt32, schema.KindUInt32, schema.KindFloat32, schema.KindDecimal32,
		schema.KindDate32, schema.KindDateTime, schema.KindTime, schema.KindIPv4:
		return 4, nil
	case schema.KindInt64, schema.KindUInt64, schema.KindFloat64, schema.KindDecimal64,
		schema.KindDateTime64:
		return 8, nil
	case schema.KindInt128, schema.KindUInt128, schema.KindDecimal128, schema.KindUUID, schema.KindIPv6:
		return 16, nil
	case schema.KindInt256, schema.KindUInt256, schema.KindDecimal256:
		return 32, nil
	default:
		return 0, errs.ErrUnsupportedType
	}
}

func decodeFixedWidth(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	width, err := widthBytesFor(t)
	if err != nil {
		return nil, wrapErr(errs.WrapExpected(errs.ErrUnsupportedType, cur.Offset, colName, t.String()), cur.Offset, colName)
	}

	raw, err := cur.ReadBytes(rowCount * width)
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	return &FixedWidthColumn{typ: t, rows: rowCount, raw: maybeCopy(opt, raw), widthBytes: width}, nil
}

// StringColumn holds row_count variable-length byte strings, each stored as
// a varint length prefix followed by its (possibly non-UTF-8) content.
// Offsets record each row's [start,end) into Raw, computed in a single
// forward decode pass with one allocation for the whole column.
type StringColumn struct {
	typ  *schema.Type
	raw  []byte
	offs []stringSpan
}

type stringSpan struct {
	start, end int
}

func (c *StringColumn) Type() *schema.Type { return c.typ }
func (c *StringColumn) Len() int           { return len(c.offs) }

// At returns row i's content, borrowed from Raw.
func (c *StringColumn) At(i int) []byte {
	s := c.offs[i]

	return c.raw[s.start:s.end]
}

func decodeString(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	start := cur.Offset
	offs := make([]stringSpan, 0, rowCount)

	for n := 0; n < rowCount; n++ {
		b, err := cur.ReadString()
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		// Spans are relative to start, so they index raw directly whether
		// raw ends up borrowed or copied.
		end := cur.Offset - start

		offs = append(offs, stringSpan{start: end - len(b), end: end})
	}

	raw := maybeCopy(opt, cur.Data[start:cur.Offset])

	if opt.StrictUTF8 {
		for i := range offs {
			s := offs[i]
			if !utf8.Valid(raw[s.start:s.end]) {
				return nil, wrapErr(errs.Wrap(&errs.InvalidUTF8Error{Column: colName, Row: i}, cur.Offset, colName), cur.Offset, colName)
			}
		}
	}

	return &StringColumn{typ: t, raw: raw, offs: offs}, nil
}

// FixedStringColumn holds row_count fixed-length byte strings of FixedLen
// bytes each, trailing NULs preserved verbatim.
type FixedStringColumn struct {
	typ *schema.Type
	raw []byte
	n   int
}

func (c *FixedStringColumn) Type() *schema.Type { return c.typ }
func (c *FixedStringColumn) Len() int {
	if c.n == 0 {
		return 0
	}

	return len(c.raw) / c.n
}

// At returns row i's content, borrowed from Raw.
func (c *FixedStringColumn) At(i int) []byte {
	return c.raw[i*c.n : (i+1)*c.n]
}

func decodeFixedString(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	raw, err := cur.ReadBytes(rowCount * t.FixedLen)
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	return &FixedStringColumn{typ: t, raw: maybeCopy(opt, raw), n: t.FixedLen}, nil
}

// EnumColumn holds row_count Enum8/Enum16 raw values; NameAt resolves a raw
// value to its declared name, failing with InvalidEnumValueError when the
// value isn't in the type's table.
type EnumColumn struct {
	*FixedWidthColumn
}

func decodeEnum(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	width := 1
	if t.Kind == schema.KindEnum16 {
		width = 2
	}

	raw, err := cur.ReadBytes(rowCount * width)
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	return &EnumColumn{&FixedWidthColumn{typ: t, rows: rowCount, raw: maybeCopy(opt, raw), widthBytes: width}}, nil
}

// RawInt16At returns row i's enum raw value sign-extended to int16.
func (c *EnumColumn) RawInt16At(i int) int16 {
	b := c.RawAt(i)
	if len(b) == 1 {
		return int16(int8(b[0]))
	}

	return int16(uint16(b[0]) | uint16(b[1])<<8)
}

// NameAt resolves row i's raw value against the type's enum table.
func (c *EnumColumn) NameAt(i int) (string, error) {
	v := c.RawInt16At(i)
	for _, e := range c.typ.Enum {
		if e.Value == v {
			return e.Name, nil
		}
	}

	return "", &errs.InvalidEnumValueError{Value: v}
}
