package column

import (
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// ArrayColumn holds row_count little-endian u64 cumulative offsets followed
// by the inner column of length offsets[row_count-1]. Row i's
// slice is offsets[i-1]..offsets[i], with a virtual offsets[-1] = 0.
//
// Map(K, V) and Nested(f...) in non-flattened mode both decode to this
// exact shape (Array(Tuple(...))); decodeMap and the Nested case of
// decodeTuple's caller both construct an ArrayColumn directly.
type ArrayColumn struct {
	typ     *schema.Type
	offsets []uint64
	inner   Column
}

func (c *ArrayColumn) Type() *schema.Type { return c.typ }
func (c *ArrayColumn) Len() int           { return len(c.offsets) }

// Inner returns the flattened element column.
func (c *ArrayColumn) Inner() Column { return c.inner }

// Bounds returns row i's [start, end) slice bounds into Inner().
func (c *ArrayColumn) Bounds(i int) (start, end uint64) {
	if i == 0 {
		return 0, c.offsets[0]
	}

	return c.offsets[i-1], c.offsets[i]
}

func decodeArray(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	offsets, err := decodeOffsets(rowCount, cur, colName)
	if err != nil {
		return nil, err
	}

	innerLen := 0
	if rowCount > 0 {
		innerLen = int(offsets[rowCount-1])
	}

	inner, err := Decode(t.Elem, innerLen, cur, colName, opt)
	if err != nil {
		return nil, err
	}

	return &ArrayColumn{typ: t, offsets: offsets, inner: inner}, nil
}

// decodeOffsets reads row_count u64-LE cumulative offsets and validates
// that they never decrease.
func decodeOffsets(rowCount int, cur *wire.Cursor, colName string) ([]uint64, error) {
	offsets := make([]uint64, rowCount)

	var prev uint64

	for i := 0; i < rowCount; i++ {
		v, err := cur.ReadUint64()
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		if v < prev {
			return nil, wrapErr(errs.Wrap(errs.ErrOffsetNotMonotonic, cur.Offset, colName), cur.Offset, colName)
		}

		offsets[i] = v
		prev = v
	}

	return offsets, nil
}

// decodeMap decodes Map(K, V), structurally identical to Array(Tuple(K,V)).
func decodeMap(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	tupleType := &schema.Type{
		Kind:   schema.KindTuple,
		Fields: []schema.Field{{Name: "key", Type: t.Key}, {Name: "value", Type: t.Value}},
	}

	offsets, err := decodeOffsets(rowCount, cur, colName)
	if err != nil {
		return nil, err
	}

	innerLen := 0
	if rowCount > 0 {
		innerLen = int(offsets[rowCount-1])
	}

	inner, err := decodeTuple(tupleType, innerLen, cur, colName, opt)
	if err != nil {
		return nil, err
	}

	return &ArrayColumn{typ: t, offsets: offsets, inner: inner}, nil
}
