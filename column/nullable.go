package column

import (
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// NullableColumn wraps an inner column with a per-row null map: 1 = null,
// 0 = present. The inner column is decoded for all
// row_count rows regardless of nullness; absent-row bytes carry arbitrary
// content per the wire format and must never be interpreted.
type NullableColumn struct {
	typ     *schema.Type
	nullMap []byte
	inner   Column
}

func (c *NullableColumn) Type() *schema.Type { return c.typ }
func (c *NullableColumn) Len() int           { return len(c.nullMap) }

// IsNull reports whether row i is null.
func (c *NullableColumn) IsNull(i int) bool {
	return c.nullMap[i] != 0
}

// Inner returns the wrapped column, decoded for every row including nulls.
func (c *NullableColumn) Inner() Column {
	return c.inner
}

func decodeNullable(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	nullMap, err := cur.ReadBytes(rowCount)
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	inner, err := Decode(t.Elem, rowCount, cur, colName, opt)
	if err != nil {
		return nil, err
	}

	return &NullableColumn{typ: t, nullMap: maybeCopy(opt, nullMap), inner: inner}, nil
}
