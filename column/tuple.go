package column

import (
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// TupleColumn holds each field's column decoded back-to-back, each of
// row_count length. Field names mirror the TypeTree's declared order and
// are empty for positional (unnamed) tuples.
type TupleColumn struct {
	typ    *schema.Type
	rows   int
	fields []Column
}

func (c *TupleColumn) Type() *schema.Type { return c.typ }
func (c *TupleColumn) Len() int           { return c.rows }

// Field returns the i-th field's decoded column, in declared order.
func (c *TupleColumn) Field(i int) Column { return c.fields[i] }

// NumFields returns the tuple's arity.
func (c *TupleColumn) NumFields() int { return len(c.fields) }

func decodeTuple(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	fields := make([]Column, len(t.Fields))

	for i, f := range t.Fields {
		col, err := Decode(f.Type, rowCount, cur, colName, opt)
		if err != nil {
			return nil, err
		}

		fields[i] = col
	}

	return &TupleColumn{typ: t, rows: rowCount, fields: fields}, nil
}

// RegroupNested reassembles flattened `parent.field` sibling Array columns
// into a single Nested column: the siblings' shared offsets plus a tuple of
// their flattened element columns, the same Array(Tuple(f...)) shape a
// non-flattened Nested decode produces. Every sibling must carry identical
// offsets (they all describe the same per-row element counts); ok is false
// otherwise, and the caller should leave the columns flat.
func RegroupNested(t *schema.Type, siblings []*ArrayColumn) (*ArrayColumn, bool) {
	base := siblings[0]
	fields := make([]Column, len(siblings))

	for i, s := range siblings {
		if len(s.offsets) != len(base.offsets) {
			return nil, false
		}

		for k, off := range s.offsets {
			if off != base.offsets[k] {
				return nil, false
			}
		}

		fields[i] = s.inner
	}

	innerLen := 0
	if n := len(base.offsets); n > 0 {
		innerLen = int(base.offsets[n-1])
	}

	tupleType := &schema.Type{Kind: schema.KindTuple, Fields: t.Fields}
	inner := &TupleColumn{typ: tupleType, rows: innerLen, fields: fields}

	return &ArrayColumn{typ: t, offsets: base.offsets, inner: inner}, true
}

// decodeNested decodes Nested(f...) in non-flattened mode, structurally
// identical to Array(Tuple(f...)): row_count cumulative u64
// offsets followed by a Tuple column of the total flattened length.
func decodeNested(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	tupleType := &schema.Type{Kind: schema.KindTuple, Fields: t.Fields}

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
