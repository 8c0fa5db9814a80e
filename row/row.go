package row

import (
	"encoding/binary"
	"fmt"
	"iter"
	"math"

	"github.com/night-crawler/chbr/block"
	"github.com/night-crawler/chbr/column"
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// Block wraps a decoded block.Block with row-by-row, per-column projection.
// Projections are O(1) for fixed-width scalars and O(slice length) for
// arrays.
type Block struct {
	blk *block.Block
}

// NewBlock wraps a decoded block for row access.
func NewBlock(blk *block.Block) *Block {
	return &Block{blk: blk}
}

// Len returns the block's row count.
func (b *Block) Len() int { return b.blk.RowCount }

// NumColumns returns the block's column count.
func (b *Block) NumColumns() int { return len(b.blk.Columns) }

// ColumnName returns the i-th column's declared name.
func (b *Block) ColumnName(i int) string { return b.blk.Columns[i].Name }

// Row returns a cursor onto row i. Row values are cheap views; they borrow
// from the underlying block and must not outlive it.
func (b *Block) Row(i int) Row {
	return Row{blk: b.blk, idx: i}
}

// Rows returns an iterator over every row in the block.
func (b *Block) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := range b.blk.RowCount {
			if !yield(Row{blk: b.blk, idx: i}) {
				return
			}
		}
	}
}

// Row is a logical row index into a Block.
type Row struct {
	blk *block.Block
	idx int
}

// Index returns the row's position within its block.
func (r Row) Index() int { return r.idx }

// At projects column colIdx's value at this row.
func (r Row) At(colIdx int) (Value, error) {
	if colIdx < 0 || colIdx >= len(r.blk.Columns) {
		return Value{}, fmt.Errorf("%w: column index %d", errs.ErrIndexOutOfRange, colIdx)
	}

	return project(r.blk.Columns[colIdx].Column, r.idx)
}

// ByName projects the named column's value at this row.
func (r Row) ByName(name string) (Value, error) {
	nc := r.blk.ColumnByName(name)
	if nc == nil {
		return Value{}, fmt.Errorf("%w: column %q", errs.ErrIndexOutOfRange, name)
	}

	return project(nc.Column, r.idx)
}

// project is the typed-projection layer: it type-switches on the decoded
// Column's concrete shape and resolves row i to a Value, recursing into
// composite shapes (Nullable, Array, Tuple, LowCardinality, Variant,
// Dynamic, Json).
func project(col column.Column, i int) (Value, error) {
	switch c := col.(type) {
	case *column.NullableColumn:
		if c.IsNull(i) {
			return Value{Kind: KindNull, Type: c.Type()}, nil
		}

		return project(c.Inner(), i)

	case *column.ArrayColumn:
		start, end := c.Bounds(i)

		elems := make([]Value, 0, end-start)

		for k := start; k < end; k++ {
			v, err := project(c.Inner(), int(k))
			if err != nil {
				return Value{}, err
			}

			elems = append(elems, v)
		}

		return Value{Kind: KindArray, Type: c.Type(), Elems: elems}, nil

	case *column.LowCardinalityColumn:
		idx := c.IndexAt(i)
		if c.HasNullSlot() && idx == 0 {
			return Value{Kind: KindNull, Type: c.Type()}, nil
		}

		return project(c.Dict(), int(idx))

	case *column.VariantColumn:
		return projectVariant(c, i)

	case *column.DynamicColumn:
		return projectVariant(c.Variant(), i)

	case *column.JSONColumn:
		return projectJSON(c, i)

	case *column.EnumColumn:
		name, err := c.NameAt(i)
		if err != nil {
			return Value{}, err
		}

		return Value{Kind: KindEnum, Type: c.Type(), Enum: name}, nil

	case *column.StringColumn:
		return Value{Kind: KindBytes, Type: c.Type(), Bytes: c.At(i)}, nil

	case *column.FixedStringColumn:
		return Value{Kind: KindBytes, Type: c.Type(), Bytes: c.At(i)}, nil

	case *column.FixedWidthColumn:
		return projectFixedWidth(c, i)

	case *column.TupleColumn:
		return projectTuple(c, col.Type(), i)

	default:
		return Value{}, fmt.Errorf("%w: no row projection for %T", errs.ErrUnsupportedType, col)
	}
}

func projectVariant(c *column.VariantColumn, i int) (Value, error) {
	d := c.Discriminator(i)
	if d == 0xFF {
		return Value{Kind: KindNull, Type: c.Type()}, nil
	}

	inner, err := project(c.SubColumn(int(d)), c.ValueIndex(i))
	if err != nil {
		return Value{}, err
	}

	return Value{Kind: KindVariant, Type: c.Type(), VariantTag: int(d), Inner: &inner}, nil
}

func projectJSON(c *column.JSONColumn, i int) (Value, error) {
	fields := make([]Field, 0, len(c.DynamicPaths())+len(c.TypedPaths()))

	for _, dp := range c.DynamicPaths() {
		v, err := project(dp.Column, i)
		if err != nil {
			return Value{}, err
		}

		fields = append(fields, Field{Path: dp.Path, Value: v})
	}

	for _, tp := range c.TypedPaths() {
		v, err := project(tp.Column, i)
		if err != nil {
			return Value{}, err
		}

		fields = append(fields, Field{Path: tp.Path, Value: v})
	}

	shared, err := project(c.SharedData(), i)
	if err != nil {
		return Value{}, err
	}

	for _, entry := range shared.Elems {
		if len(entry.Elems) != 2 {
			continue
		}

		fields = append(fields, Field{Path: string(entry.Elems[0].Bytes), Value: entry.Elems[1]})
	}

	return Value{Kind: KindJSON, Type: c.Type(), Fields: fields}, nil
}

func projectTuple(c *column.TupleColumn, t *schema.Type, i int) (Value, error) {
	n := c.NumFields()
	elems := make([]Value, n)
	names := make([]string, n)

	for k := range n {
		v, err := project(c.Field(k), i)
		if err != nil {
			return Value{}, err
		}

		elems[k] = v

		if t != nil && k < len(t.Fields) {
			names[k] = t.Fields[k].Name
		}
	}

	return Value{Kind: KindTuple, Type: t, Elems: elems, Names: names}, nil
}

// projectFixedWidth resolves a FixedWidthColumn row to its scalar Value,
// dispatching on the column's TypeTree kind.
func projectFixedWidth(c *column.FixedWidthColumn, i int) (Value, error) {
	t := c.Type()
	b := c.RawAt(i)

	switch t.Kind {
	case schema.KindInt8:
		return Value{Kind: KindInt, Type: t, Int: int64(int8(b[0]))}, nil
	case schema.KindInt16:
		return Value{Kind: KindInt, Type: t, Int: int64(int16(binary.LittleEndian.Uint16(b)))}, nil
	case schema.KindInt32:
		return Value{Kind: KindInt, Type: t, Int: int64(int32(binary.LittleEndian.Uint32(b)))}, nil
	case schema.KindInt64:
		return Value{Kind: KindInt, Type: t, Int: int64(binary.LittleEndian.Uint64(b))}, nil
	case schema.KindInt128, schema.KindInt256:
		return Value{Kind: KindWide, Type: t, Wide: b}, nil
	case schema.KindUInt8:
		return Value{Kind: KindUint, Type: t, Uint: uint64(b[0])}, nil
	case schema.KindUInt16:
		return Value{Kind: KindUint, Type: t, Uint: uint64(binary.LittleEndian.Uint16(b))}, nil
	case schema.KindUInt32:
		return Value{Kind: KindUint, Type: t, Uint: uint64(binary.LittleEndian.Uint32(b))}, nil
	case schema.KindUInt64:
		return Value{Kind: KindUint, Type: t, Uint: binary.LittleEndian.Uint64(b)}, nil
	case schema.KindUInt128, schema.KindUInt256:
		return Value{Kind: KindWide, Type: t, Wide: b}, nil
	case schema.KindFloat32:
		return Value{Kind: KindFloat, Type: t, Float: float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))}, nil
	case schema.KindFloat64:
		return Value{Kind: KindFloat, Type: t, Float: math.Float64frombits(binary.LittleEndian.Uint64(b))}, nil
	case schema.KindBFloat16:
		bits := uint32(binary.LittleEndian.Uint16(b)) << 16

		return Value{Kind: KindFloat, Type: t, Float: float64(math.Float32frombits(bits))}, nil
	case schema.KindDecimal32:
		return Value{Kind: KindInt, Type: t, Int: int64(int32(binary.LittleEndian.Uint32(b))), Scale: t.Scale}, nil
	case schema.KindDecimal64:
		return Value{Kind: KindInt, Type: t, Int: int64(binary.LittleEndian.Uint64(b)), Scale: t.Scale}, nil
	case schema.KindDecimal128, schema.KindDecimal256:
		return Value{Kind: KindWide, Type: t, Wide: b, Scale: t.Scale}, nil
	case schema.KindBool:
		return Value{Kind: KindBool, Type: t, Bool: b[0] != 0}, nil
	case schema.KindUUID:
		return Value{Kind: KindUUID, Type: t, UUID: wire.DecodeUUID(b)}, nil
	case schema.KindIPv4:
		return Value{Kind: KindIPv4, Type: t, IPv4: wire.DecodeIPv4(b)}, nil
	case schema.KindIPv6:
		var ip [16]byte
		copy(ip[:], b)

		return Value{Kind: KindIPv6, Type: t, IPv6: ip}, nil
	case schema.KindDate:
		return Value{Kind: KindInt, Type: t, Int: int64(binary.LittleEndian.Uint16(b))}, nil
	case schema.KindDate32:
		return Value{Kind: KindInt, Type: t, Int: int64(int32(binary.LittleEndian.Uint32(b)))}, nil
	case schema.KindDateTime:
		return Value{Kind: KindUint, Type: t, Uint: uint64(binary.LittleEndian.Uint32(b))}, nil
	case schema.KindDateTime64:
		return Value{Kind: KindInt, Type: t, Int: int64(binary.LittleEndian.Uint64(b)), Scale: t.TimeScale}, nil
	case schema.KindTime:
		return Value{Kind: KindInt, Type: t, Int: int64(int32(binary.LittleEndian.Uint32(b))), Scale: t.TimeScale}, nil
	case schema.KindNothing:
		return Value{Kind: KindNull, Type: t}, nil
	default:
		return Value{}, fmt.Errorf("%w: no fixed-width row projection for %s", errs.ErrUnsupportedType, t.Kind)
	}
}
