package column

import (
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// LowCardinality flag-word bit layout. The upper bits beyond these four are
// undocumented and rejected as ErrInvalidType rather than silently ignored.
const (
	lcIndexTypeMask           = 0xFF
	lcNeedsGlobalDictionary   = 1 << 8
	lcHasAdditionalKeys       = 1 << 9
	lcNonNullSubIndex         = 1 << 10
	lcKnownBits               = lcIndexTypeMask | lcNeedsGlobalDictionary | lcHasAdditionalKeys | lcNonNullSubIndex
)

// LowCardinalityColumn holds a LowCardinality(T) column: a version/flags
// word, a dictionary of the stripped-Nullable value type, and per-row
// dictionary indices.
type LowCardinalityColumn struct {
	typ         *schema.Type
	flags       uint64
	dict        Column
	dictSize    int
	indices     []uint64
	hasNullSlot bool
}

func (c *LowCardinalityColumn) Type() *schema.Type { return c.typ }
func (c *LowCardinalityColumn) Len() int           { return len(c.indices) }

// Dict returns the decoded dictionary column (dictSize rows, of T with any
// outer Nullable stripped).
func (c *LowCardinalityColumn) Dict() Column { return c.dict }

// DictSize returns the dictionary's row count.
func (c *LowCardinalityColumn) DictSize() int { return c.dictSize }

// IndexAt returns row i's dictionary index.
func (c *LowCardinalityColumn) IndexAt(i int) uint64 { return c.indices[i] }

// HasNullSlot reports whether T was Nullable(U), meaning index 0 denotes
// null rather than a real dictionary entry.
func (c *LowCardinalityColumn) HasNullSlot() bool { return c.hasNullSlot }

func lcIndexWidth(flags uint64) (int, error) {
	switch flags & lcIndexTypeMask {
	case 0:
		return 1, nil
	case 1:
		return 2, nil
	case 2:
		return 4, nil
	case 3:
		return 8, nil
	default:
		return 0, errs.ErrInvalidType
	}
}

func decodeLowCardinality(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	flags, err := cur.ReadUint64()
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	if flags&^uint64(lcKnownBits) != 0 {
		return nil, wrapErr(errs.WrapExpected(errs.ErrInvalidType, cur.Offset, colName, "known LowCardinality flag bits"), cur.Offset, colName)
	}

	indexWidth, err := lcIndexWidth(flags)
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	dictSize64, err := cur.ReadUint64()
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	dictSize := int(dictSize64)

	valueType := t.Elem
	hasNullSlot := false

	if valueType.Kind == schema.KindNullable {
		valueType = valueType.Elem
		hasNullSlot = true
	}

	dict, err := Decode(valueType, dictSize, cur, colName, opt)
	if err != nil {
		return nil, err
	}

	declaredRows, err := cur.ReadUint64()
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	if int(declaredRows) != rowCount {
		return nil, wrapErr(errs.Wrap(errs.ErrRowCountMismatch, cur.Offset, colName), cur.Offset, colName)
	}

	indices := make([]uint64, rowCount)

	for i := 0; i < rowCount; i++ {
		raw, err := cur.ReadBytes(indexWidth)
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		var v uint64
		for k := indexWidth - 1; k >= 0; k-- {
			v = v<<8 | uint64(raw[k])
		}

		if int(v) >= dictSize {
			return nil, wrapErr(errs.Wrap(&errs.DictionaryOverflowError{Index: int(v), Size: dictSize}, cur.Offset, colName), cur.Offset, colName)
		}

		indices[i] = v
	}

	return &LowCardinalityColumn{
		typ: t, flags: flags, dict: dict, dictSize: dictSize,
		indices: indices, hasNullSlot: hasNullSlot,
	}, nil
}
