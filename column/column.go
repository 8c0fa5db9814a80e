// Package column implements one decoder per TypeTree shape. A decoder is a
// function of (TypeTree, row count, byte cursor) -> Column; composition
// mirrors the tree, so Array's decoder calls back into Decode for its
// element type, Tuple's decoder calls Decode once per field, and so on.
//
// Column itself is a tagged-variant sum type, one tag per shape rather than
// dynamic dispatch: a small interface with one concrete struct per shape,
// type-switched on by row.Row when projecting a cell to a caller value.
package column

import (
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/internal/pool"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// Column is a decoded column: the original TypeTree, the row count, and a
// shape-specific payload. Columns are immutable once decoded and own or
// borrow their backing bytes.
type Column interface {
	// Type returns the TypeTree this column was decoded against.
	Type() *schema.Type
	// Len returns the column's row count.
	Len() int
}

// Options controls decode-time behavior shared across every decoder, set by
// package block from its functional options.
type Options struct {
	// CopyOnDecode forces every borrowed byte view to be copied into
	// owned storage during decode, rather than left referencing the
	// input buffer.
	CopyOnDecode bool
	// StrictUTF8 rejects non-UTF-8 string rows at decode time instead of
	// deferring validation to row projection.
	StrictUTF8 bool
	// Tracker, when non-nil, backs every CopyOnDecode materialization with
	// a pooled buffer instead of a one-off make([]byte, ...); the owner of
	// the decoded Block releases them together via Tracker.Release once the
	// block is no longer needed.
	Tracker *BufTracker
}

// BufTracker accumulates the pooled buffers a single block decode allocates
// under CopyOnDecode, so they can all be returned to internal/pool's
// ByteBufferPool in one call once the caller is done with the block.
type BufTracker struct {
	bufs []*pool.ByteBuffer
}

// NewBufTracker returns an empty tracker ready to back a decode call's
// CopyOnDecode path.
func NewBufTracker() *BufTracker {
	return &BufTracker{}
}

// own copies src into a freshly pooled buffer tracked for later release,
// returning the owned slice.
func (t *BufTracker) own(src []byte) []byte {
	bb := pool.GetColumnBuffer()
	bb.MustWrite(src)
	t.bufs = append(t.bufs, bb)

	return bb.Bytes()
}

// Release returns every buffer this tracker has handed out back to the pool.
// Call it once the decoded Block (and any views into it) is no longer
// needed; reusing the Block afterward is undefined.
func (t *BufTracker) Release() {
	for _, bb := range t.bufs {
		pool.PutColumnBuffer(bb)
	}

	t.bufs = nil
}

// Decode decodes one column's body of rowCount rows from cur, dispatching
// on t.Kind. colName is used only for error context.
func Decode(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	switch t.Kind {
	case schema.KindNullable:
		return decodeNullable(t, rowCount, cur, colName, opt)
	case schema.KindArray:
		return decodeArray(t, rowCount, cur, colName, opt)
	case schema.KindTuple:
		return decodeTuple(t, rowCount, cur, colName, opt)
	case schema.KindNested:
		return decodeNested(t, rowCount, cur, colName, opt)
	case schema.KindMap:
		return decodeMap(t, rowCount, cur, colName, opt)
	case schema.KindLowCardinality:
		return decodeLowCardinality(t, rowCount, cur, colName, opt)
	case schema.KindVariant:
		return decodeVariant(t, rowCount, cur, colName, opt)
	case schema.KindDynamic:
		return decodeDynamic(t, rowCount, cur, colName, opt)
	case schema.KindJSON:
		return decodeJSON(t, rowCount, cur, colName, opt)
	case schema.KindEnum8, schema.KindEnum16:
		return decodeEnum(t, rowCount, cur, colName, opt)
	case schema.KindString:
		return decodeString(t, rowCount, cur, colName, opt)
	case schema.KindFixedString:
		return decodeFixedString(t, rowCount, cur, colName, opt)
	default:
		return decodeFixedWidth(t, rowCount, cur, colName, opt)
	}
}

func maybeCopy(opt Options, b []byte) []byte {
	if !opt.CopyOnDecode || b == nil {
		return b
	}

	if opt.Tracker != nil {
		return opt.Tracker.own(b)
	}

	owned := make([]byte, len(b))
	copy(owned, b)

	return owned
}

func wrapErr(err error, offset int, colName string) error {
	if err == nil {
		return nil
	}

	if de, ok := err.(*errs.DecodeError); ok && de.Column == "" {
		de.Column = colName

		return de
	}

	return errs.Wrap(err, offset, colName)
}
