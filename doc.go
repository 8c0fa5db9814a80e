// Package chbr decodes the columnar binary wire format produced by a
// column-oriented analytical database when results are requested in its
// native block format: bytes in, a strongly typed, column-major in-memory
// block out, with row-by-row typed projection.
//
// # Core Features
//
//   - A recursive-descent parser for the database's textual type-expression
//     grammar (Array(Nullable(LowCardinality(String))), Decimal64(6), ...)
//   - One decoder per type shape: scalars, Nullable, Array, Tuple, Map,
//     Nested, LowCardinality, Variant, Dynamic, Json, and the six geo aliases
//   - Zero- or low-copy decoding: columns borrow from the input buffer by
//     default, with an opt-in copy_on_decode mode when the block must
//     outlive it
//   - A row accessor projecting decoded columns back into typed values
//
// # Basic Usage
//
//	import "github.com/night-crawler/chbr/block"
//	import "github.com/night-crawler/chbr/row"
//
//	blk, _, err := block.Decode(data)
//	if err != nil {
//	    // handle decode error
//	}
//
//	rows := row.NewBlock(blk)
//	for r := range rows.Rows() {
//	    v, _ := r.ByName("a")
//	    fmt.Println(v.Int)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around block and row,
// the packages most callers use directly. schema and typeexpr expose the
// type-expression grammar; column and wire are the lower-level decoders for
// callers who need them directly; errs is the structured error taxonomy.
package chbr

import (
	"github.com/night-crawler/chbr/block"
	"github.com/night-crawler/chbr/row"
)

// Decode reads one block from the front of data and wraps it for row
// access, returning the number of bytes consumed so a caller holding a
// stream of several blocks back-to-back can advance past exactly one and
// call Decode again for the next.
func Decode(data []byte, opts ...block.Option) (*row.Block, int, error) {
	blk, n, err := block.Decode(data, opts...)
	if err != nil {
		return nil, 0, err
	}

	return row.NewBlock(blk), n, nil
}

// DecodeAll decodes every block packed sequentially in data, until the
// input is exhausted, and wraps each for row access.
func DecodeAll(data []byte, opts ...block.Option) ([]*row.Block, error) {
	blocks, err := block.DecodeAll(data, opts...)

	out := make([]*row.Block, len(blocks))
	for i, b := range blocks {
		out[i] = row.NewBlock(b)
	}

	return out, err
}
