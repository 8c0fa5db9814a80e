package block

import (
	"golang.org/x/sync/errgroup"

	"github.com/night-crawler/chbr/column"
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/typeexpr"
	"github.com/night-crawler/chbr/wire"
)

// Decode reads one block from the front of data: the optional block-info
// prefix, column count, row count, then each column's name/type/body in
// turn. It returns the decoded block and the number of bytes
// consumed, so a caller holding a stream of several blocks back-to-back can
// advance past exactly one and call Decode again for the next.
func Decode(data []byte, opts ...Option) (*Block, int, error) {
	cur := wire.NewCursor(data)

	b, err := decodeFrom(cur, resolve(opts))
	if err != nil {
		return nil, 0, err
	}

	return b, cur.Offset, nil
}

// DecodeAll decodes every block packed sequentially in data until the input
// is exhausted. On error it returns the blocks successfully decoded so far
// alongside the error; the failing block itself is never partially exposed.
func DecodeAll(data []byte, opts ...Option) ([]*Block, error) {
	cfg := resolve(opts)
	cur := wire.NewCursor(data)

	var blocks []*Block

	for cur.Len() > 0 {
		b, err := decodeFrom(cur, cfg)
		if err != nil {
			return blocks, err
		}

		blocks = append(blocks, b)
	}

	return blocks, nil
}

// decodeFrom implements the per-block decode described by Decode, assuming
// cur is already positioned at a block boundary.
func decodeFrom(cur *wire.Cursor, cfg config) (*Block, error) {
	info, err := parseInfo(cur)
	if err != nil {
		return nil, err
	}

	colCount, err := cur.ReadVarint()
	if err != nil {
		return nil, err
	}

	rowCount, err := cur.ReadVarint()
	if err != nil {
		return nil, err
	}

	colOpt := cfg.columnOptions()
	columns := make([]NamedColumn, colCount)

	for i := range columns {
		nameBytes, err := cur.ReadString()
		if err != nil {
			return nil, err
		}

		name := string(nameBytes)

		exprBytes, err := cur.ReadString()
		if err != nil {
			return nil, attachColumn(err, name)
		}

		t, err := typeexpr.Parse(string(exprBytes))
		if err != nil {
			return nil, attachColumn(err, name)
		}

		col, err := column.Decode(t, int(rowCount), cur, name, colOpt)
		if err != nil {
			return nil, err
		}

		columns[i] = NamedColumn{Name: name, Type: t, Column: col}
	}

	b := &Block{Info: info, RowCount: int(rowCount), Columns: columns, tracker: colOpt.Tracker}

	if cfg.assumeFlattenedNested {
		applyFlattenedNested(b)
	}

	return b, nil
}

// attachColumn fills in the column name on a decode error detected before
// the column decoder took over (the name or type-expression reads), so the
// error reports which column the block reader was positioned at.
func attachColumn(err error, name string) error {
	if de, ok := err.(*errs.DecodeError); ok && de.Column == "" {
		de.Column = name
	}

	return err
}

// DecodeBlocksConcurrently decodes several independent, already-delimited
// block byte slices in parallel. Decoders share no mutable state, so blocks
// can decode concurrently; within a single block, column bodies are laid
// out back-to-back in the byte stream and must be decoded sequentially by
// one goroutine, so block granularity is the unit of parallelism.
//
// One goroutine per block via errgroup.Go; Wait returns the first decode
// error. Results preserve the input order.
func DecodeBlocksConcurrently(dataBlocks [][]byte, opts ...Option) ([]*Block, error) {
	results := make([]*Block, len(dataBlocks))

	g := new(errgroup.Group)

	for i, data := range dataBlocks {
		i, data := i, data
		g.Go(func() error {
			b, _, err := Decode(data, opts...)
			if err != nil {
				return err
			}

			results[i] = b

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
