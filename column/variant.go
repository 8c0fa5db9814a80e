package column

import (
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// nullDiscriminator is the null/absent sentinel value a Variant
// discriminator byte may carry.
const nullDiscriminator = 0xFF

// VariantColumn holds a discriminator stream and one sub-column per declared
// member type. Row i's value lives in
// subColumns[discriminators[i]] at position subIndex[i], the count of
// earlier rows sharing the same discriminator.
type VariantColumn struct {
	typ            *schema.Type
	discriminators []byte
	subIndex       []int
	subColumns     []Column
}

func (c *VariantColumn) Type() *schema.Type { return c.typ }
func (c *VariantColumn) Len() int           { return len(c.discriminators) }

// Discriminator returns row i's discriminator byte (nullDiscriminator if
// the row is null/absent).
func (c *VariantColumn) Discriminator(i int) byte { return c.discriminators[i] }

// SubColumn returns the sub-column decoded for member type index i.
func (c *VariantColumn) SubColumn(i int) Column { return c.subColumns[i] }

// ValueIndex returns the index within its active sub-column that row i's
// value occupies. Only meaningful when Discriminator(i) != nullDiscriminator.
func (c *VariantColumn) ValueIndex(i int) int { return c.subIndex[i] }

// decodeDiscriminators reads rowCount discriminator bytes and builds, for
// each row, the running index into its selected sub-column, so row access
// never has to re-walk the discriminator stream.
func decodeDiscriminators(rowCount, numTypes int, cur *wire.Cursor, colName string, opt Options) (discs []byte, subIndex []int, counts []int, err error) {
	discs, err = cur.ReadBytes(rowCount)
	if err != nil {
		return nil, nil, nil, wrapErr(err, cur.Offset, colName)
	}

	discs = maybeCopy(opt, discs)
	subIndex = make([]int, rowCount)
	counts = make([]int, numTypes)

	for i, d := range discs {
		if d == nullDiscriminator {
			subIndex[i] = -1
			continue
		}

		if int(d) >= numTypes {
			return nil, nil, nil, wrapErr(errs.Wrap(&errs.InvalidDiscriminatorError{Value: d, NumTypes: numTypes}, cur.Offset, colName), cur.Offset, colName)
		}

		subIndex[i] = counts[d]
		counts[d]++
	}

	return discs, subIndex, counts, nil
}

func decodeVariant(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	discs, subIndex, counts, err := decodeDiscriminators(rowCount, len(t.Variants), cur, colName, opt)
	if err != nil {
		return nil, err
	}

	subColumns := make([]Column, len(t.Variants))

	for i, vt := range t.Variants {
		col, err := Decode(vt, counts[i], cur, colName, opt)
		if err != nil {
			return nil, err
		}

		subColumns[i] = col
	}

	return &VariantColumn{typ: t, discriminators: discs, subIndex: subIndex, subColumns: subColumns}, nil
}
