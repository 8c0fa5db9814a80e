package column

import (
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/typeexpr"
	"github.com/night-crawler/chbr/wire"
)

// dynamicStructureVersion is the only structure-version value this decoder
// recognizes; any other value is reported as a VersionMismatchError.
const dynamicStructureVersion = 0

// DynamicColumn is a Variant whose member list is discovered from the
// stream itself rather than declared in the TypeTree.
type DynamicColumn struct {
	typ         *schema.Type
	version     uint64
	memberTypes []*schema.Type
	variant     *VariantColumn
}

func (c *DynamicColumn) Type() *schema.Type { return c.typ }
func (c *DynamicColumn) Len() int           { return c.variant.Len() }

// MemberTypes returns the type expressions discovered from the stream, in
// declared order, Dynamic's equivalent of a Variant's fixed Variants list.
func (c *DynamicColumn) MemberTypes() []*schema.Type { return c.memberTypes }

// Variant returns the underlying discriminator/sub-column structure.
func (c *DynamicColumn) Variant() *VariantColumn { return c.variant }

// decodeMemberTypeList reads the varint count + length-prefixed
// type-expression strings shared by Dynamic and Json's dynamic-path
// sub-columns, re-parsing each string through typeexpr.Parse.
func decodeMemberTypeList(cur *wire.Cursor, colName string) ([]*schema.Type, error) {
	n, err := cur.ReadVarint()
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	types := make([]*schema.Type, n)

	for i := range types {
		exprBytes, err := cur.ReadString()
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		t, err := typeexpr.Parse(string(exprBytes))
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		types[i] = t
	}

	return types, nil
}

func readStructureVersion(cur *wire.Cursor, colName string) (uint64, error) {
	v, err := cur.ReadUint64()
	if err != nil {
		return 0, wrapErr(err, cur.Offset, colName)
	}

	if v != dynamicStructureVersion {
		return 0, wrapErr(errs.Wrap(&errs.VersionMismatchError{Got: v, Expected: dynamicStructureVersion}, cur.Offset, colName), cur.Offset, colName)
	}

	return v, nil
}

func decodeDynamic(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	version, err := readStructureVersion(cur, colName)
	if err != nil {
		return nil, err
	}

	memberTypes, err := decodeMemberTypeList(cur, colName)
	if err != nil {
		return nil, err
	}

	discs, subIndex, counts, err := decodeDiscriminators(rowCount, len(memberTypes), cur, colName, opt)
	if err != nil {
		return nil, err
	}

	subColumns := make([]Column, len(memberTypes))

	for i, mt := range memberTypes {
		col, err := Decode(mt, counts[i], cur, colName, opt)
		if err != nil {
			return nil, err
		}

		subColumns[i] = col
	}

	variant := &VariantColumn{
		typ:            &schema.Type{Kind: schema.KindVariant, Variants: memberTypes},
		discriminators: discs,
		subIndex:       subIndex,
		subColumns:     subColumns,
	}

	return &DynamicColumn{typ: t, version: version, memberTypes: memberTypes, variant: variant}, nil
}
