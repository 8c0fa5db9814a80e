package column

import (
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/typeexpr"
	"github.com/night-crawler/chbr/wire"
)

// JSONDynamicPath is one self-describing subpath of a Json column, decoded
// as a Dynamic column.
type JSONDynamicPath struct {
	Path   string
	Column *DynamicColumn
}

// JSONTypedPath is one subpath of a Json column whose type was declared
// inline rather than discovered per-row.
type JSONTypedPath struct {
	Path   string
	Type   *schema.Type
	Column Column
}

// JSONColumn is a self-describing column: a set of dynamic paths, a set of
// typed paths, and a shared-data bucket for whatever the server did not
// break out into its own path. row.Row projects it path -> value per row.
type JSONColumn struct {
	typ          *schema.Type
	version      uint64
	dynamicPaths []JSONDynamicPath
	typedPaths   []JSONTypedPath
	sharedData   *ArrayColumn
}

func (c *JSONColumn) Type() *schema.Type { return c.typ }
func (c *JSONColumn) Len() int           { return c.sharedData.Len() }

// DynamicPaths returns the self-describing subpaths, in declared order.
func (c *JSONColumn) DynamicPaths() []JSONDynamicPath { return c.dynamicPaths }

// TypedPaths returns the inline-typed subpaths, in declared order.
func (c *JSONColumn) TypedPaths() []JSONTypedPath { return c.typedPaths }

// SharedData returns the Array(Tuple(String, String)) bucket of remaining,
// unparsed per-row JSON key/value pairs.
func (c *JSONColumn) SharedData() *ArrayColumn { return c.sharedData }

func decodeJSON(t *schema.Type, rowCount int, cur *wire.Cursor, colName string, opt Options) (Column, error) {
	version, err := readStructureVersion(cur, colName)
	if err != nil {
		return nil, err
	}

	dynCount, err := cur.ReadVarint()
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	dynamicPaths := make([]JSONDynamicPath, dynCount)

	for i := range dynamicPaths {
		pathBytes, err := cur.ReadString()
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		sub, err := decodeDynamic(&schema.Type{Kind: schema.KindDynamic}, rowCount, cur, colName, opt)
		if err != nil {
			return nil, err
		}

		dynamicPaths[i] = JSONDynamicPath{Path: string(pathBytes), Column: sub.(*DynamicColumn)}
	}

	typedCount, err := cur.ReadVarint()
	if err != nil {
		return nil, wrapErr(err, cur.Offset, colName)
	}

	typedPaths := make([]JSONTypedPath, typedCount)

	for i := range typedPaths {
		pathBytes, err := cur.ReadString()
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		typeExprBytes, err := cur.ReadString()
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		pathType, err := typeexpr.Parse(string(typeExprBytes))
		if err != nil {
			return nil, wrapErr(err, cur.Offset, colName)
		}

		sub, err := Decode(pathType, rowCount, cur, colName, opt)
		if err != nil {
			return nil, err
		}

		typedPaths[i] = JSONTypedPath{Path: string(pathBytes), Type: pathType, Column: sub}
	}

	sharedDataType := &schema.Type{
		Kind: schema.KindArray,
		Elem: &schema.Type{
			Kind: schema.KindTuple,
			Fields: []schema.Field{
				{Name: "key", Type: &schema.Type{Kind: schema.KindString}},
				{Name: "value", Type: &schema.Type{Kind: schema.KindString}},
			},
		},
	}

	sharedData, err := decodeArray(sharedDataType, rowCount, cur, colName, opt)
	if err != nil {
		return nil, err
	}

	return &JSONColumn{
		typ: t, version: version, dynamicPaths: dynamicPaths,
		typedPaths: typedPaths, sharedData: sharedData.(*ArrayColumn),
	}, nil
}
