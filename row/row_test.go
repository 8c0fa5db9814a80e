package row

import (
	"testing"

	"github.com/night-crawler/chbr/block"
	"github.com/stretchr/testify/require"
)

// str encodes a varint length prefix (single-byte, since every name/type
// string in these tests is under 128 bytes) followed by s's bytes, the
// length-prefixed string encoding used for column names and type
// expressions.
func str(s string) []byte {
	return append([]byte{byte(len(s))}, []byte(s)...)
}

func withEmptyInfo(rest ...byte) []byte {
	return append([]byte{0x00}, rest...)
}

func col(name, typeExpr string, body ...byte) []byte {
	out := append([]byte{}, str(name)...)
	out = append(out, str(typeExpr)...)
	return append(out, body...)
}

func TestRow_ProjectInt64(t *testing.T) {
	data := withEmptyInfo(0x01, 0x01)
	data = append(data, col("a", "Int64", 0x2A, 0, 0, 0, 0, 0, 0, 0)...)

	blk, _, err := block.Decode(data)
	require.NoError(t, err)

	b := NewBlock(blk)
	require.Equal(t, 1, b.Len())

	r := b.Row(0)

	v, err := r.ByName("a")
	require.NoError(t, err)
	require.Equal(t, KindInt, v.Kind)
	require.Equal(t, int64(42), v.Int)
}

func TestRow_ProjectArray(t *testing.T) {
	data := withEmptyInfo(0x01, 0x03)
	data = append(data, col("arr", "Array(Int64)",
		2, 0, 0, 0, 0, 0, 0, 0, // offsets
		2, 0, 0, 0, 0, 0, 0, 0,
		3, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0, // inner
		2, 0, 0, 0, 0, 0, 0, 0,
		3, 0, 0, 0, 0, 0, 0, 0,
	)...)

	blk, _, err := block.Decode(data)
	require.NoError(t, err)

	b := NewBlock(blk)

	v0, err := b.Row(0).ByName("arr")
	require.NoError(t, err)
	require.Equal(t, KindArray, v0.Kind)
	require.Len(t, v0.Elems, 2)
	require.Equal(t, int64(1), v0.Elems[0].Int)
	require.Equal(t, int64(2), v0.Elems[1].Int)

	v1, err := b.Row(1).ByName("arr")
	require.NoError(t, err)
	require.Empty(t, v1.Elems)

	v2, err := b.Row(2).ByName("arr")
	require.NoError(t, err)
	require.Len(t, v2.Elems, 1)
	require.Equal(t, int64(3), v2.Elems[0].Int)
}

func TestRow_ProjectNullable(t *testing.T) {
	data := withEmptyInfo(0x01, 0x02)
	data = append(data, col("s", "Nullable(String)",
		0x01, 0x00, // null map
		0x00, 0x02, 'h', 'i',
	)...)

	blk, _, err := block.Decode(data)
	require.NoError(t, err)

	b := NewBlock(blk)

	v0, err := b.Row(0).ByName("s")
	require.NoError(t, err)
	require.True(t, v0.IsNull())

	v1, err := b.Row(1).ByName("s")
	require.NoError(t, err)
	require.False(t, v1.IsNull())
	require.Equal(t, "hi", string(v1.Bytes))
}

func TestRow_ProjectTuple(t *testing.T) {
	data := withEmptyInfo(0x01, 0x01)
	data = append(data, col("t", "Tuple(String, n UInt64)",
		0x01, 'x', // string field
		0x2A, 0, 0, 0, 0, 0, 0, 0, // uint64 field
	)...)

	blk, _, err := block.Decode(data)
	require.NoError(t, err)

	b := NewBlock(blk)
	v, err := b.Row(0).ByName("t")
	require.NoError(t, err)
	require.Equal(t, KindTuple, v.Kind)
	require.Len(t, v.Elems, 2)
	require.Equal(t, "x", string(v.Elems[0].Bytes))
	require.Equal(t, uint64(42), v.Elems[1].Uint)
	require.Equal(t, "n", v.Names[1])
}

func TestRow_ProjectFlattenedNested(t *testing.T) {
	// "n.a"/"n.b" regrouped into one Nested column; rows carry 1, 0, and 2
	// elements, so each row must slice the flattened tuples by the shared
	// offsets rather than indexing them by row position.
	data := withEmptyInfo(0x02, 0x03)
	data = append(data, col("n.a", "Array(Int64)",
		0x01, 0, 0, 0, 0, 0, 0, 0, // offsets[0]=1
		0x01, 0, 0, 0, 0, 0, 0, 0, // offsets[1]=1
		0x03, 0, 0, 0, 0, 0, 0, 0, // offsets[2]=3
		0x07, 0, 0, 0, 0, 0, 0, 0,
		0x08, 0, 0, 0, 0, 0, 0, 0,
		0x09, 0, 0, 0, 0, 0, 0, 0,
	)...)
	data = append(data, col("n.b", "Array(String)",
		0x01, 0, 0, 0, 0, 0, 0, 0,
		0x01, 0, 0, 0, 0, 0, 0, 0,
		0x03, 0, 0, 0, 0, 0, 0, 0,
		0x02, 'h', 'i',
		0x01, 'x',
		0x01, 'y',
	)...)

	blk, _, err := block.Decode(data, block.WithFlattenedNested())
	require.NoError(t, err)

	b := NewBlock(blk)

	v0, err := b.Row(0).ByName("n")
	require.NoError(t, err)
	require.Equal(t, KindArray, v0.Kind)
	require.Len(t, v0.Elems, 1)
	require.Equal(t, KindTuple, v0.Elems[0].Kind)
	require.Equal(t, int64(7), v0.Elems[0].Elems[0].Int)
	require.Equal(t, "hi", string(v0.Elems[0].Elems[1].Bytes))
	require.Equal(t, "a", v0.Elems[0].Names[0])
	require.Equal(t, "b", v0.Elems[0].Names[1])

	v1, err := b.Row(1).ByName("n")
	require.NoError(t, err)
	require.Empty(t, v1.Elems)

	v2, err := b.Row(2).ByName("n")
	require.NoError(t, err)
	require.Len(t, v2.Elems, 2)
	require.Equal(t, int64(8), v2.Elems[0].Elems[0].Int)
	require.Equal(t, "x", string(v2.Elems[0].Elems[1].Bytes))
	require.Equal(t, int64(9), v2.Elems[1].Elems[0].Int)
	require.Equal(t, "y", string(v2.Elems[1].Elems[1].Bytes))
}

func TestRow_ProjectEnum(t *testing.T) {
	data := withEmptyInfo(0x01, 0x01)
	data = append(data, col("e", "Enum8('Red'=11,'Blue'=-23)", 0x0B)...)

	blk, _, err := block.Decode(data)
	require.NoError(t, err)

	b := NewBlock(blk)
	v, err := b.Row(0).ByName("e")
	require.NoError(t, err)
	require.Equal(t, KindEnum, v.Kind)
	require.Equal(t, "Red", v.Enum)
}

func TestRow_Rows_Iteration(t *testing.T) {
	data := withEmptyInfo(0x01, 0x02)
	data = append(data, col("a", "Int64",
		0x01, 0, 0, 0, 0, 0, 0, 0,
		0x02, 0, 0, 0, 0, 0, 0, 0,
	)...)

	blk, _, err := block.Decode(data)
	require.NoError(t, err)

	b := NewBlock(blk)

	var got []int64
	for r := range b.Rows() {
		v, err := r.At(0)
		require.NoError(t, err)
		got = append(got, v.Int)
	}

	require.Equal(t, []int64{1, 2}, got)
}

func TestRow_At_OutOfRange(t *testing.T) {
	data := withEmptyInfo(0x01, 0x01)
	data = append(data, col("a", "Int64", 0x01, 0, 0, 0, 0, 0, 0, 0)...)

	blk, _, err := block.Decode(data)
	require.NoError(t, err)

	b := NewBlock(blk)
	_, err = b.Row(0).At(5)
	require.Error(t, err)
}
