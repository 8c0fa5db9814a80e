package column

import (
	"testing"

	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
	"github.com/stretchr/testify/require"
)

// TestDecode_Int64Column decodes a single Int64 row whose value is 42.
func TestDecode_Int64Column(t *testing.T) {
	cur := wire.NewCursor([]byte{0x2A, 0, 0, 0, 0, 0, 0, 0})

	col, err := Decode(&schema.Type{Kind: schema.KindInt64}, 1, cur, "a", Options{})
	require.NoError(t, err)

	fw := col.(*FixedWidthColumn)
	require.Equal(t, uint64(42), fw.Uint64At(0))
}

// TestDecode_ArrayInt64 decodes Array(Int64) three rows [[1,2],[],[3]].
func TestDecode_ArrayInt64(t *testing.T) {
	data := []byte{
		2, 0, 0, 0, 0, 0, 0, 0, // offsets[0] = 2
		2, 0, 0, 0, 0, 0, 0, 0, // offsets[1] = 2
		3, 0, 0, 0, 0, 0, 0, 0, // offsets[2] = 3
		1, 0, 0, 0, 0, 0, 0, 0, // inner[0] = 1
		2, 0, 0, 0, 0, 0, 0, 0, // inner[1] = 2
		3, 0, 0, 0, 0, 0, 0, 0, // inner[2] = 3
	}
	cur := wire.NewCursor(data)

	ty := &schema.Type{Kind: schema.KindArray, Elem: &schema.Type{Kind: schema.KindInt64}}
	col, err := Decode(ty, 3, cur, "arr", Options{})
	require.NoError(t, err)

	arr := col.(*ArrayColumn)
	require.Equal(t, 3, arr.Len())

	start, end := arr.Bounds(0)
	require.Equal(t, uint64(0), start)
	require.Equal(t, uint64(2), end)

	start, end = arr.Bounds(1)
	require.Equal(t, uint64(2), start)
	require.Equal(t, uint64(2), end)

	start, end = arr.Bounds(2)
	require.Equal(t, uint64(2), start)
	require.Equal(t, uint64(3), end)

	inner := arr.Inner().(*FixedWidthColumn)
	require.Equal(t, uint64(1), inner.Uint64At(0))
	require.Equal(t, uint64(2), inner.Uint64At(1))
	require.Equal(t, uint64(3), inner.Uint64At(2))
}

func TestDecode_ArrayInt64_NonMonotonicOffsets(t *testing.T) {
	data := []byte{
		3, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0, // decreases: violates monotonicity
	}
	cur := wire.NewCursor(data)

	ty := &schema.Type{Kind: schema.KindArray, Elem: &schema.Type{Kind: schema.KindInt64}}
	_, err := Decode(ty, 2, cur, "arr", Options{})
	require.ErrorIs(t, err, errs.ErrOffsetNotMonotonic)
}

// TestDecode_NullableString decodes Nullable(String) two rows [null, "hi"].
func TestDecode_NullableString(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x02, 'h', 'i'}
	cur := wire.NewCursor(data)

	ty := &schema.Type{Kind: schema.KindNullable, Elem: &schema.Type{Kind: schema.KindString}}
	col, err := Decode(ty, 2, cur, "s", Options{})
	require.NoError(t, err)

	nc := col.(*NullableColumn)
	require.True(t, nc.IsNull(0))
	require.False(t, nc.IsNull(1))

	inner := nc.Inner().(*StringColumn)
	require.Equal(t, "hi", string(inner.At(1)))
}

// TestDecode_LowCardinalityString decodes LowCardinality(String) three rows
// ["a","b","a"].
func TestDecode_LowCardinalityString(t *testing.T) {
	data := []byte{}
	data = append(data, le64(lcHasAdditionalKeys|lcNeedsGlobalDictionary)...) // flags, index width u8
	data = append(data, le64(2)...)                                          // dict size
	data = append(data, 0x01, 'a', 0x01, 'b')                                // dict ["a", "b"]
	data = append(data, le64(3)...)                                          // row count
	data = append(data, 0, 1, 0)                                             // indices

	cur := wire.NewCursor(data)
	ty := &schema.Type{Kind: schema.KindLowCardinality, Elem: &schema.Type{Kind: schema.KindString}}
	col, err := Decode(ty, 3, cur, "lc", Options{})
	require.NoError(t, err)

	lc := col.(*LowCardinalityColumn)
	require.Equal(t, 2, lc.DictSize())
	require.False(t, lc.HasNullSlot())
	require.Equal(t, uint64(0), lc.IndexAt(0))
	require.Equal(t, uint64(1), lc.IndexAt(1))
	require.Equal(t, uint64(0), lc.IndexAt(2))

	dict := lc.Dict().(*StringColumn)
	require.Equal(t, "a", string(dict.At(0)))
	require.Equal(t, "b", string(dict.At(1)))
}

func TestDecode_LowCardinality_IndexOverflow(t *testing.T) {
	data := []byte{}
	data = append(data, le64(0)...)
	data = append(data, le64(1)...)
	data = append(data, 0x01, 'a')
	data = append(data, le64(1)...)
	data = append(data, 5) // index 5 >= dict size 1

	cur := wire.NewCursor(data)
	ty := &schema.Type{Kind: schema.KindLowCardinality, Elem: &schema.Type{Kind: schema.KindString}}
	_, err := Decode(ty, 1, cur, "lc", Options{})

	var overflow *errs.DictionaryOverflowError
	require.ErrorAs(t, err, &overflow)
}

// TestDecode_VariantUInt64String decodes Variant(UInt64, String) three rows
// [42, "x", null].
func TestDecode_VariantUInt64String(t *testing.T) {
	data := []byte{0x00, 0x01, 0xFF}
	data = append(data, le64(42)...)
	data = append(data, 0x01, 'x')

	cur := wire.NewCursor(data)
	ty := &schema.Type{Kind: schema.KindVariant, Variants: []*schema.Type{
		{Kind: schema.KindUInt64}, {Kind: schema.KindString},
	}}
	col, err := Decode(ty, 3, cur, "v", Options{})
	require.NoError(t, err)

	vc := col.(*VariantColumn)
	require.Equal(t, byte(0), vc.Discriminator(0))
	require.Equal(t, byte(1), vc.Discriminator(1))
	require.Equal(t, byte(0xFF), vc.Discriminator(2))

	sub0 := vc.SubColumn(0).(*FixedWidthColumn)
	require.Equal(t, uint64(42), sub0.Uint64At(vc.ValueIndex(0)))

	sub1 := vc.SubColumn(1).(*StringColumn)
	require.Equal(t, "x", string(sub1.At(vc.ValueIndex(1))))
}

func TestDecode_Variant_InvalidDiscriminator(t *testing.T) {
	data := []byte{0x05}
	cur := wire.NewCursor(data)

	ty := &schema.Type{Kind: schema.KindVariant, Variants: []*schema.Type{{Kind: schema.KindUInt64}}}
	_, err := Decode(ty, 1, cur, "v", Options{})

	var invalid *errs.InvalidDiscriminatorError
	require.ErrorAs(t, err, &invalid)
}

// TestDecode_Enum8 decodes Enum8('Red'=11,'Blue'=-23) three rows
// ['Red','Blue','Red'].
func TestDecode_Enum8(t *testing.T) {
	data := []byte{0x0B, 0xE9, 0x0B} // 11, -23 (two's complement), 11
	cur := wire.NewCursor(data)

	ty := &schema.Type{Kind: schema.KindEnum8, Enum: []schema.EnumEntry{
		{Name: "Red", Value: 11}, {Name: "Blue", Value: -23},
	}}
	col, err := Decode(ty, 3, cur, "e", Options{})
	require.NoError(t, err)

	ec := col.(*EnumColumn)

	name, err := ec.NameAt(0)
	require.NoError(t, err)
	require.Equal(t, "Red", name)

	name, err = ec.NameAt(1)
	require.NoError(t, err)
	require.Equal(t, "Blue", name)

	name, err = ec.NameAt(2)
	require.NoError(t, err)
	require.Equal(t, "Red", name)
}

func TestDecode_Enum8_UnknownValue(t *testing.T) {
	data := []byte{0x63}
	cur := wire.NewCursor(data)

	ty := &schema.Type{Kind: schema.KindEnum8, Enum: []schema.EnumEntry{{Name: "Red", Value: 11}}}
	col, err := Decode(ty, 1, cur, "e", Options{})
	require.NoError(t, err)

	ec := col.(*EnumColumn)
	_, err = ec.NameAt(0)

	var invalid *errs.InvalidEnumValueError
	require.ErrorAs(t, err, &invalid)
}

func TestDecode_String_BorrowedSpans(t *testing.T) {
	// The column body starts past offset 0, as it always does inside a real
	// block; At must still return each row's content.
	data := []byte{0xAA, 0xBB, 0x01, 'x', 0x02, 'y', 'z'}
	cur := wire.NewCursor(data)
	cur.Offset = 2

	col, err := Decode(&schema.Type{Kind: schema.KindString}, 2, cur, "s", Options{})
	require.NoError(t, err)

	sc := col.(*StringColumn)
	require.Equal(t, "x", string(sc.At(0)))
	require.Equal(t, "yz", string(sc.At(1)))
}

func TestDecode_Nothing(t *testing.T) {
	cur := wire.NewCursor([]byte{0x00, 0x00, 0x00})

	col, err := Decode(&schema.Type{Kind: schema.KindNothing}, 3, cur, "n", Options{})
	require.NoError(t, err)
	require.Equal(t, 3, col.Len())
	require.Equal(t, 3, cur.Offset)
}

func TestDecode_CopyOnDecode_TracksBuffers(t *testing.T) {
	data := []byte{0x01, 'a', 0x01, 'b'}
	cur := wire.NewCursor(data)

	tracker := NewBufTracker()
	col, err := Decode(&schema.Type{Kind: schema.KindString}, 2, cur, "s", Options{CopyOnDecode: true, Tracker: tracker})
	require.NoError(t, err)

	sc := col.(*StringColumn)
	require.Equal(t, "a", string(sc.At(0)))
	require.Equal(t, "b", string(sc.At(1)))

	tracker.Release()
}

func TestDecode_Tuple(t *testing.T) {
	data := []byte{
		0x01, 'x', // string field
		0x2A, 0, 0, 0, 0, 0, 0, 0, // uint64 field
	}
	cur := wire.NewCursor(data)

	ty := &schema.Type{Kind: schema.KindTuple, Fields: []schema.Field{
		{Name: "name", Type: &schema.Type{Kind: schema.KindString}},
		{Name: "n", Type: &schema.Type{Kind: schema.KindUInt64}},
	}}
	col, err := Decode(ty, 1, cur, "t", Options{})
	require.NoError(t, err)

	tup := col.(*TupleColumn)
	require.Equal(t, 2, tup.NumFields())
	require.Equal(t, "x", string(tup.Field(0).(*StringColumn).At(0)))
	require.Equal(t, uint64(42), tup.Field(1).(*FixedWidthColumn).Uint64At(0))
}

func TestDecode_Dynamic(t *testing.T) {
	data := []byte{}
	data = append(data, le64(0)...) // structure version
	data = append(data, 0x02)       // member type count
	data = append(data, 0x06, 'U', 'I', 'n', 't', '6', '4')
	data = append(data, 0x06, 'S', 't', 'r', 'i', 'n', 'g')
	data = append(data, 0x00, 0x01, 0xFF) // discriminators
	data = append(data, le64(42)...)      // UInt64 sub-column, 1 value
	data = append(data, 0x01, 'x')        // String sub-column, 1 value

	cur := wire.NewCursor(data)
	col, err := Decode(&schema.Type{Kind: schema.KindDynamic}, 3, cur, "d", Options{})
	require.NoError(t, err)

	dc := col.(*DynamicColumn)
	require.Len(t, dc.MemberTypes(), 2)
	require.Equal(t, schema.KindUInt64, dc.MemberTypes()[0].Kind)
	require.Equal(t, schema.KindString, dc.MemberTypes()[1].Kind)

	v := dc.Variant()
	require.Equal(t, byte(0xFF), v.Discriminator(2))
}

func TestDecode_Dynamic_VersionMismatch(t *testing.T) {
	data := le64(1) // unknown structure version
	cur := wire.NewCursor(data)

	_, err := Decode(&schema.Type{Kind: schema.KindDynamic}, 1, cur, "d", Options{})

	var mismatch *errs.VersionMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestDecode_JSON(t *testing.T) {
	data := []byte{}
	data = append(data, le64(0)...) // structure version
	data = append(data, 0x00)       // dynamic path count = 0
	data = append(data, 0x01)       // typed path count = 1
	data = append(data, 0x01, 'a')  // path name "a"
	data = append(data, 0x06, 'U', 'I', 'n', 't', '6', '4') // type "UInt64"
	data = append(data, le64(7)...)                         // typed path "a" value for the 1 row
	data = append(data, le64(0)...)                         // shared-data offsets[0] = 0 (empty)

	cur := wire.NewCursor(data)
	col, err := Decode(&schema.Type{Kind: schema.KindJSON}, 1, cur, "j", Options{})
	require.NoError(t, err)

	jc := col.(*JSONColumn)
	require.Empty(t, jc.DynamicPaths())
	require.Len(t, jc.TypedPaths(), 1)
	require.Equal(t, "a", jc.TypedPaths()[0].Path)

	tpCol := jc.TypedPaths()[0].Column.(*FixedWidthColumn)
	require.Equal(t, uint64(7), tpCol.Uint64At(0))
	require.Equal(t, 1, jc.SharedData().Len())
	require.Equal(t, 0, jc.SharedData().Inner().Len())
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
