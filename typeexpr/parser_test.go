package typeexpr

import (
	"testing"

	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
	"github.com/stretchr/testify/require"
)

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		expr string
		kind schema.Kind
	}{
		{"Int64", schema.KindInt64},
		{"UInt8", schema.KindUInt8},
		{"Float64", schema.KindFloat64},
		{"BFloat16", schema.KindBFloat16},
		{"String", schema.KindString},
		{"Bool", schema.KindBool},
		{"UUID", schema.KindUUID},
		{"Uuid", schema.KindUUID},
		{"IPv4", schema.KindIPv4},
		{"Ipv4", schema.KindIPv4},
		{"IPv6", schema.KindIPv6},
		{"Date", schema.KindDate},
		{"Date32", schema.KindDate32},
		{"JSON", schema.KindJSON},
		{"Json", schema.KindJSON},
		{"Nothing", schema.KindNothing},
	}

	for _, tt := range tests {
		got, err := Parse(tt.expr)
		require.NoError(t, err, tt.expr)
		require.Equal(t, tt.kind, got.Kind, tt.expr)
	}
}

func TestParse_FixedString(t *testing.T) {
	ty, err := Parse("FixedString(16)")
	require.NoError(t, err)
	require.Equal(t, schema.KindFixedString, ty.Kind)
	require.Equal(t, 16, ty.FixedLen)
}

func TestParse_DecimalFixedWidth(t *testing.T) {
	ty, err := Parse("Decimal64(6)")
	require.NoError(t, err)
	require.Equal(t, schema.KindDecimal64, ty.Kind)
	require.Equal(t, 64, ty.Width)
	require.Equal(t, 18, ty.Precision)
	require.Equal(t, 6, ty.Scale)
}

func TestParse_DecimalGenericForm(t *testing.T) {
	ty, err := Parse("Decimal(10, 2)")
	require.NoError(t, err)
	require.Equal(t, schema.KindDecimal64, ty.Kind) // precision 10 -> 64-bit storage
	require.Equal(t, 10, ty.Precision)
	require.Equal(t, 2, ty.Scale)
}

func TestParse_DecimalFixedWidthWithPrecision(t *testing.T) {
	ty, err := Parse("Decimal64(18, 6)")
	require.NoError(t, err)
	require.Equal(t, schema.KindDecimal64, ty.Kind)
	require.Equal(t, 18, ty.Precision)
	require.Equal(t, 6, ty.Scale)
}

func TestParse_Enum8_ValueOutOfRange(t *testing.T) {
	_, err := Parse("Enum8('big'=200)")
	require.ErrorIs(t, err, errs.ErrInvalidType)

	_, err = Parse("Enum16('huge'=99999)")
	require.ErrorIs(t, err, errs.ErrInvalidType)
}

func TestParse_DateTime64WithTimezone(t *testing.T) {
	ty, err := Parse("DateTime64(3, 'UTC')")
	require.NoError(t, err)
	require.Equal(t, schema.KindDateTime64, ty.Kind)
	require.Equal(t, 3, ty.TimeScale)
	require.Equal(t, "UTC", ty.Timezone)
}

func TestParse_DateTimeNoTimezone(t *testing.T) {
	ty, err := Parse("DateTime")
	require.NoError(t, err)
	require.Empty(t, ty.Timezone)
}

func TestParse_Enum8(t *testing.T) {
	ty, err := Parse("Enum8('Red'=11,'Blue'=-23)")
	require.NoError(t, err)
	require.Equal(t, schema.KindEnum8, ty.Kind)
	require.Equal(t, []schema.EnumEntry{{Name: "Red", Value: 11}, {Name: "Blue", Value: -23}}, ty.Enum)
}

func TestParse_EnumEscapedQuote(t *testing.T) {
	ty, err := Parse("Enum8('it''s'=1)")
	require.NoError(t, err)
	require.Equal(t, "it's", ty.Enum[0].Name)
}

func TestParse_NestedComposite(t *testing.T) {
	ty, err := Parse("Array(Nullable(LowCardinality(String)))")
	require.NoError(t, err)
	require.Equal(t, schema.KindArray, ty.Kind)
	require.Equal(t, schema.KindNullable, ty.Elem.Kind)
	require.Equal(t, schema.KindLowCardinality, ty.Elem.Elem.Kind)
	require.Equal(t, schema.KindString, ty.Elem.Elem.Elem.Kind)
}

func TestParse_TupleNamedAndPositional(t *testing.T) {
	ty, err := Parse("Tuple(String, n UInt64)")
	require.NoError(t, err)
	require.Len(t, ty.Fields, 2)
	require.Empty(t, ty.Fields[0].Name)
	require.Equal(t, "n", ty.Fields[1].Name)
	require.Equal(t, schema.KindUInt64, ty.Fields[1].Type.Kind)
}

func TestParse_TupleNamedWithColon(t *testing.T) {
	ty, err := Parse("Tuple(n: UInt64)")
	require.NoError(t, err)
	require.Equal(t, "n", ty.Fields[0].Name)
}

func TestParse_Map(t *testing.T) {
	ty, err := Parse("Map(String, UInt64)")
	require.NoError(t, err)
	require.Equal(t, schema.KindString, ty.Key.Kind)
	require.Equal(t, schema.KindUInt64, ty.Value.Kind)
}

func TestParse_Nested_RequiresNamedFields(t *testing.T) {
	ty, err := Parse("Nested(a UInt64, b String)")
	require.NoError(t, err)
	require.Equal(t, schema.KindNested, ty.Kind)
	require.Len(t, ty.Fields, 2)

	_, err = Parse("Nested(UInt64)")
	require.ErrorIs(t, err, errs.ErrInvalidType)
}

func TestParse_Variant(t *testing.T) {
	ty, err := Parse("Variant(UInt64, String)")
	require.NoError(t, err)
	require.Len(t, ty.Variants, 2)
}

func TestParse_Dynamic(t *testing.T) {
	ty, err := Parse("Dynamic")
	require.NoError(t, err)
	require.Equal(t, schema.KindDynamic, ty.Kind)
}

func TestParse_GeoAliases(t *testing.T) {
	point, err := Parse("Point")
	require.NoError(t, err)
	require.Equal(t, schema.KindTuple, point.Kind)
	require.Equal(t, "Point", point.Alias)

	ring, err := Parse("Ring")
	require.NoError(t, err)
	require.Equal(t, schema.KindArray, ring.Kind)
	require.Equal(t, schema.KindTuple, ring.Elem.Kind)

	polygon, err := Parse("Polygon")
	require.NoError(t, err)
	require.Equal(t, "Polygon", polygon.Alias)
	require.Equal(t, schema.KindArray, polygon.Elem.Kind)

	multiPolygon, err := Parse("MultiPolygon")
	require.NoError(t, err)
	require.Equal(t, "MultiPolygon", multiPolygon.Alias)
}

func TestParse_LowCardinalityRejectsUnsupportedInner(t *testing.T) {
	_, err := Parse("LowCardinality(Array(String))")
	require.ErrorIs(t, err, errs.ErrUnsupportedNesting)
}

func TestParse_LowCardinalityAllowsNullableOfSupported(t *testing.T) {
	ty, err := Parse("LowCardinality(Nullable(String))")
	require.NoError(t, err)
	require.Equal(t, schema.KindLowCardinality, ty.Kind)
}

func TestParse_UnknownConstructor(t *testing.T) {
	_, err := Parse("NotAType")
	require.ErrorIs(t, err, errs.ErrInvalidType)
}

func TestParse_TrailingGarbage(t *testing.T) {
	_, err := Parse("Int64 garbage")
	require.ErrorIs(t, err, errs.ErrInvalidType)
}

func TestParse_BacktickedIdentTolerated(t *testing.T) {
	ty, err := Parse("Enum8(`Red`=1)")
	require.NoError(t, err)
	require.Equal(t, "Red", ty.Enum[0].Name)
}

// TestParse_Idempotence checks that re-emitting a TypeTree textually and
// re-parsing it produces the same tree.
func TestParse_Idempotence(t *testing.T) {
	exprs := []string{
		"Int64",
		"FixedString(16)",
		"Decimal64(6)",
		"DateTime64(3, 'UTC')",
		"Enum8('Red'=11,'Blue'=-23)",
		"Array(Nullable(LowCardinality(String)))",
		"Tuple(String, n UInt64)",
		"Map(String, UInt64)",
		"Variant(UInt64, String)",
		"Polygon",
		"MultiPolygon",
	}

	for _, expr := range exprs {
		first, err := Parse(expr)
		require.NoError(t, err, expr)

		second, err := Parse(first.String())
		require.NoError(t, err, first.String())

		require.Equal(t, first, second, expr)
	}
}
