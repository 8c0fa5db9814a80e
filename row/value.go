// Package row implements the row accessor: random-access by row index into
// a decoded block, with a typed projection from each column's internal
// layout to a caller-facing Value.
//
// Value is a second tagged variant over value kinds: one Kind per distinct
// shape a projected cell can take, mirroring the schema.Kind/column.Column
// tagged-variant pattern the rest of this module uses rather than dynamic
// dispatch through an interface hierarchy.
package row

import (
	"github.com/night-crawler/chbr/schema"
	"github.com/night-crawler/chbr/wire"
)

// Kind identifies which shape a projected Value takes.
type Kind uint8

const (
	// KindNull is a Nullable or Variant row projected as absent.
	KindNull Kind = iota
	// KindInt is a signed integer up to 64 bits, a Date/Date32 day offset,
	// a DateTime64/Time tick count, or a Decimal's raw int64 mantissa.
	KindInt
	// KindUint is an unsigned integer up to 64 bits or a DateTime second
	// count.
	KindUint
	// KindFloat is Float32, Float64, or a widened BFloat16.
	KindFloat
	// KindBool is a Bool value.
	KindBool
	// KindBytes is a String or FixedString row, borrowed from the column.
	KindBytes
	// KindEnum is an Enum8/Enum16 row, resolved to its declared name.
	KindEnum
	// KindUUID is a UUID row in canonical byte order.
	KindUUID
	// KindIPv4 is an IPv4 row in canonical dotted-order bytes.
	KindIPv4
	// KindIPv6 is an IPv6 row in network order.
	KindIPv6
	// KindWide is an Int128/Int256/UInt128/UInt256/Decimal128/Decimal256
	// row exposed as raw little-endian two's-complement bytes.
	KindWide
	// KindArray is an Array(T), Map(K,V) or Nested(...) row: a slice of
	// element Values (for Map and Nested, each element is a KindTuple).
	KindArray
	// KindTuple is a Tuple(...) row, or one element of a Map or Nested row:
	// a positional or named slice of field Values.
	KindTuple
	// KindVariant is a Variant(...) or Dynamic row: the active alternative's
	// Value plus which member type produced it.
	KindVariant
	// KindJSON is a Json row: an ordered path -> Value map.
	KindJSON
)

// Value is one projected cell: the scalar payload appropriate to Kind, or a
// composite payload for Array/Tuple/Variant/Json. Only the fields relevant
// to Kind are populated.
type Value struct {
	Kind Kind
	// Type is the TypeTree this value was decoded against (the Nullable's
	// inner type, the Array's element type, and so on: whatever type Kind was
	// resolved from).
	Type *schema.Type

	Int   int64
	Uint  uint64
	Float float64
	Bool  bool
	Bytes []byte
	Enum  string
	UUID  wire.UUID
	IPv4  [4]byte
	IPv6  [16]byte
	// Wide holds raw little-endian two's-complement bytes for KindWide, and
	// the raw mantissa's extra width for wide decimals sharing that kind.
	Wide []byte
	// Scale is populated alongside KindInt/KindWide when Type is a Decimal:
	// the value equals the integer payload * 10^-Scale.
	Scale int

	// Elems holds Array/Tuple/Nested element values, in order.
	Elems []Value
	// Names parallels Elems for KindTuple; a positional field's name is the
	// empty string. Names is nil for KindArray.
	Names []string

	// VariantTag is the index into Type.Variants (or, for Dynamic, the
	// discovered member-type list) that produced Inner.
	VariantTag int
	// Inner is the active alternative's projected value, for KindVariant.
	Inner *Value

	// Fields holds a Json row's ordered path -> value projections: every
	// dynamic path first, then every typed path, each group in declared
	// order, followed by any shared-data entries.
	Fields []Field
}

// Field is one path/value pair of a projected Json row.
type Field struct {
	Path  string
	Value Value
}

// IsNull reports whether the value is the null/absent projection of a
// Nullable or Variant column.
func (v Value) IsNull() bool { return v.Kind == KindNull }
