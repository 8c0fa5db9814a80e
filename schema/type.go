// Package schema defines the TypeTree data model: a tagged tree describing
// the shape of one column. TypeTree values are produced by the typeexpr
// parser and consumed by the column decoders; they carry no decoded data
// themselves.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which shape a Type node takes.
type Kind uint8

const (
	KindInt8 Kind = iota + 1
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindInt256
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindUInt128
	KindUInt256
	KindFloat32
	KindFloat64
	KindBFloat16
	KindDecimal32
	KindDecimal64
	KindDecimal128
	KindDecimal256
	KindString
	KindFixedString
	KindBool
	KindUUID
	KindIPv4
	KindIPv6
	KindDate
	KindDate32
	KindTime
	KindDateTime
	KindDateTime64
	KindEnum8
	KindEnum16
	KindJSON
	KindNothing

	// Composite kinds.
	KindNullable
	KindLowCardinality
	KindArray
	KindTuple
	KindMap
	KindNested
	KindVariant
	KindDynamic
)

func (k Kind) String() string {
	switch k {
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindInt128:
		return "Int128"
	case KindInt256:
		return "Int256"
	case KindUInt8:
		return "UInt8"
	case KindUInt16:
		return "UInt16"
	case KindUInt32:
		return "UInt32"
	case KindUInt64:
		return "UInt64"
	case KindUInt128:
		return "UInt128"
	case KindUInt256:
		return "UInt256"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindBFloat16:
		return "BFloat16"
	case KindDecimal32:
		return "Decimal32"
	case KindDecimal64:
		return "Decimal64"
	case KindDecimal128:
		return "Decimal128"
	case KindDecimal256:
		return "Decimal256"
	case KindString:
		return "String"
	case KindFixedString:
		return "FixedString"
	case KindBool:
		return "Bool"
	case KindUUID:
		return "UUID"
	case KindIPv4:
		return "IPv4"
	case KindIPv6:
		return "IPv6"
	case KindDate:
		return "Date"
	case KindDate32:
		return "Date32"
	case KindTime:
		return "Time"
	case KindDateTime:
		return "DateTime"
	case KindDateTime64:
		return "DateTime64"
	case KindEnum8:
		return "Enum8"
	case KindEnum16:
		return "Enum16"
	case KindJSON:
		return "JSON"
	case KindNothing:
		return "Nothing"
	case KindNullable:
		return "Nullable"
	case KindLowCardinality:
		return "LowCardinality"
	case KindArray:
		return "Array"
	case KindTuple:
		return "Tuple"
	case KindMap:
		return "Map"
	case KindNested:
		return "Nested"
	case KindVariant:
		return "Variant"
	case KindDynamic:
		return "Dynamic"
	default:
		return "Unknown"
	}
}

// EnumEntry is one name=value pair of an Enum8/Enum16 type.
type EnumEntry struct {
	Name  string
	Value int16
}

// Field is one element of a Tuple or Nested type. Name is empty for
// positional (unnamed) tuple elements.
type Field struct {
	Name string
	Type *Type
}

// Type is one node of a TypeTree. Only the fields relevant to
// Kind are populated; the rest are left at their zero value.
type Type struct {
	Kind Kind

	// Width is the storage width in bits for integer, float, and decimal
	// kinds (8..256).
	Width int

	// Precision and Scale describe Decimal32/64/128/256: the value equals
	// raw * 10^-Scale, Precision is the declared decimal digit count.
	Precision int
	Scale     int

	// FixedLen is n for FixedString(n).
	FixedLen int

	// Timezone is the optional zone name for DateTime/DateTime64.
	Timezone string

	// TimeScale is the tick scale p for Time(p) and DateTime64(p, tz).
	TimeScale int

	// Enum holds the name->value table for Enum8/Enum16, in declaration
	// order (order matters for deterministic String() round-tripping).
	Enum []EnumEntry

	// Elem is the wrapped type for Nullable(T), LowCardinality(T), Array(T).
	Elem *Type

	// Fields holds Tuple/Nested members in declaration order.
	Fields []Field

	// Key and Value describe Map(K, V). Structurally a Map decodes exactly
	// like Array(Tuple(K, V)); Key/Value are kept directly on the node so
	// callers don't have to reconstruct the equivalent tuple by hand.
	Key   *Type
	Value *Type

	// Variants holds the declared member types of a Variant(T1, ..., Tn).
	// Dynamic has no fixed Variants; its member list is discovered from the
	// stream at decode time and lives on the decoded column,
	// not here.
	Variants []*Type

	// Alias records the geo type name (Point, Ring, LineString, Polygon,
	// MultiLineString, MultiPolygon) that desugared to this node, so
	// String() can re-emit the alias instead of its expansion. Empty for
	// non-geo types.
	Alias string
}

// IsNullable reports whether the type is Nullable(_).
func (t *Type) IsNullable() bool {
	return t != nil && t.Kind == KindNullable
}

// String re-emits the type as the textual expression the typeexpr parser
// would accept, so re-parsing the output yields an identical tree. Geo
// aliases are re-emitted in their aliased form, not their desugared
// Array/Tuple expansion.
func (t *Type) String() string {
	if t == nil {
		return ""
	}

	if t.Alias != "" {
		return t.Alias
	}

	switch t.Kind {
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return fmt.Sprintf("%s(%d, %d)", t.Kind, t.Precision, t.Scale)
	case KindFixedString:
		return fmt.Sprintf("FixedString(%d)", t.FixedLen)
	case KindTime:
		return fmt.Sprintf("Time(%d)", t.TimeScale)
	case KindDateTime:
		if t.Timezone != "" {
			return fmt.Sprintf("DateTime('%s')", t.Timezone)
		}

		return "DateTime"
	case KindDateTime64:
		if t.Timezone != "" {
			return fmt.Sprintf("DateTime64(%d, '%s')", t.TimeScale, t.Timezone)
		}

		return fmt.Sprintf("DateTime64(%d)", t.TimeScale)
	case KindEnum8, KindEnum16:
		entries := make([]string, len(t.Enum))
		for i, e := range t.Enum {
			entries[i] = fmt.Sprintf("'%s'=%d", strings.ReplaceAll(e.Name, "'", "''"), e.Value)
		}

		return fmt.Sprintf("%s(%s)", t.Kind, strings.Join(entries, ","))
	case KindNullable:
		return fmt.Sprintf("Nullable(%s)", t.Elem.String())
	case KindLowCardinality:
		return fmt.Sprintf("LowCardinality(%s)", t.Elem.String())
	case KindArray:
		return fmt.Sprintf("Array(%s)", t.Elem.String())
	case KindTuple:
		return fmt.Sprintf("Tuple(%s)", joinFields(t.Fields))
	case KindNested:
		return fmt.Sprintf("Nested(%s)", joinFields(t.Fields))
	case KindMap:
		return fmt.Sprintf("Map(%s, %s)", t.Key.String(), t.Value.String())
	case KindVariant:
		parts := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			parts[i] = v.String()
		}

		return fmt.Sprintf("Variant(%s)", strings.Join(parts, ", "))
	case KindDynamic:
		return "Dynamic"
	case KindJSON:
		return "JSON"
	default:
		return t.Kind.String()
	}
}

func joinFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			parts[i] = f.Type.String()
		} else {
			parts[i] = fmt.Sprintf("%s %s", f.Name, f.Type.String())
		}
	}

	return strings.Join(parts, ", ")
}

// DecimalWidth returns the storage width in bits implied by a DecimalN type
// name ("Decimal32" -> 32). Used by the parser when it sees the fixed-width
// Decimal spelling rather than the two-argument Decimal(P, S) form.
func DecimalWidth(name string) (int, bool) {
	switch name {
	case "Decimal32":
		return 32, true
	case "Decimal64":
		return 64, true
	case "Decimal128":
		return 128, true
	case "Decimal256":
		return 256, true
	default:
		return 0, false
	}
}

// ParseInt16Strict parses a base-10 signed integer literal, rejecting
// anything that would overflow an int16 enum value.
func ParseInt16Strict(lit string) (int16, error) {
	v, err := strconv.ParseInt(lit, 10, 16)
	if err != nil {
		return 0, err
	}

	return int16(v), nil
}
