// Package typeexpr implements the recursive-descent parser for the textual
// type-expression grammar:
//
//	Type       := Ident ('(' Args? ')')?
//	Args       := Arg (',' Arg)*
//	Arg        := Type | NamedField | EnumEntry | IntLit | StrLit
//	NamedField := Ident (' '|':') Type
//	EnumEntry  := StrLit '=' IntLit
//
// Because the grammar alone is ambiguous (an Arg's production cannot be
// chosen without knowing which type constructor it belongs to), parseType
// reads the identifier first, then picks the matching argument-shape
// parser.
//
// The parser is pure: it never touches the outside world and only ever
// returns *schema.Type or an *errs.DecodeError wrapping errs.ErrInvalidType
// (or errs.ErrUnsupportedNesting for a disallowed LowCardinality inner type).
package typeexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/schema"
)

// Parse parses a single type expression, e.g. "Array(Nullable(LowCardinality(String)))".
func Parse(expr string) (*schema.Type, error) {
	p := &parser{toks: lex(expr), expr: expr}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if p.cur().kind != tokEOF {
		return nil, p.errorf("unexpected trailing input after %q", t.String())
	}

	return t, nil
}

// --- lexer -----------------------------------------------------------------

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLParen
	tokRParen
	tokComma
	tokColon
	tokEquals
	tokIntLit
	tokStrLit
)

type token struct {
	kind   tokenKind
	text   string // ident name, or the unescaped contents of a string literal
	intVal int64
	pos    int
}

func lex(s string) []token {
	var toks []token

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, pos: i})
			i++
		case c == ':':
			toks = append(toks, token{kind: tokColon, pos: i})
			i++
		case c == '=':
			toks = append(toks, token{kind: tokEquals, pos: i})
			i++
		case c == '`':
			start := i
			j := i + 1
			for j < len(s) && s[j] != '`' {
				j++
			}

			text := ""
			if j < len(s) {
				text = s[i+1 : j]
				j++
			} else {
				text = s[i+1:]
			}

			toks = append(toks, token{kind: tokIdent, text: text, pos: start})
			i = j
		case c == '\'':
			start := i
			j := i + 1
			var b strings.Builder
			for j < len(s) {
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' {
						b.WriteByte('\'')
						j += 2
						continue
					}

					j++
					break
				}

				b.WriteByte(s[j])
				j++
			}

			toks = append(toks, token{kind: tokStrLit, text: b.String(), pos: start})
			i = j
		case c == '-' || (c >= '0' && c <= '9'):
			start := i
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}

			v, _ := strconv.ParseInt(s[start:j], 10, 64)
			toks = append(toks, token{kind: tokIntLit, text: s[start:j], intVal: v, pos: start})
			i = j
		case isIdentStart(c):
			start := i
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}

			toks = append(toks, token{kind: tokIdent, text: s[start:j], pos: start})
			i = j
		default:
			// Unrecognized byte: emit it as a single-char identifier so the
			// parser can report a precise InvalidType error instead of the
			// lexer silently dropping input.
			toks = append(toks, token{kind: tokIdent, text: string(c), pos: i})
			i++
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(s)})

	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}

// --- parser ------------------------------------------------------------------

type parser struct {
	toks []token
	pos  int
	expr string
}

func (p *parser) cur() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return errs.WrapExpected(errs.ErrInvalidType, p.cur().pos, "", fmt.Sprintf(format, args...))
}

// parseType implements the Type production.
func (p *parser) parseType() (*schema.Type, error) {
	if p.cur().kind != tokIdent {
		return nil, p.errorf("expected a type name")
	}

	name := p.advance().text
	canon := canonicalName(name)

	if t, ok, err := p.parseGeoAlias(canon); ok || err != nil {
		return t, err
	}

	if t, ok := scalarKind(canon); ok {
		return t, p.skipEmptyParens()
	}

	switch canon {
	case "FixedString":
		return p.parseFixedString()
	case "Decimal":
		return p.parseDecimalGeneric()
	case "Decimal32", "Decimal64", "Decimal128", "Decimal256":
		return p.parseDecimalFixed(canon)
	case "Time":
		return p.parseTime()
	case "DateTime":
		return p.parseDateTime()
	case "DateTime64":
		return p.parseDateTime64()
	case "Enum8", "Enum16":
		return p.parseEnum(canon)
	case "Nullable":
		return p.parseWrapped(schema.KindNullable)
	case "LowCardinality":
		return p.parseWrapped(schema.KindLowCardinality)
	case "Array":
		return p.parseWrapped(schema.KindArray)
	case "Tuple":
		return p.parseTuple()
	case "Map":
		return p.parseMap()
	case "Nested":
		return p.parseNested()
	case "Variant":
		return p.parseVariant()
	case "Dynamic":
		return &schema.Type{Kind: schema.KindDynamic}, p.skipEmptyParens()
	default:
		return nil, p.errorf("unknown type constructor %q", name)
	}
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.cur().kind != k {
		return token{}, p.errorf("expected %s", what)
	}

	return p.advance(), nil
}

// skipEmptyParens tolerates a no-argument type spelled with empty parens,
// e.g. "String()".
func (p *parser) skipEmptyParens() error {
	if p.cur().kind != tokLParen {
		return nil
	}

	p.advance()
	if p.cur().kind != tokRParen {
		return p.errorf("unexpected arguments")
	}

	p.advance()

	return nil
}

func (p *parser) parseFixedString() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	n, err := p.expect(tokIntLit, "an integer length")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	if n.intVal < 0 {
		return nil, p.errorf("FixedString length must not be negative")
	}

	return &schema.Type{Kind: schema.KindFixedString, FixedLen: int(n.intVal)}, nil
}

func (p *parser) parseDecimalGeneric() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	prec, err := p.expect(tokIntLit, "a precision literal")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokComma, "','"); err != nil {
		return nil, err
	}

	scale, err := p.expect(tokIntLit, "a scale literal")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	width := decimalWidthForPrecision(int(prec.intVal))
	kind := map[int]schema.Kind{32: schema.KindDecimal32, 64: schema.KindDecimal64, 128: schema.KindDecimal128, 256: schema.KindDecimal256}[width]

	return &schema.Type{
		Kind:      kind,
		Width:     width,
		Precision: int(prec.intVal),
		Scale:     int(scale.intVal),
	}, nil
}

func decimalWidthForPrecision(p int) int {
	switch {
	case p <= 9:
		return 32
	case p <= 18:
		return 64
	case p <= 38:
		return 128
	default:
		return 256
	}
}

// parseDecimalFixed handles the fixed-width spellings: DecimalN(scale), or
// DecimalN(precision, scale) as re-emitted by schema.Type.String.
func (p *parser) parseDecimalFixed(canon string) (*schema.Type, error) {
	width, _ := schema.DecimalWidth(canon)

	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	first, err := p.expect(tokIntLit, "a scale literal")
	if err != nil {
		return nil, err
	}

	precision := map[int]int{32: 9, 64: 18, 128: 38, 256: 76}[width]
	scale := int(first.intVal)

	if p.cur().kind == tokComma {
		p.advance()

		second, err := p.expect(tokIntLit, "a scale literal")
		if err != nil {
			return nil, err
		}

		precision = int(first.intVal)
		scale = int(second.intVal)
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	kind := map[int]schema.Kind{32: schema.KindDecimal32, 64: schema.KindDecimal64, 128: schema.KindDecimal128, 256: schema.KindDecimal256}[width]

	return &schema.Type{Kind: kind, Width: width, Precision: precision, Scale: scale}, nil
}

func (p *parser) parseTime() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	scale, err := p.expect(tokIntLit, "a scale literal")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	return &schema.Type{Kind: schema.KindTime, TimeScale: int(scale.intVal)}, nil
}

func (p *parser) parseDateTime() (*schema.Type, error) {
	t := &schema.Type{Kind: schema.KindDateTime}

	if p.cur().kind != tokLParen {
		return t, nil
	}

	p.advance()

	if p.cur().kind != tokRParen {
		tz, err := p.expect(tokStrLit, "a timezone string")
		if err != nil {
			return nil, err
		}

		t.Timezone = tz.text
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	return t, nil
}

func (p *parser) parseDateTime64() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	scale, err := p.expect(tokIntLit, "a scale literal")
	if err != nil {
		return nil, err
	}

	t := &schema.Type{Kind: schema.KindDateTime64, TimeScale: int(scale.intVal)}

	if p.cur().kind == tokComma {
		p.advance()

		tz, err := p.expect(tokStrLit, "a timezone string")
		if err != nil {
			return nil, err
		}

		t.Timezone = tz.text
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	return t, nil
}

func (p *parser) parseEnum(canon string) (*schema.Type, error) {
	kind := schema.KindEnum8
	if canon == "Enum16" {
		kind = schema.KindEnum16
	}

	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	var entries []schema.EnumEntry

	for {
		// Backticked names lex as identifiers; both spellings are accepted.
		if p.cur().kind != tokStrLit && p.cur().kind != tokIdent {
			return nil, p.errorf("expected an enum name literal")
		}

		name := p.advance()

		if _, err := p.expect(tokEquals, "'='"); err != nil {
			return nil, err
		}

		val, err := p.expect(tokIntLit, "an enum integer value")
		if err != nil {
			return nil, err
		}

		v, perr := schema.ParseInt16Strict(val.text)
		if perr != nil || (kind == schema.KindEnum8 && (v < -128 || v > 127)) {
			return nil, p.errorf("enum value %s out of range for %s", val.text, canon)
		}

		entries = append(entries, schema.EnumEntry{Name: name.text, Value: v})

		if p.cur().kind == tokComma {
			p.advance()
			continue
		}

		break
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, p.errorf("enum type requires at least one entry")
	}

	return &schema.Type{Kind: kind, Enum: entries}, nil
}

func (p *parser) parseWrapped(kind schema.Kind) (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	if err := validateWrap(kind, inner); err != nil {
		return nil, err
	}

	return &schema.Type{Kind: kind, Elem: inner}, nil
}

// validateWrap enforces the nesting rules: LowCardinality may only wrap
// String, FixedString, integer and float kinds (not decimals), Date,
// DateTime, UUID, or a Nullable of one of those.
func validateWrap(kind schema.Kind, inner *schema.Type) error {
	if kind != schema.KindLowCardinality {
		return nil
	}

	target := inner
	if target.Kind == schema.KindNullable {
		target = target.Elem
	}

	if !lowCardinalityCompatible(target.Kind) {
		return errs.WrapExpected(errs.ErrUnsupportedNesting, 0, "", "LowCardinality("+target.Kind.String()+")")
	}

	return nil
}

func lowCardinalityCompatible(k schema.Kind) bool {
	switch k {
	case schema.KindString, schema.KindFixedString,
		schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64, schema.KindInt128, schema.KindInt256,
		schema.KindUInt8, schema.KindUInt16, schema.KindUInt32, schema.KindUInt64, schema.KindUInt128, schema.KindUInt256,
		schema.KindFloat32, schema.KindFloat64, schema.KindBFloat16,
		schema.KindDate, schema.KindDateTime, schema.KindUUID:
		return true
	default:
		return false
	}
}

// parseNamedFieldOrType implements the choice between NamedField and Type
// that Tuple/Nested arguments make: an Ident directly followed by ' ' or ':'
// and then another Ident starts a NamedField; otherwise it's a bare Type.
func (p *parser) parseNamedFieldOrType() (schema.Field, error) {
	if p.cur().kind == tokIdent && p.looksLikeFieldName() {
		name := p.advance().text

		if p.cur().kind == tokColon {
			p.advance()
		}

		t, err := p.parseType()
		if err != nil {
			return schema.Field{}, err
		}

		return schema.Field{Name: name, Type: t}, nil
	}

	t, err := p.parseType()
	if err != nil {
		return schema.Field{}, err
	}

	return schema.Field{Type: t}, nil
}

// looksLikeFieldName reports whether the current identifier is acting as a
// field name rather than a type constructor: it must be followed by a colon,
// or by another identifier (the field's type name).
func (p *parser) looksLikeFieldName() bool {
	next := p.toks[p.pos+1]

	return next.kind == tokColon || next.kind == tokIdent
}

func (p *parser) parseTuple() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	var fields []schema.Field

	for {
		f, err := p.parseNamedFieldOrType()
		if err != nil {
			return nil, err
		}

		fields = append(fields, f)

		if p.cur().kind == tokComma {
			p.advance()
			continue
		}

		break
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, p.errorf("Tuple requires at least one field")
	}

	return &schema.Type{Kind: schema.KindTuple, Fields: fields}, nil
}

func (p *parser) parseNested() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	var fields []schema.Field

	for {
		f, err := p.parseNamedFieldOrType()
		if err != nil {
			return nil, err
		}

		if f.Name == "" {
			return nil, p.errorf("Nested fields must be named")
		}

		fields = append(fields, f)

		if p.cur().kind == tokComma {
			p.advance()
			continue
		}

		break
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	return &schema.Type{Kind: schema.KindNested, Fields: fields}, nil
}

func (p *parser) parseMap() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	k, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokComma, "','"); err != nil {
		return nil, err
	}

	v, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	return &schema.Type{Kind: schema.KindMap, Key: k, Value: v}, nil
}

func (p *parser) parseVariant() (*schema.Type, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	var variants []*schema.Type

	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}

		variants = append(variants, t)

		if p.cur().kind == tokComma {
			p.advance()
			continue
		}

		break
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	if len(variants) == 0 {
		return nil, p.errorf("Variant requires at least one member type")
	}

	return &schema.Type{Kind: schema.KindVariant, Variants: variants}, nil
}

// parseGeoAlias handles the six fixed geo aliases. They desugar
// deterministically and carry no arguments.
func (p *parser) parseGeoAlias(canon string) (*schema.Type, bool, error) {
	switch canon {
	case "Point":
		t := &schema.Type{
			Kind:   schema.KindTuple,
			Alias:  "Point",
			Fields: []schema.Field{{Type: &schema.Type{Kind: schema.KindFloat64}}, {Type: &schema.Type{Kind: schema.KindFloat64}}},
		}

		return t, true, p.skipEmptyParens()
	case "Ring":
		return geoArrayOf(geoPoint(), "Ring"), true, p.skipEmptyParens()
	case "LineString":
		return geoArrayOf(geoPoint(), "LineString"), true, p.skipEmptyParens()
	case "Polygon":
		return geoArrayOf(geoArrayOf(geoPoint(), ""), "Polygon"), true, p.skipEmptyParens()
	case "MultiLineString":
		return geoArrayOf(geoArrayOf(geoPoint(), ""), "MultiLineString"), true, p.skipEmptyParens()
	case "MultiPolygon":
		return geoArrayOf(geoArrayOf(geoArrayOf(geoPoint(), ""), ""), "MultiPolygon"), true, p.skipEmptyParens()
	default:
		return nil, false, nil
	}
}

func geoPoint() *schema.Type {
	return &schema.Type{
		Kind:   schema.KindTuple,
		Fields: []schema.Field{{Type: &schema.Type{Kind: schema.KindFloat64}}, {Type: &schema.Type{Kind: schema.KindFloat64}}},
	}
}

func geoArrayOf(elem *schema.Type, alias string) *schema.Type {
	return &schema.Type{Kind: schema.KindArray, Elem: elem, Alias: alias}
}

// scalarKind maps a canonical zero-argument type name to its Kind.
func scalarKind(canon string) (*schema.Type, bool) {
	switch canon {
	case "Int8":
		return &schema.Type{Kind: schema.KindInt8, Width: 8}, true
	case "Int16":
		return &schema.Type{Kind: schema.KindInt16, Width: 16}, true
	case "Int32":
		return &schema.Type{Kind: schema.KindInt32, Width: 32}, true
	case "Int64":
		return &schema.Type{Kind: schema.KindInt64, Width: 64}, true
	case "Int128":
		return &schema.Type{Kind: schema.KindInt128, Width: 128}, true
	case "Int256":
		return &schema.Type{Kind: schema.KindInt256, Width: 256}, true
	case "UInt8":
		return &schema.Type{Kind: schema.KindUInt8, Width: 8}, true
	case "UInt16":
		return &schema.Type{Kind: schema.KindUInt16, Width: 16}, true
	case "UInt32":
		return &schema.Type{Kind: schema.KindUInt32, Width: 32}, true
	case "UInt64":
		return &schema.Type{Kind: schema.KindUInt64, Width: 64}, true
	case "UInt128":
		return &schema.Type{Kind: schema.KindUInt128, Width: 128}, true
	case "UInt256":
		return &schema.Type{Kind: schema.KindUInt256, Width: 256}, true
	case "Float32":
		return &schema.Type{Kind: schema.KindFloat32, Width: 32}, true
	case "Float64":
		return &schema.Type{Kind: schema.KindFloat64, Width: 64}, true
	case "BFloat16":
		return &schema.Type{Kind: schema.KindBFloat16, Width: 16}, true
	case "String":
		return &schema.Type{Kind: schema.KindString}, true
	case "Bool":
		return &schema.Type{Kind: schema.KindBool}, true
	case "UUID":
		return &schema.Type{Kind: schema.KindUUID}, true
	case "IPv4":
		return &schema.Type{Kind: schema.KindIPv4}, true
	case "IPv6":
		return &schema.Type{Kind: schema.KindIPv6}, true
	case "Date":
		return &schema.Type{Kind: schema.KindDate}, true
	case "Date32":
		return &schema.Type{Kind: schema.KindDate32}, true
	case "JSON":
		return &schema.Type{Kind: schema.KindJSON}, true
	case "Nothing":
		return &schema.Type{Kind: schema.KindNothing}, true
	default:
		return nil, false
	}
}

// canonicalName normalizes spelling variants the parser tolerates
// (Uuid/UUID, Ipv4/IPv4, Ipv6/IPv6, Json/JSON) to one canonical spelling.
func canonicalName(name string) string {
	switch name {
	case "Uuid":
		return "UUID"
	case "Ipv4":
		return "IPv4"
	case "Ipv6":
		return "IPv6"
	case "Json":
		return "JSON"
	default:
		return name
	}
}
