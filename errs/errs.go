// Package errs defines the sentinel errors produced by this module's decoders
// and a DecodeError wrapper that attaches diagnostic context: the byte offset
// at which the error was detected and, when known, the column name.
//
// Sentinels are plain errors.New values, compared with errors.Is and wrapped
// with fmt.Errorf at the call site. DecodeError extends that with the
// offset/column payload needed for structured diagnostics; Unwrap exposes the
// underlying sentinel so errors.Is(err, errs.ErrTruncatedInput) keeps working
// through the wrapper.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput means the input ended before a decoder finished
	// reading a value it expected to be present.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrInvalidType means the type-expression parser rejected the input:
	// unknown constructor, arity mismatch, or malformed enum/literal.
	ErrInvalidType = errors.New("invalid type expression")
	// ErrUnsupportedType means a type name was recognized syntactically but
	// is not implemented by this decoder.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrInvalidLength means a varint length prefix overflowed or pointed
	// past the remaining input.
	ErrInvalidLength = errors.New("invalid length")
	// ErrInvalidDiscriminator means a Variant discriminator byte was neither
	// a valid member index nor the null sentinel 0xFF.
	ErrInvalidDiscriminator = errors.New("invalid variant discriminator")
	// ErrInvalidEnumValue means a decoded Enum8/Enum16 raw value has no
	// corresponding name in the type's value table.
	ErrInvalidEnumValue = errors.New("invalid enum value")
	// ErrDictionaryOverflow means a LowCardinality index referenced a slot
	// past the end of its dictionary.
	ErrDictionaryOverflow = errors.New("low-cardinality dictionary index out of range")
	// ErrUnsupportedNesting means a composite type wraps an inner type it is
	// not permitted to wrap (e.g. LowCardinality(Array(...))).
	ErrUnsupportedNesting = errors.New("unsupported type nesting")
	// ErrInvalidUTF8 means a string-typed column failed UTF-8 validation;
	// only raised when a caller opts into strict_utf8 or requests a string
	// conversion, never during the byte-exact decode pass itself.
	ErrInvalidUTF8 = errors.New("invalid utf-8")
	// ErrOffsetNotMonotonic means an Array column's offsets were not
	// non-decreasing.
	ErrOffsetNotMonotonic = errors.New("array offsets not monotonic")
	// ErrVersionMismatch means a Dynamic/Json structure-version word did not
	// match a version this decoder understands.
	ErrVersionMismatch = errors.New("structure version mismatch")
	// ErrRowCountMismatch means a column's declared or computed row count
	// disagreed with the block's row count.
	ErrRowCountMismatch = errors.New("row count mismatch")
	// ErrIndexOutOfRange means a row or element index was out of bounds for
	// the column or block being accessed.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// DictionaryOverflowError reports a LowCardinality index that referenced a
// slot past the end of its dictionary.
type DictionaryOverflowError struct {
	Index int
	Size  int
}

func (e *DictionaryOverflowError) Error() string {
	return fmt.Sprintf("dictionary index %d out of range for dictionary of size %d", e.Index, e.Size)
}

func (e *DictionaryOverflowError) Unwrap() error {
	return ErrDictionaryOverflow
}

// VersionMismatchError reports a Dynamic/Json structure-version word this
// decoder does not recognize.
type VersionMismatchError struct {
	Got      uint64
	Expected uint64
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("structure version %d, expected %d", e.Got, e.Expected)
}

func (e *VersionMismatchError) Unwrap() error {
	return ErrVersionMismatch
}

// InvalidDiscriminatorError reports a Variant discriminator byte that named
// neither a valid member index nor the null sentinel 0xFF.
type InvalidDiscriminatorError struct {
	Value    byte
	NumTypes int
}

func (e *InvalidDiscriminatorError) Error() string {
	return fmt.Sprintf("discriminator %d out of range for %d variant member(s)", e.Value, e.NumTypes)
}

func (e *InvalidDiscriminatorError) Unwrap() error {
	return ErrInvalidDiscriminator
}

// InvalidEnumValueError reports a decoded Enum8/Enum16 raw value with no
// corresponding name.
type InvalidEnumValueError struct {
	Value int16
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("enum value %d has no matching name", e.Value)
}

func (e *InvalidEnumValueError) Unwrap() error {
	return ErrInvalidEnumValue
}

// InvalidUTF8Error reports a string-typed row that failed UTF-8 validation,
// raised only when a caller opts into strict UTF-8 checking or requests a
// string conversion.
type InvalidUTF8Error struct {
	Column string
	Row    int
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("column %q row %d: invalid utf-8", e.Column, e.Row)
}

func (e *InvalidUTF8Error) Unwrap() error {
	return ErrInvalidUTF8
}

// DecodeError carries the byte offset, and optionally the column name, at
// which a decode error was detected. Err is the underlying
// sentinel; Expected, when non-empty, names the shape the decoder expected
// to find (e.g. "Array(T) offsets", "UInt8 discriminator byte").
type DecodeError struct {
	Err      error
	Offset   int
	Column   string
	Expected string
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode error at offset %d: %v", e.Offset, e.Err)
	if e.Column != "" {
		msg = fmt.Sprintf("decode error at offset %d, column %q: %v", e.Offset, e.Column, e.Err)
	}
	if e.Expected != "" {
		msg += fmt.Sprintf(" (expected %s)", e.Expected)
	}

	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Wrap builds a DecodeError for the given sentinel, offset, and column name.
// Column may be empty when the error is detected before a column name is
// known (e.g. while parsing the block header).
func Wrap(err error, offset int, column string) *DecodeError {
	return &DecodeError{Err: err, Offset: offset, Column: column}
}

// WrapExpected is Wrap plus a description of the shape the decoder expected,
// used for richer diagnostics on structural errors (e.g. arity mismatches,
// unknown type constructors).
func WrapExpected(err error, offset int, column, expected string) *DecodeError {
	return &DecodeError{Err: err, Offset: offset, Column: column, Expected: expected}
}
