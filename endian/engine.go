// Package endian provides byte order utilities for binary decoding.
//
// It extends the standard encoding/binary package by combining ByteOrder and
// AppendByteOrder into a single EndianEngine interface, matching the shape of
// binary.LittleEndian/binary.BigEndian so either can be used directly.
//
// The wire format decoded by this module is always little-endian (every
// fixed-width integer, length prefix, and offset is LE), so only
// GetLittleEndianEngine is provided.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from the standard
// library into one interface. binary.LittleEndian and binary.BigEndian both
// satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine. The wire format
// decoded by this module is always little-endian, so every primitive reader
// and column decoder is constructed with this engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}
