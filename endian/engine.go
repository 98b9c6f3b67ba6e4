// Package endian provides the byte order engine used by every LAS/LAZ wire structure.
//
// LAS and LAZ are little-endian formats. The engine combines binary.ByteOrder and
// binary.AppendByteOrder so fixed-layout structures can be written either in place
// (Put*) or by appending (Append*), plus helpers for the float and fixed-width
// string fields that the header and VLR layouts use.
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, offsetToPointData)
//	buf = endian.AppendFloat64(engine, buf, scale)
package endian

import (
	"bytes"
	"encoding/binary"
	"math"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine used by LAS files.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine. LAS only needs it for the
// canonical byte order of GUIDs.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Float64 decodes an IEEE-754 double from the first 8 bytes of b.
func Float64(engine EndianEngine, b []byte) float64 {
	return math.Float64frombits(engine.Uint64(b))
}

// PutFloat64 encodes v into the first 8 bytes of b.
func PutFloat64(engine EndianEngine, b []byte, v float64) {
	engine.PutUint64(b, math.Float64bits(v))
}

// AppendFloat64 appends the encoding of v to b.
func AppendFloat64(engine EndianEngine, b []byte, v float64) []byte {
	return engine.AppendUint64(b, math.Float64bits(v))
}

// Int64 decodes a two's complement signed 64-bit integer.
func Int64(engine EndianEngine, b []byte) int64 {
	return int64(engine.Uint64(b)) //nolint:gosec
}

// AppendInt64 appends the two's complement encoding of v to b.
func AppendInt64(engine EndianEngine, b []byte, v int64) []byte {
	return engine.AppendUint64(b, uint64(v)) //nolint:gosec
}

// FixedString decodes a NUL padded string field.
func FixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}

// AppendFixedString appends s truncated or NUL padded to exactly size bytes.
func AppendFixedString(b []byte, s string, size int) []byte {
	if len(s) > size {
		s = s[:size]
	}
	b = append(b, s...)
	for i := len(s); i < size; i++ {
		b = append(b, 0)
	}

	return b
}
