package point

import (
	"fmt"
	"math"
)

// DimensionKind is the numeric interpretation of a dimension's bits.
type DimensionKind uint8

const (
	SignedInteger DimensionKind = iota + 1
	UnsignedInteger
	Float
)

func (k DimensionKind) String() string {
	switch k {
	case SignedInteger:
		return "SignedInteger"
	case UnsignedInteger:
		return "UnsignedInteger"
	case Float:
		return "Float"
	default:
		return "Unknown"
	}
}

// DimensionInfo describes one named field of a point record.
//
// BitWidth is the width of a single element; array dimensions repeat it
// NumElements times. Sub-byte fields are packed least significant bit first,
// as the LAS bit fields are.
type DimensionInfo struct {
	Name        string
	Kind        DimensionKind
	BitWidth    uint8
	NumElements uint8
	IsStandard  bool
	// Scales and Offsets are nil for unscaled dimensions, otherwise one per element.
	Scales      []float64
	Offsets     []float64
	Description string

	bitOffset int
}

// TotalBits returns the number of bits the dimension occupies in a record.
func (d DimensionInfo) TotalBits() int {
	return int(d.BitWidth) * int(d.numElements())
}

// BitOffset returns the position of the dimension's first bit within a record.
func (d DimensionInfo) BitOffset() int {
	return d.bitOffset
}

// IsScaled reports whether raw values are transformed by scale and offset.
func (d DimensionInfo) IsScaled() bool {
	return len(d.Scales) > 0 || len(d.Offsets) > 0
}

func (d DimensionInfo) numElements() uint8 {
	if d.NumElements == 0 {
		return 1
	}

	return d.NumElements
}

func (d DimensionInfo) equal(other DimensionInfo) bool {
	return d.Name == other.Name &&
		d.Kind == other.Kind &&
		d.BitWidth == other.BitWidth &&
		d.numElements() == other.numElements() &&
		d.IsStandard == other.IsStandard &&
		floatsEqual(d.Scales, other.Scales) &&
		floatsEqual(d.Offsets, other.Offsets)
}

func (d DimensionInfo) clone() DimensionInfo {
	c := d
	if d.Scales != nil {
		c.Scales = append([]float64(nil), d.Scales...)
	}
	if d.Offsets != nil {
		c.Offsets = append([]float64(nil), d.Offsets...)
	}

	return c
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func (d DimensionInfo) checkElement(elem int) error {
	if elem < 0 || elem >= int(d.numElements()) {
		return fmt.Errorf("dimension %q has %d elements, element %d requested", d.Name, d.numElements(), elem)
	}

	return nil
}

// Uint returns the raw bits of element elem in record rec.
func (d DimensionInfo) Uint(rec []byte, elem int) uint64 {
	off := d.bitOffset + elem*int(d.BitWidth)
	width := int(d.BitWidth)

	if off%8 == 0 && width%8 == 0 {
		b := rec[off/8 : off/8+width/8]
		var v uint64
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}

		return v
	}

	var v uint64
	for i := range width {
		bit := off + i
		if rec[bit>>3]>>(bit&7)&1 == 1 {
			v |= 1 << i
		}
	}

	return v
}

// SetUint stores the low BitWidth bits of v into element elem of rec.
func (d DimensionInfo) SetUint(rec []byte, elem int, v uint64) {
	off := d.bitOffset + elem*int(d.BitWidth)
	width := int(d.BitWidth)
	if width < 64 {
		v &= 1<<width - 1
	}

	if off%8 == 0 && width%8 == 0 {
		b := rec[off/8 : off/8+width/8]
		for i := range b {
			b[i] = byte(v)
			v >>= 8
		}

		return
	}

	for i := range width {
		bit := off + i
		mask := byte(1) << (bit & 7)
		if v>>i&1 == 1 {
			rec[bit>>3] |= mask
		} else {
			rec[bit>>3] &^= mask
		}
	}
}

// Int returns element elem of rec sign-extended from BitWidth bits.
func (d DimensionInfo) Int(rec []byte, elem int) int64 {
	shift := 64 - uint(d.BitWidth)

	return int64(d.Uint(rec, elem)<<shift) >> shift //nolint:gosec
}

// SetInt stores v as a BitWidth two's complement integer.
func (d DimensionInfo) SetInt(rec []byte, elem int, v int64) {
	d.SetUint(rec, elem, uint64(v)) //nolint:gosec
}

// Float returns element elem of rec as a float64 according to the dimension kind.
// Scale and offset are not applied, see Scaled.
func (d DimensionInfo) Float(rec []byte, elem int) float64 {
	switch d.Kind {
	case Float:
		if d.BitWidth == 32 {
			return float64(math.Float32frombits(uint32(d.Uint(rec, elem))))
		}

		return math.Float64frombits(d.Uint(rec, elem))
	case SignedInteger:
		return float64(d.Int(rec, elem))
	default:
		return float64(d.Uint(rec, elem))
	}
}

// SetFloat stores v according to the dimension kind, truncating for integer kinds.
func (d DimensionInfo) SetFloat(rec []byte, elem int, v float64) {
	switch d.Kind {
	case Float:
		if d.BitWidth == 32 {
			d.SetUint(rec, elem, uint64(math.Float32bits(float32(v))))
			return
		}
		d.SetUint(rec, elem, math.Float64bits(v))
	case SignedInteger:
		d.SetInt(rec, elem, int64(v))
	default:
		d.SetUint(rec, elem, uint64(v))
	}
}

// Scaled returns the element value with the dimension's scale and offset applied.
func (d DimensionInfo) Scaled(rec []byte, elem int) float64 {
	v := d.Float(rec, elem)
	if elem < len(d.Scales) {
		v *= d.Scales[elem]
	}
	if elem < len(d.Offsets) {
		v += d.Offsets[elem]
	}

	return v
}
