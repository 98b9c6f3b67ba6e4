package point

import (
	"fmt"
	"slices"

	"github.com/arloliu/lasgo/errs"
)

// MaxFormatID is the highest point format id defined by LAS 1.4.
const MaxFormatID = 10

// maxNameLength is the size of the name field of an Extra Bytes descriptor.
const maxNameLength = 32

// Format is the ordered set of dimensions making up one point record: the
// standard dimensions selected by the format id followed by the extra
// dimensions in the order they were added.
//
// A Format is frozen once a writer or appender starts using it; extra
// dimensions can only be added before that.
type Format struct {
	id         uint8
	dimensions []DimensionInfo
	index      map[string]int
	bits       int
	numStd     int
	frozen     bool
}

// NewFormat creates the standard point format with the given id.
//
// Returns:
//   - *Format: Format holding the standard dimensions of id
//   - error: ErrInvalidFormatID if id is greater than 10
func NewFormat(id uint8) (*Format, error) {
	if id > MaxFormatID {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidFormatID, id)
	}

	f := &Format{
		id:    id,
		index: make(map[string]int),
	}
	for _, dim := range standardDimensions(id) {
		f.appendDimension(dim)
	}
	f.numStd = len(f.dimensions)

	return f, nil
}

func (f *Format) appendDimension(dim DimensionInfo) {
	dim.bitOffset = f.bits
	f.index[dim.Name] = len(f.dimensions)
	f.dimensions = append(f.dimensions, dim)
	f.bits += dim.TotalBits()
}

// ID returns the point format id (0..10).
func (f *Format) ID() uint8 {
	return f.id
}

// Dimensions returns all dimensions in on-disk order.
func (f *Format) Dimensions() []DimensionInfo {
	out := make([]DimensionInfo, len(f.dimensions))
	for i, dim := range f.dimensions {
		out[i] = dim.clone()
	}

	return out
}

// StandardDimensions returns the dimensions defined by the LAS specification for the id.
func (f *Format) StandardDimensions() []DimensionInfo {
	return f.Dimensions()[:f.numStd]
}

// ExtraDimensions returns the user-defined dimensions in the order they were added.
func (f *Format) ExtraDimensions() []DimensionInfo {
	return f.Dimensions()[f.numStd:]
}

// DimensionNames returns the dimension names in on-disk order.
func (f *Format) DimensionNames() []string {
	names := make([]string, len(f.dimensions))
	for i, dim := range f.dimensions {
		names[i] = dim.Name
	}

	return names
}

// DimensionByName returns the dimension called name.
func (f *Format) DimensionByName(name string) (DimensionInfo, error) {
	i, ok := f.index[name]
	if !ok {
		return DimensionInfo{}, fmt.Errorf("%w: %q in point format %d", errs.ErrDimensionNotFound, name, f.id)
	}

	return f.dimensions[i].clone(), nil
}

// HasDimension reports whether the format contains a dimension called name.
func (f *Format) HasDimension(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Size returns the size of one record in bytes.
func (f *Format) Size() int {
	return f.bits / 8
}

// NumStandardBytes returns the number of bytes used by the standard dimensions.
func (f *Format) NumStandardBytes() int {
	bits := 0
	for _, dim := range f.dimensions[:f.numStd] {
		bits += dim.TotalBits()
	}

	return bits / 8
}

// NumExtraBytes returns the number of bytes used by the extra dimensions.
func (f *Format) NumExtraBytes() int {
	return f.Size() - f.NumStandardBytes()
}

// ExtraBytesParams describes an extra dimension to add to a Format.
type ExtraBytesParams struct {
	Name string
	Kind DimensionKind
	// BitWidth is the width of one element: 8, 16, 32 or 64.
	BitWidth uint8
	// NumElements defaults to 1. More than 3 elements is only allowed for
	// unsigned 8-bit arrays (opaque extra bytes).
	NumElements uint8
	Scales      []float64
	Offsets     []float64
	Description string
}

// AddExtraDimension appends a user-defined dimension after the existing ones.
//
// Returns:
//   - error: ErrInvalidDimension if the definition is not representable in an
//     Extra Bytes VLR, the name is already used, or the format is frozen
func (f *Format) AddExtraDimension(params ExtraBytesParams) error {
	if f.frozen {
		return fmt.Errorf("%w: point format %d is in use by a writer", errs.ErrInvalidDimension, f.id)
	}

	dim, err := params.dimension()
	if err != nil {
		return err
	}
	if f.HasDimension(dim.Name) {
		return fmt.Errorf("%w: name %q already used", errs.ErrInvalidDimension, dim.Name)
	}

	f.appendDimension(dim)

	return nil
}

func (p ExtraBytesParams) dimension() (DimensionInfo, error) {
	num := p.NumElements
	if num == 0 {
		num = 1
	}

	switch {
	case p.Name == "":
		return DimensionInfo{}, fmt.Errorf("%w: empty name", errs.ErrInvalidDimension)
	case len(p.Name) > maxNameLength:
		return DimensionInfo{}, fmt.Errorf("%w: name %q longer than %d bytes", errs.ErrInvalidDimension, p.Name, maxNameLength)
	case len(p.Description) > maxNameLength:
		return DimensionInfo{}, fmt.Errorf("%w: description of %q longer than %d bytes", errs.ErrInvalidDimension, p.Name, maxNameLength)
	case p.Kind < SignedInteger || p.Kind > Float:
		return DimensionInfo{}, fmt.Errorf("%w: %q has unknown kind", errs.ErrInvalidDimension, p.Name)
	}

	switch p.BitWidth {
	case 8, 16, 32, 64:
	default:
		return DimensionInfo{}, fmt.Errorf("%w: %q has bit width %d", errs.ErrInvalidDimension, p.Name, p.BitWidth)
	}
	if p.Kind == Float && p.BitWidth != 32 && p.BitWidth != 64 {
		return DimensionInfo{}, fmt.Errorf("%w: float %q must be 32 or 64 bits", errs.ErrInvalidDimension, p.Name)
	}
	if num > 3 && (p.Kind != UnsignedInteger || p.BitWidth != 8) {
		return DimensionInfo{}, fmt.Errorf("%w: %q has %d elements, arrays longer than 3 must be unsigned bytes",
			errs.ErrInvalidDimension, p.Name, num)
	}
	if num > 3 && (p.Scales != nil || p.Offsets != nil) {
		return DimensionInfo{}, fmt.Errorf("%w: byte array %q cannot be scaled", errs.ErrInvalidDimension, p.Name)
	}
	if p.Scales != nil && len(p.Scales) != int(num) {
		return DimensionInfo{}, fmt.Errorf("%w: %q needs %d scales", errs.ErrInvalidDimension, p.Name, num)
	}
	if p.Offsets != nil && len(p.Offsets) != int(num) {
		return DimensionInfo{}, fmt.Errorf("%w: %q needs %d offsets", errs.ErrInvalidDimension, p.Name, num)
	}

	dim := DimensionInfo{
		Name:        p.Name,
		Kind:        p.Kind,
		BitWidth:    p.BitWidth,
		NumElements: num,
		Description: p.Description,
	}
	if p.Scales != nil {
		dim.Scales = append([]float64(nil), p.Scales...)
	}
	if p.Offsets != nil {
		dim.Offsets = append([]float64(nil), p.Offsets...)
	}

	return dim, nil
}

// Equal reports whether both formats have the same id and identical extra dimensions.
func (f *Format) Equal(other *Format) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil || f.id != other.id {
		return false
	}

	extra, otherExtra := f.dimensions[f.numStd:], other.dimensions[other.numStd:]

	return slices.EqualFunc(extra, otherExtra, DimensionInfo.equal)
}

// Clone returns an unfrozen deep copy of the format.
func (f *Format) Clone() *Format {
	c := &Format{
		id:     f.id,
		index:  make(map[string]int, len(f.index)),
		numStd: f.numStd,
	}
	for _, dim := range f.dimensions {
		c.appendDimension(dim.clone())
	}

	return c
}

// Freeze prevents further extra dimensions from being added.
func (f *Format) Freeze() {
	f.frozen = true
}

// LostDimensions returns the names of the dimensions of format fromID that
// do not exist in format toID, in fromID's order.
func LostDimensions(fromID, toID uint8) ([]string, error) {
	from, err := NewFormat(fromID)
	if err != nil {
		return nil, err
	}
	to, err := NewFormat(toID)
	if err != nil {
		return nil, err
	}

	var lost []string
	for _, name := range from.DimensionNames() {
		if !to.HasDimension(name) {
			lost = append(lost, name)
		}
	}

	return lost, nil
}
