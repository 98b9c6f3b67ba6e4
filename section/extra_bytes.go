package section

import (
	"fmt"

	"github.com/arloliu/lasgo/endian"
	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/point"
)

// Extra Bytes VLR identification.
const (
	ExtraBytesUserID   = "LASF_Spec"
	ExtraBytesRecordID = 4

	extraBytesDescriptorSize = 192

	extraBytesOptionScale  = 1 << 3
	extraBytesOptionOffset = 1 << 4
)

// Descriptor field offsets.
const (
	ebDataType    = 2
	ebOptions     = 3
	ebName        = 4
	ebScale       = 112
	ebOffset      = 136
	ebDescription = 160
)

// baseDataType maps a scalar element type to its Extra Bytes data type (1..10).
func baseDataType(kind point.DimensionKind, bits uint8) uint8 {
	var code uint8
	switch bits {
	case 8:
		code = 1
	case 16:
		code = 3
	case 32:
		code = 5
	case 64:
		code = 7
	}
	switch kind {
	case point.SignedInteger:
		code++
	case point.Float:
		if bits == 32 {
			return 9
		}

		return 10
	}

	return code
}

func elementType(code uint8) (point.DimensionKind, uint8) {
	switch code {
	case 1:
		return point.UnsignedInteger, 8
	case 2:
		return point.SignedInteger, 8
	case 3:
		return point.UnsignedInteger, 16
	case 4:
		return point.SignedInteger, 16
	case 5:
		return point.UnsignedInteger, 32
	case 6:
		return point.SignedInteger, 32
	case 7:
		return point.UnsignedInteger, 64
	case 8:
		return point.SignedInteger, 64
	case 9:
		return point.Float, 32
	default:
		return point.Float, 64
	}
}

func encodeExtraBytes(dims []point.DimensionInfo) []byte {
	engine := endian.GetLittleEndianEngine()
	out := make([]byte, 0, len(dims)*extraBytesDescriptorSize)

	for _, dim := range dims {
		d := make([]byte, extraBytesDescriptorSize)

		if dim.NumElements > 3 {
			d[ebDataType] = 0
			d[ebOptions] = dim.NumElements
		} else {
			d[ebDataType] = baseDataType(dim.Kind, dim.BitWidth) + 10*(max(dim.NumElements, 1)-1)
			if dim.Scales != nil {
				d[ebOptions] |= extraBytesOptionScale
			}
			if dim.Offsets != nil {
				d[ebOptions] |= extraBytesOptionOffset
			}
		}
		copy(d[ebName:ebName+fixedStringFieldSize], endian.AppendFixedString(nil, dim.Name, fixedStringFieldSize))
		for i, s := range dim.Scales {
			endian.PutFloat64(engine, d[ebScale+8*i:], s)
		}
		for i, o := range dim.Offsets {
			endian.PutFloat64(engine, d[ebOffset+8*i:], o)
		}
		copy(d[ebDescription:], endian.AppendFixedString(nil, dim.Description, descriptionSize))

		out = append(out, d...)
	}

	return out
}

func decodeExtraBytes(data []byte) ([]point.ExtraBytesParams, error) {
	if len(data)%extraBytesDescriptorSize != 0 {
		return nil, fmt.Errorf("%w: extra bytes vlr of %d bytes", errs.ErrInvalidVLR, len(data))
	}
	engine := endian.GetLittleEndianEngine()

	params := make([]point.ExtraBytesParams, 0, len(data)/extraBytesDescriptorSize)
	for off := 0; off < len(data); off += extraBytesDescriptorSize {
		d := data[off : off+extraBytesDescriptorSize]
		p := point.ExtraBytesParams{
			Name:        endian.FixedString(d[ebName : ebName+fixedStringFieldSize]),
			Description: endian.FixedString(d[ebDescription : ebDescription+descriptionSize]),
		}

		code, options := d[ebDataType], d[ebOptions]
		switch {
		case code == 0:
			if options == 0 {
				return nil, fmt.Errorf("%w: undocumented extra bytes %q without size", errs.ErrInvalidVLR, p.Name)
			}
			p.Kind, p.BitWidth, p.NumElements = point.UnsignedInteger, 8, options
		case code <= 30:
			p.NumElements = (code-1)/10 + 1
			p.Kind, p.BitWidth = elementType((code-1)%10 + 1)
			if options&extraBytesOptionScale != 0 {
				p.Scales = make([]float64, p.NumElements)
				for i := range p.Scales {
					p.Scales[i] = endian.Float64(engine, d[ebScale+8*i:])
				}
			}
			if options&extraBytesOptionOffset != 0 {
				p.Offsets = make([]float64, p.NumElements)
				for i := range p.Offsets {
					p.Offsets[i] = endian.Float64(engine, d[ebOffset+8*i:])
				}
			}
		default:
			return nil, fmt.Errorf("%w: extra bytes data type %d", errs.ErrInvalidVLR, code)
		}
		params = append(params, p)
	}

	return params, nil
}
