package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/point"
)

func TestExtraBytesRoundTrip(t *testing.T) {
	require := require.New(t)

	pf := newFormat(t, 0)
	params := []point.ExtraBytesParams{
		{Name: "u8", Kind: point.UnsignedInteger, BitWidth: 8},
		{Name: "i64", Kind: point.SignedInteger, BitWidth: 64, Description: "big"},
		{Name: "f32x3", Kind: point.Float, BitWidth: 32, NumElements: 3},
		{Name: "i16x2", Kind: point.SignedInteger, BitWidth: 16, NumElements: 2, Scales: []float64{0.5, 0.25}},
		{Name: "bytes", Kind: point.UnsignedInteger, BitWidth: 8, NumElements: 7},
	}
	for _, p := range params {
		require.NoError(pf.AddExtraDimension(p))
	}

	data := encodeExtraBytes(pf.ExtraDimensions())
	require.Len(data, len(params)*extraBytesDescriptorSize)
	require.Equal(uint8(1), data[ebDataType])
	require.Equal(uint8(8), data[extraBytesDescriptorSize+ebDataType])
	require.Equal(uint8(29), data[2*extraBytesDescriptorSize+ebDataType])
	require.Equal(uint8(14), data[3*extraBytesDescriptorSize+ebDataType])
	require.Equal(uint8(0), data[4*extraBytesDescriptorSize+ebDataType])
	require.Equal(uint8(7), data[4*extraBytesDescriptorSize+ebOptions])

	decoded, err := decodeExtraBytes(data)
	require.NoError(err)

	rebuilt := newFormat(t, 0)
	for _, p := range decoded {
		require.NoError(rebuilt.AddExtraDimension(p))
	}
	require.True(pf.Equal(rebuilt))
	require.Equal(pf.Size(), rebuilt.Size())
}

func TestDecodeExtraBytesInvalid(t *testing.T) {
	_, err := decodeExtraBytes(make([]byte, 100))
	require.ErrorIs(t, err, errs.ErrInvalidVLR)

	d := make([]byte, extraBytesDescriptorSize)
	_, err = decodeExtraBytes(d)
	require.ErrorIs(t, err, errs.ErrInvalidVLR)

	d[ebDataType] = 31
	_, err = decodeExtraBytes(d)
	require.ErrorIs(t, err, errs.ErrInvalidVLR)
}
