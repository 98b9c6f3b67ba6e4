package endian

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Equal(t, binary.LittleEndian, engine)

	buf := engine.AppendUint32(nil, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
}

func TestGetBigEndianEngine(t *testing.T) {
	engine := GetBigEndianEngine()
	require.Equal(t, binary.BigEndian, engine)
	require.Equal(t, []byte{0x01, 0x02}, engine.AppendUint16(nil, 0x0102))
}

func TestFloat64RoundTrip(t *testing.T) {
	require := require.New(t)
	engine := GetLittleEndianEngine()

	values := []float64{0, 0.01, -1234.5678, math.MaxFloat64, -math.MaxFloat64, math.SmallestNonzeroFloat64}
	for _, v := range values {
		buf := AppendFloat64(engine, nil, v)
		require.Len(buf, 8)
		require.Equal(v, Float64(engine, buf))

		fixed := make([]byte, 8)
		PutFloat64(engine, fixed, v)
		require.Equal(buf, fixed)
	}
}

func TestInt64(t *testing.T) {
	engine := GetLittleEndianEngine()

	buf := AppendInt64(engine, nil, -1)
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, buf)
	require.Equal(t, int64(-1), Int64(engine, buf))
}

func TestFixedString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		size int
		want string
	}{
		{"padded", "LASF_Spec", 16, "LASF_Spec"},
		{"exact", "abcd", 4, "abcd"},
		{"truncated", "laszip encoded!!", 6, "laszip"},
		{"empty", "", 8, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := AppendFixedString(nil, tt.in, tt.size)
			require.Len(t, buf, tt.size)
			require.Equal(t, tt.want, FixedString(buf))
		})
	}
}
