package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionSupportsPointFormat(t *testing.T) {
	tests := []struct {
		version Version
		id      uint8
		want    bool
	}{
		{Version10, 1, true},
		{Version11, 2, false},
		{Version12, 3, true},
		{Version12, 4, false},
		{Version13, 5, true},
		{Version13, 6, false},
		{Version14, 10, true},
		{Version14, 11, false},
		{Version{Major: 2, Minor: 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			require.Equal(t, tt.want, tt.version.SupportsPointFormat(tt.id))
		})
	}
}

func TestMinimumVersion(t *testing.T) {
	for id := uint8(0); id <= 10; id++ {
		v := MinimumVersion(id)
		require.True(t, v.SupportsPointFormat(id), "id %d", id)
	}
	require.Equal(t, Version14, MinimumVersion(6))
}

func TestVersionOrdering(t *testing.T) {
	require.True(t, Version12.Less(Version14))
	require.False(t, Version14.Less(Version14))
	require.False(t, Version13.SupportsEVLRs())
	require.True(t, Version14.SupportsEVLRs())
}

func TestCompressionTypeString(t *testing.T) {
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Equal(t, "Unknown", CompressionType(99).String())
}
