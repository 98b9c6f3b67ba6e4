//go:build cgo && gozstd

package compress

import (
	"github.com/valyala/gozstd"
)

// externalZstdLevel matches zstd.SpeedDefault of the native encoder.
const externalZstdLevel = 3

// ExternalZstdAvailable reports whether the cgo libzstd encoder is compiled in.
func ExternalZstdAvailable() bool {
	return true
}

// ExternalZstdCompressor encodes chunks with libzstd through cgo.
// Its frames are decoded by ZstdCompressor.
type ExternalZstdCompressor struct{}

var _ Compressor = (*ExternalZstdCompressor)(nil)

// NewExternalZstdCompressor returns the libzstd chunk encoder.
func NewExternalZstdCompressor() (Compressor, error) {
	return ExternalZstdCompressor{}, nil
}

// Compress compresses data with libzstd.
func (c ExternalZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, externalZstdLevel), nil
}
