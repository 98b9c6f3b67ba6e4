package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// lz4SizePrefix is the size of the uncompressed length stored before each block.
const lz4SizePrefix = 4

// LZ4Compressor is the LZ4 block chunk codec.
//
// LZ4 blocks do not record their decompressed size, so every payload starts
// with the uncompressed length as a little-endian uint32.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data into a size-prefixed LZ4 block.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4SizePrefix+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(dst, uint32(len(data))) //nolint:gosec

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[lz4SizePrefix:])
	if err != nil {
		return nil, err
	}

	return dst[:lz4SizePrefix+n], nil
}

// Decompress decompresses a size-prefixed LZ4 block.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < lz4SizePrefix {
		return nil, fmt.Errorf("lz4 block of %d bytes has no size prefix", len(data))
	}

	size := binary.LittleEndian.Uint32(data)
	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(data[lz4SizePrefix:], buf)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != int(size) {
		return nil, fmt.Errorf("lz4 block decoded to %d bytes, expected %d", n, size)
	}

	return buf, nil
}
