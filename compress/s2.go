package compress

import "github.com/klauspost/compress/s2"

// S2Compressor is the chunk codec for format.CompressionS2.
//
// Chunks are encoded as single S2 blocks, so the decoder learns the raw chunk
// size from the block header. It trades some ratio against Zstd for faster
// appends on large files.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor returns the S2 chunk codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress encodes one chunk of raw point records. An empty chunk stays empty.
func (c S2Compressor) Compress(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	return s2.EncodeBetter(nil, raw), nil
}

// Decompress decodes one chunk payload back into raw point records.
func (c S2Compressor) Decompress(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(payload)
	if err != nil {
		return nil, err
	}

	return s2.Decode(make([]byte, n), payload)
}
