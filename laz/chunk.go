package laz

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/lasgo/compress"
	"github.com/arloliu/lasgo/endian"
	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/internal/hash"
)

const (
	chunkPrefixSize   = 8 // point count + payload length
	chunkChecksumSize = 8
)

// TableOffsetSize is the size of the chunk table offset stored at the start
// of the stream; the first chunk follows it.
const TableOffsetSize = 8

// appendChunk frames the raw records of one chunk onto dst.
func appendChunk(dst []byte, codec compress.Compressor, raw []byte, pointSize int) ([]byte, error) {
	payload, err := codec.Compress(raw)
	if err != nil {
		return dst, fmt.Errorf("compress chunk: %w", err)
	}

	engine := endian.GetLittleEndianEngine()
	dst = engine.AppendUint32(dst, uint32(len(raw)/pointSize)) //nolint:gosec
	dst = engine.AppendUint32(dst, uint32(len(payload)))       //nolint:gosec
	dst = append(dst, payload...)
	dst = engine.AppendUint64(dst, hash.Checksum(raw))

	return dst, nil
}

// readChunk reads and verifies one framed chunk.
//
// Returns the raw records and the framed size in bytes. io.EOF is returned
// unwrapped when r is exhausted before the chunk starts.
func readChunk(r io.Reader, codec compress.Decompressor, pointSize int, maxPoints uint32) ([]byte, uint64, error) {
	engine := endian.GetLittleEndianEngine()

	var prefix [chunkPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}

		return nil, 0, fmt.Errorf("%w: chunk prefix: %w", errs.ErrCorruptChunk, err)
	}

	count := engine.Uint32(prefix[0:4])
	length := engine.Uint32(prefix[4:8])
	if count == 0 || count > maxPoints {
		return nil, 0, fmt.Errorf("%w: chunk announces %d points, chunk size is %d", errs.ErrCorruptChunk, count, maxPoints)
	}
	if uint64(length) > uint64(count)*uint64(pointSize)*2+1024 {
		return nil, 0, fmt.Errorf("%w: payload of %d bytes for %d points", errs.ErrCorruptChunk, length, count)
	}

	body := make([]byte, int(length)+chunkChecksumSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, 0, fmt.Errorf("%w: chunk body: %w", errs.ErrCorruptChunk, err)
	}

	raw, err := codec.Decompress(body[:length])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", errs.ErrCorruptChunk, err)
	}
	if len(raw) != int(count)*pointSize {
		return nil, 0, fmt.Errorf("%w: decoded %d bytes, expected %d", errs.ErrCorruptChunk, len(raw), int(count)*pointSize)
	}
	if !hash.Verify(raw, engine.Uint64(body[length:])) {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", errs.ErrCorruptChunk)
	}

	return raw, uint64(chunkPrefixSize) + uint64(len(body)), nil
}
