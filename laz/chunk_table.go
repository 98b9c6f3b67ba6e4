package laz

import (
	"fmt"
	"io"

	"github.com/arloliu/lasgo/endian"
	"github.com/arloliu/lasgo/errs"
)

const (
	chunkTableVersion    = 0
	chunkTableHeaderSize = 8
	chunkTableEntrySize  = 8
)

// ChunkTable holds the framed byte length of each chunk, in stream order.
type ChunkTable []uint64

// TotalBytes returns the number of bytes covered by the chunks.
func (t ChunkTable) TotalBytes() uint64 {
	var total uint64
	for _, n := range t {
		total += n
	}

	return total
}

// Bytes encodes the table.
func (t ChunkTable) Bytes() []byte {
	engine := endian.GetLittleEndianEngine()

	b := make([]byte, 0, chunkTableHeaderSize+chunkTableEntrySize*len(t))
	b = engine.AppendUint32(b, chunkTableVersion)
	b = engine.AppendUint32(b, uint32(len(t))) //nolint:gosec
	for _, n := range t {
		b = engine.AppendUint64(b, n)
	}

	return b
}

// WriteChunkTable writes the table at the current position of w.
func WriteChunkTable(w io.Writer, t ChunkTable) error {
	_, err := w.Write(t.Bytes())
	return err
}

// ReadTableOffset reads the chunk table offset stored at the start of the stream.
func ReadTableOffset(r io.ReadSeeker, start FilePosition) (int64, error) {
	if err := start.SeekTo(r); err != nil {
		return 0, err
	}

	var buf [TableOffsetSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return endian.Int64(endian.GetLittleEndianEngine(), buf[:]), nil
}

// WriteTableOffset stores the chunk table offset at the start of the stream.
// The position of w is left right after the offset field.
func WriteTableOffset(w io.WriteSeeker, start FilePosition, offset int64) error {
	if err := start.SeekTo(w); err != nil {
		return err
	}
	_, err := w.Write(endian.AppendInt64(endian.GetLittleEndianEngine(), nil, offset))

	return err
}

// ReadChunkTable reads the table recorded for the stream starting at start.
//
// Returns:
//   - ChunkTable: The per-chunk byte lengths
//   - FilePosition: Where the table is stored
//   - error: ErrMissingChunkTable when the offset is -1, lies outside the
//     stream, or the table cannot be decoded
func ReadChunkTable(r io.ReadSeeker, start FilePosition) (ChunkTable, FilePosition, error) {
	offset, err := ReadTableOffset(r, start)
	if err != nil {
		return nil, 0, err
	}
	if offset == -1 {
		return nil, 0, fmt.Errorf("%w: offset placeholder never patched", errs.ErrMissingChunkTable)
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, err
	}
	dataStart := int64(start) + TableOffsetSize
	if offset < dataStart || offset+chunkTableHeaderSize > size {
		return nil, 0, fmt.Errorf("%w: offset %d outside stream [%d, %d)", errs.ErrMissingChunkTable, offset, dataStart, size)
	}

	pos := FilePosition(offset)
	if err := pos.SeekTo(r); err != nil {
		return nil, 0, err
	}

	engine := endian.GetLittleEndianEngine()
	var hdr [chunkTableHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, err
	}
	version := engine.Uint32(hdr[0:4])
	count := uint64(engine.Uint32(hdr[4:8]))
	if version != chunkTableVersion {
		return nil, 0, fmt.Errorf("%w: table version %d", errs.ErrMissingChunkTable, version)
	}
	if count*chunkTableEntrySize > uint64(size-offset-chunkTableHeaderSize) {
		return nil, 0, fmt.Errorf("%w: %d entries do not fit the stream", errs.ErrMissingChunkTable, count)
	}

	entries := make([]byte, count*chunkTableEntrySize)
	if _, err := io.ReadFull(r, entries); err != nil {
		return nil, 0, err
	}
	table := make(ChunkTable, count)
	for i := range table {
		table[i] = engine.Uint64(entries[i*chunkTableEntrySize:])
	}

	return table, pos, nil
}
