package laz

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/lasgo/compress"
	"github.com/arloliu/lasgo/errs"
)

// Decompressor reads point records back from a chunked compressed stream.
//
// Chunks are loaded lazily: a chunk is read from r only once the points of the
// previous one have all been returned, so Position observed between two
// DecompressMany calls that end on a chunk boundary is that boundary.
type Decompressor struct {
	r         io.ReadSeeker
	vlr       *CodecVLR
	codec     compress.Decompressor
	start     FilePosition
	pos       FilePosition
	pointSize int
	table     ChunkTable
	hasTable  bool
	dataEnd   FilePosition // chunk table position, valid with hasTable

	chunk    []byte // raw records of the current chunk
	consumed int    // bytes of chunk already returned
}

// NewDecompressor opens the stream starting at start.
//
// The chunk table is read when one is recorded; its absence is not an error,
// it only prevents Seek beyond the first chunk. On return the reader is at the
// first chunk.
func NewDecompressor(r io.ReadSeeker, vlr *CodecVLR, start FilePosition) (*Decompressor, error) {
	if err := vlr.Validate(); err != nil {
		return nil, err
	}
	codec, err := compress.CreateCodec(vlr.Coder)
	if err != nil {
		return nil, err
	}

	d := &Decompressor{
		r:         r,
		vlr:       vlr,
		codec:     codec,
		start:     start,
		pointSize: vlr.PointSize(),
	}
	if d.pointSize == 0 {
		return nil, fmt.Errorf("%w: codec vlr describes no items", errs.ErrInvalidVLR)
	}

	table, tablePos, err := ReadChunkTable(r, start)
	switch {
	case err == nil:
		d.table, d.hasTable, d.dataEnd = table, true, tablePos
	case !errors.Is(err, errs.ErrMissingChunkTable):
		return nil, err
	}

	d.pos = start.Add(TableOffsetSize)
	if err := d.pos.SeekTo(r); err != nil {
		return nil, err
	}

	return d, nil
}

// VLR returns the codec configuration of the stream.
func (d *Decompressor) VLR() *CodecVLR {
	return d.vlr
}

// ChunkTable returns the recorded chunk table and whether one was found.
func (d *Decompressor) ChunkTable() (ChunkTable, bool) {
	return d.table, d.hasTable
}

// Position returns the stream position of the next chunk to load.
func (d *Decompressor) Position() FilePosition {
	return d.pos
}

// Seek moves to the point with the given index.
//
// Seeking past the first chunk needs the chunk table; without one it fails
// with ErrMissingChunkTable.
func (d *Decompressor) Seek(pointIndex uint64) error {
	chunkSize := uint64(d.vlr.ChunkSize)
	chunkIndex := pointIndex / chunkSize
	if chunkIndex > 0 && (!d.hasTable || chunkIndex > uint64(len(d.table))) {
		return fmt.Errorf("%w: cannot seek to chunk %d", errs.ErrMissingChunkTable, chunkIndex)
	}

	offset := d.start.Add(TableOffsetSize)
	if chunkIndex > 0 {
		offset = offset.Add(d.table[:chunkIndex].TotalBytes())
	}
	if err := offset.SeekTo(d.r); err != nil {
		return err
	}
	d.pos = offset
	d.chunk, d.consumed = nil, 0

	skip := int(pointIndex%chunkSize) * d.pointSize
	if skip == 0 {
		return nil
	}
	if err := d.load(); err != nil {
		return err
	}
	if skip > len(d.chunk) {
		return fmt.Errorf("%w: point %d is past the end of its chunk", errs.ErrCorruptChunk, pointIndex)
	}
	d.consumed = skip

	return nil
}

// DecompressMany fills dst with whole point records.
//
// Returns the number of points decoded. io.EOF is returned when the stream
// ends before dst is full.
func (d *Decompressor) DecompressMany(dst []byte) (int, error) {
	if len(dst)%d.pointSize != 0 {
		return 0, fmt.Errorf("%w: buffer of %d bytes for %d byte records", errs.ErrInvalidRecords, len(dst), d.pointSize)
	}

	filled := 0
	for filled < len(dst) {
		if d.consumed == len(d.chunk) {
			if err := d.load(); err != nil {
				return filled / d.pointSize, err
			}
		}
		n := copy(dst[filled:], d.chunk[d.consumed:])
		d.consumed += n
		filled += n
	}

	return filled / d.pointSize, nil
}

func (d *Decompressor) load() error {
	if d.hasTable && d.pos >= d.dataEnd {
		return io.EOF
	}
	raw, framed, err := readChunk(d.r, d.codec, d.pointSize, d.vlr.ChunkSize)
	if err != nil {
		return err
	}
	d.chunk, d.consumed = raw, 0
	d.pos = d.pos.Add(framed)

	return nil
}
