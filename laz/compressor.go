package laz

import (
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/lasgo/compress"
	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/internal/pool"
)

// Compressor writes point records as a chunked compressed stream.
type Compressor interface {
	// CompressMany appends whole point records to the stream.
	CompressMany(records []byte) error
	// Done flushes the last partial chunk, writes the chunk table and patches
	// its offset at the start of the stream. The writer is left at the end of
	// the table.
	Done() error
}

// chunkStream holds the state shared by the compressor variants: pending
// records, the table of written chunks and the stream start.
type chunkStream struct {
	w          io.WriteSeeker
	start      FilePosition
	codec      compress.Compressor
	pointSize  int
	chunkBytes int
	chunkSize  uint32
	pending    *pool.ByteBuffer
	table      ChunkTable
	done       bool
}

// newChunkStream writes the -1 table offset placeholder at start. The writer
// is left right after it, where the first chunk goes.
func newChunkStream(w io.WriteSeeker, vlr *CodecVLR, start FilePosition, codec compress.Compressor) (*chunkStream, error) {
	if err := vlr.Validate(); err != nil {
		return nil, err
	}
	pointSize := vlr.PointSize()
	if pointSize == 0 {
		return nil, fmt.Errorf("%w: codec vlr describes no items", errs.ErrInvalidVLR)
	}
	if err := WriteTableOffset(w, start, -1); err != nil {
		return nil, err
	}

	return &chunkStream{
		w:          w,
		start:      start,
		codec:      codec,
		pointSize:  pointSize,
		chunkBytes: pointSize * int(vlr.ChunkSize),
		chunkSize:  vlr.ChunkSize,
		pending:    pool.GetChunkBuffer(),
	}, nil
}

// batchEncoder frames a batch of chunks and hands each frame to write, in input order.
type batchEncoder func(raws [][]byte, write func(frame []byte) error) error

func (s *chunkStream) add(records []byte) error {
	if s.done {
		return fmt.Errorf("%w: compressor is done", errs.ErrWriterClosed)
	}
	if len(records)%s.pointSize != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of the %d byte record", errs.ErrInvalidRecords, len(records), s.pointSize)
	}
	_, _ = s.pending.Write(records)

	return nil
}

// fullChunks returns the number of complete chunks waiting in pending.
func (s *chunkStream) fullChunks() int {
	return s.pending.Len() / s.chunkBytes
}

// emit encodes and writes the first n chunks of pending. With partial set the
// trailing incomplete chunk is written too.
func (s *chunkStream) emit(n int, partial bool, encode batchEncoder) error {
	data := s.pending.Bytes()
	raws := make([][]byte, 0, n+1)
	for i := range n {
		raws = append(raws, data[i*s.chunkBytes:(i+1)*s.chunkBytes])
	}
	consumed := n * s.chunkBytes
	if partial && len(data) > consumed {
		raws = append(raws, data[consumed:])
		consumed = len(data)
	}
	if len(raws) == 0 {
		return nil
	}

	err := encode(raws, func(frame []byte) error {
		if _, err := s.w.Write(frame); err != nil {
			return err
		}
		s.table = append(s.table, uint64(len(frame)))

		return nil
	})
	if err != nil {
		return err
	}
	s.pending.Consume(consumed)

	return nil
}

func (s *chunkStream) finish(encode batchEncoder) error {
	if s.done {
		return fmt.Errorf("%w: compressor is done", errs.ErrWriterClosed)
	}
	s.done = true
	defer func() {
		pool.PutChunkBuffer(s.pending)
		s.pending = nil
	}()

	if err := s.emit(s.fullChunks(), true, encode); err != nil {
		return err
	}

	tablePos, err := Tell(s.w)
	if err != nil {
		return err
	}
	if err := WriteChunkTable(s.w, s.table); err != nil {
		return err
	}
	end, err := Tell(s.w)
	if err != nil {
		return err
	}
	if err := WriteTableOffset(s.w, s.start, int64(tablePos)); err != nil {
		return err
	}

	return end.SeekTo(s.w)
}

// SerialCompressor encodes chunks one at a time on the calling goroutine.
type SerialCompressor struct {
	stream *chunkStream
	frame  *pool.ByteBuffer
}

var _ Compressor = (*SerialCompressor)(nil)

// NewSerialCompressor creates a compressor for the stream starting at start.
// The chunk payloads are encoded with the native codec named by vlr.Coder.
func NewSerialCompressor(w io.WriteSeeker, vlr *CodecVLR, start FilePosition) (*SerialCompressor, error) {
	if err := vlr.Validate(); err != nil {
		return nil, err
	}
	codec, err := compress.CreateCodec(vlr.Coder)
	if err != nil {
		return nil, err
	}

	return newSerialCompressor(w, vlr, start, codec)
}

func newSerialCompressor(w io.WriteSeeker, vlr *CodecVLR, start FilePosition, codec compress.Compressor) (*SerialCompressor, error) {
	stream, err := newChunkStream(w, vlr, start, codec)
	if err != nil {
		return nil, err
	}

	return &SerialCompressor{stream: stream, frame: pool.GetFrameBuffer()}, nil
}

// CompressMany appends whole point records to the stream.
func (c *SerialCompressor) CompressMany(records []byte) error {
	if err := c.stream.add(records); err != nil {
		return err
	}

	return c.stream.emit(c.stream.fullChunks(), false, c.encode)
}

// Done flushes the last chunk and writes the chunk table.
func (c *SerialCompressor) Done() error {
	defer func() {
		if c.frame != nil {
			pool.PutFrameBuffer(c.frame)
			c.frame = nil
		}
	}()

	return c.stream.finish(c.encode)
}

// encode reuses one frame buffer; each frame is written before the next one is built.
func (c *SerialCompressor) encode(raws [][]byte, write func([]byte) error) error {
	for _, raw := range raws {
		var err error
		if c.frame.B, err = appendChunk(c.frame.B[:0], c.stream.codec, raw, c.stream.pointSize); err != nil {
			return err
		}
		if err := write(c.frame.B); err != nil {
			return err
		}
	}

	return nil
}

// ParallelCompressor encodes batches of chunks concurrently.
//
// Chunks are independent, so the output is byte-identical to SerialCompressor.
// Records are buffered until a batch of one chunk per worker is complete.
type ParallelCompressor struct {
	stream  *chunkStream
	workers int
}

var _ Compressor = (*ParallelCompressor)(nil)

// NewParallelCompressor creates a compressor that encodes up to workers chunks
// at once. workers <= 0 uses GOMAXPROCS.
func NewParallelCompressor(w io.WriteSeeker, vlr *CodecVLR, start FilePosition, workers int) (*ParallelCompressor, error) {
	if err := vlr.Validate(); err != nil {
		return nil, err
	}
	codec, err := compress.CreateCodec(vlr.Coder)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	stream, err := newChunkStream(w, vlr, start, codec)
	if err != nil {
		return nil, err
	}

	return &ParallelCompressor{stream: stream, workers: workers}, nil
}

// CompressMany appends whole point records to the stream.
func (c *ParallelCompressor) CompressMany(records []byte) error {
	if err := c.stream.add(records); err != nil {
		return err
	}

	full := c.stream.fullChunks()
	if full < c.workers {
		return nil
	}

	return c.stream.emit(full-full%c.workers, false, c.encode)
}

// Done flushes the buffered chunks and writes the chunk table.
func (c *ParallelCompressor) Done() error {
	return c.stream.finish(c.encode)
}

func (c *ParallelCompressor) encode(raws [][]byte, write func([]byte) error) error {
	frames := make([][]byte, len(raws))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, raw := range raws {
		g.Go(func() error {
			frame, err := appendChunk(nil, c.stream.codec, raw, c.stream.pointSize)
			if err != nil {
				return err
			}
			frames[i] = frame

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, frame := range frames {
		if err := write(frame); err != nil {
			return err
		}
	}

	return nil
}
