package las

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log/level"

	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/laz"
	"github.com/arloliu/lasgo/point"
	"github.com/arloliu/lasgo/section"
)

type appenderState uint8

const (
	stateRecovering appenderState = iota
	stateResumed
	stateClosed
)

// recovery is the state rebuilt from an existing compressed stream.
type recovery struct {
	vlr   *laz.CodecVLR
	start laz.FilePosition
	// table holds the byte lengths of the complete chunks that stay on disk.
	table laz.ChunkTable
	// rebuilt is set when table was reconstructed by decompressing every chunk.
	rebuilt bool
	// tail holds the raw records of the last, partial chunk. They are
	// compressed again together with the appended points.
	tail []byte
	// dataEnd is the end of the existing point data.
	dataEnd laz.FilePosition
}

// Appender adds points and EVLRs to the end of an existing LAS or LAZ file.
//
// Only the header block and, for compressed files, the last chunk, the chunk
// table and the EVLRs are rewritten. The file is left possibly corrupt when
// an I/O error happens after construction; operate on a copy when that matters.
//
// An Appender is not safe for concurrent use.
type Appender struct {
	dest     io.ReadWriteSeeker
	owner    io.ReadWriter
	header   *section.Header
	pw       PointWriter
	cfg      *config
	state    appenderState
	evlrs    []section.VLR
	recovery *recovery
}

// NewAppender opens dest for appending.
//
// dest must be seekable: ErrNotSeekable is returned before anything is read
// otherwise. Existing EVLRs are read and kept in memory since appended points
// overwrite them. For a compressed file the chunk table is recovered, or
// rebuilt when missing, and the last partial chunk is decompressed so it can
// be compressed again with the new points.
//
// Returns:
//   - *Appender: Appender positioned after the last existing point
//   - error: ErrNotSeekable, ErrMissingCodecVlr, ErrCodecMismatch,
//     ErrCorruptChunk, ErrEvlrBeforeDataEnd, ErrNoBackendAvailable or an I/O error
func NewAppender(dest io.ReadWriter, opts ...Option) (*Appender, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	rws, ok := dest.(io.ReadWriteSeeker)
	if !ok {
		return nil, errs.ErrNotSeekable
	}
	if _, err := rws.Seek(0, io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrNotSeekable, err)
	}
	if _, err := rws.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrNotSeekable, err)
	}

	header, err := section.ReadHeader(rws)
	if err != nil {
		return nil, err
	}
	header.PointFormat.Freeze()

	a := &Appender{
		dest:   rws,
		owner:  dest,
		header: header,
		cfg:    cfg,
		state:  stateRecovering,
	}

	var backend laz.Backend
	var dataEnd laz.FilePosition
	if header.AreCompressed {
		if backend, err = a.recoverCompressed(); err != nil {
			return nil, err
		}
		dataEnd = a.recovery.dataEnd
	} else {
		dataEnd = a.uncompressedEnd()
	}
	if err := a.checkEVLRStart(dataEnd); err != nil {
		return nil, err
	}

	if header.Version.SupportsEVLRs() && header.NumberOfEVLRs > 0 {
		if a.evlrs, err = section.ReadEVLRs(rws, header.StartOfFirstEVLR, header.NumberOfEVLRs); err != nil {
			return nil, err
		}
	}

	if header.AreCompressed {
		err = a.resume(backend)
	} else {
		err = a.resumeUncompressed(dataEnd)
	}
	if err != nil {
		return nil, err
	}

	if header.PointCount == 0 {
		header.ResetStatistics()
	}
	a.state = stateResumed

	return a, nil
}

// uncompressedEnd returns the end of the raw point records.
func (a *Appender) uncompressedEnd() laz.FilePosition {
	h := a.header
	return laz.FilePosition(h.OffsetToPointData).Add(h.PointCount * uint64(h.PointSize()))
}

func (a *Appender) resumeUncompressed(end laz.FilePosition) error {
	if err := end.SeekTo(a.dest); err != nil {
		return err
	}
	a.pw = resumeUncompressedPointWriter(a.dest)

	return nil
}

// recoverCompressed validates the codec VLR, picks a backend and recovers
// the stream. Nothing is written.
func (a *Appender) recoverCompressed() (laz.Backend, error) {
	vlr, err := laz.FindCodecVLR(a.header)
	if err != nil {
		return 0, err
	}
	if err := vlr.Validate(); err != nil {
		return 0, err
	}
	if err := vlr.MatchesFormat(a.header.PointFormat); err != nil {
		return 0, err
	}

	backend, err := a.selectBackend(vlr)
	if err != nil {
		return 0, err
	}

	rec, err := a.recover(vlr)
	if err != nil {
		return 0, err
	}
	a.recovery = rec

	return backend, nil
}

// selectBackend returns the first configured backend able to produce the
// stream described by the file's codec VLR.
func (a *Appender) selectBackend(vlr *laz.CodecVLR) (laz.Backend, error) {
	cfg := *a.cfg
	cfg.compress = true

	var lastErr error
	for _, b := range cfg.preference() {
		if err := b.Probe(vlr); err != nil {
			level.Warn(a.cfg.logger).Log("msg", "append backend failed, trying next", "backend", b, "err", err)
			lastErr = err

			continue
		}
		level.Debug(a.cfg.logger).Log("msg", "append backend selected", "backend", b)

		return b, nil
	}
	if lastErr == nil {
		return 0, fmt.Errorf("%w: no compressing backend requested", errs.ErrNoBackendAvailable)
	}

	return 0, fmt.Errorf("%w: %w", errs.ErrNoBackendAvailable, lastErr)
}

// recover locates the last partial chunk and decompresses it. The persisted
// chunk table is used when it covers every complete chunk; otherwise the
// complete chunks are decompressed one by one to measure their lengths.
func (a *Appender) recover(vlr *laz.CodecVLR) (*recovery, error) {
	h := a.header
	start := laz.FilePosition(h.OffsetToPointData)

	dec, err := laz.NewDecompressor(a.dest, vlr, start)
	if err != nil {
		return nil, err
	}

	chunkSize := uint64(vlr.ChunkSize)
	pointSize := vlr.PointSize()
	complete := h.PointCount / chunkSize
	tailPoints := h.PointCount % chunkSize

	rec := &recovery{vlr: vlr, start: start}

	table, ok := dec.ChunkTable()
	switch {
	case ok && uint64(len(table)) >= complete:
		rec.table = append(laz.ChunkTable(nil), table[:complete]...)
		if err := dec.Seek(complete * chunkSize); err != nil {
			return nil, err
		}
	default:
		level.Warn(a.cfg.logger).Log("msg", "chunk table missing or incomplete, rebuilding by decompression",
			"points", h.PointCount, "chunks", complete, "table_found", ok, "table_entries", len(table))

		rec.rebuilt = true
		rec.table = make(laz.ChunkTable, 0, complete)
		buf := make([]byte, int(chunkSize)*pointSize)
		for i := range complete {
			before := dec.Position()
			if _, err := dec.DecompressMany(buf); err != nil {
				return nil, fmt.Errorf("%w: rebuilding chunk %d: %w", errs.ErrCorruptChunk, i, err)
			}
			rec.table = append(rec.table, dec.Position().Since(before))
		}
	}

	rec.tail = make([]byte, int(tailPoints)*pointSize)
	if _, err := dec.DecompressMany(rec.tail); err != nil {
		return nil, fmt.Errorf("%w: reading last chunk: %w", errs.ErrCorruptChunk, err)
	}
	rec.dataEnd = dec.Position()

	level.Debug(a.cfg.logger).Log("msg", "compressed stream recovered", "complete_chunks", len(rec.table),
		"tail_points", tailPoints, "rebuilt", rec.rebuilt)

	return rec, nil
}

// resume starts a compressor at the stream start, moves past the complete
// chunks and feeds it the decompressed tail. The compressor overwrites the
// chunk table offset with the placeholder; Close fixes it.
func (a *Appender) resume(backend laz.Backend) error {
	rec := a.recovery
	pw, err := resumeLazPointWriter(a.dest, backend, rec.vlr, rec.start, a.cfg.workers)
	if err != nil {
		return err
	}

	next := rec.start.Add(laz.TableOffsetSize + rec.table.TotalBytes())
	if err := next.SeekTo(a.dest); err != nil {
		return err
	}
	if len(rec.tail) > 0 {
		if err := pw.compressor.CompressMany(rec.tail); err != nil {
			return err
		}
	}
	a.pw = pw

	return nil
}

func (a *Appender) checkEVLRStart(dataEnd laz.FilePosition) error {
	h := a.header
	if !h.Version.SupportsEVLRs() || h.NumberOfEVLRs == 0 {
		return nil
	}
	if h.StartOfFirstEVLR < uint64(dataEnd) { //nolint:gosec
		return fmt.Errorf("%w: evlrs start at %d, point data ends at %d",
			errs.ErrEvlrBeforeDataEnd, h.StartOfFirstEVLR, dataEnd)
	}

	return nil
}

// Header returns the header being updated.
func (a *Appender) Header() *section.Header {
	return a.header
}

// AppendPoints adds records after the existing points.
// An empty batch is a no-op.
func (a *Appender) AppendPoints(records *point.Records) error {
	if a.state != stateResumed {
		return fmt.Errorf("%w: appender is closed", errs.ErrWriterClosed)
	}
	if !records.Format().Equal(a.header.PointFormat) {
		return fmt.Errorf("%w: records use point format %d, file uses %d",
			errs.ErrFormatMismatch, records.Format().ID(), a.header.PointFormat.ID())
	}
	if records.Len() == 0 {
		return nil
	}

	if err := a.header.Update(records); err != nil {
		return err
	}

	return a.pw.WritePoints(records)
}

// AddEVLRs queues EVLRs to be written, after the existing ones, on Close.
func (a *Appender) AddEVLRs(evlrs ...section.VLR) error {
	if a.state != stateResumed {
		return fmt.Errorf("%w: appender is closed", errs.ErrWriterClosed)
	}
	if !a.header.Version.SupportsEVLRs() {
		return fmt.Errorf("%w: evlrs need las 1.4, file is %s", errs.ErrUnsupportedVersion, a.header.Version)
	}
	a.evlrs = append(a.evlrs, evlrs...)

	return nil
}

// Close finalizes the point stream, rewrites the complete chunk table,
// writes the EVLRs, patches the header and truncates the file to its new
// end when the sink supports it. Calling Close more than once is a no-op.
func (a *Appender) Close() error {
	if a.state == stateClosed {
		return nil
	}
	a.state = stateClosed

	err := a.finish()
	if a.cfg.closeSink {
		if c, ok := a.owner.(io.Closer); ok {
			err = errors.Join(err, c.Close())
		}
	}

	return err
}

func (a *Appender) finish() error {
	h := a.header
	if err := a.pw.Done(); err != nil {
		return err
	}

	var end laz.FilePosition
	if a.recovery != nil {
		var err error
		if end, err = a.mergeChunkTable(); err != nil {
			return err
		}
	} else {
		end = a.uncompressedEnd()
	}
	if err := end.SeekTo(a.dest); err != nil {
		return err
	}

	if h.Version.SupportsEVLRs() {
		h.NumberOfEVLRs = uint32(len(a.evlrs)) //nolint:gosec
		h.StartOfFirstEVLR = 0
		if len(a.evlrs) > 0 {
			h.StartOfFirstEVLR = uint64(end)
			if err := section.WriteEVLRs(a.dest, a.evlrs); err != nil {
				return err
			}
		}
	}

	fileEnd, err := laz.Tell(a.dest)
	if err != nil {
		return err
	}
	if err := a.pw.WriteUpdatedHeader(h); err != nil {
		return err
	}
	if t, ok := a.owner.(interface{ Truncate(size int64) error }); ok {
		if err := t.Truncate(int64(fileEnd)); err != nil {
			return err
		}
	}

	level.Debug(a.cfg.logger).Log("msg", "las file appended", "points", h.PointCount, "evlrs", len(a.evlrs))

	return nil
}

// mergeChunkTable reads back the table written for the chunks of this
// session and rewrites it, prefixed with the retained complete chunks, at
// the same offset. Returns the end of the merged table.
func (a *Appender) mergeChunkTable() (laz.FilePosition, error) {
	rec := a.recovery

	written, tablePos, err := laz.ReadChunkTable(a.dest, rec.start)
	if err != nil {
		return 0, err
	}

	merged := make(laz.ChunkTable, 0, len(rec.table)+len(written))
	merged = append(merged, rec.table...)
	merged = append(merged, written...)

	if err := tablePos.SeekTo(a.dest); err != nil {
		return 0, err
	}
	if err := laz.WriteChunkTable(a.dest, merged); err != nil {
		return 0, err
	}

	return laz.Tell(a.dest)
}
