package las

import (
	"fmt"
	"io"
	"slices"

	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/laz"
	"github.com/arloliu/lasgo/point"
	"github.com/arloliu/lasgo/section"
)

// PointWriter streams the point records of one file.
//
// The calls must follow the order WriteInitialHeaderAndVLRs, any number of
// WritePoints, Done, then WriteUpdatedHeader. Points written after Done fail
// with errs.ErrWriterClosed; other out of order calls fail with
// errs.ErrInvalidState.
type PointWriter interface {
	// WriteInitialHeaderAndVLRs serializes the header and its VLRs at the
	// current position of the sink.
	WriteInitialHeaderAndVLRs(h *section.Header) error
	// WritePoints appends records in point order.
	WritePoints(records *point.Records) error
	// Done flushes the point stream.
	Done() error
	// WriteUpdatedHeader rewrites the header block, not the VLRs, at offset 0
	// and restores the position of the sink.
	WriteUpdatedHeader(h *section.Header) error
}

type writerState uint8

const (
	stateInitialized writerState = iota
	stateHeaderWritten
	stateWriting
	stateDone
)

func (s writerState) String() string {
	switch s {
	case stateInitialized:
		return "initialized"
	case stateHeaderWritten:
		return "header-written"
	case stateWriting:
		return "writing"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("writerState(%d)", uint8(s))
	}
}

// lifecycle enforces the PointWriter call order.
type lifecycle struct {
	state writerState
}

func (l *lifecycle) expect(op string, allowed ...writerState) error {
	if slices.Contains(allowed, l.state) {
		return nil
	}
	if l.state == stateDone {
		return fmt.Errorf("%w: %s after done", errs.ErrWriterClosed, op)
	}

	return fmt.Errorf("%w: %s in state %s", errs.ErrInvalidState, op, l.state)
}

func writeUpdatedHeader(w io.WriteSeeker, h *section.Header) error {
	pos, err := laz.Tell(w)
	if err != nil {
		return err
	}
	if _, err := w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := h.Serialize(w, false); err != nil {
		return err
	}

	return pos.SeekTo(w)
}

// UncompressedPointWriter writes raw point records.
type UncompressedPointWriter struct {
	w io.WriteSeeker
	lifecycle
}

var _ PointWriter = (*UncompressedPointWriter)(nil)

// NewUncompressedPointWriter creates a writer for raw records.
func NewUncompressedPointWriter(w io.WriteSeeker) *UncompressedPointWriter {
	return &UncompressedPointWriter{w: w}
}

// resumeUncompressedPointWriter continues a stream whose sink is positioned
// right after the last existing record.
func resumeUncompressedPointWriter(w io.WriteSeeker) *UncompressedPointWriter {
	return &UncompressedPointWriter{w: w, lifecycle: lifecycle{state: stateWriting}}
}

func (pw *UncompressedPointWriter) WriteInitialHeaderAndVLRs(h *section.Header) error {
	if err := pw.expect("write header", stateInitialized); err != nil {
		return err
	}
	h.AreCompressed = false
	h.RemoveVLRs(laz.CodecUserID, laz.CodecRecordID)
	if err := h.Serialize(pw.w, true); err != nil {
		return err
	}
	pw.state = stateHeaderWritten

	return nil
}

func (pw *UncompressedPointWriter) WritePoints(records *point.Records) error {
	if err := pw.expect("write points", stateHeaderWritten, stateWriting); err != nil {
		return err
	}
	pw.state = stateWriting
	if records.Len() == 0 {
		return nil
	}
	_, err := pw.w.Write(records.Bytes())

	return err
}

func (pw *UncompressedPointWriter) Done() error {
	if err := pw.expect("done", stateHeaderWritten, stateWriting); err != nil {
		return err
	}
	pw.state = stateDone

	return nil
}

func (pw *UncompressedPointWriter) WriteUpdatedHeader(h *section.Header) error {
	if pw.state != stateDone {
		return fmt.Errorf("%w: header update in state %s", errs.ErrInvalidState, pw.state)
	}

	return writeUpdatedHeader(pw.w, h)
}

// LazPointWriter writes chunked compressed point records with the
// compressor of one backend: native serial, native parallel or external.
type LazPointWriter struct {
	w          io.WriteSeeker
	backend    laz.Backend
	vlr        *laz.CodecVLR
	workers    int
	compressor laz.Compressor
	lifecycle
}

var _ PointWriter = (*LazPointWriter)(nil)

// NewLazPointWriter creates a compressed writer for the point format.
//
// Returns errs.ErrBackendUnavailable when the backend cannot be used, before
// anything is written.
func NewLazPointWriter(w io.WriteSeeker, backend laz.Backend, pf *point.Format, opts ...Option) (*LazPointWriter, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return newLazPointWriter(w, backend, pf, cfg)
}

func newLazPointWriter(w io.WriteSeeker, backend laz.Backend, pf *point.Format, cfg *config) (*LazPointWriter, error) {
	vlr, err := laz.NewCodecVLR(pf, cfg.chunkSize, cfg.coder)
	if err != nil {
		return nil, err
	}
	if err := backend.Probe(vlr); err != nil {
		return nil, err
	}

	return &LazPointWriter{w: w, backend: backend, vlr: vlr, workers: cfg.workers}, nil
}

// resumeLazPointWriter creates a compressor at start, overwriting the chunk
// table offset with the placeholder. The caller positions the sink where
// the next chunk goes.
func resumeLazPointWriter(w io.WriteSeeker, backend laz.Backend, vlr *laz.CodecVLR, start laz.FilePosition, workers int) (*LazPointWriter, error) {
	compressor, err := backend.NewCompressor(w, vlr, start, workers)
	if err != nil {
		return nil, err
	}

	return &LazPointWriter{
		w:          w,
		backend:    backend,
		vlr:        vlr,
		workers:    workers,
		compressor: compressor,
		lifecycle:  lifecycle{state: stateWriting},
	}, nil
}

// Backend returns the backend that compresses the stream.
func (pw *LazPointWriter) Backend() laz.Backend {
	return pw.backend
}

// CodecVLR returns the codec configuration written to the header.
func (pw *LazPointWriter) CodecVLR() *laz.CodecVLR {
	return pw.vlr
}

// WriteInitialHeaderAndVLRs replaces any codec VLR of h with the writer's one,
// marks the points as compressed and writes the header. The compressor starts
// at the resulting offset to point data.
func (pw *LazPointWriter) WriteInitialHeaderAndVLRs(h *section.Header) error {
	if err := pw.expect("write header", stateInitialized); err != nil {
		return err
	}
	if err := pw.vlr.MatchesFormat(h.PointFormat); err != nil {
		return err
	}

	h.RemoveVLRs(laz.CodecUserID, laz.CodecRecordID)
	h.VLRs = append(h.VLRs, pw.vlr.Record())
	h.AreCompressed = true
	if err := h.Serialize(pw.w, true); err != nil {
		return err
	}

	compressor, err := pw.backend.NewCompressor(pw.w, pw.vlr, laz.FilePosition(h.OffsetToPointData), pw.workers)
	if err != nil {
		return err
	}
	pw.compressor = compressor
	pw.state = stateHeaderWritten

	return nil
}

func (pw *LazPointWriter) WritePoints(records *point.Records) error {
	if err := pw.expect("write points", stateHeaderWritten, stateWriting); err != nil {
		return err
	}
	pw.state = stateWriting
	if records.Len() == 0 {
		return nil
	}

	return pw.compressor.CompressMany(records.Bytes())
}

func (pw *LazPointWriter) Done() error {
	if err := pw.expect("done", stateHeaderWritten, stateWriting); err != nil {
		return err
	}
	pw.state = stateDone

	return pw.compressor.Done()
}

func (pw *LazPointWriter) WriteUpdatedHeader(h *section.Header) error {
	if pw.state != stateDone {
		return fmt.Errorf("%w: header update in state %s", errs.ErrInvalidState, pw.state)
	}

	return writeUpdatedHeader(pw.w, h)
}

// newPointWriter creates the writer of one backend.
func newPointWriter(w io.WriteSeeker, backend laz.Backend, pf *point.Format, cfg *config) (PointWriter, error) {
	if !backend.IsCompressing() {
		return NewUncompressedPointWriter(w), nil
	}

	pw, err := newLazPointWriter(w, backend, pf, cfg)
	if err != nil {
		return nil, err
	}

	return pw, nil
}
