package las

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/laz"
	"github.com/arloliu/lasgo/point"
	"github.com/arloliu/lasgo/section"
)

// Writer writes one LAS or LAZ file.
//
// The sink must be positioned at offset 0. Regions are written strictly in
// order: header and VLRs, point records, EVLRs, then the header block is
// patched in place on Close. The VLR region is never rewritten.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	sink    io.WriteSeeker
	header  *section.Header
	pw      PointWriter
	backend laz.Backend
	cfg     *config

	evlrsWritten bool
	closed       bool
}

// NewWriter validates the header, selects a point writer and writes the
// header and VLRs.
//
// Backends are tried in preference order and the first usable one is kept.
//
// Parameters:
//   - sink: Destination stream positioned at offset 0
//   - header: Header of the file; its statistics are reset and its point
//     format can no longer get extra dimensions
//   - opts: Options such as WithCompression and WithBackends
//
// Returns:
//   - *Writer: Writer ready for WritePoints
//   - error: ErrIncompatibleVersion, ErrNoBackendAvailable or an I/O error
func NewWriter(sink io.WriteSeeker, header *section.Header, opts ...Option) (*Writer, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("%w: nil header", errs.ErrInvalidHeader)
	}
	if err := header.CheckCompatibility(); err != nil {
		return nil, err
	}

	header.ResetStatistics()
	if cfg.projectID != uuid.Nil {
		header.ProjectID = cfg.projectID
	}
	header.PointFormat.Freeze()

	pw, backend, err := selectPointWriter(sink, header.PointFormat, cfg)
	if err != nil {
		return nil, err
	}
	if err := pw.WriteInitialHeaderAndVLRs(header); err != nil {
		return nil, err
	}

	return &Writer{
		sink:    sink,
		header:  header,
		pw:      pw,
		backend: backend,
		cfg:     cfg,
	}, nil
}

// selectPointWriter returns the writer of the first usable backend.
func selectPointWriter(sink io.WriteSeeker, pf *point.Format, cfg *config) (PointWriter, laz.Backend, error) {
	var lastErr error
	for _, backend := range cfg.preference() {
		pw, err := newPointWriter(sink, backend, pf, cfg)
		if err != nil {
			level.Warn(cfg.logger).Log("msg", "point writer backend failed, trying next", "backend", backend, "err", err)
			lastErr = err

			continue
		}
		level.Debug(cfg.logger).Log("msg", "point writer selected", "backend", backend)

		return pw, backend, nil
	}

	if lastErr == nil {
		return nil, 0, fmt.Errorf("%w: no compressing backend requested", errs.ErrNoBackendAvailable)
	}

	return nil, 0, fmt.Errorf("%w: %w", errs.ErrNoBackendAvailable, lastErr)
}

// Header returns the header being written. Its statistics reflect the points
// written so far.
func (w *Writer) Header() *section.Header {
	return w.header
}

// Backend returns the backend of the active point writer.
func (w *Writer) Backend() laz.Backend {
	return w.backend
}

// WritePoints appends records to the file.
//
// Returns ErrFormatMismatch when the records use another point format, and
// ErrWriterClosed after WriteEVLRs or Close.
func (w *Writer) WritePoints(records *point.Records) error {
	if w.closed || w.evlrsWritten {
		return fmt.Errorf("%w: point stream is finalized", errs.ErrWriterClosed)
	}
	if !records.Format().Equal(w.header.PointFormat) {
		return fmt.Errorf("%w: records use point format %d, file uses %d",
			errs.ErrFormatMismatch, records.Format().ID(), w.header.PointFormat.ID())
	}
	if records.Len() == 0 {
		return nil
	}

	if err := w.header.Update(records); err != nil {
		return err
	}

	return w.pw.WritePoints(records)
}

// WriteEVLRs finalizes the point stream and writes evlrs after it.
//
// EVLRs need LAS 1.4; older versions fail with ErrUnsupportedVersion and
// nothing is written. It may be called once.
func (w *Writer) WriteEVLRs(evlrs []section.VLR) error {
	if w.closed || w.evlrsWritten {
		return fmt.Errorf("%w: evlrs already written", errs.ErrWriterClosed)
	}
	if !w.header.Version.SupportsEVLRs() {
		return fmt.Errorf("%w: evlrs need las 1.4, file is %s", errs.ErrUnsupportedVersion, w.header.Version)
	}

	if err := w.pw.Done(); err != nil {
		return err
	}
	w.evlrsWritten = true

	pos, err := laz.Tell(w.sink)
	if err != nil {
		return err
	}
	w.header.StartOfFirstEVLR = uint64(pos)     //nolint:gosec
	w.header.NumberOfEVLRs = uint32(len(evlrs)) //nolint:gosec

	return section.WriteEVLRs(w.sink, evlrs)
}

// Close finalizes the point stream if WriteEVLRs was not called, patches the
// header and closes the sink when WithCloseSink is set.
// Calling Close more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.finish()
	if w.cfg.closeSink {
		if c, ok := w.sink.(io.Closer); ok {
			err = errors.Join(err, c.Close())
		}
	}

	return err
}

func (w *Writer) finish() error {
	if !w.evlrsWritten {
		if err := w.pw.Done(); err != nil {
			return err
		}
	}
	if err := w.pw.WriteUpdatedHeader(w.header); err != nil {
		return err
	}
	level.Debug(w.cfg.logger).Log("msg", "las file written", "points", w.header.PointCount,
		"backend", w.backend, "evlrs", w.header.NumberOfEVLRs)

	return nil
}
