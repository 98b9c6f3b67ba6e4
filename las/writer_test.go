package las

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/laz"
	"github.com/arloliu/lasgo/point"
	"github.com/arloliu/lasgo/section"
)

func TestWriter_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"uncompressed", nil},
		{"native serial", []Option{WithCompression(true), WithBackends(laz.BackendNativeSerial), WithChunkSize(100)}},
		{"native parallel", []Option{WithCompression(true), WithBackends(laz.BackendNativeParallel), WithChunkSize(100), WithParallelism(4)}},
		{"lz4 chunks", []Option{WithCompression(true), WithChunkCodec(format.CompressionLZ4), WithChunkSize(64)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHeader(t, format.Version14, 3)
			pf := h.PointFormat
			batches := []*point.Records{makeRecords(t, pf, 0, 250), makeRecords(t, pf, 250, 0), makeRecords(t, pf, 250, 333)}

			f := tempFile(t, "out.las")
			writeFile(t, f, h, batches, tt.opts...)

			got, raw := readPoints(t, fileBytes(t, f))
			require.Equal(t, uint64(583), got.PointCount)

			want := makeRecords(t, pf, 0, 583)
			require.Equal(t, want.Bytes(), raw)

			// bounds are the true extrema of the scaled coordinates
			for axis, name := range []string{point.DimX, point.DimY, point.DimZ} {
				lo, hi := math.MaxFloat64, -math.MaxFloat64
				for i := range want.Len() {
					v, err := want.Int(i, name)
					require.NoError(t, err)
					s := float64(v)*h.Scales[axis] + h.Offsets[axis]
					lo, hi = min(lo, s), max(hi, s)
				}
				require.Equal(t, lo, got.Mins[axis], name)
				require.Equal(t, hi, got.Maxs[axis], name)
			}
			require.Equal(t, uint64(195), got.NumberOfPointsByReturn[0])
		})
	}
}

func TestWriter_CompressedHeader(t *testing.T) {
	h := newTestHeader(t, format.Version14, 7)
	f := tempFile(t, "out.laz")
	writeFile(t, f, h, []*point.Records{makeRecords(t, h.PointFormat, 0, 10)}, WithCompression(true), WithChunkSize(4))

	got, err := section.ReadHeader(bytes.NewReader(fileBytes(t, f)))
	require.NoError(t, err)
	require.True(t, got.AreCompressed)
	require.Equal(t, uint8(7), got.PointFormat.ID())

	vlr, err := laz.FindCodecVLR(got)
	require.NoError(t, err)
	require.Equal(t, uint32(4), vlr.ChunkSize)
	require.Equal(t, format.CompressionZstd, vlr.Coder)
	require.NoError(t, vlr.MatchesFormat(got.PointFormat))
}

func TestWriter_SerialAndParallelIdentical(t *testing.T) {
	write := func(b laz.Backend) []byte {
		h := newTestHeader(t, format.Version12, 1)
		f := tempFile(t, b.String()+".laz")
		batches := []*point.Records{makeRecords(t, h.PointFormat, 0, 1000), makeRecords(t, h.PointFormat, 1000, 17)}
		writeFile(t, f, h, batches, WithCompression(true), WithBackends(b), WithChunkSize(50), WithParallelism(3))

		return fileBytes(t, f)
	}

	require.Equal(t, write(laz.BackendNativeSerial), write(laz.BackendNativeParallel))
}

func TestWriter_IncompatibleVersion(t *testing.T) {
	h := newTestHeader(t, format.Version14, 6)
	h.Version = format.Version12

	_, err := NewWriter(tempFile(t, "bad.las"), h)
	require.ErrorIs(t, err, errs.ErrIncompatibleVersion)
}

func TestWriter_FormatMismatch(t *testing.T) {
	h := newTestHeader(t, format.Version14, 3)
	w, err := NewWriter(tempFile(t, "out.las"), h)
	require.NoError(t, err)

	other, err := point.NewFormat(1)
	require.NoError(t, err)
	require.ErrorIs(t, w.WritePoints(makeRecords(t, other, 0, 3)), errs.ErrFormatMismatch)

	extended := newTestHeader(t, format.Version14, 3, point.ExtraBytesParams{
		Name: "height", Kind: point.Float, BitWidth: 64, NumElements: 1,
	})
	require.ErrorIs(t, w.WritePoints(makeRecords(t, extended.PointFormat, 0, 3)), errs.ErrFormatMismatch)
	require.NoError(t, w.Close())
}

func TestWriter_ExtraDimensionsFrozen(t *testing.T) {
	h := newTestHeader(t, format.Version14, 3)
	w, err := NewWriter(tempFile(t, "out.las"), h)
	require.NoError(t, err)
	defer w.Close()

	err = h.PointFormat.AddExtraDimension(point.ExtraBytesParams{Name: "late", Kind: point.UnsignedInteger, BitWidth: 8, NumElements: 1})
	require.ErrorIs(t, err, errs.ErrInvalidDimension)
}

func TestWriter_WriteEVLRs(t *testing.T) {
	h := newTestHeader(t, format.Version14, 6)
	f := tempFile(t, "out.laz")
	w, err := NewWriter(f, h, WithCompression(true), WithChunkSize(8))
	require.NoError(t, err)
	require.NoError(t, w.WritePoints(makeRecords(t, h.PointFormat, 0, 20)))

	evlrs := []section.VLR{
		{UserID: "test", RecordID: 1, Description: "first", Data: []byte("hello")},
		{UserID: "test", RecordID: 2, Description: "second", Data: bytes.Repeat([]byte{7}, 70000)},
	}
	require.NoError(t, w.WriteEVLRs(evlrs))
	require.ErrorIs(t, w.WritePoints(makeRecords(t, h.PointFormat, 20, 1)), errs.ErrWriterClosed)
	require.ErrorIs(t, w.WriteEVLRs(evlrs), errs.ErrWriterClosed)
	require.NoError(t, w.Close())

	data := fileBytes(t, f)
	got, raw := readPoints(t, data)
	require.Equal(t, uint64(20), got.PointCount)
	require.Equal(t, makeRecords(t, h.PointFormat, 0, 20).Bytes(), raw)
	require.Equal(t, uint32(2), got.NumberOfEVLRs)

	read, err := section.ReadEVLRs(bytes.NewReader(data), got.StartOfFirstEVLR, got.NumberOfEVLRs)
	require.NoError(t, err)
	require.Equal(t, evlrs, read)

	// the chunk table ends where the evlrs start
	_, tablePos, err := laz.ReadChunkTable(bytes.NewReader(data), laz.FilePosition(got.OffsetToPointData))
	require.NoError(t, err)
	require.Less(t, uint64(tablePos), got.StartOfFirstEVLR)
}

func TestWriter_HeaderReadFromFileWithEVLRs(t *testing.T) {
	h := newTestHeader(t, format.Version14, 6)
	src := tempFile(t, "src.las")
	w, err := NewWriter(src, h)
	require.NoError(t, err)
	require.NoError(t, w.WritePoints(makeRecords(t, h.PointFormat, 0, 10)))
	require.NoError(t, w.WriteEVLRs([]section.VLR{{UserID: "test", RecordID: 1, Data: []byte("evlr")}}))
	require.NoError(t, w.Close())

	reused, err := section.ReadHeader(bytes.NewReader(fileBytes(t, src)))
	require.NoError(t, err)
	require.Equal(t, uint32(1), reused.NumberOfEVLRs)

	id := uuid.MustParse("0f4f0b6c-35a1-4c8e-9d07-7a3e1d2c5b90")
	dst := tempFile(t, "dst.laz")
	writeFile(t, dst, reused, []*point.Records{makeRecords(t, reused.PointFormat, 0, 3)},
		WithCompression(true), WithChunkSize(8), WithProjectID(id))

	data := fileBytes(t, dst)
	got, raw := readPoints(t, data)
	require.Equal(t, uint64(3), got.PointCount)
	require.Zero(t, got.NumberOfEVLRs)
	require.Zero(t, got.StartOfFirstEVLR)
	require.Equal(t, id, got.ProjectID)
	require.Equal(t, makeRecords(t, reused.PointFormat, 0, 3).Bytes(), raw)

	a, err := NewAppender(dst)
	require.NoError(t, err)
	require.NoError(t, a.AppendPoints(makeRecords(t, reused.PointFormat, 3, 2)))
	require.NoError(t, a.Close())

	got, _ = readPoints(t, fileBytes(t, dst))
	require.Equal(t, uint64(5), got.PointCount)
	require.Equal(t, id, got.ProjectID)
}

func TestWriter_WriteEVLRsNeedsLas14(t *testing.T) {
	h := newTestHeader(t, format.Version12, 0)
	f := tempFile(t, "out.las")
	w, err := NewWriter(f, h)
	require.NoError(t, err)
	require.NoError(t, w.WritePoints(makeRecords(t, h.PointFormat, 0, 5)))

	before := fileBytes(t, f)
	_, err = f.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	err = w.WriteEVLRs([]section.VLR{{UserID: "x", RecordID: 1}})
	require.ErrorIs(t, err, errs.ErrUnsupportedVersion)
	require.Equal(t, before, fileBytes(t, f))

	// the stream is still open
	_, err = f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	require.NoError(t, w.WritePoints(makeRecords(t, h.PointFormat, 5, 5)))
	require.NoError(t, w.Close())

	got, _ := readPoints(t, fileBytes(t, f))
	require.Equal(t, uint64(10), got.PointCount)
}

func TestWriter_CloseIdempotent(t *testing.T) {
	h := newTestHeader(t, format.Version14, 3)
	f := tempFile(t, "out.laz")
	w, err := NewWriter(f, h, WithCompression(true), WithChunkSize(16))
	require.NoError(t, err)
	require.NoError(t, w.WritePoints(makeRecords(t, h.PointFormat, 0, 40)))

	require.NoError(t, w.Close())
	first := fileBytes(t, f)
	require.NoError(t, w.Close())
	require.Equal(t, first, fileBytes(t, f))

	require.ErrorIs(t, w.WritePoints(makeRecords(t, h.PointFormat, 0, 1)), errs.ErrWriterClosed)
}

func TestWriter_CloseSink(t *testing.T) {
	for _, owned := range []bool{true, false} {
		h := newTestHeader(t, format.Version12, 0)
		sink := &closeTracker{File: tempFile(t, "out.las")}

		w, err := NewWriter(sink, h, WithCloseSink(owned))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		if owned {
			require.Equal(t, 1, sink.closed)
		} else {
			require.Zero(t, sink.closed)
		}
	}
}

func TestWriter_BackendFallback(t *testing.T) {
	t.Run("falls back to next backend", func(t *testing.T) {
		h := newTestHeader(t, format.Version14, 3)
		w, err := NewWriter(tempFile(t, "out.laz"), h,
			WithCompression(true),
			WithChunkCodec(format.CompressionS2), // the external encoder only produces zstd
			WithBackends(laz.BackendExternalSerial, laz.BackendNativeSerial))
		require.NoError(t, err)
		require.Equal(t, laz.BackendNativeSerial, w.Backend())
		require.NoError(t, w.Close())
	})

	t.Run("detected backends", func(t *testing.T) {
		h := newTestHeader(t, format.Version14, 3)
		w, err := NewWriter(tempFile(t, "out.laz"), h, WithCompression(true))
		require.NoError(t, err)
		require.Equal(t, laz.DetectAvailable()[0], w.Backend())
		require.NoError(t, w.Close())
	})

	t.Run("uncompressed ignores backends", func(t *testing.T) {
		h := newTestHeader(t, format.Version14, 3)
		w, err := NewWriter(tempFile(t, "out.las"), h, WithBackends(laz.BackendNativeParallel))
		require.NoError(t, err)
		require.Equal(t, laz.BackendNone, w.Backend())
		require.NoError(t, w.Close())
	})

	t.Run("all backends fail", func(t *testing.T) {
		h := newTestHeader(t, format.Version14, 3)
		_, err := NewWriter(tempFile(t, "out.laz"), h,
			WithCompression(true),
			WithChunkCodec(format.CompressionLZ4),
			WithBackends(laz.BackendExternalSerial))
		require.ErrorIs(t, err, errs.ErrNoBackendAvailable)
		require.ErrorIs(t, err, errs.ErrBackendUnavailable)
	})

	t.Run("only none requested", func(t *testing.T) {
		h := newTestHeader(t, format.Version14, 3)
		_, err := NewWriter(tempFile(t, "out.laz"), h, WithCompression(true), WithBackends(laz.BackendNone))
		require.ErrorIs(t, err, errs.ErrNoBackendAvailable)
	})
}

func TestWriter_InvalidOptions(t *testing.T) {
	h := newTestHeader(t, format.Version14, 3)

	_, err := NewWriter(tempFile(t, "a.laz"), h, WithChunkSize(0))
	require.ErrorIs(t, err, errs.ErrInvalidChunkSize)

	_, err = NewWriter(tempFile(t, "b.laz"), h, WithChunkCodec(format.CompressionType(77)))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, err = NewWriter(tempFile(t, "c.laz"), nil)
	require.ErrorIs(t, err, errs.ErrInvalidHeader)
}

func TestPointWriter_StateMachine(t *testing.T) {
	h := newTestHeader(t, format.Version14, 3)
	recs := makeRecords(t, h.PointFormat, 0, 3)

	writers := map[string]func(t *testing.T) PointWriter{
		"uncompressed": func(t *testing.T) PointWriter {
			return NewUncompressedPointWriter(tempFile(t, "u.las"))
		},
		"laz": func(t *testing.T) PointWriter {
			pw, err := NewLazPointWriter(tempFile(t, "c.laz"), laz.BackendNativeSerial, h.PointFormat, WithChunkSize(2))
			require.NoError(t, err)
			return pw
		},
	}

	for name, newWriter := range writers {
		t.Run(name, func(t *testing.T) {
			pw := newWriter(t)
			require.ErrorIs(t, pw.WritePoints(recs), errs.ErrInvalidState)
			require.ErrorIs(t, pw.Done(), errs.ErrInvalidState)

			require.NoError(t, pw.WriteInitialHeaderAndVLRs(h))
			require.ErrorIs(t, pw.WriteInitialHeaderAndVLRs(h), errs.ErrInvalidState)
			require.ErrorIs(t, pw.WriteUpdatedHeader(h), errs.ErrInvalidState)

			require.NoError(t, pw.WritePoints(recs))
			require.NoError(t, pw.Done())
			require.ErrorIs(t, pw.WritePoints(recs), errs.ErrWriterClosed)
			require.ErrorIs(t, pw.Done(), errs.ErrWriterClosed)
			require.NoError(t, pw.WriteUpdatedHeader(h))
		})
	}
}
