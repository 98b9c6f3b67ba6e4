package las

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/laz"
	"github.com/arloliu/lasgo/point"
	"github.com/arloliu/lasgo/section"
)

// newTestHeader returns a header with a fixed creation date so two files
// written from equal inputs are byte-identical.
func newTestHeader(t *testing.T, version format.Version, id uint8, extras ...point.ExtraBytesParams) *section.Header {
	t.Helper()

	pf, err := point.NewFormat(id)
	require.NoError(t, err)
	for _, p := range extras {
		require.NoError(t, pf.AddExtraDimension(p))
	}

	h, err := section.NewHeader(version, pf)
	require.NoError(t, err)
	h.CreationDay, h.CreationYear = 120, 2024
	h.Offsets = [3]float64{500000, 4000000, 0}

	return h
}

// makeRecords builds n records numbered from first; coordinates vary per point.
func makeRecords(t *testing.T, pf *point.Format, first, n int) *point.Records {
	t.Helper()

	recs := point.NewRecords(pf, n)
	for i := range n {
		k := first + i
		require.NoError(t, recs.SetInt(i, point.DimX, int64(k*7%1000-300)))
		require.NoError(t, recs.SetInt(i, point.DimY, int64(k*13%777)))
		require.NoError(t, recs.SetInt(i, point.DimZ, int64(k%91-45)))
		require.NoError(t, recs.SetUint(i, point.DimReturnNumber, uint64(1+k%3)))
	}

	return recs
}

func tempFile(t *testing.T, name string) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func fileBytes(t *testing.T, f *os.File) []byte {
	t.Helper()

	_, err := f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)

	return data
}

// writeFile writes batches of records with a new Writer and closes it.
func writeFile(t *testing.T, f *os.File, h *section.Header, batches []*point.Records, opts ...Option) {
	t.Helper()

	w, err := NewWriter(f, h, opts...)
	require.NoError(t, err)
	for _, b := range batches {
		require.NoError(t, w.WritePoints(b))
	}
	require.NoError(t, w.Close())
}

// readPoints returns the raw records of a file.
func readPoints(t *testing.T, data []byte) (*section.Header, []byte) {
	t.Helper()

	r := bytes.NewReader(data)
	h, err := section.ReadHeader(r)
	require.NoError(t, err)

	size := int(h.PointCount) * h.PointSize()
	if !h.AreCompressed {
		start := int(h.OffsetToPointData)
		return h, data[start : start+size]
	}

	vlr, err := laz.FindCodecVLR(h)
	require.NoError(t, err)
	dec, err := laz.NewDecompressor(r, vlr, laz.FilePosition(h.OffsetToPointData))
	require.NoError(t, err)
	out := make([]byte, size)
	n, err := dec.DecompressMany(out)
	require.NoError(t, err)
	require.Equal(t, int(h.PointCount), n)

	return h, out
}

// nopSeeker is a sink that cannot be rewound, like a pipe.
type nopSeeker struct {
	bytes.Buffer
	reads int
}

func (s *nopSeeker) Read(p []byte) (int, error) {
	s.reads++
	return s.Buffer.Read(p)
}

func (s *nopSeeker) Seek(int64, int) (int64, error) {
	return 0, os.ErrInvalid
}

// closeTracker records Close calls on a file.
type closeTracker struct {
	*os.File
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}
