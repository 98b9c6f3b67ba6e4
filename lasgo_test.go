package lasgo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/las"
	"github.com/arloliu/lasgo/point"
)

func records(t *testing.T, pf *point.Format, first, n int) *point.Records {
	t.Helper()

	recs := point.NewRecords(pf, n)
	for i := range n {
		require.NoError(t, recs.SetInt(i, point.DimX, int64(first+i)))
		require.NoError(t, recs.SetInt(i, point.DimY, int64(2*(first+i))))
		require.NoError(t, recs.SetInt(i, point.DimZ, int64(-(first + i))))
		require.NoError(t, recs.SetUint(i, point.DimReturnNumber, 1))
	}

	return recs
}

func TestCreateAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.laz")

	header, err := NewHeader(format.Version14, 6)
	require.NoError(t, err)

	w, err := Create(path, header, las.WithCompression(true), las.WithChunkSize(100))
	require.NoError(t, err)
	require.NoError(t, w.WritePoints(records(t, header.PointFormat, 0, 150)))
	require.NoError(t, w.Close())

	a, err := Append(path)
	require.NoError(t, err)
	require.NoError(t, a.AppendPoints(records(t, a.Header().PointFormat, 150, 75)))
	require.NoError(t, a.Close())

	got, err := ReadHeader(path)
	require.NoError(t, err)
	require.True(t, got.AreCompressed)
	require.Equal(t, uint64(225), got.PointCount)
	require.InDelta(t, 2.24, got.Maxs[0], 1e-9)
	require.InDelta(t, -2.24, got.Mins[2], 1e-9)
}

func TestNewHeader_Errors(t *testing.T) {
	_, err := NewHeader(format.Version14, 11)
	require.ErrorIs(t, err, errs.ErrInvalidFormatID)

	_, err = NewHeader(format.Version12, 6)
	require.ErrorIs(t, err, errs.ErrIncompatibleVersion)
}

func TestAppend_MissingFile(t *testing.T) {
	_, err := Append(filepath.Join(t.TempDir(), "missing.laz"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCreate_InvalidHeader(t *testing.T) {
	header, err := NewHeader(format.Version14, 6)
	require.NoError(t, err)
	header.Version = format.Version12

	_, err = Create(filepath.Join(t.TempDir(), "bad.las"), header)
	require.ErrorIs(t, err, errs.ErrIncompatibleVersion)
}
