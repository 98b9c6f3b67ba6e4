package laz

import (
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/point"
)

// memFile is an in-memory io.ReadWriteSeeker.
type memFile struct {
	data []byte
	pos  int64
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)

	return n, nil
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}
	copy(m.data[m.pos:], p)
	m.pos = end

	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.data))
	}
	if base+offset < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = base + offset

	return m.pos, nil
}

// pointBytes returns n records of the format with slowly varying content.
func pointBytes(t *testing.T, pf *point.Format, n int, seed int64) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	recs := point.NewRecords(pf, n)
	for i := range n {
		require.NoError(t, recs.SetInt(i, point.DimX, int64(1000+i)))
		require.NoError(t, recs.SetInt(i, point.DimY, int64(2000+rng.Intn(50))))
		require.NoError(t, recs.SetInt(i, point.DimZ, int64(rng.Intn(300))))
		require.NoError(t, recs.SetUint(i, point.DimReturnNumber, uint64(1+i%3)))
	}

	return recs.Bytes()
}

func testVLR(t *testing.T, id uint8, chunkSize uint32) (*point.Format, *CodecVLR) {
	t.Helper()

	pf, err := point.NewFormat(id)
	require.NoError(t, err)
	vlr, err := NewCodecVLR(pf, chunkSize, format.CompressionZstd)
	require.NoError(t, err)

	return pf, vlr
}
