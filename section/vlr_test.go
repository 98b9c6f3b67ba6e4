package section

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/lasgo/errs"
)

func TestVLRSizeAndEncoding(t *testing.T) {
	v := VLR{UserID: "LASF_Projection", RecordID: 2112, Description: "wkt", Data: []byte("GEOGCS[]")}

	b, err := v.appendTo(nil, false)
	require.NoError(t, err)
	require.Len(t, b, v.Size(false))
	require.Equal(t, VLRHeaderSize+8, len(b))

	got, n, err := readVLR(bytes.NewReader(b), false)
	require.NoError(t, err)
	require.Equal(t, int64(len(b)), n)
	require.Equal(t, v, got)

	_, err = VLR{UserID: "a user id that is too long"}.appendTo(nil, false)
	require.ErrorIs(t, err, errs.ErrInvalidVLR)

	_, err = VLR{UserID: "big", Data: make([]byte, MaxVLRDataSize+1)}.appendTo(nil, false)
	require.ErrorIs(t, err, errs.ErrInvalidVLR)
}

func TestEVLRRoundTrip(t *testing.T) {
	evlrs := []VLR{
		{UserID: "one", RecordID: 1, Data: make([]byte, MaxVLRDataSize+10)},
		{UserID: "two", RecordID: 2, Description: "second", Data: []byte{9}},
	}

	var buf bytes.Buffer
	buf.Write([]byte("prefix"))
	require.NoError(t, WriteEVLRs(&buf, evlrs))
	require.Equal(t, 6+evlrs[0].Size(true)+evlrs[1].Size(true), buf.Len())

	got, err := ReadEVLRs(bytes.NewReader(buf.Bytes()), 6, 2)
	require.NoError(t, err)
	require.Equal(t, evlrs, got)

	got, err = ReadEVLRs(bytes.NewReader(nil), 0, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = ReadEVLRs(bytes.NewReader(buf.Bytes()[:20]), 6, 1)
	require.ErrorIs(t, err, errs.ErrInvalidVLR)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadEVLRsCorruptLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEVLRs(&buf, []VLR{{UserID: "one", RecordID: 1, Data: []byte("payload")}}))
	data := buf.Bytes()

	tests := []struct {
		name   string
		length uint64
	}{
		{"max int64", math.MaxInt64},
		{"max uint64", math.MaxUint64},
		{"past end", 1 << 40},
		{"one byte short", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrupt := bytes.Clone(data)
			binary.LittleEndian.PutUint64(corrupt[20:28], tt.length)

			_, err := ReadEVLRs(bytes.NewReader(corrupt), 0, 1)
			require.ErrorIs(t, err, errs.ErrInvalidVLR)
		})
	}

	// a huge record count fails on the first missing record
	_, err := ReadEVLRs(bytes.NewReader(data), 0, math.MaxUint32)
	require.ErrorIs(t, err, errs.ErrInvalidVLR)
}

func TestHeaderVLRHelpers(t *testing.T) {
	h := &Header{}
	h.SetVLR(VLR{UserID: "a", RecordID: 1, Data: []byte{1}})
	h.SetVLR(VLR{UserID: "b", RecordID: 1})
	h.SetVLR(VLR{UserID: "a", RecordID: 1, Data: []byte{2}})
	require.Len(t, h.VLRs, 2)
	require.Equal(t, []byte{2}, h.VLRs[0].Data)

	h.RemoveVLRs("a", 1)
	_, ok := h.FindVLR("a", 1)
	require.False(t, ok)
	require.Len(t, h.VLRs, 1)
}
