package laz

import (
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/lasgo/endian"
	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/point"
	"github.com/arloliu/lasgo/section"
)

// Identification of the codec VLR.
const (
	CodecUserID   = "laszip encoded"
	CodecRecordID = 22204
)

// DefaultChunkSize is the number of points per chunk used when none is configured.
const DefaultChunkSize uint32 = 50000

// variableChunkSize marks variable sized chunks, which this stream does not produce.
const variableChunkSize = math.MaxUint32

const (
	codecFixedSize = 34
	codecItemSize  = 6

	pointwiseCompressor = 2
	layeredCompressor   = 3

	codecVersionMajor = 3
	codecVersionMinor = 4
	codecRevision     = 3
)

// ItemType identifies one component of a point record in the codec VLR.
type ItemType uint16

// Item types, numbered as in LASzip.
const (
	ItemByte         ItemType = 0
	ItemPoint10      ItemType = 6
	ItemGPSTime11    ItemType = 7
	ItemRGB12        ItemType = 8
	ItemWavepacket13 ItemType = 9
	ItemPoint14      ItemType = 10
	ItemRGB14        ItemType = 11
	ItemRGBNIR14     ItemType = 12
	ItemWavepacket14 ItemType = 13
	ItemByte14       ItemType = 14
)

// Item describes a run of bytes inside a point record.
type Item struct {
	Type    ItemType
	Size    uint16
	Version uint16
}

// CodecVLR is the compression configuration stored in the "laszip encoded" VLR.
type CodecVLR struct {
	Compressor         uint16
	Coder              format.CompressionType
	VersionMajor       uint8
	VersionMinor       uint8
	Revision           uint16
	Options            uint32
	ChunkSize          uint32
	NumSpecialEVLRs    int64
	OffsetSpecialEVLRs int64
	Items              []Item
}

// NewCodecVLR derives the codec configuration of a point format.
//
// Parameters:
//   - pf: Point format of the records that will be compressed
//   - chunkSize: Points per chunk, 0 and MaxUint32 are rejected
//   - coder: Payload codec of each chunk
//
// Returns:
//   - *CodecVLR: The configuration
//   - error: ErrInvalidChunkSize or ErrUnsupportedCompression
func NewCodecVLR(pf *point.Format, chunkSize uint32, coder format.CompressionType) (*CodecVLR, error) {
	compressor := uint16(pointwiseCompressor)
	if pf.ID() >= 6 {
		compressor = layeredCompressor
	}

	v := &CodecVLR{
		Compressor:         compressor,
		Coder:              coder,
		VersionMajor:       codecVersionMajor,
		VersionMinor:       codecVersionMinor,
		Revision:           codecRevision,
		ChunkSize:          chunkSize,
		NumSpecialEVLRs:    -1,
		OffsetSpecialEVLRs: -1,
		Items:              ItemsForFormat(pf),
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}

// ItemsForFormat returns the item layout of a point format.
func ItemsForFormat(pf *point.Format) []Item {
	id := pf.ID()
	extra := uint16(pf.NumExtraBytes()) //nolint:gosec

	if id < 6 {
		items := []Item{{ItemPoint10, 20, 2}}
		if pf.HasDimension(point.DimGPSTime) {
			items = append(items, Item{ItemGPSTime11, 8, 2})
		}
		if pf.HasDimension(point.DimRed) {
			items = append(items, Item{ItemRGB12, 6, 2})
		}
		if pf.HasDimension(point.DimWavepacketIndex) {
			items = append(items, Item{ItemWavepacket13, 29, 2})
		}
		if extra > 0 {
			items = append(items, Item{ItemByte, extra, 2})
		}

		return items
	}

	items := []Item{{ItemPoint14, 30, 3}}
	switch {
	case pf.HasDimension(point.DimNIR):
		items = append(items, Item{ItemRGBNIR14, 8, 3})
	case pf.HasDimension(point.DimRed):
		items = append(items, Item{ItemRGB14, 6, 3})
	}
	if pf.HasDimension(point.DimWavepacketIndex) {
		items = append(items, Item{ItemWavepacket14, 29, 3})
	}
	if extra > 0 {
		items = append(items, Item{ItemByte14, extra, 3})
	}

	return items
}

// Validate checks the chunk size and the payload codec.
func (v *CodecVLR) Validate() error {
	if v.ChunkSize == 0 || v.ChunkSize == variableChunkSize {
		return fmt.Errorf("%w: %d", errs.ErrInvalidChunkSize, v.ChunkSize)
	}
	switch v.Coder {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		return nil
	default:
		return fmt.Errorf("%w: coder %d", errs.ErrUnsupportedCompression, uint16(v.Coder))
	}
}

// PointSize returns the record size described by the items.
func (v *CodecVLR) PointSize() int {
	size := 0
	for _, it := range v.Items {
		size += int(it.Size)
	}

	return size
}

// MatchesFormat reports ErrCodecMismatch when the items do not describe pf.
func (v *CodecVLR) MatchesFormat(pf *point.Format) error {
	if v.PointSize() != pf.Size() {
		return fmt.Errorf("%w: items cover %d bytes, point format %d has %d",
			errs.ErrCodecMismatch, v.PointSize(), pf.ID(), pf.Size())
	}
	if !slices.Equal(v.Items, ItemsForFormat(pf)) {
		return fmt.Errorf("%w: item layout differs from point format %d", errs.ErrCodecMismatch, pf.ID())
	}

	return nil
}

// Bytes encodes the VLR payload.
func (v *CodecVLR) Bytes() []byte {
	engine := endian.GetLittleEndianEngine()

	b := make([]byte, 0, codecFixedSize+codecItemSize*len(v.Items))
	b = engine.AppendUint16(b, v.Compressor)
	b = engine.AppendUint16(b, uint16(v.Coder))
	b = append(b, v.VersionMajor, v.VersionMinor)
	b = engine.AppendUint16(b, v.Revision)
	b = engine.AppendUint32(b, v.Options)
	b = engine.AppendUint32(b, v.ChunkSize)
	b = endian.AppendInt64(engine, b, v.NumSpecialEVLRs)
	b = endian.AppendInt64(engine, b, v.OffsetSpecialEVLRs)
	b = engine.AppendUint16(b, uint16(len(v.Items))) //nolint:gosec
	for _, it := range v.Items {
		b = engine.AppendUint16(b, uint16(it.Type))
		b = engine.AppendUint16(b, it.Size)
		b = engine.AppendUint16(b, it.Version)
	}

	return b
}

// Record wraps the payload into a VLR.
func (v *CodecVLR) Record() section.VLR {
	return section.VLR{
		UserID:      CodecUserID,
		RecordID:    CodecRecordID,
		Description: "lasgo chunked point stream",
		Data:        v.Bytes(),
	}
}

// ParseCodecVLR decodes a VLR payload.
func ParseCodecVLR(data []byte) (*CodecVLR, error) {
	if len(data) < codecFixedSize {
		return nil, fmt.Errorf("%w: codec vlr has %d bytes", errs.ErrInvalidVLR, len(data))
	}

	engine := endian.GetLittleEndianEngine()
	v := &CodecVLR{
		Compressor:         engine.Uint16(data[0:2]),
		Coder:              format.CompressionType(engine.Uint16(data[2:4])),
		VersionMajor:       data[4],
		VersionMinor:       data[5],
		Revision:           engine.Uint16(data[6:8]),
		Options:            engine.Uint32(data[8:12]),
		ChunkSize:          engine.Uint32(data[12:16]),
		NumSpecialEVLRs:    endian.Int64(engine, data[16:24]),
		OffsetSpecialEVLRs: endian.Int64(engine, data[24:32]),
	}

	count := int(engine.Uint16(data[32:34]))
	if len(data) < codecFixedSize+count*codecItemSize {
		return nil, fmt.Errorf("%w: codec vlr declares %d items in %d bytes", errs.ErrInvalidVLR, count, len(data))
	}
	v.Items = make([]Item, count)
	for i := range v.Items {
		off := codecFixedSize + i*codecItemSize
		v.Items[i] = Item{
			Type:    ItemType(engine.Uint16(data[off:])),
			Size:    engine.Uint16(data[off+2:]),
			Version: engine.Uint16(data[off+4:]),
		}
	}

	return v, nil
}

// FindCodecVLR extracts the codec configuration of a header.
//
// Returns ErrMissingCodecVlr when the header has none.
func FindCodecVLR(h *section.Header) (*CodecVLR, error) {
	i, ok := h.FindVLR(CodecUserID, CodecRecordID)
	if !ok {
		return nil, errs.ErrMissingCodecVlr
	}

	return ParseCodecVLR(h.VLRs[i].Data)
}
