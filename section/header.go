package section

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/lasgo/endian"
	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/point"
)

// Header is the LAS public header block together with the VLRs that follow it.
type Header struct {
	FileSourceID       uint16
	GlobalEncoding     uint16
	// ProjectID is held in canonical form and stored on disk in GUID byte order.
	ProjectID          uuid.UUID
	Version            format.Version
	SystemIdentifier   string
	GeneratingSoftware string
	CreationDay        uint16 // day of year, 1-based
	CreationYear       uint16

	// HeaderSize is the size of the public header block including ExtraHeaderBytes.
	HeaderSize uint16
	// OffsetToPointData is recomputed whenever the header is serialized with its VLRs.
	OffsetToPointData uint32

	PointFormat   *point.Format
	AreCompressed bool

	PointCount             uint64
	NumberOfPointsByReturn [15]uint64

	Scales  [3]float64
	Offsets [3]float64
	Mins    [3]float64
	Maxs    [3]float64

	StartOfWaveformData uint64
	StartOfFirstEVLR    uint64
	NumberOfEVLRs       uint32

	VLRs []VLR
	// ExtraHeaderBytes holds user-defined bytes stored after the standard header fields.
	ExtraHeaderBytes []byte
}

// NewHeader creates a header for the given version and point format.
//
// Returns:
//   - *Header: Header with 0.01 scales, zero offsets and today's creation date
//   - error: ErrIncompatibleVersion if the version cannot store the point format
func NewHeader(version format.Version, pf *point.Format) (*Header, error) {
	if err := checkVersion(version, pf); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	h := &Header{
		Version:            version,
		GeneratingSoftware: defaultGeneratingSW,
		CreationDay:        uint16(now.YearDay()), //nolint:gosec
		CreationYear:       uint16(now.Year()),    //nolint:gosec
		HeaderSize:         standardHeaderSize(version),
		PointFormat:        pf,
		Scales:             [3]float64{defaultScale, defaultScale, defaultScale},
	}
	h.OffsetToPointData = uint32(h.HeaderSize)
	h.ResetStatistics()

	return h, nil
}

func checkVersion(version format.Version, pf *point.Format) error {
	if pf == nil {
		return fmt.Errorf("%w: nil point format", errs.ErrInvalidHeader)
	}
	if !version.SupportsPointFormat(pf.ID()) {
		return fmt.Errorf("%w: point format %d needs las %s, header is %s",
			errs.ErrIncompatibleVersion, pf.ID(), format.MinimumVersion(pf.ID()), version)
	}

	return nil
}

// CheckCompatibility validates that the point format may be stored with the header's version.
func (h *Header) CheckCompatibility() error {
	return checkVersion(h.Version, h.PointFormat)
}

func standardHeaderSize(v format.Version) uint16 {
	switch {
	case v.Less(format.Version13):
		return HeaderSize12
	case v.Less(format.Version14):
		return HeaderSize13
	default:
		return HeaderSize14
	}
}

// ResetStatistics clears the point count, per-return counts, bounds and the
// EVLR location. Bounds are reset to inverted extrema so the first Update
// sets them.
func (h *Header) ResetStatistics() {
	h.PointCount = 0
	h.NumberOfPointsByReturn = [15]uint64{}
	h.NumberOfEVLRs = 0
	h.StartOfFirstEVLR = 0
	for i := range 3 {
		h.Mins[i] = math.MaxFloat64
		h.Maxs[i] = -math.MaxFloat64
	}
}

// Update grows the point count, per-return counts and bounds with a batch of records.
func (h *Header) Update(records *point.Records) error {
	n := records.Len()
	if n == 0 {
		return nil
	}

	pf := records.Format()
	var xyz [3]point.DimensionInfo
	for i, name := range []string{point.DimX, point.DimY, point.DimZ} {
		dim, err := pf.DimensionByName(name)
		if err != nil {
			return err
		}
		xyz[i] = dim
	}
	returnNumber, err := pf.DimensionByName(point.DimReturnNumber)
	if err != nil {
		return err
	}

	for i := range n {
		rec := records.Record(i)
		for axis, dim := range xyz {
			v := float64(dim.Int(rec, 0))*h.Scales[axis] + h.Offsets[axis]
			h.Mins[axis] = min(h.Mins[axis], v)
			h.Maxs[axis] = max(h.Maxs[axis], v)
		}
		if rn := returnNumber.Uint(rec, 0); rn >= 1 && rn <= extendedReturnCount {
			h.NumberOfPointsByReturn[rn-1]++
		}
	}
	h.PointCount += uint64(n)

	return nil
}

// PointSize returns the size of one point record in bytes.
func (h *Header) PointSize() int {
	return h.PointFormat.Size()
}

// Bytes serializes the public header block (without VLRs).
func (h *Header) Bytes() []byte {
	engine := endian.GetLittleEndianEngine()
	b := make([]byte, 0, int(h.HeaderSize))

	b = append(b, Signature...)
	b = engine.AppendUint16(b, h.FileSourceID)
	b = engine.AppendUint16(b, h.GlobalEncoding)
	b = appendGUID(b, h.ProjectID)
	b = append(b, h.Version.Major, h.Version.Minor)
	b = endian.AppendFixedString(b, h.SystemIdentifier, fixedStringFieldSize)
	b = endian.AppendFixedString(b, h.GeneratingSoftware, fixedStringFieldSize)
	b = engine.AppendUint16(b, h.CreationDay)
	b = engine.AppendUint16(b, h.CreationYear)
	b = engine.AppendUint16(b, h.HeaderSize)
	b = engine.AppendUint32(b, h.OffsetToPointData)
	b = engine.AppendUint32(b, uint32(len(h.VLRs))) //nolint:gosec

	formatByte := h.PointFormat.ID()
	if h.AreCompressed {
		formatByte |= compressedFormatBit
	}
	b = append(b, formatByte)
	b = engine.AppendUint16(b, uint16(h.PointFormat.Size())) //nolint:gosec

	legacy := h.hasLegacyCounts()
	if legacy {
		b = engine.AppendUint32(b, uint32(h.PointCount))
	} else {
		b = engine.AppendUint32(b, 0)
	}
	for i := range legacyReturnCount {
		if legacy {
			b = engine.AppendUint32(b, uint32(h.NumberOfPointsByReturn[i])) //nolint:gosec
		} else {
			b = engine.AppendUint32(b, 0)
		}
	}

	for _, v := range h.Scales {
		b = endian.AppendFloat64(engine, b, v)
	}
	for _, v := range h.Offsets {
		b = endian.AppendFloat64(engine, b, v)
	}
	mins, maxs := h.bounds()
	for axis := range 3 {
		b = endian.AppendFloat64(engine, b, maxs[axis])
		b = endian.AppendFloat64(engine, b, mins[axis])
	}

	if !h.Version.Less(format.Version13) {
		b = engine.AppendUint64(b, h.StartOfWaveformData)
	}
	if !h.Version.Less(format.Version14) {
		b = engine.AppendUint64(b, h.StartOfFirstEVLR)
		b = engine.AppendUint32(b, h.NumberOfEVLRs)
		b = engine.AppendUint64(b, h.PointCount)
		for _, v := range h.NumberOfPointsByReturn {
			b = engine.AppendUint64(b, v)
		}
	}

	b = append(b, h.ExtraHeaderBytes...)
	for len(b) < int(h.HeaderSize) {
		b = append(b, 0)
	}

	return b
}

// hasLegacyCounts reports whether the 32-bit point count fields can hold the counts.
func (h *Header) hasLegacyCounts() bool {
	if h.PointCount > math.MaxUint32 {
		return false
	}

	return h.Version.Less(format.Version14) || h.PointFormat.ID() <= maxLegacyPointFormatID
}

// bounds returns the bounds to persist; an empty file stores zeros.
func (h *Header) bounds() ([3]float64, [3]float64) {
	if h.PointCount == 0 && h.Mins[0] > h.Maxs[0] {
		return [3]float64{}, [3]float64{}
	}

	return h.Mins, h.Maxs
}

// Serialize writes the public header block and, when withVLRs is set, the VLRs.
//
// Writing the VLRs regenerates the Extra Bytes VLR from the point format and
// recomputes NumberOfVLRs and OffsetToPointData. Without VLRs only the header
// block is written and OffsetToPointData is kept as is.
func (h *Header) Serialize(w io.Writer, withVLRs bool) error {
	if err := h.CheckCompatibility(); err != nil {
		return err
	}
	if h.Version.Less(format.Version14) && h.PointCount > math.MaxUint32 {
		return fmt.Errorf("%w: %d points need las 1.4", errs.ErrUnsupportedVersion, h.PointCount)
	}

	minSize := int(standardHeaderSize(h.Version)) + len(h.ExtraHeaderBytes)
	if int(h.HeaderSize) < minSize {
		h.HeaderSize = uint16(minSize) //nolint:gosec
	}

	var vlrBytes []byte
	if withVLRs {
		h.syncExtraBytesVLR()

		var err error
		for _, v := range h.VLRs {
			if vlrBytes, err = v.appendTo(vlrBytes, false); err != nil {
				return err
			}
		}
		offset := uint64(h.HeaderSize) + uint64(len(vlrBytes))
		if offset > math.MaxUint32 {
			return fmt.Errorf("%w: vlr region too large", errs.ErrInvalidVLR)
		}
		h.OffsetToPointData = uint32(offset)
	}

	if _, err := w.Write(h.Bytes()); err != nil {
		return err
	}
	if withVLRs && len(vlrBytes) > 0 {
		if _, err := w.Write(vlrBytes); err != nil {
			return err
		}
	}

	return nil
}

// ReadHeader decodes the public header block and its VLRs.
// The reader must be positioned at the start of the file. On return it is
// positioned at OffsetToPointData.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize12)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
	}
	if string(buf[:4]) != Signature {
		return nil, fmt.Errorf("%w: bad signature %q", errs.ErrInvalidHeader, buf[:4])
	}

	engine := endian.GetLittleEndianEngine()
	headerSize := engine.Uint16(buf[offsetHeaderSize:])
	if int(headerSize) < HeaderSize12 {
		return nil, fmt.Errorf("%w: header size %d", errs.ErrInvalidHeader, headerSize)
	}
	if rest := int(headerSize) - HeaderSize12; rest > 0 {
		more := make([]byte, rest)
		if _, err := io.ReadFull(r, more); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
		}
		buf = append(buf, more...)
	}

	h := &Header{}
	numVLRs, recordLength, err := h.Parse(buf)
	if err != nil {
		return nil, err
	}

	consumed := int64(headerSize)
	if int64(h.OffsetToPointData) < consumed {
		return nil, fmt.Errorf("%w: point data offset %d inside header", errs.ErrInvalidHeader, h.OffsetToPointData)
	}
	h.VLRs = make([]VLR, 0, numVLRs)
	for range numVLRs {
		v, n, err := readVLR(r, false)
		if err != nil {
			return nil, err
		}
		consumed += n
		h.VLRs = append(h.VLRs, v)
	}
	if gap := int64(h.OffsetToPointData) - consumed; gap > 0 {
		if _, err := io.CopyN(io.Discard, r, gap); err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
		}
	} else if gap < 0 {
		return nil, fmt.Errorf("%w: vlrs overlap point data", errs.ErrInvalidHeader)
	}

	if err := h.buildExtraDimensions(recordLength); err != nil {
		return nil, err
	}

	return h, nil
}

// Parse decodes a public header block. The point format only holds its standard
// dimensions until the VLRs are known, see ReadHeader.
//
// Returns:
//   - uint32: number of VLRs announced by the header
//   - uint16: point record length announced by the header
//   - error: ErrInvalidHeader or ErrInvalidFormatID
func (h *Header) Parse(data []byte) (uint32, uint16, error) {
	if len(data) < HeaderSize12 || string(data[:4]) != Signature {
		return 0, 0, fmt.Errorf("%w: short or unsigned header", errs.ErrInvalidHeader)
	}
	engine := endian.GetLittleEndianEngine()

	h.FileSourceID = engine.Uint16(data[offsetFileSourceID:])
	h.GlobalEncoding = engine.Uint16(data[offsetGlobalEncoding:])
	h.ProjectID = parseGUID(data[offsetProjectID : offsetProjectID+16])
	h.Version = format.Version{Major: data[offsetVersionMajor], Minor: data[offsetVersionMinor]}
	if !h.Version.IsSupported() {
		return 0, 0, fmt.Errorf("%w: las version %s", errs.ErrInvalidHeader, h.Version)
	}
	h.SystemIdentifier = endian.FixedString(data[offsetSystemIdentifier : offsetSystemIdentifier+fixedStringFieldSize])
	h.GeneratingSoftware = endian.FixedString(data[offsetGeneratingSW : offsetGeneratingSW+fixedStringFieldSize])
	h.CreationDay = engine.Uint16(data[offsetCreationDay:])
	h.CreationYear = engine.Uint16(data[offsetCreationYear:])
	h.HeaderSize = engine.Uint16(data[offsetHeaderSize:])
	h.OffsetToPointData = engine.Uint32(data[offsetPointDataOffset:])
	numVLRs := engine.Uint32(data[offsetNumberOfVLRs:])

	formatByte := data[offsetPointFormat]
	h.AreCompressed = formatByte&(compressedFormatBit|compressedFormatBitOld) != 0
	pf, err := point.NewFormat(formatByte & pointFormatIDMask)
	if err != nil {
		return 0, 0, err
	}
	h.PointFormat = pf
	recordLength := engine.Uint16(data[offsetRecordLength:])

	h.PointCount = uint64(engine.Uint32(data[offsetLegacyPointCount:]))
	for i := range legacyReturnCount {
		h.NumberOfPointsByReturn[i] = uint64(engine.Uint32(data[offsetLegacyByReturn+4*i:]))
	}
	for i := range 3 {
		h.Scales[i] = endian.Float64(engine, data[offsetScales+8*i:])
		h.Offsets[i] = endian.Float64(engine, data[offsetOffsets+8*i:])
		h.Maxs[i] = endian.Float64(engine, data[offsetBounds+16*i:])
		h.Mins[i] = endian.Float64(engine, data[offsetBounds+16*i+8:])
	}

	standard := int(standardHeaderSize(h.Version))
	if len(data) < standard {
		return 0, 0, fmt.Errorf("%w: las %s header needs %d bytes", errs.ErrInvalidHeader, h.Version, standard)
	}
	if !h.Version.Less(format.Version13) {
		h.StartOfWaveformData = engine.Uint64(data[offsetWaveformData:])
	}
	if !h.Version.Less(format.Version14) {
		h.StartOfFirstEVLR = engine.Uint64(data[offsetStartOfFirstEVLR:])
		h.NumberOfEVLRs = engine.Uint32(data[offsetNumberOfEVLRs:])
		if count := engine.Uint64(data[offsetPointCount:]); count != 0 || h.PointCount == 0 {
			h.PointCount = count
			for i := range extendedReturnCount {
				h.NumberOfPointsByReturn[i] = engine.Uint64(data[offsetPointsByReturn+8*i:])
			}
		}
	}
	if len(data) > standard {
		h.ExtraHeaderBytes = append([]byte(nil), data[standard:]...)
	}

	return numVLRs, recordLength, nil
}

// buildExtraDimensions adds the extra dimensions described by the Extra Bytes VLR.
// Bytes of the record not covered by a descriptor become one opaque byte array.
func (h *Header) buildExtraDimensions(recordLength uint16) error {
	extra := int(recordLength) - h.PointFormat.Size()
	if extra < 0 {
		return fmt.Errorf("%w: record length %d shorter than point format %d",
			errs.ErrInvalidHeader, recordLength, h.PointFormat.ID())
	}

	if i, ok := h.FindVLR(ExtraBytesUserID, ExtraBytesRecordID); ok {
		params, err := decodeExtraBytes(h.VLRs[i].Data)
		if err != nil {
			return err
		}
		for _, p := range params {
			if err := h.PointFormat.AddExtraDimension(p); err != nil {
				return fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
			}
		}
	}

	remaining := int(recordLength) - h.PointFormat.Size()
	switch {
	case remaining < 0:
		return fmt.Errorf("%w: extra bytes vlr describes more than the record length %d", errs.ErrInvalidHeader, recordLength)
	case remaining > 0:
		for remaining > 0 {
			n := min(remaining, math.MaxUint8)
			err := h.PointFormat.AddExtraDimension(point.ExtraBytesParams{
				Name:        fmt.Sprintf("unnamed_extra_bytes_%d", h.PointFormat.Size()),
				Kind:        point.UnsignedInteger,
				BitWidth:    8,
				NumElements: uint8(n), //nolint:gosec
			})
			if err != nil {
				return fmt.Errorf("%w: %w", errs.ErrInvalidHeader, err)
			}
			remaining -= n
		}
	}

	return nil
}

// syncExtraBytesVLR makes the Extra Bytes VLR describe exactly the extra dimensions.
func (h *Header) syncExtraBytesVLR() {
	extras := h.PointFormat.ExtraDimensions()
	if len(extras) == 0 {
		h.RemoveVLRs(ExtraBytesUserID, ExtraBytesRecordID)
		return
	}

	h.SetVLR(VLR{
		UserID:      ExtraBytesUserID,
		RecordID:    ExtraBytesRecordID,
		Description: "Extra Bytes Record",
		Data:        encodeExtraBytes(extras),
	})
}

// appendGUID writes id with its first three groups little endian, the layout
// LAS tools use for the project id.
func appendGUID(b []byte, id uuid.UUID) []byte {
	engine := endian.GetLittleEndianEngine()
	big := endian.GetBigEndianEngine()
	b = engine.AppendUint32(b, big.Uint32(id[0:4]))
	b = engine.AppendUint16(b, big.Uint16(id[4:6]))
	b = engine.AppendUint16(b, big.Uint16(id[6:8]))

	return append(b, id[8:16]...)
}

func parseGUID(data []byte) uuid.UUID {
	engine := endian.GetLittleEndianEngine()
	big := endian.GetBigEndianEngine()
	var id uuid.UUID
	big.PutUint32(id[0:4], engine.Uint32(data[0:4]))
	big.PutUint16(id[4:6], engine.Uint16(data[4:6]))
	big.PutUint16(id[6:8], engine.Uint16(data[6:8]))
	copy(id[8:16], data[8:16])

	return id
}
