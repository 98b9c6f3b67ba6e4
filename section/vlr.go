package section

import (
	"fmt"
	"io"
	"math"

	"github.com/arloliu/lasgo/endian"
	"github.com/arloliu/lasgo/errs"
)

// maxPreallocEVLRs bounds the slice capacity taken from an on-disk EVLR count.
const maxPreallocEVLRs = 64

// VLR is a variable length record. The same type is used for extended VLRs,
// which only differ by their 64-bit length field on disk.
type VLR struct {
	UserID      string
	RecordID    uint16
	Description string
	Data        []byte
}

// Size returns the on-disk size of the record including its header.
func (v VLR) Size(extended bool) int {
	if extended {
		return EVLRHeaderSize + len(v.Data)
	}

	return VLRHeaderSize + len(v.Data)
}

func (v VLR) appendTo(b []byte, extended bool) ([]byte, error) {
	if len(v.UserID) > userIDSize {
		return nil, fmt.Errorf("%w: user id %q longer than %d bytes", errs.ErrInvalidVLR, v.UserID, userIDSize)
	}
	if !extended && len(v.Data) > MaxVLRDataSize {
		return nil, fmt.Errorf("%w: %q/%d payload of %d bytes needs an evlr",
			errs.ErrInvalidVLR, v.UserID, v.RecordID, len(v.Data))
	}

	engine := endian.GetLittleEndianEngine()
	b = engine.AppendUint16(b, 0)
	b = endian.AppendFixedString(b, v.UserID, userIDSize)
	b = engine.AppendUint16(b, v.RecordID)
	if extended {
		b = engine.AppendUint64(b, uint64(len(v.Data)))
	} else {
		b = engine.AppendUint16(b, uint16(len(v.Data))) //nolint:gosec
	}
	b = endian.AppendFixedString(b, v.Description, descriptionSize)
	b = append(b, v.Data...)

	return b, nil
}

// readVLR reads one record and returns the number of bytes consumed.
func readVLR(r io.Reader, extended bool) (VLR, int64, error) {
	size := VLRHeaderSize
	if extended {
		size = EVLRHeaderSize
	}
	hdr := make([]byte, size)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return VLR{}, 0, fmt.Errorf("%w: %w", errs.ErrInvalidVLR, err)
	}

	engine := endian.GetLittleEndianEngine()
	v := VLR{
		UserID:   endian.FixedString(hdr[2 : 2+userIDSize]),
		RecordID: engine.Uint16(hdr[18:20]),
	}
	var length uint64
	descStart := 22
	if extended {
		length = engine.Uint64(hdr[20:28])
		descStart = 28
	} else {
		length = uint64(engine.Uint16(hdr[20:22]))
	}
	v.Description = endian.FixedString(hdr[descStart : descStart+descriptionSize])

	if length > math.MaxInt64-uint64(size) {
		return VLR{}, 0, fmt.Errorf("%w: %q/%d payload length %d", errs.ErrInvalidVLR, v.UserID, v.RecordID, length)
	}
	// the on-disk length may be corrupt, so the buffer grows with the bytes read
	data, err := io.ReadAll(io.LimitReader(r, int64(length)))
	if err != nil {
		return VLR{}, 0, fmt.Errorf("%w: %q/%d payload: %w", errs.ErrInvalidVLR, v.UserID, v.RecordID, err)
	}
	if uint64(len(data)) != length {
		return VLR{}, 0, fmt.Errorf("%w: %q/%d payload: %w", errs.ErrInvalidVLR, v.UserID, v.RecordID, io.ErrUnexpectedEOF)
	}
	v.Data = data

	return v, int64(size) + int64(length), nil //nolint:gosec
}

// WriteEVLRs writes records as extended VLRs at the writer's current position.
func WriteEVLRs(w io.Writer, evlrs []VLR) error {
	var b []byte
	var err error
	for _, v := range evlrs {
		if b, err = v.appendTo(b, true); err != nil {
			return err
		}
	}
	if len(b) == 0 {
		return nil
	}
	_, err = w.Write(b)

	return err
}

// ReadEVLRs reads n extended VLRs starting at absolute offset start.
func ReadEVLRs(r io.ReadSeeker, start uint64, n uint32) ([]VLR, error) {
	if n == 0 {
		return nil, nil
	}
	if _, err := r.Seek(int64(start), io.SeekStart); err != nil { //nolint:gosec
		return nil, err
	}

	evlrs := make([]VLR, 0, min(n, maxPreallocEVLRs))
	for range n {
		v, _, err := readVLR(r, true)
		if err != nil {
			return nil, err
		}
		evlrs = append(evlrs, v)
	}

	return evlrs, nil
}

// FindVLR returns the index of the first VLR with the given user and record ids.
func (h *Header) FindVLR(userID string, recordID uint16) (int, bool) {
	for i, v := range h.VLRs {
		if v.UserID == userID && v.RecordID == recordID {
			return i, true
		}
	}

	return -1, false
}

// SetVLR replaces the VLR with the same user and record ids or appends v.
func (h *Header) SetVLR(v VLR) {
	if i, ok := h.FindVLR(v.UserID, v.RecordID); ok {
		h.VLRs[i] = v
		return
	}
	h.VLRs = append(h.VLRs, v)
}

// RemoveVLRs drops every VLR with the given user and record ids.
func (h *Header) RemoveVLRs(userID string, recordID uint16) {
	kept := h.VLRs[:0]
	for _, v := range h.VLRs {
		if v.UserID != userID || v.RecordID != recordID {
			kept = append(kept, v)
		}
	}
	h.VLRs = kept
}
