package point

import (
	"fmt"

	"github.com/arloliu/lasgo/errs"
)

// Records is a batch of point records stored contiguously in their on-disk layout.
type Records struct {
	format *Format
	data   []byte
}

// NewRecords allocates n zeroed records of format f.
func NewRecords(f *Format, n int) *Records {
	return &Records{
		format: f,
		data:   make([]byte, n*f.Size()),
	}
}

// RecordsFromBytes wraps raw record bytes without copying.
//
// Returns:
//   - *Records: Records sharing data
//   - error: ErrInvalidRecords if len(data) is not a multiple of the record size
func RecordsFromBytes(f *Format, data []byte) (*Records, error) {
	if f.Size() == 0 || len(data)%f.Size() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of record size %d",
			errs.ErrInvalidRecords, len(data), f.Size())
	}

	return &Records{format: f, data: data}, nil
}

// Format returns the point format of the records.
func (r *Records) Format() *Format {
	return r.format
}

// Len returns the number of records.
func (r *Records) Len() int {
	if r == nil || r.format.Size() == 0 {
		return 0
	}

	return len(r.data) / r.format.Size()
}

// Bytes returns the underlying record bytes.
func (r *Records) Bytes() []byte {
	return r.data
}

// Record returns the bytes of record i.
func (r *Records) Record(i int) []byte {
	size := r.format.Size()
	return r.data[i*size : (i+1)*size]
}

// Slice returns the records [start, end) sharing the underlying bytes.
func (r *Records) Slice(start, end int) *Records {
	size := r.format.Size()
	return &Records{format: r.format, data: r.data[start*size : end*size]}
}

// Append copies the records of other after r's records.
func (r *Records) Append(other *Records) error {
	if !r.format.Equal(other.format) {
		return fmt.Errorf("%w: cannot append format %d records to format %d records",
			errs.ErrFormatMismatch, other.format.ID(), r.format.ID())
	}
	r.data = append(r.data, other.data...)

	return nil
}

func (r *Records) lookup(i int, name string) (DimensionInfo, []byte, error) {
	idx, ok := r.format.index[name]
	if !ok {
		return DimensionInfo{}, nil, fmt.Errorf("%w: %q in point format %d", errs.ErrDimensionNotFound, name, r.format.id)
	}
	if i < 0 || i >= r.Len() {
		return DimensionInfo{}, nil, fmt.Errorf("record index %d out of range [0, %d)", i, r.Len())
	}

	return r.format.dimensions[idx], r.Record(i), nil
}

// Uint returns the raw unsigned value of the first element of dimension name in record i.
func (r *Records) Uint(i int, name string) (uint64, error) {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return 0, err
	}

	return dim.Uint(rec, 0), nil
}

// SetUint stores v in the first element of dimension name in record i.
func (r *Records) SetUint(i int, name string, v uint64) error {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return err
	}
	dim.SetUint(rec, 0, v)

	return nil
}

// Int returns the signed value of the first element of dimension name in record i.
func (r *Records) Int(i int, name string) (int64, error) {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return 0, err
	}

	return dim.Int(rec, 0), nil
}

// SetInt stores v in the first element of dimension name in record i.
func (r *Records) SetInt(i int, name string, v int64) error {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return err
	}
	dim.SetInt(rec, 0, v)

	return nil
}

// Float returns the first element of dimension name in record i as a float64.
func (r *Records) Float(i int, name string) (float64, error) {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return 0, err
	}

	return dim.Float(rec, 0), nil
}

// SetFloat stores v in the first element of dimension name in record i.
func (r *Records) SetFloat(i int, name string, v float64) error {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return err
	}
	dim.SetFloat(rec, 0, v)

	return nil
}

// Element returns element elem of array dimension name in record i as raw bits.
func (r *Records) Element(i int, name string, elem int) (uint64, error) {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return 0, err
	}
	if err := dim.checkElement(elem); err != nil {
		return 0, err
	}

	return dim.Uint(rec, elem), nil
}

// SetElement stores raw bits v into element elem of array dimension name in record i.
func (r *Records) SetElement(i int, name string, elem int, v uint64) error {
	dim, rec, err := r.lookup(i, name)
	if err != nil {
		return err
	}
	if err := dim.checkElement(elem); err != nil {
		return err
	}
	dim.SetUint(rec, elem, v)

	return nil
}
