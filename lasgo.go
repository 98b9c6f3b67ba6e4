// Package lasgo writes LAS/LAZ point cloud files and appends points to
// existing ones.
//
// # Core Features
//
//   - Point formats 0 to 10 with bit-exact access to standard and extra dimensions
//   - LAS 1.0 to 1.4 headers, VLRs and EVLRs
//   - Chunked LAZ streams with a chunk table for random access
//   - Serial, parallel and external (cgo libzstd) compression backends
//   - Appending to compressed files, including files without a chunk table
//
// # Basic Usage
//
// Writing a compressed file:
//
//	header, _ := lasgo.NewHeader(format.Version14, 6)
//	w, _ := lasgo.Create("out.laz", header, las.WithCompression(true))
//	records := point.NewRecords(header.PointFormat, 1000)
//	// fill records with SetInt / SetUint / SetFloat
//	_ = w.WritePoints(records)
//	_ = w.Close()
//
// Appending to it later:
//
//	a, _ := lasgo.Append("out.laz")
//	_ = a.AppendPoints(more)
//	_ = a.Close()
//
// # Package Structure
//
// This package provides file based wrappers around the las package. For
// streams other than files, or for the codec primitives, use the las, laz,
// section and point packages directly.
package lasgo

import (
	"errors"
	"os"

	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/las"
	"github.com/arloliu/lasgo/point"
	"github.com/arloliu/lasgo/section"
)

// NewHeader creates a header for a standard point format.
//
// Parameters:
//   - version: LAS version of the file
//   - formatID: Point format id, 0 to 10
//
// Returns:
//   - *section.Header: Header with default scales and today's creation date
//   - error: ErrInvalidFormatID or ErrIncompatibleVersion
func NewHeader(version format.Version, formatID uint8) (*section.Header, error) {
	pf, err := point.NewFormat(formatID)
	if err != nil {
		return nil, err
	}

	return section.NewHeader(version, pf)
}

// Create creates or truncates the file at path and returns a Writer for it.
// The Writer closes the file on Close.
func Create(path string, header *section.Header, opts ...las.Option) (*las.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w, err := las.NewWriter(f, header, append(opts, las.WithCloseSink(true))...)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}

	return w, nil
}

// Append opens the file at path for appending. The Appender closes the file
// on Close.
func Append(path string, opts ...las.Option) (*las.Appender, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	a, err := las.NewAppender(f, append(opts, las.WithCloseSink(true))...)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}

	return a, nil
}

// ReadHeader reads the header and VLRs of the file at path.
func ReadHeader(path string) (*section.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return section.ReadHeader(f)
}
