// Package errs defines the sentinel errors returned by lasgo packages.
//
// Errors are wrapped with context by the returning package, so callers should
// match them with errors.Is:
//
//	if errors.Is(err, errs.ErrFormatMismatch) {
//	    // the records were built for another point format
//	}
package errs

import "errors"

// Point format errors.
var (
	// ErrInvalidFormatID is returned when a point format id is outside 0..10.
	ErrInvalidFormatID = errors.New("invalid point format id")
	// ErrInvalidDimension is returned when an extra dimension definition is not representable.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrDimensionNotFound is returned when a dimension name does not exist in a point format.
	ErrDimensionNotFound = errors.New("dimension not found")
	// ErrFormatMismatch is returned when point records do not match the file's point format.
	ErrFormatMismatch = errors.New("point format mismatch")
	// ErrInvalidRecords is returned when a record buffer is not a whole number of records.
	ErrInvalidRecords = errors.New("invalid point records")
)

// Header and version errors.
var (
	// ErrInvalidHeader is returned when the public header block cannot be decoded.
	ErrInvalidHeader = errors.New("invalid las header")
	// ErrIncompatibleVersion is returned when a point format is not allowed by the header version.
	ErrIncompatibleVersion = errors.New("point format incompatible with las version")
	// ErrUnsupportedVersion is returned when an operation needs a newer las version (EVLRs need 1.4).
	ErrUnsupportedVersion = errors.New("operation unsupported by las version")
	// ErrInvalidVLR is returned when a variable length record cannot be encoded or decoded.
	ErrInvalidVLR = errors.New("invalid variable length record")
)

// Writer state errors.
var (
	// ErrWriterClosed is returned when points or EVLRs are written after the point stream was finalized.
	ErrWriterClosed = errors.New("writer closed")
	// ErrInvalidState is returned when a point writer operation is called out of order.
	ErrInvalidState = errors.New("invalid point writer state")
	// ErrNotSeekable is returned when the destination stream cannot seek.
	ErrNotSeekable = errors.New("stream is not seekable")
)

// Compression errors.
var (
	// ErrMissingCodecVlr is returned when a compressed file has no laszip codec VLR.
	ErrMissingCodecVlr = errors.New("missing laz codec vlr")
	// ErrCodecMismatch is returned when the codec VLR does not describe the file's point format.
	ErrCodecMismatch = errors.New("laz codec vlr does not match point format")
	// ErrInvalidChunkSize is returned for a zero or variable chunk size.
	ErrInvalidChunkSize = errors.New("invalid chunk size")
	// ErrMissingChunkTable is returned when no valid chunk table is persisted.
	ErrMissingChunkTable = errors.New("missing chunk table")
	// ErrCorruptChunk is returned when a compressed chunk fails its length or checksum check.
	ErrCorruptChunk = errors.New("corrupt compressed chunk")
	// ErrEvlrBeforeDataEnd is returned when the recorded EVLR start lies inside the point data.
	ErrEvlrBeforeDataEnd = errors.New("evlr start lies before end of point data")
	// ErrBackendUnavailable is returned when a compression backend cannot be used in this build.
	ErrBackendUnavailable = errors.New("compression backend unavailable")
	// ErrNoBackendAvailable is returned once every requested compression backend failed.
	ErrNoBackendAvailable = errors.New("no compression backend available")
	// ErrUnsupportedCompression is returned for an unknown chunk payload codec.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
)
