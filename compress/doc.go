// Package compress provides the payload codecs of LAZ chunks.
//
// A LAZ chunk groups up to chunk-size point records. The laz package frames
// each chunk (point count, payload length, checksum) and hands the raw records
// to one of the codecs below. The codec in use is recorded in the coder field
// of the laz codec VLR so a later reader or appender picks the same one.
//
// # Supported Algorithms
//
//   - None (format.CompressionNone): records stored as-is
//   - Zstd (format.CompressionZstd): default; pure Go klauspost encoder with pooled state
//   - S2 (format.CompressionS2): faster, lower ratio
//   - LZ4 (format.CompressionLZ4): size-prefixed LZ4 blocks
//
// # External encoder
//
// NewExternalZstdCompressor returns a libzstd encoder (valyala/gozstd) when the
// module is built with cgo and the gozstd tag:
//
//	go build -tags gozstd ./...
//
// Without the tag ExternalZstdAvailable reports false and the constructor
// returns errs.ErrBackendUnavailable, letting callers fall back to the native
// encoder. Frames from either encoder are decoded by ZstdCompressor.
//
// # Thread Safety
//
// All codecs are stateless values backed by sync.Pool, safe for concurrent use.
package compress
