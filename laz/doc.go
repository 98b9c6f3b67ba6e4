// Package laz implements the chunked compressed point stream of LAZ files.
//
// # Stream Layout
//
// The compressed stream starts at the header's offset to point data:
//
//	+----------------------+
//	| chunk table offset   | int64, -1 while the stream is being written
//	+----------------------+
//	| chunk 0              | u32 points | u32 payload length | payload | u64 xxhash64
//	| chunk 1              |
//	| ...                  |
//	+----------------------+
//	| chunk table          | u32 version | u32 count | count x u64 chunk byte length
//	+----------------------+
//
// Every chunk but the last holds exactly ChunkSize points. The payload is the
// raw point records compressed with the codec named by the coder field of the
// "laszip encoded" VLR (see CodecVLR).
//
// # Two-phase offsets
//
// A Compressor writes the -1 placeholder when it is created and patches it
// with the real table offset in Done. All absolute offsets are FilePosition
// values; byte counts are plain uint64.
//
// # Backends
//
// Backend enumerates the compressor implementations: native serial, native
// parallel (chunks encoded concurrently with errgroup), and an external cgo
// libzstd encoder that is only available in builds with the gozstd tag.
package laz
