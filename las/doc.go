// Package las writes LAS and LAZ point cloud files and appends to existing ones.
//
// # Writing
//
// A Writer takes a header and a seekable sink positioned at offset 0:
//
//	h, _ := section.NewHeader(format.Version14, pf)
//	w, err := las.NewWriter(f, h, las.WithCompression(true))
//	if err != nil {
//	    return err
//	}
//	if err := w.WritePoints(records); err != nil {
//	    return err
//	}
//	return w.Close()
//
// The header is written first with provisional statistics. Close (or
// WriteEVLRs) finalizes the point stream and Close patches the header block
// with the final point count and bounds. The VLR region is written once and
// never touched again, so offsets computed from it stay valid.
//
// # Compression backends
//
// With WithCompression the writer tries the backends given by WithBackends,
// or laz.DetectAvailable, in order and keeps the first usable one. The
// failures are logged at warn level; when every backend fails the error wraps
// errs.ErrNoBackendAvailable together with the last failure.
//
// # Appending
//
// An Appender reopens a complete file. For compressed files it locates the
// last, possibly partial, chunk through the chunk table (or rebuilds the table
// by decompressing every chunk when the file has none), decompresses that
// chunk and compresses it again together with the new points. Close rewrites
// the full chunk table, the EVLRs and the header block.
//
// Appending to a compressed file with an existing chunk table produces the
// same bytes as writing every point in a single pass with the same options.
//
// Neither Writer nor Appender is safe for concurrent use, and both need
// exclusive access to their sink.
package las
