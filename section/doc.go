// Package section encodes and decodes the fixed-layout parts of a LAS/LAZ file:
// the public header block, variable length records (VLRs) that follow it, and
// extended variable length records (EVLRs) that follow the point data.
//
// # Layout
//
//	+---------------------+  offset 0
//	| public header block |  227, 235 or 375 bytes depending on version
//	+---------------------+
//	| VLRs                |  54-byte header + payload each
//	+---------------------+  OffsetToPointData
//	| point data          |  raw records or LAZ chunks
//	+---------------------+  StartOfFirstEVLR (LAS 1.4)
//	| EVLRs               |  60-byte header + payload each
//	+---------------------+
//
// The header is a plain mutable value. Writers reset its statistics, feed
// every written batch to Update, and serialize it a second time at offset 0
// once the final point count and bounds are known. That second serialization
// never includes the VLRs, so offsets computed from the VLR region stay valid.
//
// Extra dimensions of a point format are persisted in the Extra Bytes VLR
// ("LASF_Spec", record 4). Serialize regenerates it from the point format and
// ReadHeader rebuilds the extra dimensions from it.
package section
