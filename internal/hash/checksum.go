// Package hash computes the integrity checksums stored after each LAZ chunk.
package hash

import "github.com/cespare/xxhash/v2"

// Checksum computes the xxHash64 of the raw records of a chunk.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Verify reports whether data matches a previously computed checksum.
func Verify(data []byte, sum uint64) bool {
	return xxhash.Sum64(data) == sum
}
