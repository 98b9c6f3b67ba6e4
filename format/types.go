package format

import "fmt"

type CompressionType uint16

// Chunk payload codecs. The value is persisted in the coder field of the laz codec VLR.
const (
	CompressionNone CompressionType = 0x1 // CompressionNone stores raw records inside the chunk framing.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 block compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Version is a LAS specification version such as 1.2 or 1.4.
type Version struct {
	Major uint8
	Minor uint8
}

var (
	Version10 = Version{Major: 1, Minor: 0}
	Version11 = Version{Major: 1, Minor: 1}
	Version12 = Version{Major: 1, Minor: 2}
	Version13 = Version{Major: 1, Minor: 3}
	Version14 = Version{Major: 1, Minor: 4}
)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}

	return v.Minor < other.Minor
}

// IsSupported reports whether the version is one of 1.0 through 1.4.
func (v Version) IsSupported() bool {
	return v.Major == 1 && v.Minor <= 4
}

// SupportsPointFormat reports whether point format id may be stored in a file of this version.
func (v Version) SupportsPointFormat(id uint8) bool {
	if !v.IsSupported() {
		return false
	}

	switch v.Minor {
	case 0, 1:
		return id <= 1
	case 2:
		return id <= 3
	case 3:
		return id <= 5
	default:
		return id <= 10
	}
}

// SupportsEVLRs reports whether extended VLRs may follow the point data.
func (v Version) SupportsEVLRs() bool {
	return !v.Less(Version14)
}

// MinimumVersion returns the oldest version able to store point format id.
func MinimumVersion(id uint8) Version {
	switch {
	case id <= 1:
		return Version10
	case id <= 3:
		return Version12
	case id <= 5:
		return Version13
	default:
		return Version14
	}
}
