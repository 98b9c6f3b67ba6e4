package section

// Public header block sizes per LAS version.
const (
	Signature = "LASF"

	HeaderSize12 = 227 // LAS 1.0 - 1.2
	HeaderSize13 = 235 // LAS 1.3 adds the waveform data offset
	HeaderSize14 = 375 // LAS 1.4 adds EVLRs and 64-bit point counts
)

// Byte offsets of public header fields.
const (
	offsetFileSourceID      = 4
	offsetGlobalEncoding    = 6
	offsetProjectID         = 8
	offsetVersionMajor      = 24
	offsetVersionMinor      = 25
	offsetSystemIdentifier  = 26
	offsetGeneratingSW      = 58
	offsetCreationDay       = 90
	offsetCreationYear      = 92
	offsetHeaderSize        = 94
	offsetPointDataOffset   = 96
	offsetNumberOfVLRs      = 100
	offsetPointFormat       = 104
	offsetRecordLength      = 105
	offsetLegacyPointCount  = 107
	offsetLegacyByReturn    = 111
	offsetScales            = 131
	offsetOffsets           = 155
	offsetBounds            = 179
	offsetWaveformData      = 227
	offsetStartOfFirstEVLR  = 235
	offsetNumberOfEVLRs     = 243
	offsetPointCount        = 247
	offsetPointsByReturn    = 255
	fixedStringFieldSize    = 32
	legacyReturnCount       = 5
	extendedReturnCount     = 15
	compressedFormatBit     = 0x80
	compressedFormatBitOld  = 0x40
	pointFormatIDMask       = 0x3f
	defaultGeneratingSW     = "lasgo"
	defaultScale            = 0.01
	maxLegacyPointFormatID  = 5
)

// Variable length record layout.
const (
	VLRHeaderSize  = 54 // reserved(2) user id(16) record id(2) length(2) description(32)
	EVLRHeaderSize = 60 // reserved(2) user id(16) record id(2) length(8) description(32)
	MaxVLRDataSize = 1<<16 - 1

	userIDSize      = 16
	descriptionSize = 32
)
