package point

// Names of standard dimensions used by the writer statistics.
const (
	DimX               = "X"
	DimY               = "Y"
	DimZ               = "Z"
	DimReturnNumber    = "return_number"
	DimGPSTime         = "gps_time"
	DimRed             = "red"
	DimNIR             = "nir"
	DimWavepacketIndex = "wavepacket_index"
)

func std(name string, kind DimensionKind, bits uint8) DimensionInfo {
	return DimensionInfo{Name: name, Kind: kind, BitWidth: bits, NumElements: 1, IsStandard: true}
}

var (
	point10Dims = []DimensionInfo{
		std(DimX, SignedInteger, 32),
		std(DimY, SignedInteger, 32),
		std(DimZ, SignedInteger, 32),
		std("intensity", UnsignedInteger, 16),
		std(DimReturnNumber, UnsignedInteger, 3),
		std("number_of_returns", UnsignedInteger, 3),
		std("scan_direction_flag", UnsignedInteger, 1),
		std("edge_of_flight_line", UnsignedInteger, 1),
		std("classification", UnsignedInteger, 5),
		std("synthetic", UnsignedInteger, 1),
		std("key_point", UnsignedInteger, 1),
		std("withheld", UnsignedInteger, 1),
		std("scan_angle_rank", SignedInteger, 8),
		std("user_data", UnsignedInteger, 8),
		std("point_source_id", UnsignedInteger, 16),
	}

	point14Dims = []DimensionInfo{
		std(DimX, SignedInteger, 32),
		std(DimY, SignedInteger, 32),
		std(DimZ, SignedInteger, 32),
		std("intensity", UnsignedInteger, 16),
		std(DimReturnNumber, UnsignedInteger, 4),
		std("number_of_returns", UnsignedInteger, 4),
		std("synthetic", UnsignedInteger, 1),
		std("key_point", UnsignedInteger, 1),
		std("withheld", UnsignedInteger, 1),
		std("overlap", UnsignedInteger, 1),
		std("scanner_channel", UnsignedInteger, 2),
		std("scan_direction_flag", UnsignedInteger, 1),
		std("edge_of_flight_line", UnsignedInteger, 1),
		std("classification", UnsignedInteger, 8),
		std("user_data", UnsignedInteger, 8),
		std("scan_angle", SignedInteger, 16),
		std("point_source_id", UnsignedInteger, 16),
		std(DimGPSTime, Float, 64),
	}

	gpsTimeDims = []DimensionInfo{
		std(DimGPSTime, Float, 64),
	}

	rgbDims = []DimensionInfo{
		std(DimRed, UnsignedInteger, 16),
		std("green", UnsignedInteger, 16),
		std("blue", UnsignedInteger, 16),
	}

	nirDims = []DimensionInfo{
		std(DimNIR, UnsignedInteger, 16),
	}

	wavepacketDims = []DimensionInfo{
		std(DimWavepacketIndex, UnsignedInteger, 8),
		std("wavepacket_offset", UnsignedInteger, 64),
		std("wavepacket_size", UnsignedInteger, 32),
		std("return_point_wave_location", Float, 32),
		std("x_t", Float, 32),
		std("y_t", Float, 32),
		std("z_t", Float, 32),
	}
)

// standardDimensions returns the ordered standard dimensions of a valid format id.
func standardDimensions(id uint8) []DimensionInfo {
	var groups [][]DimensionInfo
	switch id {
	case 0:
		groups = [][]DimensionInfo{point10Dims}
	case 1:
		groups = [][]DimensionInfo{point10Dims, gpsTimeDims}
	case 2:
		groups = [][]DimensionInfo{point10Dims, rgbDims}
	case 3:
		groups = [][]DimensionInfo{point10Dims, gpsTimeDims, rgbDims}
	case 4:
		groups = [][]DimensionInfo{point10Dims, gpsTimeDims, wavepacketDims}
	case 5:
		groups = [][]DimensionInfo{point10Dims, gpsTimeDims, rgbDims, wavepacketDims}
	case 6:
		groups = [][]DimensionInfo{point14Dims}
	case 7:
		groups = [][]DimensionInfo{point14Dims, rgbDims}
	case 8:
		groups = [][]DimensionInfo{point14Dims, rgbDims, nirDims}
	case 9:
		groups = [][]DimensionInfo{point14Dims, wavepacketDims}
	case 10:
		groups = [][]DimensionInfo{point14Dims, rgbDims, nirDims, wavepacketDims}
	}

	var dims []DimensionInfo
	for _, g := range groups {
		dims = append(dims, g...)
	}

	return dims
}

// StandardSize returns the record size of the standard dimensions of format id,
// or 0 for an invalid id.
func StandardSize(id uint8) int {
	bits := 0
	for _, dim := range standardDimensions(id) {
		bits += dim.TotalBits()
	}

	return bits / 8
}
