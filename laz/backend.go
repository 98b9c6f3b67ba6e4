package laz

import (
	"fmt"
	"io"

	"github.com/arloliu/lasgo/compress"
	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/format"
)

// Backend identifies a point stream implementation.
type Backend uint8

const (
	// BackendNone writes raw, uncompressed records.
	BackendNone Backend = iota
	// BackendExternalSerial encodes chunks with the cgo libzstd encoder.
	BackendExternalSerial
	// BackendNativeSerial encodes chunks one at a time in pure Go.
	BackendNativeSerial
	// BackendNativeParallel encodes batches of chunks concurrently in pure Go.
	BackendNativeParallel
)

var backendNames = map[Backend]string{
	BackendNone:           "none",
	BackendExternalSerial: "external-serial",
	BackendNativeSerial:   "native-serial",
	BackendNativeParallel: "native-parallel",
}

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}

	return fmt.Sprintf("Backend(%d)", uint8(b))
}

// ParseBackend returns the backend with the given identifier.
func ParseBackend(name string) (Backend, error) {
	for b, n := range backendNames {
		if n == name {
			return b, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown backend %q", errs.ErrBackendUnavailable, name)
}

// IsCompressing reports whether the backend produces a compressed stream.
func (b Backend) IsCompressing() bool {
	return b != BackendNone
}

// IsAvailable reports whether the backend can be used in this build.
func (b Backend) IsAvailable() bool {
	switch b {
	case BackendNone, BackendNativeSerial, BackendNativeParallel:
		return true
	case BackendExternalSerial:
		return compress.ExternalZstdAvailable()
	default:
		return false
	}
}

// DetectAvailable returns the usable compressing backends, most preferred first.
func DetectAvailable() []Backend {
	available := make([]Backend, 0, 3)
	for _, b := range []Backend{BackendNativeParallel, BackendNativeSerial, BackendExternalSerial} {
		if b.IsAvailable() {
			available = append(available, b)
		}
	}

	return available
}

// Probe checks, without writing anything, that the backend can compress a
// stream configured by vlr.
func (b Backend) Probe(vlr *CodecVLR) error {
	if !b.IsCompressing() {
		return fmt.Errorf("%w: %s does not compress", errs.ErrBackendUnavailable, b)
	}
	if !b.IsAvailable() {
		return fmt.Errorf("%w: %s is not compiled in", errs.ErrBackendUnavailable, b)
	}
	if err := vlr.Validate(); err != nil {
		return err
	}
	if b == BackendExternalSerial && vlr.Coder != format.CompressionZstd {
		return fmt.Errorf("%w: external encoder only produces %s, not %s",
			errs.ErrBackendUnavailable, format.CompressionZstd, vlr.Coder)
	}

	return nil
}

// NewCompressor creates the backend's compressor for the stream starting at start.
//
// Parameters:
//   - w: Destination, the placeholder is written at start immediately
//   - vlr: Codec configuration
//   - start: Offset to point data
//   - workers: Parallelism of BackendNativeParallel, <= 0 uses GOMAXPROCS
//
// Returns:
//   - Compressor: The compressor
//   - error: ErrBackendUnavailable when the backend cannot produce the stream
func (b Backend) NewCompressor(w io.WriteSeeker, vlr *CodecVLR, start FilePosition, workers int) (Compressor, error) {
	var (
		c   Compressor
		err error
	)
	switch b {
	case BackendNativeSerial:
		c, err = NewSerialCompressor(w, vlr, start)
	case BackendNativeParallel:
		c, err = NewParallelCompressor(w, vlr, start, workers)
	case BackendExternalSerial:
		c, err = NewExternalCompressor(w, vlr, start)
	default:
		return nil, fmt.Errorf("%w: %s does not compress", errs.ErrBackendUnavailable, b)
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

// NewExternalCompressor creates a serial compressor backed by the cgo libzstd
// encoder. Only the zstd coder is supported.
func NewExternalCompressor(w io.WriteSeeker, vlr *CodecVLR, start FilePosition) (*SerialCompressor, error) {
	if err := BackendExternalSerial.Probe(vlr); err != nil {
		return nil, err
	}
	codec, err := compress.NewExternalZstdCompressor()
	if err != nil {
		return nil, err
	}

	return newSerialCompressor(w, vlr, start, codec)
}
