//go:build !(cgo && gozstd)

package compress

import (
	"fmt"

	"github.com/arloliu/lasgo/errs"
)

// ExternalZstdAvailable reports whether the cgo libzstd encoder is compiled in.
// Build with cgo and the gozstd tag to enable it.
func ExternalZstdAvailable() bool {
	return false
}

// NewExternalZstdCompressor fails when the cgo libzstd encoder is not compiled in.
func NewExternalZstdCompressor() (Compressor, error) {
	return nil, fmt.Errorf("%w: libzstd encoder needs cgo and the gozstd build tag", errs.ErrBackendUnavailable)
}
