package las

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/google/uuid"

	"github.com/arloliu/lasgo/errs"
	"github.com/arloliu/lasgo/format"
	"github.com/arloliu/lasgo/internal/options"
	"github.com/arloliu/lasgo/laz"
)

// config holds the settings shared by Writer and Appender.
type config struct {
	compress  bool
	backends  []laz.Backend
	chunkSize uint32
	coder     format.CompressionType
	workers   int
	logger    log.Logger
	closeSink bool
	projectID uuid.UUID
}

// Option configures a Writer or an Appender.
type Option = options.Option[*config]

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		chunkSize: laz.DefaultChunkSize,
		coder:     format.CompressionZstd,
		logger:    log.NewNopLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// preference returns the backends to try, in order.
//
// Without compression only BackendNone is tried. With compression
// BackendNone is skipped and the detected backends are used when none were
// configured.
func (c *config) preference() []laz.Backend {
	if !c.compress {
		return []laz.Backend{laz.BackendNone}
	}

	candidates := c.backends
	if len(candidates) == 0 {
		candidates = laz.DetectAvailable()
	}

	out := make([]laz.Backend, 0, len(candidates))
	for _, b := range candidates {
		if b.IsCompressing() {
			out = append(out, b)
		}
	}

	return out
}

// WithCompression enables LAZ compression of the point records. Writers
// only; an Appender follows the compression of the existing file.
func WithCompression(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.compress = enabled
	})
}

// WithBackends sets the compression backends to try, most preferred first.
// By default laz.DetectAvailable decides.
func WithBackends(backends ...laz.Backend) Option {
	return options.NoError(func(c *config) {
		c.backends = append([]laz.Backend(nil), backends...)
	})
}

// WithChunkSize sets the number of points per compressed chunk.
func WithChunkSize(points uint32) Option {
	return options.New(func(c *config) error {
		if points == 0 || points == ^uint32(0) {
			return fmt.Errorf("%w: %d", errs.ErrInvalidChunkSize, points)
		}
		c.chunkSize = points

		return nil
	})
}

// WithChunkCodec sets the payload codec of compressed chunks. Default: zstd.
func WithChunkCodec(coder format.CompressionType) Option {
	return options.New(func(c *config) error {
		switch coder {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.coder = coder
			return nil
		default:
			return fmt.Errorf("%w: %d", errs.ErrUnsupportedCompression, uint16(coder))
		}
	})
}

// WithParallelism sets the number of chunks laz.BackendNativeParallel
// encodes at once. Zero or less uses GOMAXPROCS.
func WithParallelism(workers int) Option {
	return options.NoError(func(c *config) {
		c.workers = workers
	})
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *config) {
		if logger == nil {
			logger = log.NewNopLogger()
		}
		c.logger = logger
	})
}

// WithCloseSink closes the sink on Close when it implements io.Closer.
func WithCloseSink(enabled bool) Option {
	return options.NoError(func(c *config) {
		c.closeSink = enabled
	})
}

// WithProjectID sets the project id written into the header. Writers only;
// an appender keeps the id of the file it resumes.
func WithProjectID(id uuid.UUID) Option {
	return options.NoError(func(c *config) {
		c.projectID = id
	})
}
