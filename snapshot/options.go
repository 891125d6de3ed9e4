package snapshot

import (
	"github.com/hupe1980/fatfs"
	"github.com/hupe1980/fatfs/internal/resource"
)

type options struct {
	compression Compression
	logger      *fatfs.Logger
	throttle    *resource.Throttle
	concurrency int
	attach      []fatfs.Option
}

// Option configures Save, SaveAll and Restore.
type Option func(*options)

func applyOptions(optFns []Option) options {
	o := options{
		compression: CompressionLZ4,
		logger:      fatfs.NoopLogger(),
		concurrency: 4,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithCompression selects the payload codec. Default: LZ4.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger configures the logger. Pass nil to disable logging.
func WithLogger(l *fatfs.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = fatfs.NoopLogger()
		}
		o.logger = l
	}
}

// WithIOLimit caps snapshot transfer throughput in bytes per second.
// Zero or negative means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.throttle = resource.NewThrottle(bytesPerSec)
	}
}

// WithConcurrency bounds the number of parallel uploads in SaveAll. Default: 4.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithAttachOptions passes options to fatfs.Attach during Restore.
func WithAttachOptions(opts ...fatfs.Option) Option {
	return func(o *options) {
		o.attach = append(o.attach, opts...)
	}
}
