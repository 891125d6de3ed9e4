package fatfs

import (
	"log/slog"
	"time"

	"github.com/hupe1980/fatfs/internal/layout"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	clock            func() time.Time
	entryPercent     int
	clampReads       bool
}

// Option configures New and Attach.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		clock:            time.Now,
		entryPercent:     layout.DefaultEntryPercent,
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithLogger configures the logger. Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &fatfs.BasicMetricsCollector{}
//	fs, _ := fatfs.New(region, fatfs.WithMetricsCollector(metrics))
//	// ... use fs ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithClock sets the source of creation and access timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now == nil {
			now = time.Now
		}
		o.clock = now
	}
}

// WithEntryTablePercent sets the share of the region, after the control
// block, reserved for directory entries. Values are clamped to 1..90.
// Only New honors it; Attach reads the geometry from the image.
func WithEntryTablePercent(p int) Option {
	return func(o *options) {
		o.entryPercent = min(max(p, 1), layout.MaxEntryPercent)
	}
}

// WithClampedReads stops reads at the logical end of a file. By default a
// read runs to the end of the last allocated block and may return bytes
// past the logical size.
func WithClampedReads(clamp bool) Option {
	return func(o *options) {
		o.clampReads = clamp
	}
}
