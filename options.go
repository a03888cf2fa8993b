package logshard

import (
	"time"

	"go.uber.org/zap"
)

// Options is supplied as the optional arguments for New.
type Options struct {
	clock           Clock         // used to determine the current time
	logger          *zap.Logger   // receives all diagnostics
	filePattern     string        // strftime pattern of the per-day file name
	defaultService  string        // service folder for records without ServiceName
	retention       time.Duration // max age to retain daily log files
	cleanupInterval time.Duration // min interval between cleanup sweeps
	modifiedGrace   time.Duration // recently written files are never deleted
}

// Option is the functional option type.
type Option func(*Options)

func newDefaultOptions() *Options {
	return &Options{
		clock:           DefaultClock,
		logger:          nil,            // stderr console logger
		filePattern:     "%Y-%m-%d.log", // 2006-01-02.log
		defaultService:  "unknown",
		retention:       30 * 24 * time.Hour, // 30 days
		cleanupInterval: time.Hour,           // 1 hour
		modifiedGrace:   time.Minute,         // 1 minute
	}
}

func parseOptions(setters ...Option) *Options {
	// default Options
	opts := newDefaultOptions()
	for _, setter := range setters {
		setter(opts)
	}
	if opts.logger == nil {
		opts.logger = newStderrLogger()
	}
	return opts
}

// WithClock specifies the clock used by Sharder to determine the current
// time. It defaults to the system clock with time.Now.
func WithClock(clock Clock) Option {
	return func(opts *Options) {
		opts.clock = clock
	}
}

// WithLogger sets the logger receiving routing and sweep diagnostics.
//
// Default: console encoded logger on stderr
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithFilePattern sets the strftime pattern used to name the daily file
// inside a service folder. The pattern must start with a %Y-%m-%d date
// followed by a dot, because the cleanup sweep reads the date back from
// the text before the first dot.
//
// Default: "%Y-%m-%d.log"
func WithFilePattern(pattern string) Option {
	return func(opts *Options) {
		opts.filePattern = pattern
	}
}

// WithDefaultService sets the service folder used for records without a
// ServiceName field.
//
// Default: "unknown"
func WithDefaultService(name string) Option {
	return func(opts *Options) {
		opts.defaultService = name
	}
}

// WithRetention sets the max age to retain daily log files based on the
// date encoded in their filename. A file is deleted once its date is
// strictly earlier than now minus d.
//
// Default: 30 days
func WithRetention(d time.Duration) Option {
	return func(opts *Options) {
		opts.retention = d
	}
}

// WithRetentionDays is WithRetention in whole days.
func WithRetentionDays(days int) Option {
	return WithRetention(time.Duration(days) * 24 * time.Hour)
}

// WithCleanupInterval sets the minimum interval between two cleanup sweeps.
// The interval is only evaluated after a line has been processed, so an
// idle input delays the next sweep.
//
// Default: 1 hour
func WithCleanupInterval(d time.Duration) Option {
	return func(opts *Options) {
		opts.cleanupInterval = d
	}
}

// WithModifiedGrace sets how recently an expired file may have been
// modified and still be left alone by a sweep. It protects a late append
// from another writer racing with the delete. If d <= 0, expired files are
// deleted regardless of their modification time.
//
// Default: 1 minute
func WithModifiedGrace(d time.Duration) Option {
	return func(opts *Options) {
		opts.modifiedGrace = d
	}
}
