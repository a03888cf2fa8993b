// Package logshard routes newline-delimited JSON log records into
// per-service daily log files and deletes the files once they fall out of
// the retention window.
//
// Each record is appended verbatim to
//
//	{root}/{ServiceName}/{YYYY-MM-DD}.log
//
// where the date comes from the record's StartUTC field, or from the
// current UTC date when the field is missing. After every processed line the
// Sharder checks whether the cleanup interval has elapsed since the last
// sweep and, if so, sweeps the tree inline before the next line is read.
package logshard

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
	"go.uber.org/zap"
)

// Sharder appends log records to per-service daily files and enforces the
// retention window on them. It keeps no file handles open between calls.
// A Sharder is safe for concurrent use, though Run drives it from a single
// goroutine.
type Sharder struct {
	// Read-only fields after *New* method inited.
	opts    *Options
	root    string
	pattern *strftime.Strftime
	suffix  string // daily file name after the date, e.g. ".log"
	logger  *zap.Logger

	mu        sync.Mutex // guards following
	lastSweep time.Time  // end of the last sweep, or creation time

	metrics atomicMetrics

	// mocked out for testing.
	osRemove func(name string) error // os.Remove
}

// New creates a Sharder writing below the root directory. The directory is
// created lazily by the first routed record.
func New(root string, options ...Option) (*Sharder, error) {
	opts := parseOptions(options...)
	pattern, suffix, err := compileFilePattern(opts.filePattern)
	if err != nil {
		return nil, err
	}
	if !validServiceName(opts.defaultService) {
		return nil, fmt.Errorf("invalid default service name %q", opts.defaultService)
	}
	return &Sharder{
		opts:      opts,
		root:      root,
		pattern:   pattern,
		suffix:    suffix,
		logger:    opts.logger,
		lastSweep: opts.clock.Now(),

		osRemove: os.Remove,
	}, nil
}

// Root returns the directory holding the service folders.
func (s *Sharder) Root() string {
	return s.root
}

// Route appends one input line to the daily file of its service. The line
// is stored exactly as given; a newline is added only if it has none.
// Whitespace-only lines are ignored.
//
// A dropped line is logged and reported as a *RecordError whose kind is
// ErrInvalidJSON, ErrInvalidRecord, ErrInvalidTimestamp or ErrFilesystem.
func (s *Sharder) Route(line []byte) error {
	body := bytes.TrimSuffix(line, []byte{'\n'})
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	err := s.route(line, body)
	if err != nil {
		s.metrics.recordDrop(err)
		if errors.Is(err, ErrInvalidJSON) {
			s.logger.Warn("invalid JSON", zap.ByteString("line", body), zap.Error(err))
		} else {
			s.logger.Error("error processing log entry", zap.ByteString("line", body), zap.Error(err))
		}
		return err
	}
	s.metrics.Routed.Add(1)
	return nil
}

func (s *Sharder) route(line, body []byte) error {
	rec, err := parseRecord(body)
	if err != nil {
		return err
	}

	service := rec.service
	if service == "" {
		service = s.opts.defaultService
	}
	day := rec.start
	if day.IsZero() {
		day = s.opts.clock.Now().UTC()
	}

	filename := filepath.Join(s.root, service, genFilename(s.pattern, day))
	if len(body) == len(line) {
		// no trailing newline on the last line of the input
		line = append(body[:len(body):len(body)], '\n')
	}
	if err := appendFile(filename, line); err != nil {
		return &RecordError{Kind: ErrFilesystem, Line: body, Err: err}
	}
	return nil
}

// appendFile appends b to filename with a single write, creating the parent
// directory and the file as necessary.
func appendFile(filename string, b []byte) error {
	// make sure the parent dir is existed, e.g.:
	// ./logs/api/2024-01-15.log must make sure ./logs/api is existed
	dirname := filepath.Dir(filename)
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create service directory: %w", err)
	}
	fh, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open logfile: %w", err)
	}
	_, err = fh.Write(b)
	if err1 := fh.Close(); err == nil {
		err = err1
	}
	if err != nil {
		return fmt.Errorf("failed to append to logfile %s: %w", filename, err)
	}
	return nil
}

// Process routes line and then runs a cleanup sweep if the cleanup
// interval has elapsed. The returned error is the one of Route; sweep
// problems are logged and visible through the SweepResult of Sweep.
func (s *Sharder) Process(line []byte) error {
	err := s.Route(line)
	s.MaybeSweep()
	return err
}

// MaybeSweep runs a sweep if strictly more than the cleanup interval has
// passed since the last one ended (or since New for the first). It reports
// whether a sweep ran.
func (s *Sharder) MaybeSweep() (SweepResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.clock.Now().Sub(s.lastSweep) <= s.opts.cleanupInterval {
		return SweepResult{}, false
	}
	return s.sweep(), true
}

// Sweep deletes every expired daily file below the root right away and
// resets the cleanup interval.
func (s *Sharder) Sweep() SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep()
}

// LastSweep returns when the last sweep ended. Before the first sweep it is
// the time the Sharder was created.
func (s *Sharder) LastSweep() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweep
}

// Run reads newline-delimited records from r and processes them one at a
// time until r is exhausted or ctx is done. Lines are read without a length
// limit. Run returns nil at end of input.
func (s *Sharder) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			_ = s.Process(line) // already logged
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// Metrics returns metrics of this Sharder.
func (s *Sharder) Metrics() Metrics {
	return s.metrics.toMetrics()
}
