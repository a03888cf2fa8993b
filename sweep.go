package logshard

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SweepResult describes one cleanup sweep.
type SweepResult struct {
	Cutoff   time.Time     // files dated before it were eligible
	Deleted  []string      // paths removed
	Skipped  []string      // expired paths left alone, modified too recently
	Retained int           // daily files still inside the window
	Errors   []error       // *FileError values, one per problem
	Duration time.Duration // wall time the sweep took
}

// sweep removes expired daily files from every service folder, then resets
// the cleanup interval. s.mu must be held by the caller.
func (s *Sharder) sweep() SweepResult {
	start := s.opts.clock.Now()
	res := SweepResult{Cutoff: start.UTC().Add(-s.opts.retention)}
	s.logger.Info("performing cleanup",
		zap.String("root", s.root),
		zap.Time("cutoff", res.Cutoff),
	)

	entries, err := os.ReadDir(s.root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.sweepError(&res, ErrFilesystem, s.root, err)
	}
	for _, entry := range entries {
		// hidden folders such as .snapshot are not service folders
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		if !isDir(dir, entry) {
			continue
		}
		s.sweepService(dir, start, &res)
	}

	end := s.opts.clock.Now()
	res.Duration = end.Sub(start)
	s.lastSweep = end

	s.metrics.Sweeps.Add(1)
	s.metrics.Deleted.Add(int64(len(res.Deleted)))
	s.metrics.SweepErrors.Add(int64(len(res.Errors)))
	s.metrics.LastSweep.Store(end.UnixNano())

	s.logger.Info("cleanup finished",
		zap.Int("deleted", len(res.Deleted)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("retained", res.Retained),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// sweepService handles the daily files of one service folder.
func (s *Sharder) sweepService(dir string, now time.Time, res *SweepResult) {
	files, err := os.ReadDir(dir)
	if err != nil {
		s.sweepError(res, ErrFilesystem, dir, err)
		return
	}

	for _, f := range files {
		name := f.Name()
		// same set of names as the shell glob "*.log"
		if f.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, s.suffix) {
			continue
		}
		path := filepath.Join(dir, name)

		date, err := parseFileDate(name)
		if err != nil {
			s.sweepError(res, ErrInvalidFilename, path, err)
			continue
		}
		if !date.Before(res.Cutoff) {
			res.Retained++
			continue
		}

		if s.opts.modifiedGrace > 0 {
			info, err := f.Info()
			if errors.Is(err, fs.ErrNotExist) {
				continue // removed by someone else
			}
			if err != nil {
				s.sweepError(res, ErrFilesystem, path, err)
				continue
			}
			if now.Sub(info.ModTime()) < s.opts.modifiedGrace {
				res.Skipped = append(res.Skipped, path)
				s.logger.Info("skipping recently modified log file",
					zap.String("path", path),
					zap.Time("modified", info.ModTime()),
				)
				continue
			}
		}

		if err := s.osRemove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // removed by someone else
			}
			s.sweepError(res, ErrFilesystem, path, err)
			continue
		}
		res.Deleted = append(res.Deleted, path)
		s.logger.Info("deleted old log file", zap.String("path", path))
	}
}

func (s *Sharder) sweepError(res *SweepResult, kind error, path string, err error) {
	ferr := &FileError{Kind: kind, Path: path, Err: err}
	res.Errors = append(res.Errors, ferr)
	s.logger.Error("error processing file", zap.String("path", path), zap.Error(ferr))
}

// isDir reports whether the entry at path is a directory, following
// symbolic links.
func isDir(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
