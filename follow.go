package logshard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ensure we always implement io.ReadCloser
var _ io.ReadCloser = (*Follower)(nil)

// Follower is an io.ReadCloser over a growing file, in the manner of
// "tail -f". Read blocks at the end of the file until more data is written.
// It reports io.EOF once the file is removed or renamed and its remaining
// data has been read, or when the context is done.
type Follower struct {
	ctx     context.Context
	path    string
	file    *os.File
	offset  int64
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	gone    bool // file was removed or renamed, read what is left
}

// Follow opens path for following from its beginning.
func Follow(ctx context.Context, path string, logger *zap.Logger) (*Follower, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path = filepath.Clean(path)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	// watch the directory, so removal and rename of the file are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		file.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	return &Follower{
		ctx:     ctx,
		path:    path,
		file:    file,
		watcher: watcher,
		logger:  logger,
	}, nil
}

// Read implements io.Reader.
func (f *Follower) Read(p []byte) (int, error) {
	for {
		n, err := f.file.Read(p)
		f.offset += int64(n)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if f.gone {
			return 0, io.EOF
		}

		if fi, err := f.file.Stat(); err == nil && fi.Size() < f.offset {
			f.logger.Info("input file truncated, reading from the start", zap.String("path", f.path))
			if _, err := f.file.Seek(0, io.SeekStart); err != nil {
				return 0, err
			}
			f.offset = 0
			continue
		}

		if err := f.wait(); err != nil {
			return 0, err
		}
	}
}

// wait blocks until the file changes.
func (f *Follower) wait() error {
	for {
		select {
		case <-f.ctx.Done():
			return io.EOF
		case event, ok := <-f.watcher.Events:
			if !ok {
				return io.EOF
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				f.logger.Info("input file went away", zap.String("path", f.path), zap.Stringer("op", event.Op))
				f.gone = true
				return nil
			}
			if event.Has(fsnotify.Write) {
				return nil
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return io.EOF
			}
			f.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close stops watching and closes the file.
func (f *Follower) Close() error {
	return errors.Join(f.watcher.Close(), f.file.Close())
}
