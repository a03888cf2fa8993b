package logshard

import (
	"errors"
	"fmt"
)

// Error kinds reported by Route and Sweep. Match them with errors.Is.
var (
	// ErrInvalidJSON means an input line is not a JSON document.
	ErrInvalidJSON = errors.New("invalid json")
	// ErrInvalidRecord means a JSON document is not an object, or its
	// ServiceName cannot name a service folder.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidTimestamp means StartUTC is not an ISO-8601 timestamp.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrFilesystem wraps any failure to create, append, list or delete.
	ErrFilesystem = errors.New("filesystem error")
	// ErrInvalidFilename means a file in a service folder has no
	// leading YYYY-MM-DD date.
	ErrInvalidFilename = errors.New("invalid log filename")
)

// RecordError is returned by Route when a line is dropped.
type RecordError struct {
	Kind error  // one of the Err* kinds
	Line []byte // the offending input line, without its newline
	Err  error  // underlying cause, may be nil
}

func (e *RecordError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %q", e.Kind, e.Line)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *RecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FileError is reported by a sweep for a file it could not handle. The
// sweep always continues with the next file.
type FileError struct {
	Kind error  // ErrInvalidFilename or ErrFilesystem
	Path string // file or directory being processed
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
