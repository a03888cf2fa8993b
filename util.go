package logshard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Clock is a source of time for logshard.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time
}

// DefaultClock is the default clock used by logshard in operations that
// require time. This clock uses the system clock for all operations.
var DefaultClock = systemClock{}

// systemClock implements default Clock that uses system time.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// newStderrLogger returns the logger used when none is configured: console
// encoded, info level, written to stderr.
func newStderrLogger() *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		zap.InfoLevel,
	)
	return zap.New(core)
}

// dateLayout is the calendar date embedded in every daily file name.
const dateLayout = "2006-01-02"

// referenceDay is formatted through the file pattern to validate it.
var referenceDay = time.Date(2006, time.January, 2, 0, 0, 0, 0, time.UTC)

// compileFilePattern compiles a daily file name pattern and returns it with
// the suffix that follows the date, e.g. ".log" for "%Y-%m-%d.log".
func compileFilePattern(pattern string) (*strftime.Strftime, string, error) {
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, "", fmt.Errorf("invalid strftime pattern: %v", err)
	}
	name := p.FormatString(referenceDay)
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return nil, "", fmt.Errorf("file pattern %q must not contain a path separator", pattern)
	}
	prefix := referenceDay.Format(dateLayout) + "."
	if !strings.HasPrefix(name, prefix) {
		return nil, "", fmt.Errorf("file pattern %q must start with %%Y-%%m-%%d followed by a dot", pattern)
	}
	return p, name[len(dateLayout):], nil
}

// genFilename creates the daily file name for the calendar date of t. The
// date is taken in t's own location.
func genFilename(pattern *strftime.Strftime, t time.Time) string {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return pattern.FormatString(day)
}

// timestampLayouts are the ISO-8601 forms accepted for StartUTC, tried in
// order. A trailing "Z" is matched by the Z07:00 layouts.
var timestampLayouts = []string{
	// extended format
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15Z07:00",
	"2006-01-02T15",
	dateLayout,
	// basic format
	"20060102T150405.999999999Z07:00",
	"20060102T150405.999999999Z0700",
	"20060102T150405.999999999",
	"20060102T1504Z0700",
	"20060102T1504",
	"20060102",
}

// parseTimestamp parses an ISO-8601 timestamp. Values without an offset
// are returned in UTC; values with one keep it, so the calendar date is the
// one written in the timestamp.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

// fileDateLayout also accepts a month and day without the leading zero,
// as in 2020-1-1.log.
const fileDateLayout = "2006-1-2"

// parseFileDate reads the date embedded in a daily file name: the text
// before the first dot, as YYYY-MM-DD at UTC midnight.
func parseFileDate(name string) (time.Time, error) {
	datePart, _, _ := strings.Cut(name, ".")
	t, err := time.ParseInLocation(fileDateLayout, datePart, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("file name %q does not start with a YYYY-MM-DD date", name)
	}
	return t, nil
}

// validServiceName reports whether name can be used as a single directory
// below the log root.
func validServiceName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
