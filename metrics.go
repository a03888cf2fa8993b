package logshard

import (
	"errors"
	"sync/atomic"
	"time"
)

// Metrics is a snapshot of the counters of a Sharder.
type Metrics struct {
	Routed        int64     // lines appended to a daily file
	InvalidJSON   int64     // lines dropped as invalid JSON
	InvalidRecord int64     // lines dropped for a bad ServiceName or shape
	InvalidTime   int64     // lines dropped for a bad StartUTC
	WriteErrors   int64     // lines dropped on a filesystem error
	Sweeps        int64     // completed cleanup sweeps
	Deleted       int64     // files deleted by sweeps
	SweepErrors   int64     // per-file sweep errors
	LastSweep     time.Time // end of the last sweep, zero before the first
}

type atomicMetrics struct {
	Routed        atomic.Int64
	InvalidJSON   atomic.Int64
	InvalidRecord atomic.Int64
	InvalidTime   atomic.Int64
	WriteErrors   atomic.Int64
	Sweeps        atomic.Int64
	Deleted       atomic.Int64
	SweepErrors   atomic.Int64
	LastSweep     atomic.Int64 // unix nanoseconds
}

// recordDrop counts a line dropped by Route under its error kind.
func (m *atomicMetrics) recordDrop(err error) {
	switch {
	case errors.Is(err, ErrInvalidJSON):
		m.InvalidJSON.Add(1)
	case errors.Is(err, ErrInvalidRecord):
		m.InvalidRecord.Add(1)
	case errors.Is(err, ErrInvalidTimestamp):
		m.InvalidTime.Add(1)
	default:
		m.WriteErrors.Add(1)
	}
}

func (m *atomicMetrics) toMetrics() Metrics {
	out := Metrics{
		Routed:        m.Routed.Load(),
		InvalidJSON:   m.InvalidJSON.Load(),
		InvalidRecord: m.InvalidRecord.Load(),
		InvalidTime:   m.InvalidTime.Load(),
		WriteErrors:   m.WriteErrors.Load(),
		Sweeps:        m.Sweeps.Load(),
		Deleted:       m.Deleted.Load(),
		SweepErrors:   m.SweepErrors.Load(),
	}
	if ns := m.LastSweep.Load(); ns != 0 {
		out.LastSweep = time.Unix(0, ns)
	}
	return out
}
