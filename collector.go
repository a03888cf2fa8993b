package logshard

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ensure we always implement prometheus.Collector
var _ prometheus.Collector = (*Collector)(nil)

// Collector exports the counters of a Sharder to Prometheus. Values are
// read from the Sharder at scrape time, so registering it costs nothing on
// the routing path.
type Collector struct {
	s *Sharder

	routed      *prometheus.Desc
	dropped     *prometheus.Desc
	sweeps      *prometheus.Desc
	deleted     *prometheus.Desc
	sweepErrors *prometheus.Desc
	lastSweep   *prometheus.Desc
}

// NewCollector creates a Collector for s. Metric names are prefixed with
// namespace when it is not empty.
func NewCollector(s *Sharder, namespace string) *Collector {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "", n)
	}
	return &Collector{
		s: s,
		routed: prometheus.NewDesc(name("records_routed_total"),
			"Lines appended to a daily log file.", nil, nil),
		dropped: prometheus.NewDesc(name("records_dropped_total"),
			"Lines dropped, by reason.", []string{"reason"}, nil),
		sweeps: prometheus.NewDesc(name("sweeps_total"),
			"Completed cleanup sweeps.", nil, nil),
		deleted: prometheus.NewDesc(name("files_deleted_total"),
			"Expired log files deleted by cleanup sweeps.", nil, nil),
		sweepErrors: prometheus.NewDesc(name("sweep_errors_total"),
			"Files a cleanup sweep could not handle.", nil, nil),
		lastSweep: prometheus.NewDesc(name("last_sweep_timestamp_seconds"),
			"Unix time the last cleanup sweep finished.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.routed
	ch <- c.dropped
	ch <- c.sweeps
	ch <- c.deleted
	ch <- c.sweepErrors
	ch <- c.lastSweep
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.s.Metrics()

	ch <- prometheus.MustNewConstMetric(c.routed, prometheus.CounterValue, float64(m.Routed))
	for _, d := range []struct {
		reason string
		n      int64
	}{
		{"invalid_json", m.InvalidJSON},
		{"invalid_record", m.InvalidRecord},
		{"invalid_timestamp", m.InvalidTime},
		{"filesystem", m.WriteErrors},
	} {
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(d.n), d.reason)
	}
	ch <- prometheus.MustNewConstMetric(c.sweeps, prometheus.CounterValue, float64(m.Sweeps))
	ch <- prometheus.MustNewConstMetric(c.deleted, prometheus.CounterValue, float64(m.Deleted))
	ch <- prometheus.MustNewConstMetric(c.sweepErrors, prometheus.CounterValue, float64(m.SweepErrors))

	var last float64
	if !m.LastSweep.IsZero() {
		last = float64(m.LastSweep.UnixNano()) / 1e9
	}
	ch <- prometheus.MustNewConstMetric(c.lastSweep, prometheus.GaugeValue, last)
}
