// Package metrics exports engine activity to Prometheus.
package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/causal/internal/engine"
)

// StatsSource is anything that can report engine stats.
type StatsSource interface {
	Stats() engine.Stats
}

// Collector reads engine stats at scrape time.
type Collector struct {
	source StatsSource

	replicas *prometheus.Desc
	events   *prometheus.Desc
	merges   *prometheus.Desc
	failures *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector over source. Metric names are prefixed
// with namespace when it is non-empty.
func NewCollector(source StatsSource, namespace string) *Collector {
	return &Collector{
		source: source,

		replicas: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "replicas"),
			"Number of registered replicas",
			nil, nil,
		),
		events: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "events_total"),
			"Total number of events recorded by ticks",
			nil, nil,
		),
		merges: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "merges_total"),
			"Total number of successful merges",
			nil, nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "failures_total"),
			"Total number of rejected operations by error code",
			[]string{"code"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.replicas
	ch <- c.events
	ch <- c.merges
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(
		c.replicas,
		prometheus.GaugeValue,
		float64(s.Replicas),
	)
	ch <- prometheus.MustNewConstMetric(
		c.events,
		prometheus.CounterValue,
		float64(s.Events),
	)
	ch <- prometheus.MustNewConstMetric(
		c.merges,
		prometheus.CounterValue,
		float64(s.Merges),
	)

	codes := make([]string, 0, len(s.Failures))
	for code := range s.Failures {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		ch <- prometheus.MustNewConstMetric(
			c.failures,
			prometheus.CounterValue,
			float64(s.Failures[engine.ErrorCode(code)]),
			code,
		)
	}
}
