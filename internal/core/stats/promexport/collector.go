// Package promexport exposes a stats registry as a prometheus.Collector, for
// processes that already run a Prometheus registry next to the stats pipe.
package promexport

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zeusync/statpipe/internal/core/stats"
)

// Collector renders every snapshot entry as an untyped metric. It is an
// unchecked collector because entries can be registered at any time.
type Collector struct {
	source    interface{ Snapshot() stats.Snapshot }
	namespace string
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(source interface{ Snapshot() stats.Snapshot }, namespace string) *Collector {
	return &Collector{source: source, namespace: namespace}
}

// Describe sends nothing, which marks the collector unchecked.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	seen := make(map[string]struct{})
	for _, e := range c.source.Snapshot().Entries {
		name := prometheus.BuildFQName(c.namespace, "", MetricName(e.Name))
		// duplicate stat names would make the whole scrape fail
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		desc := prometheus.NewDesc(name, "stat "+strings.ToValidUTF8(e.Name, "?"), nil, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.UntypedValue, e.Value.Float64())
		if err != nil {
			// a bad stat name must not fail the scrape or the process
			continue
		}
		ch <- m
	}
}

// MetricName maps a stat name onto the Prometheus name alphabet. The empty
// name becomes "_".
func MetricName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
