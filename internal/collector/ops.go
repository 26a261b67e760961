/*
 * This file is part of swarmd.
 *
 * swarmd is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * swarmd is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with swarmd.  If not, see <http://www.gnu.org/licenses/>.
 */

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// queueLenReporter is satisfied by *private.MySQLSink. Collector depends
// on the narrow method it needs rather than the concrete sink type, so
// a public-tracker build with no private sink can simply pass nil.
type queueLenReporter interface {
	QueueLen() int
}

// OpsCollector is the admin-gated counterpart to SwarmCollector: reap and
// private-sink flush timings plus the current flush queue depth, the
// direct analogue of collectors/admin.go's histogram set. It is meant to
// be registered on a separate, Bearer-token-gated gatherer, never the
// public one.
type OpsCollector struct {
	sink queueLenReporter

	queueLenDesc *prometheus.Desc

	reapDuration  prometheus.Histogram
	flushDuration prometheus.Histogram
}

// NewOpsCollector builds the admin collector. sink may be nil for
// public-tracker builds; QueueLen then always reports zero.
func NewOpsCollector(sink queueLenReporter) *OpsCollector {
	return &OpsCollector{
		sink:         sink,
		queueLenDesc: prometheus.NewDesc("swarmd_private_queue_length", "Number of deltas buffered awaiting the next flush", nil, nil),
		reapDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swarmd_reap_seconds",
			Help:    "Time taken by a single registry reap pass",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swarmd_private_flush_seconds",
			Help:    "Time taken by a single private-mode delta flush",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
}

// ObserveReap records how long a Registry.Reap call took, driven by
// cmd/swarmd's reap ticker.
func (c *OpsCollector) ObserveReap(seconds float64) {
	c.reapDuration.Observe(seconds)
}

// ObserveFlush records how long a MySQLSink.Flush call took, driven by
// cmd/swarmd's private flush ticker.
func (c *OpsCollector) ObserveFlush(seconds float64) {
	c.flushDuration.Observe(seconds)
}

func (c *OpsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueLenDesc
	c.reapDuration.Describe(ch)
	c.flushDuration.Describe(ch)
}

func (c *OpsCollector) Collect(ch chan<- prometheus.Metric) {
	queueLen := 0
	if c.sink != nil {
		queueLen = c.sink.QueueLen()
	}

	ch <- prometheus.MustNewConstMetric(c.queueLenDesc, prometheus.GaugeValue, float64(queueLen))

	c.reapDuration.Collect(ch)
	c.flushDuration.Collect(ch)
}

var _ prometheus.Collector = (*OpsCollector)(nil)
