// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tgc

import "github.com/prometheus/client_golang/prometheus"

// metrics bundles the Prometheus instruments a Collector updates at the
// end of every Run. They're only registered (and therefore only visible
// to a scraper) if the caller supplies a Registerer via WithRegisterer;
// otherwise the Collector still updates them in memory, it just never
// exports them.
type metrics struct {
	items           prometheus.Gauge
	capacity        prometheus.Gauge
	threshold       prometheus.Gauge
	sweeps          prometheus.Counter
	sweepDuration   prometheus.Histogram
	reclaimedPerRun prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tgc",
			Name:      "collector_items",
			Help:      "Number of blocks currently tracked by the pointer table.",
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tgc",
			Name:      "collector_capacity",
			Help:      "Current pointer table slot capacity.",
		}),
		threshold: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tgc",
			Name:      "collector_threshold",
			Help:      "Item count above which the next insert triggers a collection.",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tgc",
			Name:      "collector_sweeps_total",
			Help:      "Total number of mark+sweep cycles run.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tgc",
			Name:      "collector_sweep_duration_seconds",
			Help:      "Wall-clock duration of each mark+sweep cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		reclaimedPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tgc",
			Name:      "collector_reclaimed_blocks",
			Help:      "Number of blocks reclaimed by a single sweep.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *metrics) register(r prometheus.Registerer) {
	if r == nil {
		return
	}
	r.MustRegister(m.items, m.capacity, m.threshold, m.sweeps, m.sweepDuration, m.reclaimedPerRun)
}
