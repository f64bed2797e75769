// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hde

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors updated by a Network. A nil
// *Metrics is valid and records nothing.
//
type Metrics struct {
	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram
	Nodes        prometheus.Gauge
}

// NewMetrics creates network metrics and registers them with reg. If reg is
// nil, the collectors are created but not registered.
//
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hde",
			Subsystem: "network",
			Name:      "ticks_total",
			Help:      "Number of completed network ticks.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hde",
			Subsystem: "network",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a queue and commit pass over the network.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hde",
			Subsystem: "network",
			Name:      "nodes",
			Help:      "Number of nodes in the network.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Ticks, m.TickDuration, m.Nodes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeTick(d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.TickDuration.Observe(d.Seconds())
}

func (m *Metrics) setNodes(n int) {
	if m == nil {
		return
	}
	m.Nodes.Set(float64(n))
}
