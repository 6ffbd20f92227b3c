package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit-log stream. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Published   prometheus.Counter
	Delivered   prometheus.Counter
	Dropped     prometheus.Counter
	Ticks       prometheus.Counter
	Connections *prometheus.GaugeVec
}

// NewMetrics registers the stream metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "plaza_stream_published_total",
			Help: "Total number of audit logs published to the stream bridge",
		}),
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Name: "plaza_stream_delivered_total",
			Help: "Total number of audit log deliveries to stream subscribers",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "plaza_stream_dropped_total",
			Help: "Total number of audit logs published with no subscriber waiting",
		}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "plaza_stream_ticks_total",
			Help: "Total number of stream iterations that timed out without a record",
		}),
		Connections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plaza_stream_connections",
			Help: "Currently open stream connections",
		}, []string{"transport"}),
	}
}

func (m *Metrics) published(delivered int) {
	if m == nil {
		return
	}
	m.Published.Inc()
	if delivered == 0 {
		m.Dropped.Inc()
		return
	}
	m.Delivered.Add(float64(delivered))
}

func (m *Metrics) tick() {
	if m == nil {
		return
	}
	m.Ticks.Inc()
}

// TrackConnection increments the open-connection gauge for transport and
// returns a func that decrements it.
func (m *Metrics) TrackConnection(transport string) func() {
	if m == nil {
		return func() {}
	}
	g := m.Connections.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}
