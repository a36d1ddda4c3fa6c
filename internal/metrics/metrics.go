package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of one wirekit instance.
type Metrics struct {
	operations *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	extensions prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg keeps
// them unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wirekit",
				Subsystem: "codec",
				Name:      "operations_total",
				Help:      "Encode and decode calls by result.",
			},
			[]string{"op", "type", "result"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wirekit",
				Subsystem: "codec",
				Name:      "bytes_total",
				Help:      "Bytes produced by encode and consumed by decode.",
			},
			[]string{"op", "type"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wirekit",
				Subsystem: "codec",
				Name:      "duration_seconds",
				Help:      "Encode and decode duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"op", "type"},
		),
		extensions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wirekit",
				Subsystem: "registry",
				Name:      "extensions",
				Help:      "Registered extensions.",
			},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.operations, m.bytes, m.duration, m.extensions} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Observe records one encode or decode of typeName that moved n bytes.
func (m *Metrics) Observe(op, typeName string, n int, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, typeName, result).Inc()
	if err == nil {
		m.bytes.WithLabelValues(op, typeName).Add(float64(n))
	}
	m.duration.WithLabelValues(op, typeName).Observe(time.Since(start).Seconds())
}

// SetExtensions records the size of the extension registry.
func (m *Metrics) SetExtensions(n int) {
	m.extensions.Set(float64(n))
}
