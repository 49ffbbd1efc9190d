package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics registers the gateway collectors on reg. A nil reg gets a
// private registry so several clients can coexist in tests.
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "funds_gateway_requests_total",
			Help: "Transaction gateway calls by operation and outcome",
		}, []string{"operation", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "funds_gateway_request_duration_seconds",
			Help:    "Transaction gateway call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *metrics) observe(operation string, outcome string) {
	m.requests.WithLabelValues(operation, outcome).Inc()
}

func (m *metrics) timer(operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.duration.WithLabelValues(operation))
}
