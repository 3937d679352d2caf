package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments the HTTP host records into.
type Metrics struct {
	registry           *prometheus.Registry
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	rejectedTotal      prometheus.Counter
}

// NewMetrics creates and registers the host metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rewritelab",
				Name:      "evaluations_total",
				Help:      "Total number of completed evaluations by status",
			},
			[]string{"status"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "rewritelab",
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of evaluations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		rejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rewritelab",
				Name:      "rejected_inputs_total",
				Help:      "Total number of inputs rejected before or during evaluation",
			},
		),
	}

	m.registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.rejectedTotal,
	)

	return m
}

func (m *Metrics) evaluationCompleted(status string, duration time.Duration) {
	m.evaluationsTotal.WithLabelValues(status).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

func (m *Metrics) inputRejected() {
	m.rejectedTotal.Inc()
}

// Handler returns the scrape endpoint for the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
