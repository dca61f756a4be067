// Package observability holds the Prometheus collectors exported by the
// dashboard server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the dashboard records.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Backend calls, labelled by call (register, login, list_cars) and
	// outcome (success, failure).
	BackendCallsTotal   *prometheus.CounterVec
	BackendCallDuration *prometheus.HistogramVec

	// Views
	ViewsMountedTotal *prometheus.CounterVec
	ViewsActive       prometheus.Gauge
}

// NewMetrics registers all collectors on reg. Pass prometheus.NewRegistry()
// in tests to avoid clashing with the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardash_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardash_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cardash_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),

		BackendCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardash_backend_calls_total",
				Help: "Total number of calls issued to the car backend",
			},
			[]string{"call", "outcome"},
		),

		BackendCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardash_backend_call_duration_seconds",
				Help:    "Duration of car backend calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"call"},
		),

		ViewsMountedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardash_views_mounted_total",
				Help: "Total number of view instances mounted",
			},
			[]string{"kind"},
		),

		ViewsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cardash_views_active",
				Help: "Number of view instances currently mounted",
			},
		),
	}
}

// ObserveBackendCall records one settled backend call. A nil receiver is a no-op.
func (m *Metrics) ObserveBackendCall(call string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.BackendCallsTotal.WithLabelValues(call, outcome).Inc()
	m.BackendCallDuration.WithLabelValues(call).Observe(seconds)
}
