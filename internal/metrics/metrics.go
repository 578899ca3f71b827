// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "credvault"

// Export outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
)

// Metrics contains every instrument the service updates.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	exports      *prometheus.CounterVec
	exportRows   prometheus.Histogram
}

// New registers the instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		httpRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served, by route pattern and status code.",
			}, []string{"method", "route", "status"}),

		httpDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency, by route pattern.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"}),

		exports: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Credential exports attempted, by mode and outcome.",
			}, []string{"mode", "outcome"}),

		exportRows: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_records",
				Help:      "Number of credentials written per successful export.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveExport records the outcome of one export. records is ignored unless
// the export succeeded.
func (m *Metrics) ObserveExport(mode, outcome string, records int) {
	m.exports.WithLabelValues(mode, outcome).Inc()
	if outcome == OutcomeSuccess {
		m.exportRows.Observe(float64(records))
	}
}
