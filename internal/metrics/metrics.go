// Package metrics provides Prometheus metrics for the API server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry for all service metrics.
var Registry = prometheus.NewRegistry()

var (
	// RequestsTotal counts handled HTTP requests by route pattern and status.
	RequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "memorybox_http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration observes request latency by route pattern.
	RequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memorybox_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight tracks requests currently being served.
	RequestsInFlight = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "memorybox_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	// BlobDeleteFailures counts best-effort blob deletions that failed and
	// left an orphaned object behind.
	BlobDeleteFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "memorybox_blob_delete_failures_total",
			Help: "Total number of failed best-effort blob deletions.",
		},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler returns an HTTP handler serving the registry in Prometheus format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
