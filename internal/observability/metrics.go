package observability

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig holds configuration for resolution metrics
type MetricsConfig struct {
	// Logger for structured logging
	Logger *slog.Logger

	// Namespace for metrics (e.g. "content")
	Namespace string

	// Buckets for the resolution latency histogram
	Buckets []float64
}

// DefaultMetricsConfig returns a default metrics configuration
func DefaultMetricsConfig(namespace string) *MetricsConfig {
	return &MetricsConfig{
		Namespace: namespace,
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}
}

// Metrics holds the Prometheus collectors for the resolution pipeline
type Metrics struct {
	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec
	pathLookupsTotal   *prometheus.CounterVec
	peeledSegments     prometheus.Histogram
	notFoundTotal      prometheus.Counter
	redirectsTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers the resolution metrics
func NewMetrics(config *MetricsConfig) *Metrics {
	if config == nil {
		config = DefaultMetricsConfig("content")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing prometheus metrics", "namespace", config.Namespace)

	return &Metrics{
		resolutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "resolver",
				Name:      "resolutions_total",
				Help:      "Total resolved requests by terminal classification",
			},
			[]string{"classification"},
		),
		resolutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: "resolver",
				Name:      "resolution_duration_seconds",
				Help:      "Resolution and dispatch latency in seconds",
				Buckets:   config.Buckets,
			},
			[]string{"classification"},
		),
		pathLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "resolver",
				Name:      "path_lookups_total",
				Help:      "Page path lookups by result",
			},
			[]string{"result"},
		),
		peeledSegments: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: "resolver",
				Name:      "peeled_segments",
				Help:      "Trailing URL segments discovered per resolved request",
				Buckets:   []float64{0, 1, 2, 3, 4, 5},
			},
		),
		notFoundTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "resolver",
				Name:      "not_found_total",
				Help:      "Requests that terminated in the not-found branch",
			},
		),
		redirectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: "resolver",
				Name:      "redirects_total",
				Help:      "Redirects issued, by permanence",
			},
			[]string{"permanent"},
		),
	}
}

// ObserveResolution records the outcome of one dispatched request
func (m *Metrics) ObserveResolution(classification string, segments int, duration time.Duration) {
	m.resolutionsTotal.WithLabelValues(classification).Inc()
	m.resolutionDuration.WithLabelValues(classification).Observe(duration.Seconds())
	m.peeledSegments.Observe(float64(segments))
}

// ObservePathLookup records one page path lookup ("hit" or "miss")
func (m *Metrics) ObservePathLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.pathLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveNotFound records a not-found termination
func (m *Metrics) ObserveNotFound() {
	m.notFoundTotal.Inc()
}

// ObserveRedirect records an issued redirect
func (m *Metrics) ObserveRedirect(permanent bool) {
	label := "false"
	if permanent {
		label = "true"
	}
	m.redirectsTotal.WithLabelValues(label).Inc()
}

// MetricsHandler returns the Prometheus scrape handler
// Endpoint: GET /metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
