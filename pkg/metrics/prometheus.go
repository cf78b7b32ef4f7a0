// Package metrics provides Prometheus metrics for the tally reconciliation
// and ranking service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tally service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Reconciliation Metrics - one reconciliation pass per feed event
	submissionsProcessed prometheus.Counter
	submissionsMatched   prometheus.Counter
	matchFailures        prometheus.Counter
	ambiguousMatches     *prometheus.CounterVec
	malformedRatings     prometheus.Counter
	narrativeFallbacks   prometheus.Counter
	recomputeDuration    prometheus.Histogram
	recomputePasses      prometheus.Counter
	snapshotsSuppressed  prometheus.Counter

	// Feed Metrics - upstream snapshot delivery
	feedUpdates   *prometheus.CounterVec
	feedErrors    *prometheus.CounterVec
	feedDocuments *prometheus.GaugeVec

	// Result Metrics - current pass state
	entitiesRanked    prometheus.Gauge
	entitiesScoreless prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tally",
		subsystem:        "reconcile",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.submissionsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_processed_total",
		Help:      "Total number of raw submissions seen across reconciliation passes",
	})
	m.submissionsMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_matched_total",
		Help:      "Total number of submissions resolved to a canonical entity",
	})
	m.matchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_failures_total",
		Help:      "Total number of submissions dropped because no resolver strategy matched",
	})
	m.ambiguousMatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ambiguous_matches_total",
		Help:      "Total number of submissions where multiple candidates satisfied the same resolver tier",
	}, []string{"tier"})
	m.malformedRatings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_ratings_total",
		Help:      "Total number of rating payloads defaulted due to missing or non-numeric values",
	})
	m.narrativeFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "narrative_fallbacks_total",
		Help:      "Total number of submissions scored from narrative text instead of structured ratings",
	})
	m.recomputeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_duration_milliseconds",
		Help:      "Duration of one full reconciliation pass in milliseconds",
		Buckets:   m.histogramBuckets,
	})
	m.recomputePasses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_passes_total",
		Help:      "Total number of full reconciliation passes",
	})
	m.snapshotsSuppressed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_suppressed_total",
		Help:      "Total number of redelivered identical snapshots that did not trigger a pass",
	})

	m.feedUpdates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feed_updates_total",
		Help:      "Total number of snapshot updates received per feed",
	}, []string{"feed"})
	m.feedErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feed_errors_total",
		Help:      "Total number of feed subscription failures per feed",
	}, []string{"feed"})
	m.feedDocuments = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feed_documents",
		Help:      "Document count in the latest snapshot per feed",
	}, []string{"feed"})

	m.entitiesRanked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entities_ranked",
		Help:      "Number of entities with a defined combined score in the current pass",
	})
	m.entitiesScoreless = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "entities_scoreless",
		Help:      "Number of roster entities excluded from ranking in the current pass",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total errors by component and error type",
	}, []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordSubmissionProcessed increments the submissions processed counter.
func RecordSubmissionProcessed() {
	globalManager.submissionsProcessed.Inc()
}

// RecordSubmissionMatched increments the matched submissions counter.
func RecordSubmissionMatched() {
	globalManager.submissionsMatched.Inc()
}

// RecordMatchFailure increments the dropped submissions counter.
func RecordMatchFailure() {
	globalManager.matchFailures.Inc()
}

// RecordAmbiguousMatch increments the same-tier ambiguity counter.
func RecordAmbiguousMatch(tier string) {
	globalManager.ambiguousMatches.WithLabelValues(tier).Inc()
}

// RecordMalformedRating increments the defaulted ratings counter.
func RecordMalformedRating() {
	globalManager.malformedRatings.Inc()
}

// RecordNarrativeFallback increments the narrative fallback counter.
func RecordNarrativeFallback() {
	globalManager.narrativeFallbacks.Inc()
}

// RecordRecompute records one completed reconciliation pass.
func RecordRecompute(durationMs float64) {
	globalManager.recomputePasses.Inc()
	globalManager.recomputeDuration.Observe(durationMs)
}

// RecordSnapshotSuppressed increments the suppressed-redelivery counter.
func RecordSnapshotSuppressed() {
	globalManager.snapshotsSuppressed.Inc()
}

// RecordFeedUpdate increments the per-feed snapshot counter.
func RecordFeedUpdate(feed string) {
	globalManager.feedUpdates.WithLabelValues(feed).Inc()
}

// RecordFeedError increments the per-feed failure counter.
func RecordFeedError(feed string) {
	globalManager.feedErrors.WithLabelValues(feed).Inc()
}

// UpdateFeedDocuments sets the latest snapshot document count for a feed.
func UpdateFeedDocuments(feed string, count int) {
	globalManager.feedDocuments.WithLabelValues(feed).Set(float64(count))
}

// UpdateEntitiesRanked sets the current ranked entity count.
func UpdateEntitiesRanked(count int) {
	globalManager.entitiesRanked.Set(float64(count))
}

// UpdateEntitiesScoreless sets the current scoreless entity count.
func UpdateEntitiesScoreless(count int) {
	globalManager.entitiesScoreless.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a specific component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry for the /metrics
// endpoint handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
