// Package metrics provides Prometheus metrics for the PR scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ledger
	awards          *prometheus.CounterVec
	awardRejections *prometheus.CounterVec
	ledgerRecords   prometheus.Gauge

	// Reports and leaderboard
	reportsComputed    prometheus.Counter
	reportCacheHits    prometheus.Counter
	aggregationLatency prometheus.Histogram
	leaderboardLatency prometheus.Histogram
	leaderboardSize    prometheus.Gauge
	contingents        prometheus.Gauge

	// Award event bus
	busPublished      prometheus.Counter
	busPublishFailure prometheus.Counter
	busDelivered      prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prscore",
		subsystem:        "scoring",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.awards = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "awards_total",
		Help:      "Awards appended to the ledger by rule kind",
	}, []string{"kind"})
	m.awardRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "award_rejections_total",
		Help:      "Award requests rejected by validation, by error code",
	}, []string{"code"})
	m.ledgerRecords = m.gauge("ledger_records", "Records in the award ledger")

	m.reportsComputed = m.counter("reports_computed_total", "Score reports aggregated from scratch")
	m.reportCacheHits = m.counter("report_cache_hits_total", "Score reports served from the version-keyed cache")
	m.aggregationLatency = m.histogram("aggregation_latency_milliseconds", "Time to fetch facts and aggregate one report")
	m.leaderboardLatency = m.histogram("leaderboard_latency_milliseconds", "Time to build and rank the leaderboard")
	m.leaderboardSize = m.gauge("leaderboard_size", "Entries in the last computed leaderboard")
	m.contingents = m.gauge("contingents", "Contingents known to the directory")

	m.busPublished = m.counter("bus_published_total", "award.created messages published")
	m.busPublishFailure = m.counter("bus_publish_failures_total", "award.created messages that failed to publish")
	m.busDelivered = m.counter("bus_delivered_total", "award.created messages handled by subscribers")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.rateLimited = m.counter("rate_limited_total", "Requests rejected by the award rate limiter")

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Internal errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordAward counts a ledger append. kind is "tiered" or "free_form".
func RecordAward(kind string) {
	globalManager.awards.WithLabelValues(kind).Inc()
}

// RecordAwardRejection counts a rejected award by its error code.
func RecordAwardRejection(code string) {
	globalManager.awardRejections.WithLabelValues(code).Inc()
}

// UpdateLedgerRecords sets the ledger size.
func UpdateLedgerRecords(n int64) {
	globalManager.ledgerRecords.Set(float64(n))
}

// RecordReportComputed counts a fresh aggregation.
func RecordReportComputed() {
	globalManager.reportsComputed.Inc()
}

// RecordReportCacheHit counts a memoised report.
func RecordReportCacheHit() {
	globalManager.reportCacheHits.Inc()
}

// RecordAggregationLatency records one aggregation in milliseconds.
func RecordAggregationLatency(ms float64) {
	globalManager.aggregationLatency.Observe(ms)
}

// RecordLeaderboardLatency records one leaderboard build in milliseconds.
func RecordLeaderboardLatency(ms float64) {
	globalManager.leaderboardLatency.Observe(ms)
}

// UpdateLeaderboardSize sets the size of the last leaderboard.
func UpdateLeaderboardSize(n int) {
	globalManager.leaderboardSize.Set(float64(n))
}

// UpdateContingents sets the number of known contingents.
func UpdateContingents(n int) {
	globalManager.contingents.Set(float64(n))
}

// RecordBusPublished counts a published award event.
func RecordBusPublished() {
	globalManager.busPublished.Inc()
}

// RecordBusPublishFailure counts a failed publish.
func RecordBusPublishFailure() {
	globalManager.busPublishFailure.Inc()
}

// RecordBusDelivered counts a handled award event.
func RecordBusDelivered() {
	globalManager.busDelivered.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordRateLimited counts a throttled request.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordErrorByComponent records an internal error.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
