// Package metrics provides Prometheus metrics for the followrank service.
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

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// View-model engine
	recomputations   prometheus.Counter
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	recomputeLatency prometheus.Histogram
	pageClamps       prometheus.Counter
	viewEvents       *prometheus.CounterVec

	// Snapshot lifecycle
	snapshotEntities   prometheus.Gauge
	snapshotCategories prometheus.Gauge
	snapshotLastUnix   prometheus.Gauge
	snapshotReloads    *prometheus.CounterVec
	sourceFetchLatency *prometheus.HistogramVec
	contractViolations *prometheus.CounterVec

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsEvicted prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "followrank",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// GaugeRefreshInterval is the refresh interval of the global manager.
func GaugeRefreshInterval() time.Duration {
	if globalManager == nil {
		return defaultRefreshInterval
	}
	return globalManager.refreshInterval
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	fast := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25}

	m.recomputations = m.counter("recomputations_total", "Total number of view-model recomputations")
	m.cacheHits = m.counter("recompute_cache_hits_total", "View-model lookups served from the memoization cache")
	m.cacheMisses = m.counter("recompute_cache_misses_total", "View-model lookups that required a recomputation")
	m.recomputeLatency = m.histogram("recompute_latency_milliseconds", "Latency of one view-model recomputation in milliseconds", fast)
	m.pageClamps = m.counter("page_clamps_total", "Requests whose page was clamped to the valid range")
	m.viewEvents = m.counterVec("view_events_total", "Renderer events by type", "event")

	m.snapshotEntities = m.gauge("snapshot_entities", "Number of entities in the current snapshot")
	m.snapshotCategories = m.gauge("snapshot_categories", "Number of selectable categories in the current snapshot")
	m.snapshotLastUnix = m.gauge("snapshot_last_reload_unix", "Unix time of the last snapshot replacement")
	m.snapshotReloads = m.counterVec("snapshot_reloads_total", "Snapshot reload attempts by result", "result")
	m.sourceFetchLatency = m.histogramVec("source_fetch_latency_milliseconds", "Data source fetch latency in milliseconds", m.histogramBuckets, "source")
	m.contractViolations = m.counterVec("contract_violations_total", "Malformed snapshots rejected by field", "field")

	m.sessionsActive = m.gauge("sessions_active", "Number of live viewer sessions")
	m.sessionsCreated = m.counter("sessions_created_total", "Total number of viewer sessions created")
	m.sessionsEvicted = m.counter("sessions_evicted_total", "Sessions evicted because the registry was full")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations in milliseconds", m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func active() *Manager {
	if globalManager == nil || !globalManager.enabled {
		return nil
	}
	return globalManager
}

// RecordRecomputation counts one recomputation and its latency.
func RecordRecomputation(latencyMs float64) {
	if m := active(); m != nil {
		m.recomputations.Inc()
		m.recomputeLatency.Observe(latencyMs)
	}
}

// RecordCacheHit counts a memoized view-model lookup.
func RecordCacheHit() {
	if m := active(); m != nil {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss counts a view-model lookup that missed the cache.
func RecordCacheMiss() {
	if m := active(); m != nil {
		m.cacheMisses.Inc()
	}
}

// RecordPageClamp counts a request whose page was out of range.
func RecordPageClamp() {
	if m := active(); m != nil {
		m.pageClamps.Inc()
	}
}

// RecordViewEvent counts a renderer event (category_selected, page_requested).
func RecordViewEvent(event string) {
	if m := active(); m != nil {
		m.viewEvents.WithLabelValues(event).Inc()
	}
}

// UpdateSnapshot publishes the size of a newly installed snapshot.
func UpdateSnapshot(entities, categories int, loadedAt time.Time) {
	if m := active(); m != nil {
		m.snapshotEntities.Set(float64(entities))
		m.snapshotCategories.Set(float64(categories))
		m.snapshotLastUnix.Set(float64(loadedAt.Unix()))
	}
}

// RecordReload counts a reload attempt by result.
func RecordReload(result string) {
	if m := active(); m != nil {
		m.snapshotReloads.WithLabelValues(result).Inc()
	}
}

// RecordSourceFetchLatency observes how long a data source fetch took.
func RecordSourceFetchLatency(source string, latencyMs float64) {
	if m := active(); m != nil {
		m.sourceFetchLatency.WithLabelValues(source).Observe(latencyMs)
	}
}

// RecordContractViolation counts a rejected snapshot by offending field.
func RecordContractViolation(field string) {
	if m := active(); m != nil {
		m.contractViolations.WithLabelValues(field).Inc()
	}
}

// UpdateSessionsActive sets the number of live sessions.
func UpdateSessionsActive(count int) {
	if m := active(); m != nil {
		m.sessionsActive.Set(float64(count))
	}
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	if m := active(); m != nil {
		m.sessionsCreated.Inc()
	}
}

// RecordSessionEvicted counts a session evicted by the registry bound.
func RecordSessionEvicted() {
	if m := active(); m != nil {
		m.sessionsEvicted.Inc()
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	if m := active(); m != nil {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if m := active(); m != nil {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint counts an error returned by an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := active(); m != nil {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency observes the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if m := active(); m != nil {
		m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
