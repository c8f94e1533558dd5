// Package metrics provides Prometheus metrics for the perfboard service.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	DefaultNamespace       = "perfboard"
	DefaultSubsystem       = "reports"
	defaultRefreshInterval = 10 * time.Second
	msPerSecond            = 1000
)

// Manager owns every Prometheus instrument of the service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	constLabels     prometheus.Labels
	enabled         bool
	refreshInterval time.Duration
	registry        prometheus.Registerer

	// Upstream backend
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
	pagesFetched     prometheus.Counter

	// Reports
	recordsNormalized  prometheus.Counter
	reportBuilds       *prometheus.CounterVec
	reportBuildLatency *prometheus.HistogramVec
	reportSize         *prometheus.GaugeVec
	buildsSuperseded   prometheus.Counter
	viewsInFlight      prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// Runtime
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var (
	mu            sync.RWMutex //nolint:gochecknoglobals // guards globalManager
	globalManager *Manager     //nolint:gochecknoglobals // intentional global for singleton metrics manager
	// Custom registry to avoid default Go metrics.
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry
)

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       DefaultNamespace,
		subsystem:       DefaultSubsystem,
		latencyBuckets:  []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Configure replaces the global manager. Instruments are registered on the
// package registry, which is reset first so the call may be repeated.
func Configure(opts ...Option) *Manager {
	mu.Lock()
	defer mu.Unlock()
	customRegistry = prometheus.NewRegistry()
	opts = append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)
	globalManager = NewManager(opts...)
	return globalManager
}

// Global returns the active manager.
func Global() *Manager {
	mu.RLock()
	defer mu.RUnlock()
	return globalManager
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every instrument
	auto := promauto.With(m.registry)

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Backend requests by endpoint and status code"),
		[]string{"endpoint", "status_code"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogramOpts("upstream_request_duration_milliseconds", "Backend request latency in milliseconds"),
		[]string{"endpoint"},
	)
	m.upstreamErrors = auto.NewCounterVec(
		m.counterOpts("upstream_errors_total", "Backend failures by endpoint and kind (transport, status, malformed)"),
		[]string{"endpoint", "kind"},
	)
	m.pagesFetched = auto.NewCounter(
		m.counterOpts("pages_fetched_total", "Result pages fetched from the backend"),
	)

	m.recordsNormalized = auto.NewCounter(
		m.counterOpts("records_normalized_total", "Backend rows mapped to the canonical record shape"),
	)
	m.reportBuilds = auto.NewCounterVec(
		m.counterOpts("report_builds_total", "Report builds by scope and outcome"),
		[]string{"scope", "outcome"},
	)
	m.reportBuildLatency = auto.NewHistogramVec(
		m.histogramOpts("report_build_duration_milliseconds", "Time to fetch, normalize and rank a report"),
		[]string{"scope"},
	)
	m.reportSize = auto.NewGaugeVec(
		m.gaugeOpts("report_records", "Record count of the last report built per scope"),
		[]string{"scope"},
	)
	m.buildsSuperseded = auto.NewCounter(
		m.counterOpts("report_builds_superseded_total", "Report builds discarded because a newer build for the same view started"),
	)
	m.viewsInFlight = auto.NewGauge(
		m.gaugeOpts("views_in_flight", "Views with a report build in progress"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_bytes", "Heap memory in use"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutines", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds"),
	)
}

// RecordUpstreamRequest records one backend call. status is 0 when no response
// was received.
func (m *Manager) RecordUpstreamRequest(endpoint string, status int, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.upstreamRequests.WithLabelValues(endpoint, code).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(ms(elapsed))
}

// RecordUpstreamError counts a failed backend call by kind.
func (m *Manager) RecordUpstreamError(endpoint, kind string) {
	if !m.enabled {
		return
	}
	m.upstreamErrors.WithLabelValues(endpoint, kind).Inc()
}

// RecordPageFetched counts one fetched result page.
func (m *Manager) RecordPageFetched() {
	if !m.enabled {
		return
	}
	m.pagesFetched.Inc()
}

// RecordRecordsNormalized adds n normalized rows.
func (m *Manager) RecordRecordsNormalized(n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.recordsNormalized.Add(float64(n))
}

// RecordReportBuild records one finished report build.
func (m *Manager) RecordReportBuild(scope, outcome string, records int, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	m.reportBuilds.WithLabelValues(scope, outcome).Inc()
	m.reportBuildLatency.WithLabelValues(scope).Observe(ms(elapsed))
	if outcome == OutcomeOK {
		m.reportSize.WithLabelValues(scope).Set(float64(records))
	}
}

// RecordBuildSuperseded counts a discarded stale build.
func (m *Manager) RecordBuildSuperseded() {
	if !m.enabled {
		return
	}
	m.buildsSuperseded.Inc()
}

// UpdateViewsInFlight sets the number of views with a running build.
func (m *Manager) UpdateViewsInFlight(n int) {
	if !m.enabled {
		return
	}
	m.viewsInFlight.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request and its duration in milliseconds.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystem sets the runtime gauges.
func (m *Manager) UpdateSystem(heapBytes uint64, goroutines int, lastGCPause time.Duration) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(heapBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if lastGCPause > 0 {
		m.systemGCPauseTime.Observe(ms(lastGCPause))
	}
}

// Report build outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Package-level shortcuts to the global manager.

// RecordUpstreamRequest records one backend call on the global manager.
func RecordUpstreamRequest(endpoint string, status int, elapsed time.Duration) {
	Global().RecordUpstreamRequest(endpoint, status, elapsed)
}

// RecordUpstreamError counts a failed backend call on the global manager.
func RecordUpstreamError(endpoint, kind string) {
	Global().RecordUpstreamError(endpoint, kind)
}

// RecordPageFetched counts a fetched page on the global manager.
func RecordPageFetched() {
	Global().RecordPageFetched()
}

// RecordRecordsNormalized adds normalized rows on the global manager.
func RecordRecordsNormalized(n int) {
	Global().RecordRecordsNormalized(n)
}

// RecordReportBuild records a finished build on the global manager.
func RecordReportBuild(scope, outcome string, records int, elapsed time.Duration) {
	Global().RecordReportBuild(scope, outcome, records, elapsed)
}

// RecordBuildSuperseded counts a stale build on the global manager.
func RecordBuildSuperseded() {
	Global().RecordBuildSuperseded()
}

// UpdateViewsInFlight sets the in-flight view gauge on the global manager.
func UpdateViewsInFlight(n int) {
	Global().UpdateViewsInFlight(n)
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	Global().RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByType records an error on the global manager.
func RecordErrorByType(errorType, severity string) {
	Global().RecordErrorByType(errorType, severity)
}

// RecordErrorByEndpoint records an endpoint error on the global manager.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	Global().RecordErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystem sets runtime gauges on the global manager.
func UpdateSystem(heapBytes uint64, goroutines int, lastGCPause time.Duration) {
	Global().UpdateSystem(heapBytes, goroutines, lastGCPause)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return customRegistry
}
