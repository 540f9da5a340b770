// Package metrics provides Prometheus metrics for the bulletin analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// Access control
	authDecisions  *prometheus.CounterVec
	routeDecisions *prometheus.CounterVec

	// Analytics reads
	rankingQueryDuration *prometheus.HistogramVec
	rankingQueryErrors   *prometheus.CounterVec

	// View ingestion
	viewsReceived  *prometheus.CounterVec
	viewsDuplicate prometheus.Counter
	viewsApplied   *prometheus.CounterVec
	viewsFailed    prometheus.Counter

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // dedicated registry without Go runtime collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bulletin",
		subsystem:        "analytics",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		}, labels)
	}

	m.httpRequests = counterVec("http_requests_total", "Total HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByComponent = counterVec("errors_by_component_total", "Errors by component", "component", "error_type")

	m.authDecisions = counterVec("authorization_decisions_total", "Authorization gate decisions", "decision")
	m.routeDecisions = counterVec("route_decisions_total", "Router bypass classifications (advisory only)", "decision")

	m.rankingQueryDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "ranking_query_duration_milliseconds",
		Help:    "Top-N ranking query latency by collection",
		Buckets: m.histogramBuckets,
	}, []string{"collection"})
	m.rankingQueryErrors = counterVec("ranking_query_errors_total", "Failed top-N ranking queries by collection", "collection")

	m.viewsReceived = counterVec("views_received_total", "View events accepted for processing by source", "source")
	m.viewsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "views_duplicate_total", Help: "Duplicate view events dropped",
	})
	m.viewsApplied = counterVec("views_applied_total", "View increments written to storage by collection", "collection")
	m.viewsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "views_failed_total", Help: "View increments that failed to persist",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "queue_size", Help: "Current number of queued view events",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "queue_capacity", Help: "Configured view queue capacity",
	})
	m.queueRejected = counterVec("queue_rejected_total", "View events rejected by the queue", "reason")
	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "worker_count", Help: "Number of view workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "worker_processing_latency_milliseconds",
		Help:    "Time to apply one view event",
		Buckets: m.histogramBuckets,
	})
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint counts an error response for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByComponent counts an error raised inside a component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordAuthDecision counts an authorization gate outcome ("allowed" or "denied").
func RecordAuthDecision(decision string) {
	if globalManager.enabled {
		globalManager.authDecisions.WithLabelValues(decision).Inc()
	}
}

// RecordRouteDecision counts a router classification ("bypass" or "check").
func RecordRouteDecision(decision string) {
	if globalManager.enabled {
		globalManager.routeDecisions.WithLabelValues(decision).Inc()
	}
}

// RecordRankingQuery observes a ranking query and counts it as failed when ok is false.
func RecordRankingQuery(collection string, durationMs float64, ok bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.rankingQueryDuration.WithLabelValues(collection).Observe(durationMs)
	if !ok {
		globalManager.rankingQueryErrors.WithLabelValues(collection).Inc()
	}
}

// RecordViewReceived counts a view event accepted from source ("http" or "kafka").
func RecordViewReceived(source string) {
	if globalManager.enabled {
		globalManager.viewsReceived.WithLabelValues(source).Inc()
	}
}

// RecordViewDuplicate counts a dropped duplicate view event.
func RecordViewDuplicate() {
	if globalManager.enabled {
		globalManager.viewsDuplicate.Inc()
	}
}

// RecordViewApplied counts a persisted view increment.
func RecordViewApplied(collection string) {
	if globalManager.enabled {
		globalManager.viewsApplied.WithLabelValues(collection).Inc()
	}
}

// RecordViewFailed counts a view increment that could not be persisted.
func RecordViewFailed() {
	if globalManager.enabled {
		globalManager.viewsFailed.Inc()
	}
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the configured queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueRejected counts an enqueue rejection.
func RecordQueueRejected(reason string) {
	if globalManager.enabled {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerLatency observes the time taken to apply one event.
func RecordWorkerLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
