// Package metrics provides Prometheus metrics for the calendar sync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Sync pipeline
	syncRuns          *prometheus.CounterVec
	syncDuration      prometheus.Histogram
	syncRejected      prometheus.Counter
	eventsExtracted   prometheus.Counter
	eventsDropped     prometheus.Counter
	eventsCreated     prometheus.Counter
	eventsUpdated     prometheus.Counter
	reconcileErrors   prometheus.Counter
	blocksMalformed   prometheus.Counter
	storedEvents      prometheus.Gauge
	lastSuccessUnix   *prometheus.GaugeVec
	metadataRequests  *prometheus.CounterVec
	fetchRequests     *prometheus.CounterVec
	fetchLatency      prometheus.Histogram
	repositoryUpdate  prometheus.Histogram
	repositoryQuery   prometheus.Histogram
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueDequeued     prometheus.Counter
	queueEnqueueError *prometheus.CounterVec
	workerBusy        prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "lumasync",
		subsystem:        "sync",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      map[string]string{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place to declare every collector
	auto := promauto.With(m.registry)

	m.syncRuns = m.counterVec("runs_total", "Sync runs by outcome (success, fetch_failed)", "outcome")
	m.syncDuration = m.histogram("run_duration_milliseconds", "Wall time of a sync run in milliseconds", m.histogramBuckets)
	m.syncRejected = m.counter("runs_rejected_total", "Sync runs rejected because the calendar was already syncing")
	m.eventsExtracted = m.counter("events_extracted_total", "Raw event objects found in structured-data blocks")
	m.eventsDropped = m.counter("events_dropped_total", "Raw event objects dropped because no slug could be resolved")
	m.eventsCreated = m.counter("events_created_total", "Canonical events created")
	m.eventsUpdated = m.counter("events_updated_total", "Canonical events updated")
	m.reconcileErrors = m.counter("reconcile_errors_total", "Events whose reconciliation failed")
	m.blocksMalformed = m.counter("blocks_malformed_total", "Structured-data blocks skipped because they were not valid JSON")
	m.storedEvents = m.gauge("stored_events", "Number of canonical events in the store")
	m.lastSuccessUnix = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "last_success_unix", Help: "Unix time of the last successful run per calendar",
	}, []string{"calendar"})
	m.metadataRequests = m.counterVec("metadata_requests_total", "Single-URL metadata extractions by result code", "code")

	m.fetchRequests = m.counterVec("fetch_requests_total", "Outbound page fetches by status class", "status")
	m.fetchLatency = m.histogram("fetch_latency_milliseconds", "Outbound page fetch latency in milliseconds", m.histogramBuckets)

	m.repositoryUpdate = m.histogram("repository_update_latency_milliseconds", "Store write latency in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
	m.repositoryQuery = m.histogram("repository_query_latency_milliseconds", "Store read latency in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})

	m.queueSize = m.gauge("queue_size", "Sync requests waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the sync request queue")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Sync requests accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Sync requests taken off the queue")
	m.queueEnqueueError = m.counterVec("queue_enqueue_errors_total", "Sync requests rejected by the queue", "reason")
	m.workerBusy = m.gauge("worker_busy", "1 while the sync worker is running a request")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "requests_total", Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "request_duration_milliseconds", Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "errors_by_type_total", Help: "HTTP errors by type and severity",
	}, []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "errors_by_endpoint_total", Help: "HTTP errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "http", ConstLabels: m.constLabels,
		Name: "error_latency_milliseconds", Help: "Latency of failed requests in milliseconds", Buckets: m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: m.constLabels,
		Name: "memory_bytes", Help: "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: m.constLabels,
		Name: "goroutines", Help: "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: "system", ConstLabels: m.constLabels,
		Name: "gc_pause_milliseconds", Help: "Average GC pause in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	})
}

// RecordSyncRun counts a finished run by outcome.
func RecordSyncRun(outcome string) { globalManager.syncRuns.WithLabelValues(outcome).Inc() }

// RecordSyncDuration records the wall time of a run.
func RecordSyncDuration(ms float64) { globalManager.syncDuration.Observe(ms) }

// RecordSyncRejected counts runs refused because one was already in flight.
func RecordSyncRejected() { globalManager.syncRejected.Inc() }

// RecordEventsExtracted adds n raw objects found on a page.
func RecordEventsExtracted(n int) { globalManager.eventsExtracted.Add(float64(n)) }

// RecordEventsDropped adds n unresolvable objects.
func RecordEventsDropped(n int) { globalManager.eventsDropped.Add(float64(n)) }

// RecordEventCreated counts one created canonical event.
func RecordEventCreated() { globalManager.eventsCreated.Inc() }

// RecordEventUpdated counts one updated canonical event.
func RecordEventUpdated() { globalManager.eventsUpdated.Inc() }

// RecordReconcileError counts one failed reconciliation.
func RecordReconcileError() { globalManager.reconcileErrors.Inc() }

// RecordBlocksMalformed adds n skipped structured-data blocks.
func RecordBlocksMalformed(n int) { globalManager.blocksMalformed.Add(float64(n)) }

// UpdateStoredEvents sets the stored events gauge.
func UpdateStoredEvents(n int64) { globalManager.storedEvents.Set(float64(n)) }

// MarkCalendarSynced records the time of a successful run for calendar.
func MarkCalendarSynced(calendar string, unix int64) {
	globalManager.lastSuccessUnix.WithLabelValues(calendar).Set(float64(unix))
}

// RecordMetadataRequest counts a metadata extraction by result code.
func RecordMetadataRequest(code string) { globalManager.metadataRequests.WithLabelValues(code).Inc() }

// RecordFetch records an outbound fetch with its status class
// ("2xx", "5xx", "transport", ...) and latency.
func RecordFetch(status string, latencyMs float64) {
	globalManager.fetchRequests.WithLabelValues(status).Inc()
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordRepositoryUpdateLatency records a store write.
func RecordRepositoryUpdateLatency(latencyMs float64) { globalManager.repositoryUpdate.Observe(latencyMs) }

// RecordRepositoryQueryLatency records a store read.
func RecordRepositoryQueryLatency(latencyMs float64) { globalManager.repositoryQuery.Observe(latencyMs) }

// UpdateQueueSize sets the queue length gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an accepted request.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a request handed to the worker.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected request by reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueError.WithLabelValues(reason).Inc()
}

// SetWorkerBusy flips the worker busy gauge.
func SetWorkerBusy(busy bool) {
	if busy {
		globalManager.workerBusy.Set(1)
		return
	}
	globalManager.workerBusy.Set(0)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed request.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap bytes gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry backing the package level functions.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
