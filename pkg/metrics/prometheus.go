// Package metrics provides Prometheus metrics for the alscreen review loop.
package metrics

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the alscreen service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Review loop metrics
	cyclesCompleted prometheus.Counter
	cycleLatency    prometheus.Histogram
	labelsAppended  *prometheus.CounterVec
	modelFallbacks  *prometheus.CounterVec
	modelErrors     *prometheus.CounterVec
	undoBatches     prometheus.Counter

	// Progress gauges
	labeledTotal   prometheus.Gauge
	relevantFound  prometheus.Gauge
	unlabeledTotal prometheus.Gauge
	currentCycle   prometheus.Gauge

	// Feature extraction metrics
	featureCacheHits      prometheus.Counter
	featureCacheMisses    prometheus.Counter
	featureExtractLatency prometheus.Histogram

	// Persistence metrics
	persistLatency prometheus.Histogram
	persistTotal   prometheus.Counter
	persistErrors  prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "alscreen",
		subsystem:        "review",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.cyclesCompleted = m.counter("cycles_completed_total", "Total number of completed review cycles")
	m.cycleLatency = m.histogram("cycle_latency_milliseconds", "Review cycle latency in milliseconds (train, rank, label)")
	m.labelsAppended = m.counterVec("labels_appended_total", "Label events appended by origin and label", "origin", "label")
	m.modelFallbacks = m.counterVec("model_fallbacks_total", "Cycles that fell back to untrained ordering, by role", "role")
	m.modelErrors = m.counterVec("model_errors_total", "Abandoned cycles by failing role", "role")
	m.undoBatches = m.counter("undo_batches_total", "Total number of label batches removed by undo")

	m.labeledTotal = m.gauge("labeled_records", "Number of records with a label event")
	m.relevantFound = m.gauge("relevant_found", "Number of records labeled relevant")
	m.unlabeledTotal = m.gauge("unlabeled_records", "Number of records still unlabeled")
	m.currentCycle = m.gauge("current_cycle", "Current cycle counter of the active review")

	m.featureCacheHits = m.counter("feature_cache_hits_total", "Feature vectors served from cache")
	m.featureCacheMisses = m.counter("feature_cache_misses_total", "Feature vectors missing from cache")
	m.featureExtractLatency = m.histogram("feature_extraction_latency_milliseconds", "Feature extraction latency in milliseconds")

	m.persistLatency = m.histogram("persist_latency_milliseconds", "Review state write latency in milliseconds")
	m.persistTotal = m.counter("persist_total", "Total number of review state writes")
	m.persistErrors = m.counter("persist_errors_total", "Total number of failed review state writes")

	m.workerCount = m.gauge("worker_count", "Number of scoring workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Scoring chunk latency in milliseconds")
	m.workerErrors = m.counter("worker_errors_total", "Total number of scoring chunk errors")

	m.queueSize = m.gauge("queue_size", "Pending label submissions")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of label submissions enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of label submissions dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected label submissions")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// Review loop recorders.

// RecordCycleCompleted increments the completed cycles counter and records its latency.
func RecordCycleCompleted(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.cyclesCompleted.Inc()
	globalManager.cycleLatency.Observe(latencyMs)
}

// RecordLabelAppended counts an appended label event.
func RecordLabelAppended(origin, label string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.labelsAppended.WithLabelValues(origin, label).Inc()
}

// RecordModelFallback counts a cycle ranked without a trained model.
func RecordModelFallback(role string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.modelFallbacks.WithLabelValues(role).Inc()
}

// RecordModelError counts a cycle abandoned because a role failed.
func RecordModelError(role string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.modelErrors.WithLabelValues(role).Inc()
	globalManager.errorRateByComponent.WithLabelValues("review", role+"_error").Inc()
}

// RecordUndo counts a removed batch.
func RecordUndo() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.undoBatches.Inc()
}

// UpdateProgress sets the progress gauges of the active review.
func UpdateProgress(cycle, labeled, relevant, unlabeled int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.currentCycle.Set(float64(cycle))
	globalManager.labeledTotal.Set(float64(labeled))
	globalManager.relevantFound.Set(float64(relevant))
	globalManager.unlabeledTotal.Set(float64(unlabeled))
}

// Feature recorders.

// RecordFeatureCache records cache hits and misses for one lookup pass.
func RecordFeatureCache(hits, misses int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.featureCacheHits.Add(float64(hits))
	globalManager.featureCacheMisses.Add(float64(misses))
}

// RecordFeatureExtractionLatency records extractor latency in milliseconds.
func RecordFeatureExtractionLatency(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.featureExtractLatency.Observe(latencyMs)
}

// Persistence recorders.

// RecordPersist records a successful state write.
func RecordPersist(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.persistTotal.Inc()
	globalManager.persistLatency.Observe(latencyMs)
}

// RecordPersistError records a failed state write.
func RecordPersistError() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.persistErrors.Inc()
	globalManager.errorRateByComponent.WithLabelValues("repository", "persist_error").Inc()
}

// Worker recorders.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records scoring chunk latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.workerErrors.Inc()
}

// Queue recorders.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.queueEnqueueErrors.Inc()
}

// HTTP recorders.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System recorders.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// Enabled reports whether metrics are being recorded.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RefreshSystemMetrics samples heap and goroutine figures into the system gauges.
func (m *Manager) RefreshSystemMetrics() {
	if !m.enabled.Load() {
		return
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.systemMemoryUsage.Set(float64(mem.Alloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
}

// RunSystemCollector refreshes the system gauges every refresh interval
// until ctx is done.
func (m *Manager) RunSystemCollector(ctx context.Context) {
	m.RefreshSystemMetrics()
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RefreshSystemMetrics()
		}
	}
}

// SetEnabled turns recording through the package helpers on or off.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// RefreshSystemMetrics samples the system gauges of the global manager.
func RefreshSystemMetrics() {
	globalManager.RefreshSystemMetrics()
}

// RunSystemCollector runs the system gauge refresher of the global manager.
func RunSystemCollector(ctx context.Context) {
	globalManager.RunSystemCollector(ctx)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
