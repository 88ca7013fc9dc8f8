package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the edurate service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rating metrics
	ratingsComputed    prometheus.Counter
	ratingDistribution prometheus.Histogram
	weakCategory       *prometheus.CounterVec
	ratingLatency      prometheus.Histogram

	// Feedback metrics
	feedbackApplied   prometheus.Counter
	feedbackDuplicate prometheus.Counter
	feedbackErrors    prometheus.Counter
	absoluteError     prometheus.Histogram

	// Queue metrics
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected prometheus.Counter

	// Text generation metrics
	fallbacks       *prometheus.CounterVec
	textgenLatency  prometheus.Histogram
	textgenFailures prometheus.Counter

	// Improvement and prediction metrics
	plansGenerated    prometheus.Counter
	predictionLatency prometheus.Histogram

	// Persistence metrics
	blobSaves  *prometheus.CounterVec
	blobLoads  *prometheus.CounterVec
	blobErrors *prometheus.CounterVec

	// Standings metrics
	standingsSize prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

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
		namespace:        "edurate",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
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
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
}

func (m *Manager) initializeMetrics() {
	// ratings live on a 1..100 scale
	ratingBuckets := prometheus.LinearBuckets(10, 10, 10)

	m.ratingsComputed = m.counter("ratings_computed_total", "Total number of ratings computed")
	m.ratingDistribution = m.histogram("rating_overall", "Distribution of overall ratings", ratingBuckets)
	m.weakCategory = m.counterVec("weak_category_total", "Weak category selections by category", "category")
	m.ratingLatency = m.histogram("rating_latency_milliseconds", "Rating computation latency in milliseconds", m.histogramBuckets)

	m.feedbackApplied = m.counter("feedback_applied_total", "Total number of feedback events applied to the weights")
	m.feedbackDuplicate = m.counter("feedback_duplicate_total", "Total number of duplicate feedback events dropped")
	m.feedbackErrors = m.counter("feedback_errors_total", "Total number of feedback events that failed to apply")
	m.absoluteError = m.histogram("feedback_absolute_error", "Absolute error between actual and predicted ratings", ratingBuckets)

	m.queueSize = m.gauge("feedback_queue_size", "Current size of the feedback queue")
	m.queueCapacity = m.gauge("feedback_queue_capacity", "Capacity of the feedback queue")
	m.queueRejected = m.counter("feedback_queue_rejected_total", "Feedback events rejected because the queue was full")

	m.fallbacks = m.counterVec("fallbacks_total", "Deterministic fallbacks taken by component", "component")
	m.textgenLatency = m.histogram("textgen_latency_milliseconds", "Text generation round-trip latency in milliseconds",
		prometheus.ExponentialBuckets(50, 2, 10))
	m.textgenFailures = m.counter("textgen_failures_total", "Text generation calls that failed")

	m.plansGenerated = m.counter("improvement_plans_total", "Improvement plans generated")
	m.predictionLatency = m.histogram("prediction_latency_milliseconds", "Prediction latency in milliseconds", m.histogramBuckets)

	m.blobSaves = m.counterVec("blob_saves_total", "Model blobs saved by name", "blob")
	m.blobLoads = m.counterVec("blob_loads_total", "Model blobs loaded by name", "blob")
	m.blobErrors = m.counterVec("blob_errors_total", "Model blob persistence errors by name and operation", "blob", "op")

	m.standingsSize = m.gauge("standings_size", "Number of students currently in the standings")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Current memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Current number of goroutines")
}

// Rating Metrics Functions.

// RecordRatingComputed records one computed rating.
func RecordRatingComputed(overall float64, weakCategory string, latencyMs float64) {
	globalManager.ratingsComputed.Inc()
	globalManager.ratingDistribution.Observe(overall)
	globalManager.weakCategory.WithLabelValues(weakCategory).Inc()
	globalManager.ratingLatency.Observe(latencyMs)
}

// Feedback Metrics Functions.

// RecordFeedbackApplied records an applied feedback event and its absolute error.
func RecordFeedbackApplied(absError float64) {
	globalManager.feedbackApplied.Inc()
	globalManager.absoluteError.Observe(absError)
}

// RecordFeedbackDuplicate increments the duplicate feedback counter.
func RecordFeedbackDuplicate() {
	globalManager.feedbackDuplicate.Inc()
}

// RecordFeedbackError increments the feedback error counter.
func RecordFeedbackError() {
	globalManager.feedbackErrors.Inc()
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current feedback queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the feedback queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected increments the rejected-enqueue counter.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// Text Generation Metrics Functions.

// RecordFallback records that a component used its deterministic fallback.
func RecordFallback(component string) {
	globalManager.fallbacks.WithLabelValues(component).Inc()
}

// RecordTextgenLatency records a text generation round trip.
func RecordTextgenLatency(latencyMs float64) {
	globalManager.textgenLatency.Observe(latencyMs)
}

// RecordTextgenFailure increments the text generation failure counter.
func RecordTextgenFailure() {
	globalManager.textgenFailures.Inc()
}

// Improvement and Prediction Metrics Functions.

// RecordPlanGenerated increments the improvement plan counter.
func RecordPlanGenerated() {
	globalManager.plansGenerated.Inc()
}

// RecordPredictionLatency records prediction latency.
func RecordPredictionLatency(latencyMs float64) {
	globalManager.predictionLatency.Observe(latencyMs)
}

// Persistence Metrics Functions.

// RecordBlobSave records a saved model blob.
func RecordBlobSave(name string) {
	globalManager.blobSaves.WithLabelValues(name).Inc()
}

// RecordBlobLoad records a loaded model blob.
func RecordBlobLoad(name string) {
	globalManager.blobLoads.WithLabelValues(name).Inc()
}

// RecordBlobError records a failed blob operation.
func RecordBlobError(name, op string) {
	globalManager.blobErrors.WithLabelValues(name, op).Inc()
}

// Standings Metrics Functions.

// UpdateStandingsSize sets the number of students in the standings.
func UpdateStandingsSize(count int) {
	globalManager.standingsSize.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
