// Package metrics provides Prometheus metrics for the rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the rating service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine
	ratingUpdates       prometheus.Counter
	ratingUpdateLatency prometheus.Histogram
	winProbabilities    prometheus.Counter
	liveEvaluations     prometheus.Counter
	liveSamples         prometheus.Counter
	liveLatency         prometheus.Histogram
	liveStates          prometheus.Histogram
	liveErrors          prometheus.Counter

	// Match ingestion
	matchesSubmitted prometheus.Counter
	matchesDuplicate prometheus.Counter
	matchesRated     prometheus.Counter
	resultsStored    prometheus.Gauge

	// Live scoreboard
	scoreUpdates     prometheus.Counter
	liveScoreboards  prometheus.Gauge
	repositoryShards prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	errorRateByComponent *prometheus.CounterVec

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

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rallyrate",
		subsystem:        "engine",
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)

	m.ratingUpdates = m.counter("rating_updates_total", "Total number of post-match rating updates")
	m.ratingUpdateLatency = m.histogram("rating_update_latency_milliseconds", "Rating update latency in milliseconds", m.histogramBuckets)
	m.winProbabilities = m.counter("win_probability_total", "Total number of pre-match win probability evaluations")
	m.liveEvaluations = m.counter("live_evaluations_total", "Total number of live win probability evaluations")
	m.liveSamples = m.counter("live_samples_total", "Total number of Monte-Carlo draws across live evaluations")
	m.liveLatency = m.histogram("live_latency_milliseconds", "Live win probability latency in milliseconds", m.histogramBuckets)
	m.liveStates = m.histogram("live_memo_states", "Memoized score states per live evaluation",
		[]float64{0, 10, 25, 50, 100, 150, 250, 500, 1000})
	m.liveErrors = m.counter("live_errors_total", "Total number of live evaluations that did not complete")

	m.matchesSubmitted = m.counter("matches_submitted_total", "Total number of finished matches accepted for rating")
	m.matchesDuplicate = m.counter("matches_duplicate_total", "Total number of duplicate match submissions")
	m.matchesRated = m.counter("matches_rated_total", "Total number of asynchronously rated matches")
	m.resultsStored = m.gauge("results_stored", "Number of match results held in the result store")

	m.scoreUpdates = m.counter("score_updates_total", "Total number of live scoreboard updates")
	m.liveScoreboards = m.gauge("live_scoreboards", "Number of live scoreboards")
	m.repositoryShards = m.gauge("repository_shard_count", "Number of result store shards")

	m.queueSize = m.gauge("queue_size", "Current size of the match queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum match queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of matches enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of matches dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")

	m.workerCount = m.gauge("worker_count", "Number of rating workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently rating a match")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of worker errors")

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRatingUpdate counts a rating update and its latency.
func RecordRatingUpdate(latencyMs float64) {
	globalManager.ratingUpdates.Inc()
	globalManager.ratingUpdateLatency.Observe(latencyMs)
}

// RecordWinProbability counts a pre-match evaluation.
func RecordWinProbability() {
	globalManager.winProbabilities.Inc()
}

// RecordLiveEvaluation records a completed live evaluation.
func RecordLiveEvaluation(samples, states int, latencyMs float64) {
	globalManager.liveEvaluations.Inc()
	globalManager.liveSamples.Add(float64(samples))
	globalManager.liveStates.Observe(float64(states))
	globalManager.liveLatency.Observe(latencyMs)
}

// RecordLiveError counts a live evaluation that was cancelled or failed.
func RecordLiveError() {
	globalManager.liveErrors.Inc()
}

// RecordMatchSubmitted counts an accepted match submission.
func RecordMatchSubmitted() {
	globalManager.matchesSubmitted.Inc()
}

// RecordMatchDuplicate counts a duplicate match submission.
func RecordMatchDuplicate() {
	globalManager.matchesDuplicate.Inc()
}

// RecordMatchRated counts a match rated by a worker.
func RecordMatchRated() {
	globalManager.matchesRated.Inc()
}

// UpdateResultsStored sets the number of stored match results.
func UpdateResultsStored(count int) {
	globalManager.resultsStored.Set(float64(count))
}

// RecordScoreUpdate counts a live scoreboard change.
func RecordScoreUpdate() {
	globalManager.scoreUpdates.Inc()
}

// UpdateLiveScoreboards sets the number of live scoreboards.
func UpdateLiveScoreboards(count int) {
	globalManager.liveScoreboards.Set(float64(count))
}

// UpdateRepositoryShardCount sets the number of result store shards.
func UpdateRepositoryShardCount(count int) {
	globalManager.repositoryShards.Set(float64(count))
}

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the number of workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive adjusts the number of busy workers.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
