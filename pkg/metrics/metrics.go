// Package metrics provides Prometheus metrics for the EchoBoard leaderboard
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion
	episodesFetched *prometheus.CounterVec
	episodesDropped *prometheus.CounterVec
	fetchLatency    *prometheus.HistogramVec

	// Dedup ledger
	duplicatesSkipped prometheus.Counter
	ledgerSize        prometheus.Gauge

	// Content cache
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Scoring
	scoringLatency      prometheus.Histogram
	scoringErrors       prometheus.Counter
	scoreRecordsWritten prometheus.Counter

	// Leaderboard
	recomputeDuration  prometheus.Histogram
	leaderboardEntries prometheus.Gauge
	snapshotLastUnix   prometheus.Gauge

	// Poll runs
	pollRuns *prometheus.CounterVec

	// Queue and workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueues           prometheus.Counter
	queueDequeues           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors by component
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors do not pollute the scrape.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with configuration options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "echoboard",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.episodesFetched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "episodes_fetched_total",
		Help: "Episode records fetched per source.",
	}, []string{"source"})
	m.episodesDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "episodes_dropped_total",
		Help: "Fetched records dropped for unresolvable identity, per source.",
	}, []string{"source"})
	m.fetchLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "fetch_latency_ms",
		Help:    "Source fetch latency in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"source"})

	m.duplicatesSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "duplicates_skipped_total",
		Help: "Items skipped because the ledger had already seen them.",
	})
	m.ledgerSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ledger_size",
		Help: "Identities recorded in the dedup ledger.",
	})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cache_hits_total",
		Help: "Content cache hits.",
	})
	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cache_misses_total",
		Help: "Content cache misses that invoked the compute function.",
	})

	m.scoringLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "scoring_latency_ms",
		Help:    "Scoring call latency in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.scoringErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "scoring_errors_total",
		Help: "Scoring calls that failed.",
	})
	m.scoreRecordsWritten = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "score_records_written_total",
		Help: "Score records appended to the score store.",
	})

	m.recomputeDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "recompute_duration_ms",
		Help:    "Leaderboard recomputation duration in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.leaderboardEntries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "entries",
		Help: "Entries in the current leaderboard snapshot.",
	})
	m.snapshotLastUnix = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "snapshot_last_unix",
		Help: "Unix time of the last published snapshot.",
	})

	m.pollRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "poll_runs_total",
		Help: "Poll runs by outcome.",
	}, []string{"outcome"})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Scoring jobs currently queued.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured scoring queue capacity.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_utilization",
		Help: "Queue size over capacity, 0 to 1.",
	})
	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueues_total",
		Help: "Jobs enqueued for scoring.",
	})
	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeues_total",
		Help: "Jobs handed to workers.",
	})
	m.queueEnqueueErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_errors_total",
		Help: "Enqueue attempts rejected by the queue.",
	})
	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Scoring workers in the pool.",
	})
	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_ms",
		Help:    "Per-job worker processing latency in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Jobs that failed in a worker.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_total",
		Help: "Errors by component and type.",
	}, []string{"component", "type"})
}

// Package-level helpers over the global manager.

func RecordEpisodeFetched(source string) {
	if globalManager.enabled {
		globalManager.episodesFetched.WithLabelValues(source).Inc()
	}
}

func RecordEpisodeDropped(source string) {
	if globalManager.enabled {
		globalManager.episodesDropped.WithLabelValues(source).Inc()
	}
}

func RecordFetchLatency(source string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.fetchLatency.WithLabelValues(source).Observe(latencyMs)
	}
}

func RecordDuplicateSkipped() {
	if globalManager.enabled {
		globalManager.duplicatesSkipped.Inc()
	}
}

func UpdateLedgerSize(size int64) {
	if globalManager.enabled {
		globalManager.ledgerSize.Set(float64(size))
	}
}

func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

func RecordCacheMiss() {
	if globalManager.enabled {
		globalManager.cacheMisses.Inc()
	}
}

func RecordScoringLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.scoringLatency.Observe(latencyMs)
	}
}

func RecordScoringError() {
	if globalManager.enabled {
		globalManager.scoringErrors.Inc()
	}
}

func RecordScoreWritten() {
	if globalManager.enabled {
		globalManager.scoreRecordsWritten.Inc()
	}
}

func RecordRecomputeDuration(durationMs float64) {
	if globalManager.enabled {
		globalManager.recomputeDuration.Observe(durationMs)
	}
}

func UpdateLeaderboardEntries(count int) {
	if globalManager.enabled {
		globalManager.leaderboardEntries.Set(float64(count))
	}
}

func UpdateSnapshotTimestamp(t time.Time) {
	if globalManager.enabled {
		globalManager.snapshotLastUnix.Set(float64(t.Unix()))
	}
}

func RecordPollRun(outcome string) {
	if globalManager.enabled {
		globalManager.pollRuns.WithLabelValues(outcome).Inc()
	}
}

func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func UpdateQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.queueUtilization.Set(utilization)
	}
}

func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueues.Inc()
	}
}

func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeues.Inc()
	}
}

func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.Inc()
	}
}

func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method, status string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
	}
}

func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// GetRegistry returns the custom registry served at /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
