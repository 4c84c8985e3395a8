package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/horario-api/internal/models"
)

// MetricsSnapshot is a lightweight summary for the health endpoint.
type MetricsSnapshot struct {
	PlacementsAccepted uint64    `json:"placements_accepted"`
	PlacementsRejected uint64    `json:"placements_rejected"`
	IndexedPlacements  int64     `json:"indexed_placements"`
	CacheHitRatio      float64   `json:"cache_hit_ratio"`
	RequestsTotal      uint64    `json:"requests_total"`
	Goroutines         int       `json:"goroutines"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer, the cache and the scheduler.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	outcomes        *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
	indexSize       prometheus.Gauge
	indexRebuild    prometheus.Histogram

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
	acceptedCount  uint64
	rejectedCount  uint64
	indexedCount   int64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_placement_outcomes_total",
		Help: "Placement proposals by outcome",
	}, []string{"operation", "status"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_conflicts_total",
		Help: "Conflicts reported to callers by kind",
	}, []string{"kind"})

	indexSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_index_placements",
		Help: "Placements held by the in-memory index",
	})

	indexRebuild := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_index_rebuild_seconds",
		Help:    "Duration of full index rebuilds",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		outcomes, conflicts, indexSize, indexRebuild, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		outcomes:        outcomes,
		conflicts:       conflicts,
		indexSize:       indexSize,
		indexRebuild:    indexRebuild,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordOutcome counts a placement outcome and, for rejections, each conflict kind.
func (m *MetricsService) RecordOutcome(operation string, outcome models.PlacementOutcome) {
	if m == nil || outcome == nil {
		return
	}
	m.outcomes.WithLabelValues(operation, string(outcome.Status())).Inc()
	rejected, ok := outcome.(models.Rejected)
	if !ok {
		atomic.AddUint64(&m.acceptedCount, 1)
		return
	}
	atomic.AddUint64(&m.rejectedCount, 1)
	for _, c := range rejected.Conflicts {
		m.conflicts.WithLabelValues(string(c.Kind)).Inc()
	}
}

// SetIndexSize publishes the number of indexed placements.
func (m *MetricsService) SetIndexSize(n int) {
	if m == nil {
		return
	}
	m.indexSize.Set(float64(n))
	atomic.StoreInt64(&m.indexedCount, int64(n))
}

// ObserveIndexRebuild records a full rebuild.
func (m *MetricsService) ObserveIndexRebuild(duration time.Duration) {
	if m == nil {
		return
	}
	m.indexRebuild.Observe(duration.Seconds())
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return MetricsSnapshot{
		PlacementsAccepted: atomic.LoadUint64(&m.acceptedCount),
		PlacementsRejected: atomic.LoadUint64(&m.rejectedCount),
		IndexedPlacements:  atomic.LoadInt64(&m.indexedCount),
		CacheHitRatio:      ratio,
		RequestsTotal:      atomic.LoadUint64(&m.requestCount),
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
	}
}
