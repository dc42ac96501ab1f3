package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Artifact cache metrics, labeled by cache name ("thumbs", "video")
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	CacheEvictions   *prometheus.CounterVec
	CacheWaits       *prometheus.CounterVec
	CacheSizeBytes   *prometheus.GaugeVec
	ProducerFailures *prometheus.CounterVec

	// Thumbnail metrics
	ThumbnailsTotal   *prometheus.CounterVec
	ThumbnailDuration prometheus.Histogram

	// Transcode metrics
	TranscodeJobs     *prometheus.CounterVec
	TranscodeDuration *prometheus.HistogramVec
	TranscodeActive   prometheus.Gauge

	// Trash metrics
	TrashOps   *prometheus.CounterVec
	TrashItems prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harborview_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_cache_hits_total",
				Help: "Artifact cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_cache_misses_total",
				Help: "Artifact cache misses",
			},
			[]string{"cache"},
		),
		CacheEvictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_cache_evictions_total",
				Help: "Artifact cache entries removed by eviction",
			},
			[]string{"cache"},
		),
		CacheWaits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_cache_singleflight_waits_total",
				Help: "Callers that waited on another in-flight producer",
			},
			[]string{"cache"},
		),
		CacheSizeBytes: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harborview_cache_size_bytes",
				Help: "Artifact cache size after the last eviction pass",
			},
			[]string{"cache"},
		),
		ProducerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_cache_producer_failures_total",
				Help: "Producer invocations that yielded no artifact",
			},
			[]string{"cache"},
		),

		ThumbnailsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_thumbnails_total",
				Help: "Thumbnail generation attempts",
			},
			[]string{"kind", "status"},
		),
		ThumbnailDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "harborview_thumbnail_duration_seconds",
				Help:    "Thumbnail generation duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		TranscodeJobs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_transcode_jobs_total",
				Help: "Transcode jobs by mode and outcome",
			},
			[]string{"mode", "status"},
		),
		TranscodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harborview_transcode_duration_seconds",
				Help:    "Transcode job duration in seconds",
				Buckets: []float64{1, 5, 15, 60, 120, 300, 900, 1800, 3600},
			},
			[]string{"mode"},
		),
		TranscodeActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harborview_transcode_active",
				Help: "Encoder processes currently running",
			},
		),

		TrashOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborview_trash_operations_total",
				Help: "Trash operations by type",
			},
			[]string{"op"},
		),
		TrashItems: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harborview_trash_items",
				Help: "Live entries in the trash manifest",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harborview_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCacheHit records an artifact cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records an artifact cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheWait records a caller that waited on another producer.
func (m *Metrics) RecordCacheWait(cache string) {
	m.CacheWaits.WithLabelValues(cache).Inc()
}

// RecordEviction records removed entries and the resulting cache size.
func (m *Metrics) RecordEviction(cache string, removed int, sizeBytes int64) {
	m.CacheEvictions.WithLabelValues(cache).Add(float64(removed))
	m.CacheSizeBytes.WithLabelValues(cache).Set(float64(sizeBytes))
}

// RecordProducerFailure records a producer run that yielded no artifact.
func (m *Metrics) RecordProducerFailure(cache string) {
	m.ProducerFailures.WithLabelValues(cache).Inc()
}

// RecordThumbnail records a thumbnail generation attempt.
func (m *Metrics) RecordThumbnail(kind, status string, duration time.Duration) {
	m.ThumbnailsTotal.WithLabelValues(kind, status).Inc()
	m.ThumbnailDuration.Observe(duration.Seconds())
}

// RecordTranscode records a finished transcode job.
func (m *Metrics) RecordTranscode(mode, status string, duration time.Duration) {
	m.TranscodeJobs.WithLabelValues(mode, status).Inc()
	m.TranscodeDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// IncTranscodeActive marks an encoder process as started.
func (m *Metrics) IncTranscodeActive() { m.TranscodeActive.Inc() }

// DecTranscodeActive marks an encoder process as finished.
func (m *Metrics) DecTranscodeActive() { m.TranscodeActive.Dec() }

// RecordTrashOp records a trash operation.
func (m *Metrics) RecordTrashOp(op string) {
	m.TrashOps.WithLabelValues(op).Inc()
}

// SetTrashItems sets the live manifest entry count.
func (m *Metrics) SetTrashItems(count int) {
	m.TrashItems.Set(float64(count))
}
