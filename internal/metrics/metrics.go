package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tacentview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Thumbnail pipeline metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_thumbnail_generations_total",
			Help: "Total number of thumbnail worker completions by outcome",
		},
		[]string{"status"}, // "generated", "cache_hit", "failed", "discarded"
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tacentview_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail worker duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"}, // "cache" or "generate"
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tacentview_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tacentview_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailCacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tacentview_thumbnail_cache_write_errors_total",
			Help: "Total number of failed thumbnail cache writes",
		},
	)

	ThumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_thumbnail_cache_size_bytes",
			Help: "Total size of the thumbnail cache in bytes",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_thumbnail_cache_count",
			Help: "Number of thumbnail files in the cache",
		},
	)

	ThumbnailWorkersRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_thumbnail_workers_running",
			Help: "Number of thumbnail workers currently running",
		},
	)

	ThumbnailsReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_thumbnails_ready",
			Help: "Number of catalog records with a thumbnail in memory",
		},
	)

	CacheFilesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tacentview_cache_files_deleted_total",
			Help: "Total number of cache files removed by the janitor",
		},
	)
)

// Image load and memory budget metrics
var (
	ImageLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_image_loads_total",
			Help: "Total number of full image loads",
		},
		[]string{"status"}, // "success", "error"
	)

	ImageLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tacentview_image_load_duration_seconds",
			Help:    "Full image load duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ResidentImageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_resident_image_bytes",
			Help: "Total bytes of decoded frame data resident in memory",
		},
	)

	LoadedRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_loaded_records",
			Help: "Number of catalog records with frames in memory",
		},
	)

	EvictedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tacentview_evicted_records_total",
			Help: "Total number of records unloaded by the memory budget evictor",
		},
	)

	EvictionRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tacentview_eviction_runs_total",
			Help: "Total number of memory budget evictor runs",
		},
	)
)

// Catalog metrics
var (
	CatalogRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tacentview_catalog_records",
			Help: "Number of records in the catalog by image type",
		},
		[]string{"type"},
	)

	CatalogPopulateDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tacentview_catalog_populate_duration_seconds",
			Help: "Duration of the last catalog population in seconds",
		},
	)

	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that exhausted their retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacentview_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tacentview_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tacentview_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
