/*
Package metrics provides Prometheus instrumentation for the viewer.

All metrics carry the "tacentview_" prefix and are registered with the
default registry via promauto, so exposing them only requires mounting
promhttp.Handler() on the router.

# Metric groups

HTTP:

	tacentview_http_requests_total{method,path,status}
	tacentview_http_request_duration_seconds{method,path}
	tacentview_http_requests_in_flight

Thumbnails:

	tacentview_thumbnail_generations_total{status}
	tacentview_thumbnail_generation_duration_seconds{source}
	tacentview_thumbnail_cache_hits_total
	tacentview_thumbnail_cache_misses_total
	tacentview_thumbnail_cache_write_errors_total
	tacentview_thumbnail_cache_size_bytes
	tacentview_thumbnail_cache_files
	tacentview_thumbnail_workers_running
	tacentview_thumbnails_ready
	tacentview_thumbnail_cache_files_deleted_total

Image loads and memory:

	tacentview_image_loads_total{status}
	tacentview_image_load_duration_seconds
	tacentview_resident_image_bytes
	tacentview_loaded_records
	tacentview_evicted_records_total
	tacentview_eviction_runs_total

Catalog:

	tacentview_catalog_records{type}
	tacentview_catalog_populate_duration_seconds
	tacentview_watcher_events_total{event_type}

Filesystem retries (fed through the Observer in package filesystem):

	tacentview_fs_retry_attempts_total{operation,volume}
	tacentview_fs_retry_success_total{operation,volume}
	tacentview_fs_retry_failures_total{operation,volume}
	tacentview_fs_stale_errors_total{operation,volume}
	tacentview_fs_retry_duration_seconds{operation,volume}

# Collection

Counters and histograms are updated at the point where the event happens.
Gauges that describe current state (resident bytes, loaded records, cache
size) are refreshed periodically by a Collector, which pulls a Stats
snapshot from a StatsProvider:

	collector := metrics.NewCollector(provider, 15*time.Second)
	collector.Start()
	defer collector.Stop()

Call InitializeMetrics once at startup so that common label combinations
exist (with zero values) before the first event, which keeps rate() and
increase() queries well behaved across restarts.
*/
package metrics
