package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Thumbnail worker outcomes ---
	for _, status := range []string{"generated", "cache_hit", "failed", "discarded"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}
	for _, source := range []string{"cache", "generate"} {
		ThumbnailGenerationDuration.WithLabelValues(source)
	}

	// --- Full image loads ---
	for _, status := range []string{"success", "error"} {
		ImageLoadsTotal.WithLabelValues(status)
	}

	// --- Catalog records by type ---
	for _, t := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "heic", "avif"} {
		CatalogRecords.WithLabelValues(t)
	}

	// --- Watcher events ---
	for _, e := range []string{"created", "modified", "removed"} {
		WatcherEventsTotal.WithLabelValues(e)
	}

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	volumes := []string{"images", "cache", "unknown"}
	retryOps := []string{"stat", "open", "readdir"}

	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
