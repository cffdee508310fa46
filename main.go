package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/librashuai/tacentview/internal/codec"
	"github.com/librashuai/tacentview/internal/config"
	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/handlers"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/memory"
	"github.com/librashuai/tacentview/internal/metrics"
	"github.com/librashuai/tacentview/internal/middleware"
	"github.com/librashuai/tacentview/internal/startup"
	"github.com/librashuai/tacentview/internal/thumbnail"
	"github.com/librashuai/tacentview/internal/viewer"
	"github.com/librashuai/tacentview/internal/watcher"
)

func main() {
	startTime := time.Now()

	configPath := flag.String("config", "", "path to config.toml (default ./config.toml when present)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	if err := startup.Prepare(cfg); err != nil {
		startup.LogFatal("Startup error: %v", err)
	}

	// Metrics first so every later step can record into them
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"images": cfg.Library.Path,
		"cache":  cfg.Cache.Dir,
	}))

	// libvips covers the formats the pure Go decoders cannot read
	startup.LogDecoderInit(codec.InitVips())

	// Thumbnail pipeline
	cache, err := thumbnail.NewCache(cfg.Cache.Dir)
	if err != nil {
		startup.LogFatal("Failed to initialize thumbnail cache: %v", err)
	}
	sched := thumbnail.NewScheduler(cfg.ThumbnailWorkers)
	evictor := memory.NewEvictor(cfg.Memory.MaxImageMemBytes())

	// Initial library scan
	startup.LogCatalogScan(cfg.Library.Path)
	scanStart := time.Now()
	catalog := viewer.NewCatalog()
	if err := catalog.SortBy(cfg.Library.SortKey, cfg.Library.SortDescending); err != nil {
		startup.LogFatal("Invalid sort key: %v", err)
	}
	if err := catalog.Populate(cfg.Library.Path); err != nil {
		startup.LogFatal("Initial library scan failed: %v", err)
	}
	startup.LogCatalogReady(catalog.Len(), time.Since(scanStart))

	// Handlers
	h := handlers.New(catalog, cache, sched, evictor, cfg)
	h.SetReady()

	// State gauges
	collector := metrics.NewCollector(&daemonStats{catalog: catalog, cache: cache}, cfg.MetricsIntervalDuration())
	collector.Start()

	// Library watch
	var watch *watcher.Watcher
	if cfg.Library.DisableWatch {
		logging.Info("Library watching disabled by configuration")
	} else {
		watch = watcher.New(catalog, cfg.Library.Path)
		if err := watch.Start(); err != nil {
			logging.Warn("Library watching unavailable: %v", err)
			watch = nil
		}
	}

	// Setup router
	router := setupRouter(h)
	startup.LogHTTPRoutes(router)

	handler := middleware.Chain(router,
		middleware.Compression(middleware.DefaultCompressionConfig()),
		middleware.Logger(middleware.DefaultLoggingConfig()),
		middleware.Metrics(middleware.DefaultMetricsConfig()),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, cfg, h, collector, watch, cache)

	// Start server
	startup.LogServerStarted(cfg.Server.Addr(), time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// daemonStats adapts the catalog and cache into the snapshot the metrics
// collector polls.
type daemonStats struct {
	catalog *viewer.Catalog
	cache   *thumbnail.Cache
}

func (s *daemonStats) GetStats() metrics.Stats {
	cs := s.catalog.Stats()
	files, size, err := s.cache.Stats()
	if err != nil {
		logging.Debug("Cache stats unavailable: %v", err)
	}
	return metrics.Stats{
		RecordsByType:   cs.ByType,
		LoadedRecords:   cs.Loaded,
		ResidentBytes:   cs.ResidentBytes,
		ThumbnailsReady: cs.ThumbnailsReady,
		CacheFiles:      files,
		CacheBytes:      size,
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and metrics routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")

	// API routes. File paths travel in the path query parameter, never
	// in URL segments, which keeps metric label cardinality bounded.
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog", h.ListCatalog).Methods("GET")
	api.HandleFunc("/catalog/sort", h.SortCatalog).Methods("POST")
	api.HandleFunc("/catalog/rescan", h.RescanCatalog).Methods("POST")
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/image", h.GetImage).Methods("GET")
	api.HandleFunc("/view", h.GetView).Methods("GET")
	api.HandleFunc("/view", h.SelectView).Methods("POST")
	api.HandleFunc("/view/next", h.NextView).Methods("POST")
	api.HandleFunc("/view/prev", h.PrevView).Methods("POST")
	api.HandleFunc("/view/animate", h.Animate).Methods("POST")
	api.HandleFunc("/slideshow", h.GetSlideshow).Methods("GET")
	api.HandleFunc("/slideshow", h.UpdateSlideshow).Methods("POST")
	api.HandleFunc("/cache", h.GetCacheStats).Methods("GET")
	api.HandleFunc("/cache/trim", h.TrimCache).Methods("POST")
	api.HandleFunc("/cache", h.ClearCache).Methods("DELETE")

	return r
}

func handleShutdown(srv *http.Server, cfg *config.Config, h *handlers.Handlers,
	collector *metrics.Collector, watch *watcher.Watcher, cache *thumbnail.Cache) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if watch != nil {
		startup.LogShutdownStep("Stopping library watcher")
		watch.Stop()
		startup.LogShutdownStepComplete("Library watcher stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping slideshow")
	h.Close()
	startup.LogShutdownStepComplete("Slideshow stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Trimming thumbnail cache")
	if deleted, err := thumbnail.RemoveOldCacheFiles(cache.Dir(), cfg.Cache.MaxFiles); err != nil {
		logging.Warn("Cache trim error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Thumbnail cache trimmed")
		if deleted > 0 {
			logging.Info("  Deleted %d cache files", deleted)
		}
	}

	codec.ShutdownVips()
	startup.LogShutdownComplete()
}
