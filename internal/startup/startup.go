package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/gorilla/mux"

	"github.com/librashuai/tacentview/internal/codec"
	"github.com/librashuai/tacentview/internal/config"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const divider = "------------------------------------------------------------"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Prepare prints the startup header, logs the effective configuration,
// and sets up the directories the daemon needs. The library directory
// is created when missing so an empty catalog is still a running
// daemon. The cache directory must exist or be creatable; when it turns
// out read-only, thumbnails are regenerated on every run but the daemon
// keeps going.
//
// Both directory paths in cfg are rewritten to absolute form.
func Prepare(cfg *config.Config) error {
	printBanner()
	logSystemInfo()

	workerCap := cfg.ThumbnailWorkers
	workerNote := ""
	if workerCap <= 0 {
		workerCap = workers.ForThumbnails()
		workerNote = " (auto)"
	}

	logging.Info(divider)
	logging.Info("CONFIGURATION")
	logging.Info(divider)
	logging.Info("  Listen address:     %s", cfg.Server.Addr())
	logging.Info("  Library path:       %s", cfg.Library.Path)
	logging.Info("  Library sort:       %s (descending: %v)", cfg.Library.SortKey, cfg.Library.SortDescending)
	logging.Info("  Library watch:      %s", enabledString(!cfg.Library.DisableWatch))
	logging.Info("  Cache directory:    %s", cfg.Cache.Dir)
	logging.Info("  Cache max files:    %d", cfg.Cache.MaxFiles)
	logging.Info("  Image memory:       %s", units.BytesSize(float64(cfg.Memory.MaxImageMemBytes())))
	logging.Info("  Slideshow period:   %s", cfg.SlideshowPeriod)
	logging.Info("  Metrics interval:   %s", cfg.MetricsInterval)
	logging.Info("  Thumbnail workers:  %d%s", workerCap, workerNote)
	logging.Info("  Log level:          %s", logging.GetLevel())

	logging.Info("")
	logging.Info(divider)
	logging.Info("DIRECTORY SETUP")
	logging.Info(divider)

	libraryDir, err := filepath.Abs(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve library path: %w", err)
	}
	cfg.Library.Path = libraryDir
	logging.Info("  Library directory (absolute): %s", libraryDir)

	cacheDir, err := filepath.Abs(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve cache path: %w", err)
	}
	cfg.Cache.Dir = cacheDir
	logging.Info("  Cache directory (absolute):   %s", cacheDir)

	if err := ensureDirectory(libraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
		logging.Warn("  The catalog will start empty")
	}

	if err := ensureDirectory(cacheDir, "cache"); err != nil {
		return fmt.Errorf("cache directory error: %w", err)
	}

	cachePersistent := true
	logging.Debug("  Testing cache directory write access...")
	if err := testWriteAccess(cacheDir); err != nil {
		logging.Warn("  Cache directory is not writable: %v", err)
		logging.Warn("  Thumbnails will be regenerated on every run")
		cachePersistent = false
	} else {
		logging.Info("  [OK] Cache directory is writable")
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Library watch:     %s", enabledString(!cfg.Library.DisableWatch))
	logging.Info("    Cache persistence: %s", enabledString(cachePersistent))
	logging.Info("    Eviction:          %s", enabledString(cfg.Memory.MaxImageMemBytes() > 0))

	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDecoderInit logs decoder availability after libvips initialization
// has been attempted.
func LogDecoderInit(vipsErr error) {
	logging.Info("")
	logging.Info(divider)
	logging.Info("DECODER SETUP")
	logging.Info(divider)
	logging.Info("  Built-in decoders: jpeg, png, gif, webp, bmp, tiff")

	if codec.IsVipsAvailable() {
		logging.Info("  [OK] libvips decoder ready (heic, avif)")
		return
	}
	if vipsErr != nil {
		logging.Warn("  libvips initialization failed: %v", vipsErr)
	}
	logging.Warn("  heic and avif files will not decode")
}

// LogCatalogScan logs the start of the initial library scan.
func LogCatalogScan(dir string) {
	logging.Info("")
	logging.Info(divider)
	logging.Info("CATALOG SCAN")
	logging.Info(divider)
	logging.Info("  Scanning %s...", dir)
}

// LogCatalogReady logs the initial scan result.
func LogCatalogReady(records int, elapsed time.Duration) {
	logging.Info("  [OK] %d records cataloged in %v", records, elapsed)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route without explicit methods, such as the metrics handler
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info(divider)
	logging.Info("HTTP SERVER SETUP")
	logging.Info(divider)

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP request logging enabled")
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(addr string, startupDuration time.Duration) {
	display := addr
	if strings.HasPrefix(display, "0.0.0.0:") || strings.HasPrefix(display, ":") {
		display = "localhost:" + display[strings.Index(display, ":")+1:]
	}

	logging.Info("")
	logging.Info(divider)
	logging.Info("SERVER STARTED")
	logging.Info(divider)
	logging.Info("  Startup time:    %v", startupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Catalog:       http://%s/api/catalog", display)
	logging.Info("    View:          http://%s/api/view", display)
	logging.Info("    Thumbnails:    http://%s/api/thumbnail?path=...", display)
	logging.Info("    Health:        http://%s/healthz", display)
	logging.Info("    Metrics:       http://%s/metrics", display)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(divider)
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info(divider)
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info(divider)
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
  ______                     __ _    ___
 /_  __/___ _________  ___  / /| |  / (_)__ _      __
  / / / __ '/ ___/ _ \/ __ \/ __/ | / / / _ \ | /| / /
 / / / /_/ / /__/  __/ / / / /_  | |/ / /  __/ |/ |/ /
/_/  \__,_/\___/\___/_/ /_/\__/  |___/_/\___/|__/|__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info(divider)
	logging.Info("SYSTEM INFORMATION")
	logging.Info(divider)
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "library" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access itself was confirmed
	}
	return nil
}
