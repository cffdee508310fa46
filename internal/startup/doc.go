// Package startup handles daemon initialization and startup/shutdown
// logging.
//
// Configuration itself lives in the config package; this package takes a
// finalized configuration, prints the startup header, prepares the
// directories the daemon needs, and provides consistent lifecycle
// logging for the rest of the process.
//
// # Directory Setup
//
// [Prepare] validates and creates the two directories the daemon uses:
//   - Library directory: Created when missing so an empty catalog is
//     still a running daemon
//   - Cache directory: Required to exist or be creatable; a read-only
//     cache only disables thumbnail persistence
//
// Both paths are rewritten to absolute form inside the configuration.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDecoderInit]: Decoder availability after libvips setup
//   - [LogCatalogScan], [LogCatalogReady]: Initial library scan timing
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownStep], [LogShutdownStepComplete]: Individual steps
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	cfg, err := config.Load(configPath)
//	if err == nil {
//	    err = cfg.Finalize()
//	}
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	if err := startup.Prepare(cfg); err != nil {
//	    startup.LogFatal("Startup error: %v", err)
//	}
//
//	// Initialize components...
//	startup.LogDecoderInit(codec.InitVips())
//	startup.LogCatalogScan(cfg.Library.Path)
//
//	// Start server...
//	startup.LogServerStarted(cfg.Server.Addr(), time.Since(startTime))
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
