// Command tvcache provides a CLI utility for maintaining the viewer's
// thumbnail cache directory.
//
// It supports the following operations:
//   - status: Show cache directory usage and whether it is over the cap
//   - trim: Delete the oldest cache files down to the configured cap
//   - clear: Delete every cache file
//
// Usage:
//
//	tvcache <command> [flags]
//
// Commands:
//
//	status  Display the cache directory, file count, total size, and the
//	        configured file cap. Warns when the cache is over the cap.
//
//	trim    Run the same janitor pass the daemon runs at shutdown: when
//	        the cache holds more files than the cap, the oldest are
//	        deleted until a margin below the cap remains.
//
//	clear   Delete every cache file. Prompts for confirmation unless -y
//	        is given; refuses to run non-interactively without -y.
//
// Configuration resolves exactly as it does for the daemon: config.toml
// (or -config <path>), an optional VIEWER_ENV overlay, then environment
// variables. CACHE_DIR and CACHE_MAX_FILES override the file settings.
//
// Cached thumbnails are regenerated on demand, so clearing the cache is
// always safe; the next catalog browse just runs the generators again.
package main
