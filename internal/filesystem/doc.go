/*
Package filesystem provides resilient filesystem operations with automatic
retry logic for NFS stale file handle errors, plus the file-identity and
directory-watching primitives the viewer builds its caching on.

# Purpose

Image collections frequently live on NFS mounts. This package wraps the
standard operations (os.Stat, os.Open, os.ReadDir) with retry logic for
transient ESTALE (stale file handle) errors that occur when NFS-mounted
files are accessed during network issues or server-side changes.

# Usage

Basic usage with default retry configuration:

	info, err := filesystem.StatWithRetry("/photos/img.jpg", filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}

Custom retry configuration:

	config := filesystem.RetryConfig{
	    MaxRetries:     5,
	    InitialBackoff: 100 * time.Millisecond,
	    MaxBackoff:     1 * time.Second,
	}
	file, err := filesystem.OpenWithRetry(path, config)

# Retry Behavior

The retry logic implements exponential backoff with the following defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only NFS stale file handle errors (ESTALE) trigger retries. All other
errors fail immediately without retry attempts.

# File Identity

FileIdentity captures the size, modification time and change time of a
file. The thumbnail cache key is derived from these attributes, so a file
edited in place or replaced produces a different key and a fresh cache
entry.

# Watching

Watcher wraps fsnotify to surface created/modified/removed events for a
single directory. The viewer uses it to invalidate thumbnails and refresh
records when files change underneath it.
*/
package filesystem
