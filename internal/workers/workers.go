package workers

import (
	"os"
	"runtime"
	"strconv"
)

// ForThumbnails returns the concurrency cap for background thumbnail
// generation: one worker per available CPU minus one, keeping a core free
// for the foreground, with a floor of two so small machines still overlap
// decode and I/O work.
//
// Can be overridden with the THUMBNAIL_WORKERS environment variable.
func ForThumbnails() int {
	if override := os.Getenv("THUMBNAIL_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return count
		}
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	workers := runtime.GOMAXPROCS(0) - 1
	if workers < 2 {
		workers = 2
	}
	return workers
}

// Count returns a worker count scaled from the available CPUs.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
// The limit parameter caps the maximum number of workers.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
