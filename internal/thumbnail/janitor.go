package thumbnail

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/metrics"
)

// trimHeadroom is how far below the cap the janitor trims, so a cache
// hovering at the cap is not re-trimmed after every single generation.
const trimHeadroom = 100

// RemoveOldCacheFiles trims the cache directory down to size. When more
// than maxFiles entries exist, the oldest are deleted until
// max(maxFiles-100, 0) remain, and the number deleted is returned.
//
// Entries are aged by modification time. Cache files are written once
// and never touched again, so that is their creation time.
func RemoveOldCacheFiles(dir string, maxFiles int) (int, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	type cacheFile struct {
		path  string
		mtime time.Time
	}

	var files []cacheFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, cacheFile{
			path:  filepath.Join(dir, entry.Name()),
			mtime: info.ModTime(),
		})
	}

	if len(files) <= maxFiles {
		return 0, nil
	}

	target := maxFiles - trimHeadroom
	if target < 0 {
		target = 0
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].mtime.Before(files[j].mtime)
	})

	deleted := 0
	for _, file := range files[:len(files)-target] {
		if err := os.Remove(file.path); err != nil {
			logging.Warn("Failed to delete cache file %s: %v", file.path, err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		metrics.CacheFilesDeleted.Add(float64(deleted))
		logging.Info("Cache janitor deleted %d of %d files from %s", deleted, len(files), dir)
	}
	return deleted, nil
}

// ClearCache deletes every entry in the cache directory and leaves the
// directory itself in place, ready for new writes. It returns the number
// of entries removed.
func ClearCache(dir string) (int, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			logging.Warn("Failed to delete cache file %s: %v", entry.Name(), err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		metrics.CacheFilesDeleted.Add(float64(deleted))
		logging.Info("Cleared %d cache files from %s", deleted, dir)
	}
	return deleted, nil
}
