package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// EnvCacheDir overrides the thumbnail cache directory.
	EnvCacheDir = "CACHE_DIR"

	// EnvCacheMaxFiles overrides the cache file cap.
	EnvCacheMaxFiles = "CACHE_MAX_FILES"

	// minCacheFiles is the lowest accepted cache file cap.
	minCacheFiles = 200
)

// CacheConfig contains thumbnail cache configuration.
type CacheConfig struct {
	// Dir is the directory holding cached thumbnail files.
	// Default: ".cache/thumbnails"
	Dir string `toml:"dir"`

	// MaxFiles caps the number of cache files kept on disk. The janitor
	// trims down to a margin below this cap so it does not run on every
	// single new thumbnail.
	MaxFiles int `toml:"max_files"`
}

// Finalize applies defaults, loads environment overrides, and validates the cache configuration.
func (c *CacheConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *CacheConfig) Merge(overlay *CacheConfig) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.MaxFiles != 0 {
		c.MaxFiles = overlay.MaxFiles
	}
}

func (c *CacheConfig) loadDefaults() {
	if c.Dir == "" {
		c.Dir = ".cache/thumbnails"
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = 7000
	}
}

func (c *CacheConfig) loadEnv() {
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvCacheMaxFiles); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFiles = n
		}
	}
}

func (c *CacheConfig) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir required")
	}
	if c.MaxFiles < minCacheFiles {
		return fmt.Errorf("max_files must be at least %d", minCacheFiles)
	}
	return nil
}
