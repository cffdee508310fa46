// Package config provides daemon configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvViewerEnv specifies the environment name for configuration overlays.
	EnvViewerEnv = "VIEWER_ENV"

	// EnvSlideshowPeriod overrides the slideshow period.
	EnvSlideshowPeriod = "SLIDESHOW_PERIOD"

	// EnvMetricsInterval overrides the metrics collection interval.
	EnvMetricsInterval = "METRICS_INTERVAL"

	// EnvThumbnailWorkers overrides the thumbnail worker cap.
	EnvThumbnailWorkers = "THUMBNAIL_WORKERS"
)

// Config represents the root daemon configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Library LibraryConfig `toml:"library"`
	Cache   CacheConfig   `toml:"cache"`
	Memory  MemoryConfig  `toml:"memory"`

	// SlideshowPeriod is the delay between slideshow transitions.
	// Periods under 500ms additionally disable post-load eviction so
	// rapid transitions are not fighting the unloader.
	SlideshowPeriod string `toml:"slideshow_period"`

	// MetricsInterval is how often state gauges are refreshed.
	MetricsInterval string `toml:"metrics_interval"`

	// ThumbnailWorkers caps concurrent thumbnail generation.
	// Zero selects an automatic cap derived from GOMAXPROCS.
	ThumbnailWorkers int `toml:"thumbnail_workers"`
}

// SlideshowPeriodDuration parses and returns the slideshow period as a time.Duration.
func (c *Config) SlideshowPeriodDuration() time.Duration {
	d, _ := time.ParseDuration(c.SlideshowPeriod)
	return d
}

// MetricsIntervalDuration parses and returns the metrics interval as a time.Duration.
func (c *Config) MetricsIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.MetricsInterval)
	return d
}

// Load reads and parses the configuration file at path and applies any
// environment-specific overlay. An empty path selects BaseConfigFile if it
// exists and otherwise yields a configuration built purely from defaults
// and environment variables.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(BaseConfigFile); err != nil {
			return &Config{}, nil
		}
		path = BaseConfigFile
	}

	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if overlay := overlayPath(); overlay != "" {
		ovl, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(ovl)
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Library.Finalize(); err != nil {
		return fmt.Errorf("library: %w", err)
	}
	if err := c.Cache.Finalize(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Memory.Finalize(); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.SlideshowPeriod != "" {
		c.SlideshowPeriod = overlay.SlideshowPeriod
	}
	if overlay.MetricsInterval != "" {
		c.MetricsInterval = overlay.MetricsInterval
	}
	if overlay.ThumbnailWorkers != 0 {
		c.ThumbnailWorkers = overlay.ThumbnailWorkers
	}
	c.Server.Merge(&overlay.Server)
	c.Library.Merge(&overlay.Library)
	c.Cache.Merge(&overlay.Cache)
	c.Memory.Merge(&overlay.Memory)
}

func (c *Config) loadDefaults() {
	if c.SlideshowPeriod == "" {
		c.SlideshowPeriod = "8s"
	}
	if c.MetricsInterval == "" {
		c.MetricsInterval = "15s"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSlideshowPeriod); v != "" {
		c.SlideshowPeriod = v
	}
	if v := os.Getenv(EnvMetricsInterval); v != "" {
		c.MetricsInterval = v
	}
	if v := os.Getenv(EnvThumbnailWorkers); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.ThumbnailWorkers = n
		}
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.SlideshowPeriod)
	if err != nil {
		return fmt.Errorf("invalid slideshow_period: %w", err)
	}
	// The UI clamps at 1/60s, anything faster is not displayable anyway.
	if d < 16*time.Millisecond {
		return fmt.Errorf("slideshow_period must be at least 16ms")
	}

	if _, err := time.ParseDuration(c.MetricsInterval); err != nil {
		return fmt.Errorf("invalid metrics_interval: %w", err)
	}

	if c.ThumbnailWorkers < 0 {
		return fmt.Errorf("thumbnail_workers must not be negative")
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvViewerEnv); env != "" {
		overlayPath := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(overlayPath); err == nil {
			return overlayPath
		}
	}
	return ""
}
