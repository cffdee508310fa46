package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// EnvLibraryPath overrides the image library directory.
	EnvLibraryPath = "LIBRARY_PATH"

	// EnvLibraryDisableWatch disables filesystem watching of the library.
	EnvLibraryDisableWatch = "LIBRARY_DISABLE_WATCH"

	// EnvLibrarySortKey overrides the initial catalog sort key.
	EnvLibrarySortKey = "LIBRARY_SORT_KEY"
)

// sortKeys are the catalog orderings the daemon understands.
var sortKeys = map[string]bool{
	"name":    true,
	"mtime":   true,
	"size":    true,
	"type":    true,
	"area":    true,
	"width":   true,
	"height":  true,
	"shuffle": true,
}

// LibraryConfig contains image library configuration.
type LibraryConfig struct {
	// Path is the directory holding the image files.
	// Default: "./images"
	Path string `toml:"path"`

	// DisableWatch turns off filesystem change notifications for the
	// library directory.
	DisableWatch bool `toml:"disable_watch"`

	// SortKey is the initial catalog ordering.
	SortKey string `toml:"sort_key"`

	// SortDescending reverses the initial catalog ordering.
	SortDescending bool `toml:"sort_descending"`
}

// Finalize applies defaults, loads environment overrides, and validates the library configuration.
func (c *LibraryConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration, including boolean fields.
func (c *LibraryConfig) Merge(overlay *LibraryConfig) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.SortKey != "" {
		c.SortKey = overlay.SortKey
	}
	c.DisableWatch = c.DisableWatch || overlay.DisableWatch
	c.SortDescending = c.SortDescending || overlay.SortDescending
}

func (c *LibraryConfig) loadDefaults() {
	if c.Path == "" {
		c.Path = "./images"
	}
	if c.SortKey == "" {
		c.SortKey = "name"
	}
}

func (c *LibraryConfig) loadEnv() {
	if v := os.Getenv(EnvLibraryPath); v != "" {
		c.Path = v
	}
	if v := os.Getenv(EnvLibraryDisableWatch); v != "" {
		if disabled, err := strconv.ParseBool(v); err == nil {
			c.DisableWatch = disabled
		}
	}
	if v := os.Getenv(EnvLibrarySortKey); v != "" {
		c.SortKey = v
	}
}

func (c *LibraryConfig) validate() error {
	if c.Path == "" {
		return fmt.Errorf("path required")
	}
	if !sortKeys[strings.ToLower(c.SortKey)] {
		return fmt.Errorf("unknown sort_key %q", c.SortKey)
	}
	c.SortKey = strings.ToLower(c.SortKey)
	return nil
}
