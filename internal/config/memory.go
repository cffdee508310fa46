package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	// EnvMaxImageMem overrides the resident image memory budget.
	EnvMaxImageMem = "MAX_IMAGE_MEM"

	// minImageMemBytes is the lowest accepted memory budget.
	minImageMemBytes = 256 * 1024 * 1024
)

// MemoryConfig contains the resident image memory budget.
type MemoryConfig struct {
	// MaxImageMem is the budget for decoded image data across all loaded
	// records, as a human-readable size ("1GiB", "512MiB"). Thumbnails do
	// not count against it.
	MaxImageMem    string `toml:"max_image_mem"`
	maxImageMemVal int64
}

// MaxImageMemBytes returns the memory budget in bytes.
func (c *MemoryConfig) MaxImageMemBytes() int64 {
	return c.maxImageMemVal
}

// Finalize applies defaults, loads environment overrides, and validates the memory configuration.
func (c *MemoryConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *MemoryConfig) Merge(overlay *MemoryConfig) {
	if size, err := units.RAMInBytes(overlay.MaxImageMem); err == nil {
		c.MaxImageMem = overlay.MaxImageMem
		c.maxImageMemVal = size
	}
}

func (c *MemoryConfig) loadDefaults() {
	if c.MaxImageMem == "" {
		c.MaxImageMem = "1GiB"
	}
}

func (c *MemoryConfig) loadEnv() {
	if v := os.Getenv(EnvMaxImageMem); v != "" {
		c.MaxImageMem = v
	}
}

func (c *MemoryConfig) validate() error {
	size, err := units.RAMInBytes(c.MaxImageMem)
	if err != nil {
		return fmt.Errorf("invalid max_image_mem: %w", err)
	}
	if size < minImageMemBytes {
		return fmt.Errorf("max_image_mem must be at least %s", units.BytesSize(minImageMemBytes))
	}
	c.maxImageMemVal = size

	return nil
}
