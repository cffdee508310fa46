package metrics

import (
	"time"

	"github.com/librashuai/tacentview/internal/logging"
)

// StatsProvider supplies a point-in-time snapshot of viewer state for the
// gauges that cannot be maintained incrementally.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	// RecordsByType counts catalog records per image type. Include zero
	// entries for types that have disappeared so their gauges reset.
	RecordsByType   map[string]int
	LoadedRecords   int
	ResidentBytes   int64
	ThumbnailsReady int
	CacheFiles      int
	CacheBytes      int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	total := 0
	for typ, n := range stats.RecordsByType {
		CatalogRecords.WithLabelValues(typ).Set(float64(n))
		total += n
	}
	LoadedRecords.Set(float64(stats.LoadedRecords))
	ResidentImageBytes.Set(float64(stats.ResidentBytes))
	ThumbnailsReady.Set(float64(stats.ThumbnailsReady))
	ThumbnailCacheCount.Set(float64(stats.CacheFiles))
	ThumbnailCacheSize.Set(float64(stats.CacheBytes))

	logging.Debug("Metrics collected: records=%d, loaded=%d, resident=%d bytes, cache files=%d",
		total, stats.LoadedRecords, stats.ResidentBytes, stats.CacheFiles)
}
