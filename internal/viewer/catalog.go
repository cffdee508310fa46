package viewer

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/filetype"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/metrics"
	"github.com/librashuai/tacentview/internal/workers"
)

// statWorkers caps the pool used to stat files during Populate.
const statWorkers = 8

// Catalog holds the records for one library directory in two views: the
// sorted display order and a load-order view the evictor walks. Both
// views always contain exactly the same records.
type Catalog struct {
	mu        sync.RWMutex
	records   []*Record
	loadOrder []*Record
	byPath    map[string]*Record
	current   *Record

	sortKey  string
	sortDesc bool
	rng      *rand.Rand
}

// NewCatalog returns an empty catalog sorted by name.
func NewCatalog() *Catalog {
	return &Catalog{
		byPath:  make(map[string]*Record),
		sortKey: "name",
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Populate scans dir and rebuilds the catalog from the image files it
// holds. Records whose path survives the rescan are kept as-is, resident
// frames and thumbnails included; records for vanished files are closed.
func (c *Catalog) Populate(dir string) error {
	start := time.Now()

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("read library %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !filetype.Supported(filetype.FromPath(entry.Name())) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	// Directory listings are one round trip but stats are per file, so
	// fan the stats out over a small pool.
	type statResult struct {
		path string
		id   filesystem.Identity
		err  error
	}
	pathCh := make(chan string)
	resCh := make(chan statResult)

	var wg sync.WaitGroup
	for i := 0; i < workers.ForIO(statWorkers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range pathCh {
				id, err := filesystem.FileIdentity(path, filesystem.DefaultRetryConfig())
				resCh <- statResult{path: path, id: id, err: err}
			}
		}()
	}
	go func() {
		for _, path := range paths {
			pathCh <- path
		}
		close(pathCh)
	}()
	go func() {
		wg.Wait()
		close(resCh)
	}()

	scanned := make(map[string]filesystem.Identity, len(paths))
	for res := range resCh {
		if res.err != nil {
			logging.Warn("Skipping %s: %v", res.path, res.err)
			continue
		}
		scanned[res.path] = res.id
	}

	var orphaned []*Record
	c.mu.Lock()
	fresh := make([]*Record, 0, len(scanned))
	freshByPath := make(map[string]*Record, len(scanned))
	for path, id := range scanned {
		if existing, ok := c.byPath[path]; ok {
			fresh = append(fresh, existing)
			freshByPath[path] = existing
			continue
		}
		rec := NewRecord(path, id)
		fresh = append(fresh, rec)
		freshByPath[path] = rec
	}
	for path, rec := range c.byPath {
		if _, ok := freshByPath[path]; !ok {
			orphaned = append(orphaned, rec)
		}
	}

	c.records = fresh
	c.loadOrder = append([]*Record(nil), fresh...)
	c.byPath = freshByPath
	if c.current != nil {
		if _, ok := freshByPath[c.current.Path()]; !ok {
			c.current = nil
		}
	}
	c.sortLocked()
	total := len(c.records)
	c.mu.Unlock()

	// Closing can block on an in-flight generation, so do it outside the
	// catalog lock.
	for _, rec := range orphaned {
		rec.Close()
	}

	metrics.CatalogPopulateDuration.Set(time.Since(start).Seconds())
	logging.Info("Catalog populated: %d records from %s in %s",
		total, dir, time.Since(start).Round(time.Millisecond))
	return nil
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Records returns a snapshot of the records in display order.
func (c *Catalog) Records() []*Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Record, len(c.records))
	copy(out, c.records)
	return out
}

// ByPath looks a record up by its file path.
func (c *Catalog) ByPath(path string) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byPath[path]
	return rec, ok
}

// Add inserts a record for path, stating the file first. Adding an
// already present path returns the existing record.
func (c *Catalog) Add(path string) (*Record, error) {
	id, err := filesystem.FileIdentity(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byPath[path]; ok {
		return existing, nil
	}

	rec := NewRecord(path, id)
	c.records = append(c.records, rec)
	c.loadOrder = append(c.loadOrder, rec)
	c.byPath[path] = rec
	if c.sortKey != "shuffle" {
		c.sortLocked()
	}
	return rec, nil
}

// Remove drops the record for path from both views and closes it,
// blocking until any in-flight thumbnail worker finishes. Reports
// whether a record was removed.
func (c *Catalog) Remove(path string) bool {
	c.mu.Lock()
	rec, ok := c.byPath[path]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.byPath, path)
	c.records = dropRecord(c.records, rec)
	c.loadOrder = dropRecord(c.loadOrder, rec)
	if c.current == rec {
		c.current = nil
	}
	c.mu.Unlock()

	rec.Close()
	return true
}

func dropRecord(list []*Record, rec *Record) []*Record {
	for i, r := range list {
		if r == rec {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// SortBy reorders the display view. Shuffle produces a fresh random
// order on every call. The load-order view is not affected.
func (c *Catalog) SortBy(key string, descending bool) error {
	key = strings.ToLower(key)
	switch key {
	case "name", "mtime", "size", "type", "area", "width", "height", "shuffle":
	default:
		return fmt.Errorf("unknown sort key %q", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortKey = key
	c.sortDesc = descending
	c.sortLocked()
	return nil
}

// SortKey returns the active sort key.
func (c *Catalog) SortKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortKey
}

// SortDescending reports whether the active order is reversed.
func (c *Catalog) SortDescending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortDesc
}

func (c *Catalog) sortLocked() {
	if c.sortKey == "shuffle" {
		c.rng.Shuffle(len(c.records), func(i, j int) {
			c.records[i], c.records[j] = c.records[j], c.records[i]
		})
		return
	}

	less := lessFor(c.sortKey)
	sort.SliceStable(c.records, func(i, j int) bool {
		a, b := c.records[i], c.records[j]
		if c.sortDesc {
			a, b = b, a
		}
		return less(a, b)
	})
}

func lessFor(key string) func(a, b *Record) bool {
	switch key {
	case "mtime":
		return func(a, b *Record) bool {
			return a.Identity().ModTime.Before(b.Identity().ModTime)
		}
	case "size":
		return func(a, b *Record) bool {
			return a.Identity().Size < b.Identity().Size
		}
	case "type":
		return func(a, b *Record) bool {
			if a.Type() != b.Type() {
				return a.Type() < b.Type()
			}
			return byName(a, b)
		}
	case "area":
		return func(a, b *Record) bool {
			if x, y := summaryArea(a), summaryArea(b); x != y {
				return x < y
			}
			return byName(a, b)
		}
	case "width":
		return func(a, b *Record) bool {
			if x, y := summaryWidth(a), summaryWidth(b); x != y {
				return x < y
			}
			return byName(a, b)
		}
	case "height":
		return func(a, b *Record) bool {
			if x, y := summaryHeight(a), summaryHeight(b); x != y {
				return x < y
			}
			return byName(a, b)
		}
	default:
		return byName
	}
}

func byName(a, b *Record) bool {
	an := strings.ToLower(filepath.Base(a.Path()))
	bn := strings.ToLower(filepath.Base(b.Path()))
	if an != bn {
		return an < bn
	}
	return a.Path() < b.Path()
}

// Dimension sorts use the cached summaries so they never force a decode.
// Records not yet summarized sort as zero.
func summaryArea(r *Record) int {
	info, ok := r.Info()
	if !ok {
		return 0
	}
	return info.PrimaryArea
}

func summaryWidth(r *Record) int {
	info, ok := r.Info()
	if !ok {
		return 0
	}
	return info.PrimaryWidth
}

func summaryHeight(r *Record) int {
	info, ok := r.Info()
	if !ok {
		return 0
	}
	return info.PrimaryHeight
}

// Current returns the record selected for display, or nil.
func (c *Catalog) Current() *Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// SetCurrent selects the record at path for display.
func (c *Catalog) SetCurrent(path string) (*Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.byPath[path]
	if !ok {
		return nil, fmt.Errorf("no record for %s", path)
	}
	c.current = rec
	return rec, nil
}

// Next advances the selection in display order, wrapping at the end.
func (c *Catalog) Next() *Record { return c.step(1) }

// Prev moves the selection back in display order, wrapping at the start.
func (c *Catalog) Prev() *Record { return c.step(-1) }

func (c *Catalog) step(delta int) *Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) == 0 {
		return nil
	}
	idx := -1
	if c.current != nil {
		for i, rec := range c.records {
			if rec == c.current {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		c.current = c.records[0]
		return c.current
	}

	idx = (idx + delta + len(c.records)) % len(c.records)
	c.current = c.records[idx]
	return c.current
}

// SortedLoadView re-sorts the load-order view ascending by load stamp
// and returns a snapshot of it. Unloaded records carry a negative stamp
// and sort first; the evictor skips them anyway.
func (c *Catalog) SortedLoadView() []*Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.SliceStable(c.loadOrder, func(i, j int) bool {
		return c.loadOrder[i].LoadedTime() < c.loadOrder[j].LoadedTime()
	})
	out := make([]*Record, len(c.loadOrder))
	copy(out, c.loadOrder)
	return out
}

// Stats summarizes the catalog for the metrics collector.
type Stats struct {
	ByType          map[string]int
	Loaded          int
	ResidentBytes   int64
	ThumbnailsReady int
}

// Stats walks the catalog and counts records per type, resident records
// and bytes, and ready thumbnails. Every known type appears in ByType so
// gauges reset when a type's last file disappears.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{ByType: make(map[string]int)}
	for _, t := range filetype.Types() {
		stats.ByType[string(t)] = 0
	}
	for _, rec := range c.records {
		stats.ByType[string(rec.Type())]++
		if rec.Loaded() {
			stats.Loaded++
			stats.ResidentBytes += rec.MemSize()
		}
		if rec.Thumbnail() != nil {
			stats.ThumbnailsReady++
		}
	}
	return stats
}
