package handlers

import (
	"sync"
	"time"

	"github.com/librashuai/tacentview/internal/config"
	"github.com/librashuai/tacentview/internal/memory"
	"github.com/librashuai/tacentview/internal/thumbnail"
	"github.com/librashuai/tacentview/internal/viewer"
)

// Handlers serves the viewer API. It is a thin driver over the catalog,
// thumbnail pipeline, and evictor; all policy lives in the internal
// packages.
type Handlers struct {
	catalog *viewer.Catalog
	cache   *thumbnail.Cache
	sched   *thumbnail.Scheduler
	evictor *memory.Evictor

	libraryDir    string
	maxCacheFiles int
	startTime     time.Time

	mu          sync.Mutex
	ready       bool
	slidePeriod time.Duration
	slideStop   chan struct{} // non-nil while the slideshow runs
	lastFrameAt time.Time
}

// New wires the handlers to the daemon's components.
func New(cat *viewer.Catalog, cache *thumbnail.Cache, sched *thumbnail.Scheduler, evictor *memory.Evictor, cfg *config.Config) *Handlers {
	return &Handlers{
		catalog:       cat,
		cache:         cache,
		sched:         sched,
		evictor:       evictor,
		libraryDir:    cfg.Library.Path,
		maxCacheFiles: cfg.Cache.MaxFiles,
		slidePeriod:   cfg.SlideshowPeriodDuration(),
		startTime:     time.Now(),
	}
}

// SetReady marks the daemon ready once the initial catalog scan is done.
func (h *Handlers) SetReady() {
	h.mu.Lock()
	h.ready = true
	h.mu.Unlock()
}

// Close stops the slideshow loop.
func (h *Handlers) Close() {
	h.mu.Lock()
	h.stopSlideshowLocked()
	h.mu.Unlock()
}

// showRecord makes rec the displayed image: load it, then let the
// evictor rebalance. Fast slideshow transitions suppress the eviction
// pass so rapid rotations are not fighting the unloader.
func (h *Handlers) showRecord(rec *viewer.Record) error {
	if err := rec.Load(); err != nil {
		return err
	}
	h.mu.Lock()
	fast := memory.IsFastTransition(h.slideStop != nil, h.slidePeriod)
	h.mu.Unlock()
	h.evictor.AfterLoad(h.catalog, rec, fast)
	return nil
}
