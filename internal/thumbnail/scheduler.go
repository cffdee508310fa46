package thumbnail

import (
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/metrics"
	"github.com/librashuai/tacentview/internal/workers"

	"golang.org/x/sync/semaphore"
)

// Scheduler bounds the number of concurrently running thumbnail
// generations. There is no queue: a request either gets a slot now or is
// turned away, and the caller re-requests on a later frame. The UI scans
// visible records every frame anyway, so denied requests retry
// themselves.
type Scheduler struct {
	sem *semaphore.Weighted
	cap int
}

// NewScheduler returns a scheduler admitting at most limit concurrent
// generations. A limit of zero selects the automatic cap, one less than
// GOMAXPROCS with a floor of two.
func NewScheduler(limit int) *Scheduler {
	if limit <= 0 {
		limit = workers.ForThumbnails()
	}
	logging.Debug("Thumbnail scheduler admitting %d concurrent workers", limit)
	return &Scheduler{
		sem: semaphore.NewWeighted(int64(limit)),
		cap: limit,
	}
}

// Cap returns the admission limit.
func (s *Scheduler) Cap() int { return s.cap }

// TryAcquire claims a worker slot without blocking. The caller that gets
// a slot must pair it with exactly one Release, normally deferred in the
// worker goroutine itself so the slot frees no matter how generation
// ends.
func (s *Scheduler) TryAcquire() bool {
	if !s.sem.TryAcquire(1) {
		return false
	}
	metrics.ThumbnailWorkersRunning.Inc()
	return true
}

// Release returns a worker slot.
func (s *Scheduler) Release() {
	metrics.ThumbnailWorkersRunning.Dec()
	s.sem.Release(1)
}
