package memory

import (
	"time"

	"github.com/docker/go-units"

	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/metrics"
	"github.com/librashuai/tacentview/internal/viewer"
)

// FastTransitionThreshold is the slideshow period below which eviction
// passes are skipped. Below it records come back around faster than an
// unload-decode round trip can pay for itself.
const FastTransitionThreshold = 500 * time.Millisecond

// IsFastTransition reports whether an active slideshow advances too
// quickly for eviction to be worthwhile.
func IsFastTransition(playing bool, period time.Duration) bool {
	return playing && period < FastTransitionThreshold
}

// Evictor keeps the bytes held by resident frames under a fixed budget
// by unloading whole records, oldest load first. Thumbnails and scalar
// summaries survive an eviction, so evicted records still draw in the
// browser strip and reload transparently when selected again.
type Evictor struct {
	// Budget is the resident frame allowance in bytes. Zero or negative
	// disables eviction.
	Budget int64
}

// NewEvictor returns an evictor enforcing the given budget.
func NewEvictor(budget int64) *Evictor {
	return &Evictor{Budget: budget}
}

// AfterLoad runs one eviction pass. It is called after a record finishes
// loading; current names that record and is never evicted, however old
// its load stamp, so the image on screen cannot vanish mid-view. With
// fastTransition set the pass is skipped entirely.
//
// The current record alone may exceed the budget. The pass then unloads
// everything else and stops; a single oversized image is allowed to
// stand.
func (e *Evictor) AfterLoad(cat *viewer.Catalog, current *viewer.Record, fastTransition bool) {
	if e.Budget <= 0 || fastTransition {
		return
	}

	view := cat.SortedLoadView()
	var used int64
	for _, rec := range view {
		used += rec.MemSize()
	}
	if used <= e.Budget {
		return
	}

	metrics.EvictionRunsTotal.Inc()
	start := used
	evicted := 0
	for _, rec := range view {
		if used <= e.Budget {
			break
		}
		if rec == current || !rec.Loaded() {
			continue
		}
		released := rec.MemSize()
		if !rec.Unload(false) {
			// Dirty records stay resident until saved or discarded.
			continue
		}
		used -= released
		evicted++
		metrics.EvictedRecordsTotal.Inc()
	}

	if used > e.Budget {
		logging.Debug("Eviction floor reached: %s resident exceeds %s budget with %d records evicted",
			units.BytesSize(float64(used)), units.BytesSize(float64(e.Budget)), evicted)
		return
	}
	logging.Debug("Evicted %d records: %s -> %s resident (budget %s)",
		evicted,
		units.BytesSize(float64(start)),
		units.BytesSize(float64(used)),
		units.BytesSize(float64(e.Budget)))
}
