package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/librashuai/tacentview/internal/logging"
)

// minSlideshowPeriod matches the fastest transition the config accepts.
const minSlideshowPeriod = 16 * time.Millisecond

// SlideshowState is the JSON shape of the slideshow status.
type SlideshowState struct {
	Playing bool   `json:"playing"`
	Period  string `json:"period"`
}

// SlideshowRequest updates the slideshow. Omitted fields keep their
// current value.
type SlideshowRequest struct {
	Playing *bool  `json:"playing,omitempty"`
	Period  string `json:"period,omitempty"`
}

// GetSlideshow returns the slideshow state.
func (h *Handlers) GetSlideshow(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	state := SlideshowState{
		Playing: h.slideStop != nil,
		Period:  h.slidePeriod.String(),
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, state)
}

// UpdateSlideshow starts, stops, or retimes the slideshow. A period
// change while playing restarts the ticker at the new rate.
func (h *Handlers) UpdateSlideshow(w http.ResponseWriter, r *http.Request) {
	var req SlideshowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var period time.Duration
	if req.Period != "" {
		var err error
		if period, err = time.ParseDuration(req.Period); err != nil {
			writeJSONError(w, "invalid period", http.StatusBadRequest)
			return
		}
		if period < minSlideshowPeriod {
			writeJSONError(w, "period must be at least 16ms", http.StatusBadRequest)
			return
		}
	}

	h.mu.Lock()
	if period > 0 && period != h.slidePeriod {
		h.slidePeriod = period
		if h.slideStop != nil {
			h.stopSlideshowLocked()
			h.startSlideshowLocked()
		}
	}
	if req.Playing != nil {
		if *req.Playing {
			h.startSlideshowLocked()
		} else {
			h.stopSlideshowLocked()
		}
	}
	state := SlideshowState{
		Playing: h.slideStop != nil,
		Period:  h.slidePeriod.String(),
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, state)
}

func (h *Handlers) startSlideshowLocked() {
	if h.slideStop != nil {
		return
	}
	stop := make(chan struct{})
	h.slideStop = stop
	go h.slideshowLoop(stop, h.slidePeriod)
	logging.Info("Slideshow started: period %s", h.slidePeriod)
}

func (h *Handlers) stopSlideshowLocked() {
	if h.slideStop == nil {
		return
	}
	close(h.slideStop)
	h.slideStop = nil
	logging.Info("Slideshow stopped")
}

func (h *Handlers) slideshowLoop(stop chan struct{}, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rec := h.catalog.Next()
			if rec == nil {
				continue
			}
			if err := h.showRecord(rec); err != nil {
				logging.Warn("Slideshow skipped %s: %v", rec.Path(), err)
			}
		case <-stop:
			return
		}
	}
}
