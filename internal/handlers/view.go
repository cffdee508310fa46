package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/librashuai/tacentview/internal/codec"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/viewer"
)

// GetView returns the record currently selected for display.
func (h *Handlers) GetView(w http.ResponseWriter, _ *http.Request) {
	rec := h.catalog.Current()
	if rec == nil {
		writeJSONError(w, "no record selected", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, recordInfo(rec, rec))
}

// ViewRequest selects a record for display.
type ViewRequest struct {
	Path string `json:"path"`
}

// SelectView makes the record at path the displayed image, loading it
// and running the eviction pass.
func (h *Handlers) SelectView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	rec, err := h.catalog.SetCurrent(req.Path)
	if err != nil {
		writeJSONError(w, "no such record", http.StatusNotFound)
		return
	}
	h.respondWithView(w, rec)
}

// NextView advances the selection in display order and shows it.
func (h *Handlers) NextView(w http.ResponseWriter, _ *http.Request) {
	h.stepView(w, h.catalog.Next())
}

// PrevView moves the selection back in display order and shows it.
func (h *Handlers) PrevView(w http.ResponseWriter, _ *http.Request) {
	h.stepView(w, h.catalog.Prev())
}

func (h *Handlers) stepView(w http.ResponseWriter, rec *viewer.Record) {
	if rec == nil {
		writeJSONError(w, "catalog is empty", http.StatusNotFound)
		return
	}
	h.respondWithView(w, rec)
}

func (h *Handlers) respondWithView(w http.ResponseWriter, rec *viewer.Record) {
	if err := h.showRecord(rec); err != nil {
		logging.Error("Failed to load %s: %v", rec.Path(), err)
		writeJSONError(w, "failed to load image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, recordInfo(rec, rec))
}

// GetImage serves full-size pixels of a record as PNG. Without a path
// parameter it serves the current selection. A frame parameter pins an
// animation frame; otherwise a playing animation advances by the wall
// time elapsed since the previous image request. With alt=strip the
// response is the frame strip composite instead of a single frame.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	var rec *viewer.Record
	if path := r.URL.Query().Get("path"); path != "" {
		var ok bool
		if rec, ok = h.catalog.ByPath(path); !ok {
			writeJSONError(w, "no such record", http.StatusNotFound)
			return
		}
	} else if rec = h.catalog.Current(); rec == nil {
		writeJSONError(w, "no record selected", http.StatusNotFound)
		return
	}

	if !rec.Loaded() {
		if err := h.showRecord(rec); err != nil {
			logging.Error("Failed to load %s: %v", rec.Path(), err)
			writeJSONError(w, "failed to load image", http.StatusInternalServerError)
			return
		}
	}

	if alt := r.URL.Query().Get("alt"); alt != "" {
		if alt != "strip" {
			writeJSONError(w, "alt must be strip", http.StatusBadRequest)
			return
		}
		h.serveAltStrip(w, rec)
		return
	}

	if frameParam := r.URL.Query().Get("frame"); frameParam != "" {
		n, err := strconv.Atoi(frameParam)
		if err != nil {
			writeJSONError(w, "invalid frame", http.StatusBadRequest)
			return
		}
		rec.SetCurrentFrame(n)
	} else if rec.Playing() {
		h.mu.Lock()
		now := time.Now()
		if !h.lastFrameAt.IsZero() {
			rec.UpdatePlaying(now.Sub(h.lastFrameAt))
		}
		h.lastFrameAt = now
		h.mu.Unlock()
	}

	frames := rec.Frames()
	if len(frames) == 0 {
		writeJSONError(w, "failed to load image", http.StatusInternalServerError)
		return
	}
	idx := rec.CurrentFrame()
	if idx >= len(frames) {
		idx = 0
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := codec.EncodePNG(w, frames[idx]); err != nil {
		logging.Error("Failed to write image for %s: %v", rec.Path(), err)
	}
}

// serveAltStrip serves the side-by-side frame composite, building it on
// first use. The strip stays resident with the frames and is released
// with them on unload.
func (h *Handlers) serveAltStrip(w http.ResponseWriter, rec *viewer.Record) {
	if rec.Alt() == nil {
		if err := rec.GenerateAltFrameStrip(); err != nil {
			logging.Error("Failed to build frame strip for %s: %v", rec.Path(), err)
			writeJSONError(w, "failed to build frame strip", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := codec.EncodePNG(w, rec.Alt()); err != nil {
		logging.Error("Failed to write frame strip for %s: %v", rec.Path(), err)
	}
}

// AnimateRequest starts or stops frame playback on the current record.
type AnimateRequest struct {
	Action string `json:"action"`
}

// Animate controls animation playback for the displayed record.
func (h *Handlers) Animate(w http.ResponseWriter, r *http.Request) {
	var req AnimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec := h.catalog.Current()
	if rec == nil {
		writeJSONError(w, "no record selected", http.StatusNotFound)
		return
	}

	switch req.Action {
	case "play":
		rec.Play()
		h.mu.Lock()
		h.lastFrameAt = time.Now()
		h.mu.Unlock()
	case "stop":
		rec.Stop()
	default:
		writeJSONError(w, "action must be play or stop", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"playing": rec.Playing(),
		"frame":   rec.CurrentFrame(),
		"frames":  rec.FrameCount(),
	})
}
