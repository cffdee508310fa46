package handlers

import (
	"net/http"

	"github.com/librashuai/tacentview/internal/codec"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/viewer"
)

// GetThumbnail serves the 256x144 thumbnail for one record, generating
// it on demand. Generation is asynchronous: while no result is ready
// the handler requests one (subject to the worker cap) and answers 202,
// and the client polls again. A denied admission is also a 202; the
// next poll re-requests, which is the pipeline's backpressure.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	rec, ok := h.catalog.ByPath(path)
	if !ok {
		writeJSONError(w, "no such record", http.StatusNotFound)
		return
	}

	if rec.PollThumbnail() {
		h.serveThumbnail(w, rec)
		return
	}

	rec.RequestThumbnail(h.sched, h.cache)
	if rec.PollThumbnail() {
		h.serveThumbnail(w, rec)
		return
	}
	writePending(w)
}

func (h *Handlers) serveThumbnail(w http.ResponseWriter, rec *viewer.Record) {
	thumb := rec.Thumbnail()
	if thumb == nil {
		// Invalidated between the poll and here; have the client retry.
		writePending(w)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if err := codec.EncodePNG(w, thumb); err != nil {
		logging.Error("Failed to write thumbnail for %s: %v", rec.Path(), err)
	}
}
