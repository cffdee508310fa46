package handlers

import (
	"net/http"

	"github.com/docker/go-units"

	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/thumbnail"
)

// CacheStatsResponse is the JSON shape of the thumbnail cache status.
type CacheStatsResponse struct {
	Dir      string `json:"dir"`
	Files    int    `json:"files"`
	Bytes    int64  `json:"bytes"`
	Size     string `json:"size"`
	MaxFiles int    `json:"maxFiles"`
}

// GetCacheStats reports the thumbnail cache directory usage.
func (h *Handlers) GetCacheStats(w http.ResponseWriter, _ *http.Request) {
	files, size, err := h.cache.Stats()
	if err != nil {
		logging.Error("Cache stats failed: %v", err)
		writeJSONError(w, "failed to read cache", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, CacheStatsResponse{
		Dir:      h.cache.Dir(),
		Files:    files,
		Bytes:    size,
		Size:     units.BytesSize(float64(size)),
		MaxFiles: h.maxCacheFiles,
	})
}

// TrimCache deletes the oldest cache files until the count is
// comfortably under the configured cap.
func (h *Handlers) TrimCache(w http.ResponseWriter, _ *http.Request) {
	deleted, err := thumbnail.RemoveOldCacheFiles(h.cache.Dir(), h.maxCacheFiles)
	if err != nil {
		logging.Error("Cache trim failed: %v", err)
		writeJSONError(w, "failed to trim cache", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"deleted": deleted,
	})
}

// ClearCache deletes every cache file.
func (h *Handlers) ClearCache(w http.ResponseWriter, _ *http.Request) {
	deleted, err := thumbnail.ClearCache(h.cache.Dir())
	if err != nil {
		logging.Error("Cache clear failed: %v", err)
		writeJSONError(w, "failed to clear cache", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"deleted": deleted,
	})
}
