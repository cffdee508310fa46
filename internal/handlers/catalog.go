package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/viewer"
)

// RecordInfo is the JSON shape of one catalog record.
type RecordInfo struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	ModTime string `json:"modTime"`

	Loaded        bool  `json:"loaded"`
	Dirty         bool  `json:"dirty,omitempty"`
	ResidentBytes int64 `json:"residentBytes,omitempty"`
	Current       bool  `json:"current,omitempty"`

	// Dimension summaries are filled once the record has been decoded
	// at least once (full load or thumbnail generation) and survive
	// unloads.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	Area   int `json:"area,omitempty"`
	Frames int `json:"frames,omitempty"`

	ThumbnailReady bool `json:"thumbnailReady"`
}

// CatalogResponse is the JSON shape of the catalog listing.
type CatalogResponse struct {
	SortKey    string       `json:"sortKey"`
	Descending bool         `json:"descending"`
	Count      int          `json:"count"`
	Records    []RecordInfo `json:"records"`
}

func recordInfo(rec *viewer.Record, current *viewer.Record) RecordInfo {
	id := rec.Identity()
	info := RecordInfo{
		Path:           rec.Path(),
		Name:           filepath.Base(rec.Path()),
		Type:           string(rec.Type()),
		Size:           id.Size,
		ModTime:        id.ModTime.Format(time.RFC3339),
		Loaded:         rec.Loaded(),
		Dirty:          rec.Dirty(),
		ResidentBytes:  rec.MemSize(),
		Current:        rec == current,
		ThumbnailReady: rec.Thumbnail() != nil,
	}
	if dims, ok := rec.Info(); ok {
		info.Width = dims.PrimaryWidth
		info.Height = dims.PrimaryHeight
		info.Area = dims.PrimaryArea
	}
	if meta := rec.Metadata(); meta != nil {
		info.Frames = meta.FrameCount
	}
	return info
}

// ListCatalog returns every record in the active sort order.
func (h *Handlers) ListCatalog(w http.ResponseWriter, _ *http.Request) {
	records := h.catalog.Records()
	current := h.catalog.Current()

	resp := CatalogResponse{
		SortKey:    h.catalog.SortKey(),
		Descending: h.catalog.SortDescending(),
		Count:      len(records),
		Records:    make([]RecordInfo, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, recordInfo(rec, current))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// SortRequest selects a catalog ordering.
type SortRequest struct {
	Key        string `json:"key"`
	Descending bool   `json:"descending"`
}

// SortCatalog reorders the catalog listing.
func (h *Handlers) SortCatalog(w http.ResponseWriter, r *http.Request) {
	var req SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.catalog.SortBy(req.Key, req.Descending); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":     "ok",
		"sortKey":    h.catalog.SortKey(),
		"descending": h.catalog.SortDescending(),
	})
}

// RescanCatalog re-reads the library directory. The watcher keeps the
// catalog current on its own; this exists for operators who want an
// immediate full rescan.
func (h *Handlers) RescanCatalog(w http.ResponseWriter, _ *http.Request) {
	if err := h.catalog.Populate(h.libraryDir); err != nil {
		logging.Error("Rescan failed: %v", err)
		writeJSONError(w, "rescan failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"records": h.catalog.Len(),
	})
}
