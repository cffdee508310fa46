package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/docker/go-units"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	Uptime string `json:"uptime"`

	Records         int    `json:"records"`
	LoadedRecords   int    `json:"loadedRecords"`
	ResidentBytes   int64  `json:"residentBytes"`
	ResidentSize    string `json:"residentSize"`
	ThumbnailsReady int    `json:"thumbnailsReady"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports daemon health. It answers 503 until the initial
// library scan completes.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	ready := h.ready
	h.mu.Unlock()

	stats := h.catalog.Stats()
	response := HealthResponse{
		Ready:           ready,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		Records:         h.catalog.Len(),
		LoadedRecords:   stats.Loaded,
		ResidentBytes:   stats.ResidentBytes,
		ResidentSize:    units.BytesSize(float64(stats.ResidentBytes)),
		ThumbnailsReady: stats.ThumbnailsReady,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	if ready {
		response.Status = statusHealthy
		w.WriteHeader(http.StatusOK)
	} else {
		response.Status = statusStarting
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck always answers 200 while the process serves requests.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}
