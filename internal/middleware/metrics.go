package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/librashuai/tacentview/internal/metrics"
)

// MetricsConfig controls which requests are recorded.
type MetricsConfig struct {
	SkipPaths []string
}

// DefaultMetricsConfig skips the scrape and probe endpoints so they do
// not dominate the series.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns middleware recording request counts, durations, and
// the in-flight gauge.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newStatusWriter(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(wrapped.status)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// normalizePath bounds label cardinality. File paths travel in query
// strings, so routes are static and at most three segments deep; deeper
// paths are unrouted probes and collapse into one label.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	segments := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		segments++
		if segments > 3 {
			return strings.Join(parts[:i], "/") + "/{path}"
		}
	}
	return path
}
