package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

func TestEnsureDirectory(t *testing.T) {
	base := t.TempDir()

	t.Run("Creates missing directory", func(t *testing.T) {
		path := filepath.Join(base, "new", "nested")
		if err := ensureDirectory(path, "library"); err != nil {
			t.Fatalf("ensureDirectory() error: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			t.Errorf("directory not created: %v", err)
		}
	})

	t.Run("Accepts existing directory", func(t *testing.T) {
		if err := ensureDirectory(base, "cache"); err != nil {
			t.Errorf("ensureDirectory() error on existing dir: %v", err)
		}
	})

	t.Run("Rejects regular file", func(t *testing.T) {
		path := filepath.Join(base, "file")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ensureDirectory(path, "cache"); err == nil {
			t.Error("ensureDirectory() accepted a regular file")
		}
	})
}

func TestTestWriteAccess(t *testing.T) {
	dir := t.TempDir()
	if err := testWriteAccess(dir); err != nil {
		t.Errorf("testWriteAccess() error on writable dir: %v", err)
	}

	if err := testWriteAccess(filepath.Join(dir, "missing")); err == nil {
		t.Error("testWriteAccess() succeeded on a missing directory")
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/catalog", "api/catalog"},
		{"/api/catalog/sort", "api/catalog"},
		{"/api/view/next", "api/view"},
		{"/healthz", "healthz"},
		{"/metrics", "metrics"},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	router.HandleFunc("/healthz", ok).Methods("GET")
	router.HandleFunc("/api/catalog", ok).Methods("GET")
	router.HandleFunc("/api/view", ok).Methods("GET", "POST")

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error: %v", err)
	}

	// One entry per method, so /api/view contributes two.
	if len(routes) != 4 {
		t.Fatalf("GetRoutes() returned %d routes, want 4", len(routes))
	}

	seen := make(map[string]bool)
	for _, route := range routes {
		seen[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{"GET /healthz", "GET /api/catalog", "GET /api/view", "POST /api/view"} {
		if !seen[want] {
			t.Errorf("GetRoutes() missing %s", want)
		}
	}
}

func TestEnabledString(t *testing.T) {
	if got := enabledString(true); got != "ENABLED" {
		t.Errorf("enabledString(true) = %q, want ENABLED", got)
	}
	if got := enabledString(false); got != "DISABLED" {
		t.Errorf("enabledString(false) = %q, want DISABLED", got)
	}
}
