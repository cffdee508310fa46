package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/librashuai/tacentview/internal/config"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestPrepare(t *testing.T) {
	base := t.TempDir()

	cfg := &config.Config{SlideshowPeriod: "8s", MetricsInterval: "15s"}
	cfg.Library.Path = filepath.Join(base, "images")
	cfg.Library.SortKey = "name"
	cfg.Cache.Dir = filepath.Join(base, "cache", "thumbs")

	if err := Prepare(cfg); err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	if !filepath.IsAbs(cfg.Library.Path) || !filepath.IsAbs(cfg.Cache.Dir) {
		t.Errorf("paths not rewritten to absolute: %s, %s", cfg.Library.Path, cfg.Cache.Dir)
	}
	for _, dir := range []string{cfg.Library.Path, cfg.Cache.Dir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
}

func TestPrepare_CachePathIsFile(t *testing.T) {
	base := t.TempDir()
	cachePath := filepath.Join(base, "cache")
	if err := os.WriteFile(cachePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{SlideshowPeriod: "8s", MetricsInterval: "15s"}
	cfg.Library.Path = filepath.Join(base, "images")
	cfg.Library.SortKey = "name"
	cfg.Cache.Dir = cachePath

	if err := Prepare(cfg); err == nil {
		t.Error("Prepare() accepted a cache path that is a regular file")
	}
}
