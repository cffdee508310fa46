package watcher

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/librashuai/tacentview/internal/viewer"
)

func writeWatchPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, cat *viewer.Catalog, dir string) *Watcher {
	t.Helper()
	w := New(cat, dir)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatcherAddsNewFiles(t *testing.T) {
	dir := t.TempDir()
	cat := viewer.NewCatalog()
	if err := cat.Populate(dir); err != nil {
		t.Fatal(err)
	}
	startWatcher(t, cat, dir)

	path := filepath.Join(dir, "new.png")
	writeWatchPNG(t, path, 8, 6)

	waitFor(t, "record to appear", func() bool {
		_, ok := cat.ByPath(path)
		return ok
	})
	if cat.Len() != 1 {
		t.Errorf("catalog has %d records, want 1", cat.Len())
	}
}

func TestWatcherRemovesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.png")
	writeWatchPNG(t, path, 8, 6)

	cat := viewer.NewCatalog()
	if err := cat.Populate(dir); err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 1 {
		t.Fatalf("catalog has %d records before delete, want 1", cat.Len())
	}
	startWatcher(t, cat, dir)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "record to vanish", func() bool { return cat.Len() == 0 })
}

func TestWatcherRefreshesModifiedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edited.png")
	writeWatchPNG(t, path, 8, 6)

	cat := viewer.NewCatalog()
	if err := cat.Populate(dir); err != nil {
		t.Fatal(err)
	}
	rec, ok := cat.ByPath(path)
	if !ok {
		t.Fatal("record not cataloged")
	}
	if err := rec.Load(); err != nil {
		t.Fatal(err)
	}
	startWatcher(t, cat, dir)

	writeWatchPNG(t, path, 16, 12)

	// A modified file loses its stale resident pixels.
	waitFor(t, "record to unload", func() bool { return !rec.Loaded() })

	if err := rec.Load(); err != nil {
		t.Fatal(err)
	}
	info, ok := rec.Info()
	if !ok || info.PrimaryWidth != 16 || info.PrimaryHeight != 12 {
		t.Errorf("reloaded dimensions = %dx%d, want 16x12", info.PrimaryWidth, info.PrimaryHeight)
	}
}

func TestWatcherIgnoresNonImages(t *testing.T) {
	dir := t.TempDir()
	cat := viewer.NewCatalog()
	if err := cat.Populate(dir); err != nil {
		t.Fatal(err)
	}
	startWatcher(t, cat, dir)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(3 * settleDelay)
	if cat.Len() != 0 {
		t.Errorf("catalog has %d records, want 0", cat.Len())
	}
}
