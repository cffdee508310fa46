package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/filetype"
)

func writeSourcePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = 255
		img.Pix[i+3] = 255
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

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}
	return cache
}

func TestGenerate_WideSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.png")
	writeSourcePNG(t, path, 1024, 512)
	cache := newTestCache(t)

	res := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: cache})
	if res.Err != nil {
		t.Fatalf("Generate() failed: %v", res.Err)
	}

	if res.FromCache {
		t.Error("FromCache = true on first generation")
	}
	if res.Pic.Width() != Width || res.Pic.Height() != Height {
		t.Fatalf("thumbnail = %dx%d, want %dx%d", res.Pic.Width(), res.Pic.Height(), Width, Height)
	}
	want := Info{PrimaryWidth: 1024, PrimaryHeight: 512, PrimaryArea: 1024 * 512}
	if res.Info != want {
		t.Errorf("Info = %+v, want %+v", res.Info, want)
	}
	if res.Meta == nil || res.Meta.FrameCount != 1 || res.Meta.SourceFormat != "png" {
		t.Errorf("Meta = %+v, want 1 png frame", res.Meta)
	}

	// 1024x512 scales to 256x128, leaving 8 transparent rows at the top
	// and bottom of the 144-high thumbnail.
	for _, y := range []int{0, 7, 136, 143} {
		if a := res.Pic.Img.NRGBAAt(128, y).A; a != 0 {
			t.Errorf("pad row y=%d has alpha %d, want 0", y, a)
		}
	}
	for _, y := range []int{8, 72, 135} {
		px := res.Pic.Img.NRGBAAt(128, y)
		if px.A != 255 || px.R == 0 {
			t.Errorf("content row y=%d = %v, want opaque red", y, px)
		}
	}

	// The entry must be on disk under the derived key.
	id, err := filesystem.FileIdentity(path, filesystem.DefaultRetryConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cache.EntryPath(Key(path, id))); err != nil {
		t.Errorf("cache entry not written: %v", err)
	}
}

func TestGenerate_TallSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tall.png")
	writeSourcePNG(t, path, 512, 1024)
	cache := newTestCache(t)

	res := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: cache})
	if res.Err != nil {
		t.Fatalf("Generate() failed: %v", res.Err)
	}

	// 512x1024 scales to 72x144, centered with 92 transparent columns on
	// each side.
	for _, x := range []int{0, 91, 164, 255} {
		if a := res.Pic.Img.NRGBAAt(x, 72).A; a != 0 {
			t.Errorf("pad column x=%d has alpha %d, want 0", x, a)
		}
	}
	for _, x := range []int{92, 128, 163} {
		px := res.Pic.Img.NRGBAAt(x, 72)
		if px.A != 255 || px.R == 0 {
			t.Errorf("content column x=%d = %v, want opaque red", x, px)
		}
	}
}

func TestGenerate_SecondRunHitsCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	writeSourcePNG(t, path, 640, 360)
	cache := newTestCache(t)

	first := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: cache})
	if first.Err != nil {
		t.Fatalf("first Generate() failed: %v", first.Err)
	}

	second := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: cache})
	if second.Err != nil {
		t.Fatalf("second Generate() failed: %v", second.Err)
	}

	if !second.FromCache {
		t.Error("second generation did not hit the cache")
	}
	if second.Info != first.Info {
		t.Errorf("cached Info = %+v, want %+v", second.Info, first.Info)
	}
	if !bytes.Equal(second.Pic.Img.Pix, first.Pic.Img.Pix) {
		t.Error("cached thumbnail pixels differ from generated ones")
	}
}

func TestGenerate_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cache := newTestCache(t)

	res := Generate(Request{
		Path:  filepath.Join(dir, "gone.png"),
		Type:  filetype.TypePNG,
		Cache: cache,
	})

	if res.Err == nil {
		t.Fatal("Generate() succeeded on missing file")
	}
	if res.Pic != nil {
		t.Error("Generate() returned a picture for a missing file")
	}
	if files, _, _ := cache.Stats(); files != 0 {
		t.Errorf("cache holds %d files after failed generation, want 0", files)
	}
}

func TestGenerate_CorruptSourceWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("png in name only"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := newTestCache(t)

	res := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: cache})

	if res.Err == nil {
		t.Fatal("Generate() succeeded on corrupt file")
	}
	if files, _, _ := cache.Stats(); files != 0 {
		t.Errorf("cache holds %d files after failed generation, want 0", files)
	}
}

func TestGenerate_CorruptEntryRegenerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	writeSourcePNG(t, path, 320, 180)
	cache := newTestCache(t)

	first := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: cache})
	if first.Err != nil {
		t.Fatalf("Generate() failed: %v", first.Err)
	}

	id, err := filesystem.FileIdentity(path, filesystem.DefaultRetryConfig())
	if err != nil {
		t.Fatal(err)
	}
	key := Key(path, id)
	if err := os.WriteFile(cache.EntryPath(key), []byte("smashed"), 0o644); err != nil {
		t.Fatal(err)
	}

	second := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: cache})
	if second.Err != nil {
		t.Fatalf("Generate() failed after corruption: %v", second.Err)
	}
	if second.FromCache {
		t.Error("corrupt entry read as a cache hit")
	}

	// The regeneration replaces the smashed entry with a good one.
	if _, ok := cache.Load(key); !ok {
		t.Error("entry still unreadable after regeneration")
	}
	if !bytes.Equal(second.Pic.Img.Pix, first.Pic.Img.Pix) {
		t.Error("regenerated thumbnail differs from original")
	}
}

func gradientPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
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

func TestGenerate_Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gradient.png")
	gradientPNG(t, path, 800, 600)

	// Two runs against separate caches must produce identical bytes.
	resA := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: newTestCache(t)})
	resB := Generate(Request{Path: path, Type: filetype.TypePNG, Cache: newTestCache(t)})
	if resA.Err != nil || resB.Err != nil {
		t.Fatalf("Generate() failed: %v, %v", resA.Err, resB.Err)
	}

	if !bytes.Equal(resA.Pic.Img.Pix, resB.Pic.Img.Pix) {
		t.Error("two generations of the same source differ")
	}
}
