package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/librashuai/tacentview/internal/filetype"
	"github.com/librashuai/tacentview/internal/picture"
)

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
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

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
}

// fullFrame returns a paletted frame covering the whole logical screen
// filled with palette index 0.
func fullFrame(w, h int, c color.Color) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{c})
}

// subFrame returns a paletted frame covering only rect, filled with c.
func subFrame(rect image.Rectangle, c color.Color) *image.Paletted {
	return image.NewPaletted(rect, color.Palette{c})
}

func writeGIF(t *testing.T, path string, g *gif.GIF) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, g); err != nil {
		t.Fatal(err)
	}
}

func TestDecode_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	writePNG(t, path, 20, 10, color.NRGBA{R: 255, A: 255})

	dec, err := Decode(path, filetype.FromPath(path))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if len(dec.Frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(dec.Frames))
	}
	if dec.SourceFormat != filetype.TypePNG {
		t.Errorf("SourceFormat = %q, want %q", dec.SourceFormat, filetype.TypePNG)
	}
	frame := dec.Frames[0]
	if frame.Width() != 20 || frame.Height() != 10 {
		t.Errorf("frame = %dx%d, want 20x10", frame.Width(), frame.Height())
	}
	if frame.Duration != 0 {
		t.Errorf("Duration = %v, want 0", frame.Duration)
	}
}

func TestDecode_JPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	writeJPEG(t, path, 16, 16)

	dec, err := Decode(path, filetype.FromPath(path))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(dec.Frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(dec.Frames))
	}
	if dec.Frames[0].Width() != 16 || dec.Frames[0].Height() != 16 {
		t.Errorf("frame = %dx%d, want 16x16", dec.Frames[0].Width(), dec.Frames[0].Height())
	}
}

func TestDecode_AnimatedGIF(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}

	g := &gif.GIF{
		Image: []*image.Paletted{
			fullFrame(10, 10, red),
			subFrame(image.Rect(6, 6, 10, 10), green),
		},
		Delay:    []int{5, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone},
		Config:   image.Config{Width: 10, Height: 10},
	}
	path := filepath.Join(t.TempDir(), "anim.gif")
	writeGIF(t, path, g)

	dec, err := Decode(path, filetype.TypeGIF)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if len(dec.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(dec.Frames))
	}
	if dec.Frames[0].Duration != 50*time.Millisecond {
		t.Errorf("frame 0 duration = %v, want 50ms", dec.Frames[0].Duration)
	}
	if dec.Frames[1].Duration != 100*time.Millisecond {
		t.Errorf("frame 1 duration = %v, want 100ms", dec.Frames[1].Duration)
	}

	// Every frame is composited to the full logical screen.
	for i, frame := range dec.Frames {
		if frame.Width() != 10 || frame.Height() != 10 {
			t.Errorf("frame %d = %dx%d, want 10x10", i, frame.Width(), frame.Height())
		}
	}

	// The second frame keeps the first frame's pixels outside its own rect.
	second := dec.Frames[1].Img
	if got := second.NRGBAAt(1, 1); got.R != 255 || got.A != 255 {
		t.Errorf("frame 1 at (1,1) = %v, want red (carried over)", got)
	}
	if got := second.NRGBAAt(7, 7); got.G != 255 || got.A != 255 {
		t.Errorf("frame 1 at (7,7) = %v, want green", got)
	}
}

func TestDecode_GIFBackgroundDisposal(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}

	g := &gif.GIF{
		Image: []*image.Paletted{
			fullFrame(8, 8, red),
			subFrame(image.Rect(0, 0, 2, 2), green),
		},
		Delay:    []int{0, 0},
		Disposal: []byte{gif.DisposalBackground, gif.DisposalNone},
		Config:   image.Config{Width: 8, Height: 8},
	}
	path := filepath.Join(t.TempDir(), "disposal.gif")
	writeGIF(t, path, g)

	dec, err := Decode(path, filetype.TypeGIF)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(dec.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(dec.Frames))
	}

	// Frame 0 was disposed to background, so frame 1 only shows its own rect.
	second := dec.Frames[1].Img
	if got := second.NRGBAAt(1, 1); got.G != 255 || got.A != 255 {
		t.Errorf("frame 1 at (1,1) = %v, want green", got)
	}
	if got := second.NRGBAAt(7, 7); got.A != 0 {
		t.Errorf("frame 1 at (7,7) = %v, want transparent", got)
	}
}

func TestDecode_SniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mystery.dat")
	writePNG(t, path, 6, 6, color.NRGBA{B: 255, A: 255})

	dec, err := Decode(path, filetype.TypeUnknown)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if dec.SourceFormat != filetype.TypePNG {
		t.Errorf("SourceFormat = %q, want %q", dec.SourceFormat, filetype.TypePNG)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(path, []byte("this is not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Decode(path, filetype.TypePNG); err == nil {
		t.Error("Decode() succeeded on corrupt file, want error")
	}
}

func TestDecode_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.png")
	if _, err := Decode(path, filetype.TypePNG); err == nil {
		t.Error("Decode() succeeded on missing file, want error")
	}
}

func TestDetectType(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "a.bin")
	writePNG(t, pngPath, 4, 4, color.NRGBA{A: 255})

	jpegPath := filepath.Join(dir, "b.bin")
	writeJPEG(t, jpegPath, 4, 4)

	raw := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name string
		path string
		want filetype.Type
	}{
		{"png", pngPath, filetype.TypePNG},
		{"jpeg", jpegPath, filetype.TypeJPEG},
		{"gif", raw("c.bin", []byte("GIF89a\x00\x00\x00\x00\x00\x00")), filetype.TypeGIF},
		{"bmp", raw("d.bin", []byte("BM\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")), filetype.TypeBMP},
		{"tiff le", raw("e.bin", []byte("II\x2A\x00\x00\x00\x00\x00\x00\x00\x00\x00")), filetype.TypeTIFF},
		{"tiff be", raw("f.bin", []byte("MM\x00\x2A\x00\x00\x00\x00\x00\x00\x00\x00")), filetype.TypeTIFF},
		{"webp", raw("g.bin", []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")), filetype.TypeWebP},
		{"heic", raw("h.bin", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00")), filetype.TypeHEIC},
		{"heif mif1", raw("i.bin", []byte("\x00\x00\x00\x18ftypmif1\x00\x00\x00\x00")), filetype.TypeHEIC},
		{"avif", raw("j.bin", []byte("\x00\x00\x00\x18ftypavif\x00\x00\x00\x00")), filetype.TypeAVIF},
		{"mp4 container", raw("k.bin", []byte("\x00\x00\x00\x18ftypisom\x00\x00\x00\x00")), filetype.TypeUnknown},
		{"garbage", raw("l.bin", []byte("hello world, not an image")), filetype.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(tt.path)
			if err != nil {
				t.Fatalf("DetectType() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodePNG(t *testing.T) {
	pic := picture.New(5, 7)

	var buf bytes.Buffer
	if err := EncodePNG(&buf, pic); err != nil {
		t.Fatalf("EncodePNG() failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding output failed: %v", err)
	}
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 7 {
		t.Errorf("output = %dx%d, want 5x7", img.Bounds().Dx(), img.Bounds().Dy())
	}

	if err := EncodePNG(&buf, nil); err == nil {
		t.Error("EncodePNG(nil) succeeded, want error")
	}
}
