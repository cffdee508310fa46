package picture

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
)

// FormatRGBA8 tags the only pixel layout currently written to cache files:
// 8 bits per channel RGBA, non-premultiplied.
const FormatRGBA8 uint32 = 1

// maxDim bounds the dimensions accepted when decoding a serialized picture.
const maxDim = 1 << 15

// Picture is one decoded frame: a non-premultiplied RGBA pixel buffer plus
// the display duration for frames of animated sources.
type Picture struct {
	Img      *image.NRGBA
	Duration time.Duration
}

// New returns a fully transparent picture of the given dimensions.
func New(w, h int) *Picture {
	return &Picture{Img: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

// FromImage converts any decoded image into a Picture.
func FromImage(img image.Image) *Picture {
	return &Picture{Img: imaging.Clone(img)}
}

// Width returns the picture width in pixels.
func (p *Picture) Width() int { return p.Img.Rect.Dx() }

// Height returns the picture height in pixels.
func (p *Picture) Height() int { return p.Img.Rect.Dy() }

// Area returns width times height.
func (p *Picture) Area() int { return p.Width() * p.Height() }

// MemSize returns the resident size of the pixel buffer in bytes.
func (p *Picture) MemSize() int64 {
	if p == nil || p.Img == nil {
		return 0
	}
	return int64(len(p.Img.Pix))
}

// Opaque reports whether every pixel has full alpha.
func (p *Picture) Opaque() bool { return p.Img.Opaque() }

// FitScale returns src scaled by the largest factor that keeps both axes
// within dstW x dstH, preserving aspect ratio. One axis of the result lands
// exactly on its bound; the other may fall short but never exceeds.
func FitScale(srcW, srcH, dstW, dstH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return 0, 0
	}
	scale := float64(dstW) / float64(srcW)
	if s := float64(dstH) / float64(srcH); s < scale {
		scale = s
	}
	w := int(float64(srcW)*scale + 0.5)
	h := int(float64(srcH)*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Resample scales p to exactly w x h with a Lanczos filter. The result is
// deterministic for identical input, which the thumbnail cache relies on.
func Resample(p *Picture, w, h int) *Picture {
	return &Picture{Img: imaging.Resize(p.Img, w, h, imaging.Lanczos), Duration: p.Duration}
}

// CropPad brings p to exactly w x h around its center: axes larger than the
// target are cropped, axes smaller than the target are padded with
// transparent fill.
func CropPad(p *Picture, w, h int) *Picture {
	img := p.Img
	cw, ch := img.Rect.Dx(), img.Rect.Dy()
	if cw == w && ch == h {
		return p
	}
	if cw > w || ch > h {
		img = imaging.CropCenter(img, min(cw, w), min(ch, h))
	}
	if img.Rect.Dx() < w || img.Rect.Dy() < h {
		img = imaging.PasteCenter(imaging.New(w, h, color.NRGBA{}), img)
	}
	return &Picture{Img: img, Duration: p.Duration}
}

// FrameStrip lays the frames out left to right on one transparent canvas,
// vertically centered. Used for the alternate display composite of
// multi-frame records.
func FrameStrip(frames []*Picture) *Picture {
	if len(frames) == 0 {
		return nil
	}
	var w, h int
	for _, f := range frames {
		w += f.Width()
		if f.Height() > h {
			h = f.Height()
		}
	}
	canvas := imaging.New(w, h, color.NRGBA{})
	x := 0
	for _, f := range frames {
		canvas = imaging.Paste(canvas, f.Img, image.Pt(x, (h-f.Height())/2))
		x += f.Width()
	}
	return &Picture{Img: canvas}
}

// MarshalBinary encodes the picture as width, height, pixel format tag and
// duration in milliseconds (4 little-endian bytes each) followed by the raw
// pixel rows.
func (p *Picture) MarshalBinary() ([]byte, error) {
	w, h := p.Width(), p.Height()
	buf := make([]byte, 16, 16+w*h*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(w))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h))
	binary.LittleEndian.PutUint32(buf[8:12], FormatRGBA8)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(p.Duration/time.Millisecond))
	for y := 0; y < h; y++ {
		off := p.Img.PixOffset(p.Img.Rect.Min.X, p.Img.Rect.Min.Y+y)
		buf = append(buf, p.Img.Pix[off:off+w*4]...)
	}
	return buf, nil
}

// UnmarshalBinary decodes a payload produced by MarshalBinary.
func (p *Picture) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("picture payload too short: %d bytes", len(data))
	}
	w := int(binary.LittleEndian.Uint32(data[0:4]))
	h := int(binary.LittleEndian.Uint32(data[4:8]))
	format := binary.LittleEndian.Uint32(data[8:12])
	durMS := binary.LittleEndian.Uint32(data[12:16])

	if format != FormatRGBA8 {
		return fmt.Errorf("unsupported pixel format %d", format)
	}
	if w <= 0 || h <= 0 || w > maxDim || h > maxDim {
		return fmt.Errorf("invalid picture dimensions %dx%d", w, h)
	}
	if got, want := len(data)-16, w*h*4; got != want {
		return fmt.Errorf("picture payload size %d, want %d", got, want)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, data[16:])
	p.Img = img
	p.Duration = time.Duration(durMS) * time.Millisecond
	return nil
}
