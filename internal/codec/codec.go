package codec

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"time"

	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/filetype"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/picture"

	"github.com/disintegration/imaging"

	// Registers the webp decoder with image.Decode.
	_ "golang.org/x/image/webp"
)

// Decoded is the result of decoding an image file.
type Decoded struct {
	Frames       []*picture.Picture
	SourceFormat filetype.Type
}

// Decode reads and decodes the image file at path. Animated images come
// back with one fully composited picture per frame, stills with exactly
// one. The type hint normally comes from the file extension; when it is
// unknown the file header is sniffed instead.
func Decode(path string, typ filetype.Type) (*Decoded, error) {
	if typ == filetype.TypeUnknown {
		detected, err := DetectType(path)
		if err != nil {
			return nil, fmt.Errorf("detect type: %w", err)
		}
		logging.Debug("Sniffed %s as %s", path, detected)
		typ = detected
	}

	switch typ {
	case filetype.TypeGIF:
		return decodeGIF(path)
	case filetype.TypeHEIC, filetype.TypeAVIF:
		return decodeVips(path, typ)
	default:
		return decodeStill(path, typ)
	}
}

// decodeStill handles single-frame formats. It prefers the pure Go
// decoders and falls back to libvips for anything they reject.
func decodeStill(path string, typ filetype.Type) (*Decoded, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		logging.Debug("Pure Go decode failed for %s: %v", path, err)
		if IsVipsAvailable() {
			return decodeVips(path, typ)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &Decoded{
		Frames:       []*picture.Picture{picture.FromImage(img)},
		SourceFormat: typ,
	}, nil
}

// decodeGIF decodes every frame of a GIF and composites each onto the
// logical screen, honoring the frame disposal methods, so callers always
// see full frames.
func decodeGIF(path string) (*Decoded, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer file.Close()

	g, err := gif.DecodeAll(file)
	if err != nil {
		return nil, fmt.Errorf("decode gif %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif %s has no frames", path)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewNRGBA(bounds)
	frames := make([]*picture.Picture, 0, len(g.Image))

	for i, src := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var saved *image.NRGBA
		if disposal == gif.DisposalPrevious {
			saved = image.NewNRGBA(bounds)
			copy(saved.Pix, canvas.Pix)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)

		pic := picture.FromImage(canvas)
		if i < len(g.Delay) {
			pic.Duration = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		frames = append(frames, pic)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}

	return &Decoded{Frames: frames, SourceFormat: filetype.TypeGIF}, nil
}

// EncodePNG writes the picture to w as a PNG.
func EncodePNG(w io.Writer, p *picture.Picture) error {
	if p == nil || p.Img == nil {
		return fmt.Errorf("nil picture")
	}
	return png.Encode(w, p.Img)
}

// DetectType sniffs the image type from the file header. It returns
// TypeUnknown for headers it does not recognize.
func DetectType(path string) (filetype.Type, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return filetype.TypeUnknown, err
	}
	defer file.Close()

	header := make([]byte, 32)
	n, err := file.Read(header)
	if err != nil {
		return filetype.TypeUnknown, err
	}
	header = header[:n]

	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return filetype.TypeJPEG, nil

	case len(header) >= 8 && header[0] == 0x89 && header[1] == 0x50 && header[2] == 0x4E && header[3] == 0x47:
		return filetype.TypePNG, nil

	case len(header) >= 4 && header[0] == 0x47 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x38:
		return filetype.TypeGIF, nil

	case len(header) >= 12 && header[0] == 0x52 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x46 &&
		header[8] == 0x57 && header[9] == 0x45 && header[10] == 0x42 && header[11] == 0x50:
		return filetype.TypeWebP, nil

	case len(header) >= 2 && header[0] == 0x42 && header[1] == 0x4D:
		return filetype.TypeBMP, nil

	case len(header) >= 4 && ((header[0] == 0x49 && header[1] == 0x49 && header[2] == 0x2A && header[3] == 0x00) ||
		(header[0] == 0x4D && header[1] == 0x4D && header[2] == 0x00 && header[3] == 0x2A)):
		return filetype.TypeTIFF, nil

	case len(header) >= 12 && header[4] == 0x66 && header[5] == 0x74 && header[6] == 0x79 && header[7] == 0x70:
		brand := string(header[8:12])
		if brand == "heic" || brand == "heix" || brand == "hevc" || brand == "hevx" || brand == "mif1" || brand == "msf1" {
			return filetype.TypeHEIC, nil
		}
		if brand == "avif" || brand == "avis" {
			return filetype.TypeAVIF, nil
		}
		return filetype.TypeUnknown, nil
	}

	return filetype.TypeUnknown, nil
}
