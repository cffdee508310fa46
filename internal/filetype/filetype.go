package filetype

import (
	"path/filepath"
	"strings"
)

// Type identifies the image format associated with a catalog file.
type Type string

const (
	// TypeJPEG represents JPEG images.
	TypeJPEG Type = "jpeg"
	// TypePNG represents PNG images.
	TypePNG Type = "png"
	// TypeGIF represents GIF images, possibly animated.
	TypeGIF Type = "gif"
	// TypeWebP represents WebP images.
	TypeWebP Type = "webp"
	// TypeBMP represents BMP images.
	TypeBMP Type = "bmp"
	// TypeTIFF represents TIFF images.
	TypeTIFF Type = "tiff"
	// TypeHEIC represents HEIC/HEIF images.
	TypeHEIC Type = "heic"
	// TypeAVIF represents AVIF images.
	TypeAVIF Type = "avif"
	// TypeUnknown represents files the viewer does not handle.
	TypeUnknown Type = "unknown"
)

// extTypes maps lowercase file extensions to image types.
var extTypes = map[string]Type{
	".jpg":  TypeJPEG,
	".jpeg": TypeJPEG,
	".png":  TypePNG,
	".gif":  TypeGIF,
	".webp": TypeWebP,
	".bmp":  TypeBMP,
	".tiff": TypeTIFF,
	".tif":  TypeTIFF,
	".heic": TypeHEIC,
	".heif": TypeHEIC,
	".avif": TypeAVIF,
}

// mimeTypes maps image types to their MIME types.
var mimeTypes = map[Type]string{
	TypeJPEG: "image/jpeg",
	TypePNG:  "image/png",
	TypeGIF:  "image/gif",
	TypeWebP: "image/webp",
	TypeBMP:  "image/bmp",
	TypeTIFF: "image/tiff",
	TypeHEIC: "image/heic",
	TypeAVIF: "image/avif",
}

// FromPath returns the Type for a file path based on its extension.
func FromPath(path string) Type {
	return FromExt(strings.ToLower(filepath.Ext(path)))
}

// FromExt returns the Type for a lowercase extension including the leading
// dot (e.g. ".jpg"). Returns TypeUnknown if the extension is not recognized.
func FromExt(ext string) Type {
	if t, ok := extTypes[ext]; ok {
		return t
	}
	return TypeUnknown
}

// Supported reports whether the viewer catalogs files of this type.
func Supported(t Type) bool {
	return t != TypeUnknown
}

// Types lists every supported image type in a stable order.
func Types() []Type {
	return []Type{TypeJPEG, TypePNG, TypeGIF, TypeWebP, TypeBMP, TypeTIFF, TypeHEIC, TypeAVIF}
}

// MimeType returns the MIME type for t.
// Returns "application/octet-stream" if the type is not recognized.
func MimeType(t Type) string {
	if mime, ok := mimeTypes[t]; ok {
		return mime
	}
	return "application/octet-stream"
}
