// Package codec decodes image files into pictures the rest of the viewer
// works with.
//
// The pure Go decoders (imaging plus the x/image formats) handle JPEG,
// PNG, GIF, WebP, BMP and TIFF. HEIC and AVIF go through libvips, which
// must be initialized once at startup with InitVips. GIFs are decoded
// frame by frame and composited so every returned frame is complete.
//
// File types normally come from the catalog, which maps extensions. For
// files with missing or lying extensions DetectType sniffs the header.
package codec
