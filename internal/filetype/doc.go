// Package filetype maps file extensions to the image formats the viewer
// understands.
//
// It exists as a dependency-free foundation that the catalog, codec and
// HTTP layers can all import without creating cycles. Detection is purely
// extension-based; content sniffing lives in the codec package, which
// consults the actual bytes when a decode is attempted.
//
// Use FromPath to classify a file:
//
//	t := filetype.FromPath(name)
//	if !filetype.Supported(t) {
//	    // not a viewer image, skip during catalog population
//	}
//
// MimeType supports HTTP responses that serve original files:
//
//	w.Header().Set("Content-Type", filetype.MimeType(t))
package filetype
