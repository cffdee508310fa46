// Package handlers provides HTTP request handlers for the viewer API.
//
// It includes handlers for:
//   - Catalog listing, sorting, and rescans
//   - Thumbnail retrieval with request/poll semantics
//   - View selection, navigation, and full-size frame serving
//   - Slideshow control and animation playback
//   - Thumbnail cache inspection, trim, and clear
//   - Health checks and Prometheus metrics
package handlers
