// Package picture holds the decoded-frame type shared by the codec, the
// thumbnail pipeline and the viewer, together with the resampling and
// crop-or-pad operations thumbnails are built from.
package picture
