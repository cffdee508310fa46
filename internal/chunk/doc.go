// Package chunk implements the self-describing binary container used by
// the on-disk thumbnail cache. A stream is a sequence of id-tagged,
// length-prefixed, 4-byte-aligned payloads; readers skip ids they do not
// recognize, which lets the format grow without breaking old files.
package chunk
