/*
Package thumbnail generates fixed-size preview pictures and persists them
in a content-addressed on-disk cache.

Every thumbnail is 256x144. The source image is scaled so the tighter
axis lands exactly on the target, then center-cropped or center-padded
with transparency to the exact dimensions. Generation is deterministic,
so a cache entry and a fresh generation for the same key are
interchangeable.

# Cache layout

Each entry lives in its own file named by a 64-digit uppercase hex key
with a .bin suffix. The key hashes the cache format version, the source
path, its size, change and modification times, and the thumbnail
dimensions. Any change to the source produces a new key; old entries are
never edited in place and are reclaimed only by the janitor.

An entry file is a chunk stream: an info chunk with the source's primary
dimensions, an optional metadata chunk, and the encoded thumbnail
picture. Corrupt or truncated entries read as cache misses and get
regenerated.

# Concurrency

The Scheduler admits at most one worker slot per generation, capped at
one less than GOMAXPROCS with a floor of two. There is no queue; callers
whose TryAcquire is denied simply re-request on a later UI frame.
Generate itself is a plain function safe to run from any number of
goroutines as long as each works on a distinct file.
*/
package thumbnail
