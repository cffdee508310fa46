/*
Package viewer holds the in-memory model of the image library: one
Record per file, collected into a Catalog.

# Records

A Record starts unloaded, knowing only its path, type and file identity.
Load decodes the file into resident frames; Unload releases them again
while keeping the thumbnail and the cached scalar summaries (primary
width, height, area), so dimension sorts and grid views work without any
pixels resident. The summaries are filled by whichever comes first, a
successful thumbnail generation or a full load, and stay put across
unload and reload.

Thumbnails are generated off-thread. RequestThumbnail admits a worker
through the shared scheduler, the worker pushes its result into a
single-slot channel, and PollThumbnail drains that channel without
blocking. InvalidateThumbnail (or UnrequestThumbnail) during a run does
not cancel the worker; the next poll just discards what it produced.
Close joins any in-flight worker before tearing the record down.

# Catalog

The Catalog keeps the same records in two orders. The display order
answers navigation and listing, sortable by name, modification time,
size, type, area, width, height, or shuffled. The load-order view
tracks when each record was last loaded; the memory evictor walks it
oldest first. Every insert and removal updates both views together.
*/
package viewer
