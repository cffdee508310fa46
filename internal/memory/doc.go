/*
Package memory bounds the bytes spent on decoded image frames.

Decoded frames dominate the process footprint: a single 24-megapixel
photo costs close to 100 MB once expanded to RGBA. The viewer keeps
recently shown images resident so flipping back is instant, which left
unchecked would grow without bound. The Evictor enforces a byte budget
over the catalog's resident records by unloading whole records in
load-stamp order, oldest first, after each load completes.

Two records are never touched by a pass. The record currently on screen
is exempt regardless of age, and dirty records with unsaved edits refuse
the unload and are skipped. Because of the first exemption one oversized
image may exceed the budget on its own; the pass drops everything else
and accepts the overshoot.

During fast slideshows eviction is suspended. When the transition period
drops under FastTransitionThreshold every record in the rotation is
about to be shown again, so unloading it only buys a decode stall. The
caller computes this condition with IsFastTransition from the slideshow
state and passes it into AfterLoad.

Eviction only drops pixel data. Thumbnails, file identity, and the
cached dimension summaries survive, so sorting and the browser strip
keep working over evicted records without forcing reloads.
*/
package memory
