package viewer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/librashuai/tacentview/internal/codec"
	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/filetype"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/metrics"
	"github.com/librashuai/tacentview/internal/picture"
	"github.com/librashuai/tacentview/internal/thumbnail"

	"github.com/docker/go-units"
)

// loadStamp orders full loads across all records. The evictor unloads in
// ascending stamp order, oldest load first.
var loadStamp atomic.Int64

// unloadedStamp marks a record without resident frames.
const unloadedStamp int64 = -1

// defaultFrameDuration stands in for frames that carry no delay of
// their own during playback.
const defaultFrameDuration = 100 * time.Millisecond

// Record is one catalog entry: a single image file, its decoded frames
// once loaded, its thumbnail once generated, and the flags tying both
// lifecycles together.
//
// All methods are safe for concurrent use. A generation worker never
// touches the record; it hands its result over a single-slot channel
// that PollThumbnail drains on the serving side.
type Record struct {
	mu sync.Mutex

	path string
	typ  filetype.Type
	id   filesystem.Identity

	// Resident content. frames empty means unloaded.
	frames  []*picture.Picture
	alt     *picture.Picture
	dirty   bool
	memSize int64
	loaded  int64 // load stamp, unloadedStamp when not resident

	// Thumbnail state machine.
	thumb           *picture.Picture
	thumbRequested  bool
	thumbRunning    bool
	thumbInvalidate bool
	thumbDone       chan thumbnail.Result

	// Scalar summaries survive unloads and restarts. They are filled by
	// the first successful thumbnail generation or full load, whichever
	// comes first.
	info     thumbnail.Info
	haveInfo bool
	meta     *thumbnail.Metadata

	// Playback state for multi-frame records.
	playing        bool
	currentFrame   int
	frameRemainder time.Duration
}

// NewRecord returns an unloaded record for the file at path.
func NewRecord(path string, id filesystem.Identity) *Record {
	return &Record{
		path:   path,
		typ:    filetype.FromPath(path),
		id:     id,
		loaded: unloadedStamp,
	}
}

// Path returns the file path.
func (r *Record) Path() string { return r.path }

// Type returns the file type derived from the extension.
func (r *Record) Type() filetype.Type { return r.typ }

// Identity returns the file identity from the last stat.
func (r *Record) Identity() filesystem.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// RefreshIdentity re-stats the file, picking up size and timestamp
// changes so the next thumbnail generation keys correctly.
func (r *Record) RefreshIdentity() error {
	id, err := filesystem.FileIdentity(r.path, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.id = id
	r.mu.Unlock()
	return nil
}

// Loaded reports whether full-resolution frames are resident.
func (r *Record) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames) > 0
}

// Dirty reports whether the record carries unsaved modifications.
func (r *Record) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// MarkDirty flags the record as modified. A dirty record refuses plain
// unloads so edits cannot be dropped by the evictor.
func (r *Record) MarkDirty() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// MemSize returns the resident byte size of all frames plus the
// alternate picture. Zero when unloaded.
func (r *Record) MemSize() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memSize
}

// LoadedTime returns the record's load stamp, or a negative value when
// the record is not resident. Stamps are globally ordered: a smaller
// stamp means an earlier load.
func (r *Record) LoadedTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Frames returns the resident frames. Callers must treat the slice as
// read-only; it is shared with the record until the next unload.
func (r *Record) Frames() []*picture.Picture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// FrameCount returns the number of resident frames.
func (r *Record) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Alt returns the alternate composite picture, if one was generated.
func (r *Record) Alt() *picture.Picture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alt
}

// Info returns the cached scalar summaries of the primary frame. ok is
// false until the first successful thumbnail generation or full load.
func (r *Record) Info() (thumbnail.Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info, r.haveInfo
}

// Metadata returns extended metadata when known, else nil.
func (r *Record) Metadata() *thumbnail.Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta
}

// Load decodes the file into resident frames. It is a no-op when frames
// are already resident. The first load also fills the scalar summaries.
func (r *Record) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) > 0 {
		return nil
	}

	start := time.Now()
	dec, err := codec.Decode(r.path, r.typ)
	if err != nil {
		metrics.ImageLoadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load %s: %w", r.path, err)
	}

	if id, err := filesystem.FileIdentity(r.path, filesystem.DefaultRetryConfig()); err == nil {
		r.id = id
	}

	r.frames = dec.Frames
	r.currentFrame = 0
	r.frameRemainder = 0
	r.recomputeMemSize()
	r.loaded = loadStamp.Add(1)

	if !r.haveInfo {
		primary := dec.Frames[0]
		r.info = thumbnail.Info{
			PrimaryWidth:  primary.Width(),
			PrimaryHeight: primary.Height(),
			PrimaryArea:   primary.Area(),
		}
		r.haveInfo = true
	}
	if r.meta == nil {
		var total time.Duration
		for _, frame := range dec.Frames {
			total += frame.Duration
		}
		r.meta = &thumbnail.Metadata{
			SourceFormat: string(dec.SourceFormat),
			FrameCount:   len(dec.Frames),
			Duration:     total,
			Opaque:       dec.Frames[0].Opaque(),
		}
	}

	metrics.ImageLoadsTotal.WithLabelValues("success").Inc()
	metrics.ImageLoadDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Loaded %s: %d frames, %s resident",
		r.path, len(r.frames), units.BytesSize(float64(r.memSize)))
	return nil
}

// Unload releases the resident frames while keeping the thumbnail and
// scalar summaries. A dirty record refuses unless force is set; a forced
// unload discards the unsaved changes. Reports whether the record is
// unloaded on return.
func (r *Record) Unload(force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unloadLocked(force)
}

func (r *Record) unloadLocked(force bool) bool {
	if len(r.frames) == 0 {
		return true
	}
	if r.dirty && !force {
		return false
	}

	r.frames = nil
	r.alt = nil
	r.memSize = 0
	r.loaded = unloadedStamp
	r.dirty = false
	r.playing = false
	r.currentFrame = 0
	r.frameRemainder = 0
	return true
}

func (r *Record) recomputeMemSize() {
	var size int64
	for _, frame := range r.frames {
		size += frame.MemSize()
	}
	size += r.alt.MemSize()
	r.memSize = size
}

// GenerateAltFrameStrip lays every resident frame side by side into the
// alternate picture. The strip counts against the memory budget like any
// other resident pixels.
func (r *Record) GenerateAltFrameStrip() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return fmt.Errorf("%s is not loaded", r.path)
	}
	r.alt = picture.FrameStrip(r.frames)
	r.recomputeMemSize()
	return nil
}

// Thumbnail returns the generated thumbnail, or nil while absent.
func (r *Record) Thumbnail() *picture.Picture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.thumb
}

// ThumbnailRequested reports whether a thumbnail request is outstanding.
func (r *Record) ThumbnailRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.thumbRequested
}

// RequestThumbnail asks for this record's thumbnail. The request is
// idempotent: while a worker runs or a thumbnail already exists it is a
// no-op. When no scheduler slot is free the request is dropped and the
// caller simply re-requests later. Reports whether a worker was
// admitted.
func (r *Record) RequestThumbnail(sched *thumbnail.Scheduler, cache *thumbnail.Cache) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.thumb != nil || r.thumbRunning {
		return false
	}
	if !sched.TryAcquire() {
		return false
	}

	r.thumbRequested = true
	r.thumbRunning = true
	done := make(chan thumbnail.Result, 1)
	r.thumbDone = done

	req := thumbnail.Request{Path: r.path, Type: r.typ, Cache: cache}
	go func() {
		done <- thumbnail.Generate(req)
		sched.Release()
	}()
	return true
}

// PollThumbnail checks for a finished generation without blocking and
// reports whether a thumbnail is available. A result that arrives after
// InvalidateThumbnail is discarded unseen, covering files that changed
// mid-generation.
func (r *Record) PollThumbnail() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.thumbRunning {
		return r.thumb != nil
	}

	select {
	case res := <-r.thumbDone:
		r.thumbRunning = false
		r.thumbDone = nil

		if r.thumbInvalidate {
			r.thumbInvalidate = false
			r.thumbRequested = false
			r.thumb = nil
			r.haveInfo = false
			r.meta = nil
			metrics.ThumbnailGenerationsTotal.WithLabelValues("discarded").Inc()
			return false
		}
		if res.Err != nil {
			// Reset the request flag so a later request retries.
			r.thumbRequested = false
			return false
		}

		r.thumb = res.Pic
		if !r.haveInfo {
			r.info = res.Info
			r.haveInfo = true
		}
		if r.meta == nil {
			r.meta = res.Meta
		}
		return true
	default:
		return false
	}
}

// InvalidateThumbnail drops the thumbnail because the underlying file
// may have changed. With a worker in flight the discard is deferred to
// the next PollThumbnail; workers are never cancelled mid-run.
func (r *Record) InvalidateThumbnail() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.thumbRunning {
		r.thumbInvalidate = true
		return
	}
	r.thumb = nil
	r.thumbRequested = false
	r.haveInfo = false
	r.meta = nil
}

// UnrequestThumbnail withdraws an outstanding request. An in-flight
// worker still finishes but its result is discarded.
func (r *Record) UnrequestThumbnail() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.thumbRunning {
		r.thumbInvalidate = true
		return
	}
	r.thumbRequested = false
}

// Close releases everything the record holds. When a generation worker
// is still running, Close blocks until it finishes so no goroutine is
// left writing into a dismantled record.
func (r *Record) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.thumbRunning {
		<-r.thumbDone
		r.thumbRunning = false
		r.thumbDone = nil
	}
	r.unloadLocked(true)
	r.thumb = nil
	r.thumbRequested = false
	r.thumbInvalidate = false
}

// Play starts frame playback. Single-frame records stay stopped.
func (r *Record) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) > 1 {
		r.playing = true
	}
}

// Stop halts frame playback.
func (r *Record) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
}

// Playing reports whether frame playback is running.
func (r *Record) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// CurrentFrame returns the index of the frame currently shown.
func (r *Record) CurrentFrame() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentFrame
}

// SetCurrentFrame jumps playback to frame i, clamped to the resident
// range.
func (r *Record) SetCurrentFrame(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i < 0 {
		i = 0
	}
	if max := len(r.frames) - 1; i > max && max >= 0 {
		i = max
	}
	r.currentFrame = i
	r.frameRemainder = 0
}

// UpdatePlaying advances playback by elapsed wall time, carrying the
// remainder so uneven tick intervals do not drift the animation.
func (r *Record) UpdatePlaying(dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.playing || len(r.frames) < 2 {
		return
	}

	r.frameRemainder += dt
	for {
		d := r.frames[r.currentFrame].Duration
		if d <= 0 {
			d = defaultFrameDuration
		}
		if r.frameRemainder < d {
			return
		}
		r.frameRemainder -= d
		r.currentFrame = (r.currentFrame + 1) % len(r.frames)
	}
}
