package thumbnail

import (
	"fmt"
	"time"

	"github.com/librashuai/tacentview/internal/codec"
	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/filetype"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/metrics"
	"github.com/librashuai/tacentview/internal/picture"
)

const (
	// decodeAttempts and decodeRetryDelay cover source files still being
	// written or briefly locked by another process.
	decodeAttempts   = 5
	decodeRetryDelay = 250 * time.Millisecond
)

// Request names the source file a thumbnail is wanted for.
type Request struct {
	Path  string
	Type  filetype.Type
	Cache *Cache
}

// Result is what a generation run hands back. On failure Pic is nil and
// Err says why; the failure stays local, callers just end up without a
// thumbnail and may re-request later.
type Result struct {
	Pic       *picture.Picture
	Info      Info
	Meta      *Metadata
	FromCache bool
	Err       error
}

// Generate produces the thumbnail for one request. It probes the cache
// first and only decodes the source on a miss. Output is deterministic:
// the same source bytes and identity always produce the identical
// thumbnail, so cached and fresh results are interchangeable.
//
// Generate runs in a worker goroutine and touches nothing besides the
// filesystem, so any number of generations for distinct files may run
// concurrently.
func Generate(req Request) Result {
	start := time.Now()

	id, err := filesystem.FileIdentity(req.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("failed").Inc()
		return Result{Err: fmt.Errorf("stat %s: %w", req.Path, err)}
	}
	key := Key(req.Path, id)

	if entry, ok := req.Cache.Load(key); ok {
		metrics.ThumbnailCacheHits.Inc()
		metrics.ThumbnailGenerationsTotal.WithLabelValues("cache_hit").Inc()
		metrics.ThumbnailGenerationDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
		return Result{Pic: entry.Pic, Info: entry.Info, Meta: entry.Meta, FromCache: true}
	}
	metrics.ThumbnailCacheMisses.Inc()

	dec, err := decodeWithRetry(req.Path, req.Type)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("failed").Inc()
		logging.Debug("Thumbnail generation failed for %s: %v", req.Path, err)
		return Result{Err: err}
	}

	primary := dec.Frames[0]
	info := Info{
		PrimaryWidth:  primary.Width(),
		PrimaryHeight: primary.Height(),
		PrimaryArea:   primary.Area(),
	}

	var total time.Duration
	for _, frame := range dec.Frames {
		total += frame.Duration
	}
	meta := &Metadata{
		SourceFormat: string(dec.SourceFormat),
		FrameCount:   len(dec.Frames),
		Duration:     total,
		Opaque:       primary.Opaque(),
	}

	fitW, fitH := picture.FitScale(primary.Width(), primary.Height(), Width, Height)
	thumb := picture.CropPad(picture.Resample(primary, fitW, fitH), Width, Height)
	thumb.Duration = 0

	// A failed write is not a failed generation. The thumbnail stays
	// usable for this session and a later run will try the write again.
	entry := &Entry{Info: info, Meta: meta, Pic: thumb}
	if err := req.Cache.Store(key, entry); err != nil {
		metrics.ThumbnailCacheWriteErrors.Inc()
		logging.Warn("Failed to persist thumbnail for %s: %v", req.Path, err)
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("generated").Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	return Result{Pic: thumb, Info: info, Meta: meta}
}

func decodeWithRetry(path string, typ filetype.Type) (*codec.Decoded, error) {
	var lastErr error
	for attempt := 1; attempt <= decodeAttempts; attempt++ {
		dec, err := codec.Decode(path, typ)
		if err == nil {
			if len(dec.Frames) > 0 {
				return dec, nil
			}
			err = fmt.Errorf("decoded %s but got no frames", path)
		}
		lastErr = err
		if attempt < decodeAttempts {
			logging.Debug("Decode attempt %d/%d failed for %s: %v", attempt, decodeAttempts, path, err)
			time.Sleep(decodeRetryDelay)
		}
	}
	return nil, lastErr
}
