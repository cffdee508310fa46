// Package watcher keeps the catalog synchronized with the library
// directory while the daemon runs.
package watcher

import (
	"os"
	"sync"
	"time"

	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/filetype"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/metrics"
	"github.com/librashuai/tacentview/internal/viewer"
)

// settleDelay is how long a path must stay quiet before its events are
// acted on. Editors and downloads touch a file several times in quick
// succession; reacting to the first write would catalog half-written
// images.
const settleDelay = 250 * time.Millisecond

// Watcher mirrors filesystem changes in the library directory into the
// catalog. New image files are added, deleted ones removed, and modified
// ones get their identity refreshed and their thumbnail invalidated.
type Watcher struct {
	catalog *viewer.Catalog
	dir     string

	fsw      *filesystem.Watcher
	stopChan chan struct{}
	doneChan chan struct{}

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher over dir feeding catalog. Start must be called
// before any events flow.
func New(catalog *viewer.Catalog, dir string) *Watcher {
	return &Watcher{
		catalog:  catalog,
		dir:      dir,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
		pending:  make(map[string]time.Time),
	}
}

// Start begins watching the library directory.
func (w *Watcher) Start() error {
	fsw, err := filesystem.NewWatcher(w.dir)
	if err != nil {
		return err
	}
	w.fsw = fsw

	go w.run()
	logging.Info("Watching library directory %s", w.dir)
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.fsw == nil {
		return
	}
	close(w.stopChan)
	<-w.doneChan
	if err := w.fsw.Close(); err != nil {
		logging.Warn("Closing filesystem watcher: %v", err)
	}
}

func (w *Watcher) run() {
	defer close(w.doneChan)

	flush := time.NewTicker(settleDelay)
	defer flush.Stop()

	for {
		select {
		case change, ok := <-w.fsw.Changes():
			if !ok {
				return
			}
			w.observe(change)
		case <-flush.C:
			w.flushSettled()
		case <-w.stopChan:
			return
		}
	}
}

// observe records a change for later processing, dropping files the
// viewer does not handle.
func (w *Watcher) observe(change filesystem.Change) {
	if filetype.FromPath(change.Path) == filetype.TypeUnknown {
		return
	}

	logging.Debug("Watcher observed %s: %s", change.Kind, change.Path)
	w.mu.Lock()
	w.pending[change.Path] = time.Now()
	w.mu.Unlock()
}

// flushSettled applies the changes for every path that has been quiet
// for at least settleDelay.
func (w *Watcher) flushSettled() {
	cutoff := time.Now().Add(-settleDelay)

	w.mu.Lock()
	var settled []string
	for path, last := range w.pending {
		if last.Before(cutoff) {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.apply(path)
	}
}

// apply reconciles one settled path against the catalog. The current
// state on disk decides the action; event kinds are unreliable across
// rename chains.
func (w *Watcher) apply(path string) {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	switch {
	case err != nil:
		if w.catalog.Remove(path) {
			metrics.WatcherEventsTotal.WithLabelValues("removed").Inc()
			logging.Info("Removed %s from catalog", path)
		} else if !os.IsNotExist(err) {
			logging.Warn("Failed to stat %s: %v", path, err)
		}

	case info.IsDir():
		// Flat library, subdirectories are not watched.

	default:
		if rec, ok := w.catalog.ByPath(path); ok {
			w.refresh(rec)
			metrics.WatcherEventsTotal.WithLabelValues("modified").Inc()
			return
		}
		if _, err := w.catalog.Add(path); err != nil {
			logging.Warn("Failed to add %s to catalog: %v", path, err)
			return
		}
		metrics.WatcherEventsTotal.WithLabelValues("created").Inc()
		logging.Info("Added %s to catalog", path)
	}
}

// refresh re-reads a changed record's identity, discards any cached
// thumbnail keyed on the old identity, and drops stale resident pixels
// so the next view decodes the new contents. A record holding unsaved
// edits keeps them.
func (w *Watcher) refresh(rec *viewer.Record) {
	if err := rec.RefreshIdentity(); err != nil {
		logging.Warn("Failed to refresh identity of %s: %v", rec.Path(), err)
	}
	rec.InvalidateThumbnail()
	if rec.Loaded() && !rec.Dirty() {
		rec.Unload(false)
	}
	logging.Info("Refreshed %s after modification", rec.Path())
}
