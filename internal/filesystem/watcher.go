package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/librashuai/tacentview/internal/logging"
)

// ChangeKind classifies a watched-directory event.
type ChangeKind int

const (
	// ChangeModified means file content may differ from what was loaded.
	ChangeModified ChangeKind = iota
	// ChangeCreated means a new file appeared.
	ChangeCreated
	// ChangeRemoved means the file was deleted or renamed away.
	ChangeRemoved
)

// String returns the change kind as a metric-friendly label.
func (k ChangeKind) String() string {
	switch k {
	case ChangeModified:
		return "modified"
	case ChangeCreated:
		return "created"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one observed mutation inside a watched directory.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher reports changes to files in a single directory using fsnotify.
// Events for hidden files are dropped.
type Watcher struct {
	fw      *fsnotify.Watcher
	changes chan Change
}

// NewWatcher starts watching dir. The watch is not recursive; the viewer
// catalogs one directory at a time.
func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{fw: fw, changes: make(chan Change, 64)}
	go w.run()
	logging.Debug("watching %s for changes", dir)
	return w, nil
}

// Changes returns the stream of observed changes. The channel is closed
// when the watcher shuts down.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Close stops the watcher and closes the change stream.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) run() {
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			c, ok := translateEvent(event)
			if !ok {
				continue
			}
			select {
			case w.changes <- c:
			default:
				// A stalled consumer must not block the event loop.
				logging.Debug("watcher queue full, dropping %s event for %s", c.Kind, c.Path)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error: %v", err)
		}
	}
}

// translateEvent maps an fsnotify event to a Change. Chmod-only events and
// hidden files are ignored.
func translateEvent(event fsnotify.Event) (Change, bool) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return Change{}, false
	}
	switch {
	case event.Op&fsnotify.Create != 0:
		return Change{Path: event.Name, Kind: ChangeCreated}, true
	case event.Op&fsnotify.Write != 0:
		return Change{Path: event.Name, Kind: ChangeModified}, true
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return Change{Path: event.Name, Kind: ChangeRemoved}, true
	}
	return Change{}, false
}
