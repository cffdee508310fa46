package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestIsStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "Nil error",
			err:  nil,
			want: false,
		},
		{
			name: "Direct ESTALE",
			err:  syscall.ESTALE,
			want: true,
		},
		{
			name: "ESTALE in PathError",
			err:  &os.PathError{Op: "stat", Path: "/nfs/file", Err: syscall.ESTALE},
			want: true,
		},
		{
			name: "Wrapped ESTALE",
			err:  fmt.Errorf("reading image: %w", syscall.ESTALE),
			want: true,
		},
		{
			name: "Other errno",
			err:  syscall.ENOENT,
			want: false,
		},
		{
			name: "Plain error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleError(tt.err); got != tt.want {
				t.Errorf("isStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"images": "/photos",
		"cache":  "/photos/cache",
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"Inside images", "/photos/vacation.jpg", "images"},
		{"Longest prefix wins", "/photos/cache/AB.bin", "cache"},
		{"Volume root itself", "/photos", "images"},
		{"Outside all volumes", "/etc/passwd", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	t.Run("Nil resolver", func(t *testing.T) {
		var nilVR *VolumeResolver
		if got := nilVR.Resolve("/photos/x.jpg"); got != "unknown" {
			t.Errorf("nil Resolve = %q, want %q", got, "unknown")
		}
	})
}

func TestStatWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jpg")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	t.Run("Existing file", func(t *testing.T) {
		info, err := StatWithRetry(path, DefaultRetryConfig())
		if err != nil {
			t.Fatalf("StatWithRetry error: %v", err)
		}
		if info.Size() != 4 {
			t.Errorf("Size = %d, want 4", info.Size())
		}
	})

	t.Run("Missing file fails immediately", func(t *testing.T) {
		start := time.Now()
		_, err := StatWithRetry(filepath.Join(dir, "absent.jpg"), DefaultRetryConfig())
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("StatWithRetry = %v, want not-exist", err)
		}
		// ENOENT is not retriable, so no backoff sleeps should occur
		if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
			t.Errorf("non-stale error took %v, should not have been retried", elapsed)
		}
	})
}

func TestOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.png")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	f, err := OpenWithRetry(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry error: %v", err)
	}
	f.Close()

	if _, err := OpenWithRetry(filepath.Join(dir, "absent.png"), DefaultRetryConfig()); err == nil {
		t.Error("OpenWithRetry on missing file succeeded, want error")
	}
}

func TestReadDirWithRetry(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
	}

	entries, err := ReadDirWithRetry(dir, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("ReadDirWithRetry error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ReadDirWithRetry returned %d entries, want 2", len(entries))
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("content = %q, want %q", data, "first")
	}

	// overwrite in place
	if err := WriteFileAtomic(path, []byte("second"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite error: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("content after overwrite = %q, want %q", data, "second")
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries after atomic writes, want 1", len(entries))
	}
}

func TestFileIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.gif")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	id, err := FileIdentity(path, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("FileIdentity error: %v", err)
	}
	if id.Size != 10 {
		t.Errorf("Size = %d, want 10", id.Size)
	}
	if id.ModTime.IsZero() {
		t.Error("ModTime is zero")
	}
	if id.ChangeTime.IsZero() {
		t.Error("ChangeTime is zero")
	}

	if _, err := FileIdentity(filepath.Join(dir, "nope.gif"), DefaultRetryConfig()); err == nil {
		t.Error("FileIdentity on missing file succeeded, want error")
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Skipf("cannot create watcher: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "new.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	select {
	case c := <-w.Changes():
		if c.Path != path {
			t.Errorf("change path = %q, want %q", c.Path, path)
		}
		if c.Kind != ChangeCreated && c.Kind != ChangeModified {
			t.Errorf("change kind = %v, want created or modified", c.Kind)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change event within 3s")
	}
}

func TestWatcherIgnoresHiddenFiles(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		wantOK bool
	}{
		{"Hidden file", "/photos/.DS_Store", false},
		{"Regular file", "/photos/cat.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := translateEvent(fsnotify.Event{Name: tt.path, Op: fsnotify.Create})
			if ok != tt.wantOK {
				t.Errorf("translateEvent(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
		})
	}
}

func TestTranslateEvent(t *testing.T) {
	tests := []struct {
		name     string
		op       fsnotify.Op
		wantKind ChangeKind
		wantOK   bool
	}{
		{"Create", fsnotify.Create, ChangeCreated, true},
		{"Write", fsnotify.Write, ChangeModified, true},
		{"Remove", fsnotify.Remove, ChangeRemoved, true},
		{"Rename", fsnotify.Rename, ChangeRemoved, true},
		{"Chmod only", fsnotify.Chmod, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := translateEvent(fsnotify.Event{Name: "/photos/x.png", Op: tt.op})
			if ok != tt.wantOK {
				t.Fatalf("translateEvent ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && c.Kind != tt.wantKind {
				t.Errorf("translateEvent kind = %v, want %v", c.Kind, tt.wantKind)
			}
		})
	}
}
