package thumbnail

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/librashuai/tacentview/internal/chunk"
	"github.com/librashuai/tacentview/internal/filesystem"
	"github.com/librashuai/tacentview/internal/logging"
	"github.com/librashuai/tacentview/internal/picture"

	"golang.org/x/crypto/blake2b"
)

// Thumbnail dimensions are fixed. Every cache key includes them, so a
// future size change simply keys past entries out of existence.
const (
	Width  = 256
	Height = 144
)

// keyVersion is folded into every cache key. Bump it when the entry
// encoding changes so stale files become unreachable instead of
// misparsed.
const keyVersion = 3

// Chunk ids for the pieces of a cache entry.
const (
	chunkInfo     = 0x0B000000
	chunkMetadata = 0x0B000100
	chunkPicture  = 0x0B000200
)

// Info carries the scalar summaries of the source image. They are
// recorded at generation time and survive both unloads and restarts,
// which is what lets the catalog sort by dimensions without decoding
// anything.
type Info struct {
	PrimaryWidth  int
	PrimaryHeight int
	PrimaryArea   int
}

// Metadata describes the source image beyond its dimensions. It is
// optional in a cache entry.
type Metadata struct {
	SourceFormat string
	FrameCount   int
	Duration     time.Duration
	Opaque       bool
}

// Entry is one decoded cache file.
type Entry struct {
	Info Info
	Meta *Metadata
	Pic  *picture.Picture
}

// Key derives the cache key for one (file identity, thumbnail size)
// pairing. It is a pure function: equal inputs always produce the same
// 64-digit uppercase hex key, and any differing input produces a
// different key.
func Key(path string, id filesystem.Identity) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only reachable with a bad key argument, and we pass none.
		panic(err)
	}

	var buf [8]byte
	le := binary.LittleEndian

	le.PutUint32(buf[:4], keyVersion)
	h.Write(buf[:4])

	le.PutUint32(buf[:4], uint32(len(path)))
	h.Write(buf[:4])
	io.WriteString(h, path)

	le.PutUint64(buf[:], uint64(id.Size))
	h.Write(buf[:])
	le.PutUint64(buf[:], uint64(id.ChangeTime.UnixNano()))
	h.Write(buf[:])
	le.PutUint64(buf[:], uint64(id.ModTime.UnixNano()))
	h.Write(buf[:])

	le.PutUint32(buf[:4], Width)
	h.Write(buf[:4])
	le.PutUint32(buf[:4], Height)
	h.Write(buf[:4])

	return fmt.Sprintf("%X", h.Sum(nil))
}

// Cache is the content-addressed on-disk thumbnail store. Entries are
// written once under their key and never modified; a changed source file
// changes the key, and orphaned entries wait for the janitor.
type Cache struct {
	dir   string
	retry filesystem.RetryConfig
}

// NewCache opens (creating if needed) the cache directory.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, retry: filesystem.DefaultRetryConfig()}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// EntryPath returns the file path holding the entry for key.
func (c *Cache) EntryPath(key string) string {
	return filepath.Join(c.dir, key+".bin")
}

// Load reads the entry for key. Anything short of a fully parseable
// entry, a missing file included, reports ok false and is handled by the
// caller as a miss.
func (c *Cache) Load(key string) (*Entry, bool) {
	file, err := filesystem.OpenWithRetry(c.EntryPath(key), c.retry)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	chunks, err := chunk.ReadAll(file)
	if err != nil {
		logging.Debug("Unreadable cache entry %s: %v", key, err)
		return nil, false
	}

	var entry Entry
	var haveInfo, havePic bool
	for _, ck := range chunks {
		switch ck.ID {
		case chunkInfo:
			if !decodeInfo(ck.Payload, &entry.Info) {
				return nil, false
			}
			haveInfo = true
		case chunkMetadata:
			meta, ok := decodeMetadata(ck.Payload)
			if !ok {
				return nil, false
			}
			entry.Meta = meta
		case chunkPicture:
			pic := &picture.Picture{}
			if err := pic.UnmarshalBinary(ck.Payload); err != nil {
				logging.Debug("Bad picture chunk in cache entry %s: %v", key, err)
				return nil, false
			}
			entry.Pic = pic
			havePic = true
		}
	}

	if !haveInfo || !havePic {
		return nil, false
	}
	return &entry, true
}

// Store writes the entry for key atomically. An existing file under the
// same key is only ever replaced wholesale, never patched, so readers
// can never observe a half-written entry.
func (c *Cache) Store(key string, entry *Entry) error {
	picPayload, err := entry.Pic.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	var buf bytes.Buffer
	w := chunk.NewWriter(&buf)
	if err := w.Write(chunkInfo, encodeInfo(entry.Info)); err != nil {
		return err
	}
	if entry.Meta != nil {
		if err := w.Write(chunkMetadata, encodeMetadata(entry.Meta)); err != nil {
			return err
		}
	}
	if err := w.Write(chunkPicture, picPayload); err != nil {
		return err
	}

	return filesystem.WriteFileAtomic(c.EntryPath(key), buf.Bytes(), 0o644)
}

// Stats reports the entry count and total size of the cache directory.
func (c *Cache) Stats() (files int, size int64, err error) {
	entries, err := filesystem.ReadDirWithRetry(c.dir, c.retry)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bin") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files++
		size += info.Size()
	}
	return files, size, nil
}

// The info chunk is fixed at 16 bytes: width, height, area and a
// reserved word, all little-endian uint32.
func encodeInfo(info Info) []byte {
	buf := make([]byte, 16)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], uint32(info.PrimaryWidth))
	le.PutUint32(buf[4:8], uint32(info.PrimaryHeight))
	le.PutUint32(buf[8:12], uint32(info.PrimaryArea))
	return buf
}

func decodeInfo(payload []byte, info *Info) bool {
	if len(payload) < 12 {
		return false
	}
	le := binary.LittleEndian
	info.PrimaryWidth = int(le.Uint32(payload[0:4]))
	info.PrimaryHeight = int(le.Uint32(payload[4:8]))
	info.PrimaryArea = int(le.Uint32(payload[8:12]))
	return true
}

// The metadata chunk is a length-prefixed source format string followed
// by frame count, total duration in milliseconds and an opacity flag.
func encodeMetadata(meta *Metadata) []byte {
	le := binary.LittleEndian
	buf := make([]byte, 4+len(meta.SourceFormat)+9)

	le.PutUint32(buf[0:4], uint32(len(meta.SourceFormat)))
	copy(buf[4:], meta.SourceFormat)

	rest := buf[4+len(meta.SourceFormat):]
	le.PutUint32(rest[0:4], uint32(meta.FrameCount))
	le.PutUint32(rest[4:8], uint32(meta.Duration/time.Millisecond))
	if meta.Opaque {
		rest[8] = 1
	}
	return buf
}

func decodeMetadata(payload []byte) (*Metadata, bool) {
	if len(payload) < 4 {
		return nil, false
	}
	le := binary.LittleEndian
	strLen := int(le.Uint32(payload[0:4]))
	if strLen < 0 || len(payload) < 4+strLen+9 {
		return nil, false
	}

	meta := &Metadata{SourceFormat: string(payload[4 : 4+strLen])}
	rest := payload[4+strLen:]
	meta.FrameCount = int(le.Uint32(rest[0:4]))
	meta.Duration = time.Duration(le.Uint32(rest[4:8])) * time.Millisecond
	meta.Opaque = rest[8] == 1
	return meta, true
}
