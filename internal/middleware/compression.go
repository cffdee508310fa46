package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig controls response compression.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int
	// Level is the gzip level.
	Level int
	// CompressibleTypes lists content types that compress. Thumbnail and
	// frame bytes are PNG and excluded; gzip would only burn CPU on them.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns defaults tuned for the JSON-heavy
// catalog API.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"text/html",
			"text/plain",
			"text/css",
			"text/javascript",
			"image/svg+xml",
		},
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipWriter buffers the response until it can tell whether the body is
// large enough and of a compressible type, then commits to plain or
// gzip output for the rest of the response.
type gzipWriter struct {
	http.ResponseWriter
	config    CompressionConfig
	gz        *gzip.Writer
	buf       []byte
	status    int
	committed bool
	compress  bool
}

func newGzipWriter(w http.ResponseWriter, config CompressionConfig) *gzipWriter {
	return &gzipWriter{
		ResponseWriter: w,
		config:         config,
		status:         http.StatusOK,
		buf:            make([]byte, 0, config.MinSize+1),
	}
}

func (g *gzipWriter) WriteHeader(status int) {
	if g.committed {
		return
	}
	g.status = status
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	if g.committed {
		if g.compress {
			return g.gz.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buf = append(g.buf, data...)
	if len(g.buf) > g.config.MinSize {
		g.commit()
	}
	return len(data), nil
}

// commit decides compression from what has been buffered and flushes
// the buffer through the chosen path.
func (g *gzipWriter) commit() {
	if g.committed {
		return
	}
	g.committed = true
	g.compress = len(g.buf) >= g.config.MinSize && g.compressibleType()

	if g.compress {
		g.Header().Del("Content-Length")
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")

		g.gz = gzipWriterPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.status)
		g.gz.Write(g.buf)
	} else {
		g.ResponseWriter.WriteHeader(g.status)
		g.ResponseWriter.Write(g.buf)
	}
	g.buf = nil
}

func (g *gzipWriter) compressibleType() bool {
	contentType := g.Header().Get("Content-Type")
	if contentType == "" {
		return false
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, t := range g.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

func (g *gzipWriter) Close() error {
	if !g.committed {
		g.commit()
	}
	if g.gz != nil {
		err := g.gz.Close()
		gzipWriterPool.Put(g.gz)
		g.gz = nil
		return err
	}
	return nil
}

func (g *gzipWriter) Flush() {
	if !g.committed {
		g.commit()
	}
	if g.gz != nil {
		g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression returns middleware gzipping compressible responses for
// clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipWriter(w, config)
			defer gzw.Close()

			next.ServeHTTP(gzw, r)
		})
	}
}
