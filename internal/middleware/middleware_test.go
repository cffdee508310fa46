package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/librashuai/tacentview/internal/metrics"
)

func TestStatusWriter(t *testing.T) {
	t.Run("capture status and bytes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		sw := newStatusWriter(rec)
		sw.WriteHeader(http.StatusNotFound)
		sw.Write([]byte("not here"))

		if sw.status != http.StatusNotFound {
			t.Errorf("status = %d, want %d", sw.status, http.StatusNotFound)
		}
		if sw.written != 8 {
			t.Errorf("written = %d, want 8", sw.written)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("recorded code = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("default status on bare write", func(t *testing.T) {
		sw := newStatusWriter(httptest.NewRecorder())
		sw.Write([]byte("ok"))
		if sw.status != http.StatusOK {
			t.Errorf("status = %d, want %d", sw.status, http.StatusOK)
		}
	})

	t.Run("second WriteHeader ignored", func(t *testing.T) {
		sw := newStatusWriter(httptest.NewRecorder())
		sw.WriteHeader(http.StatusAccepted)
		sw.WriteHeader(http.StatusTeapot)
		if sw.status != http.StatusAccepted {
			t.Errorf("status = %d, want %d", sw.status, http.StatusAccepted)
		}
	})
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	h := Chain(inner, tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := "outer,inner,handler"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("execution order = %s, want %s", got, want)
	}
}

func TestSkipLogging(t *testing.T) {
	config := DefaultLoggingConfig()
	tests := []struct {
		path string
		want bool
	}{
		{"/metrics", true},
		{"/healthz", true},
		{"/livez", true},
		{"/api/catalog", false},
		{"/api/thumbnail", false},
	}
	for _, tt := range tests {
		if got := skipLogging(tt.path, config); got != tt.want {
			t.Errorf("skipLogging(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	config.LogHealthChecks = true
	if skipLogging("/healthz", config) {
		t.Error("health check skipped with LogHealthChecks enabled")
	}
}

func TestLoggerWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("missing"))
		}))

	req := httptest.NewRequest("GET", "/api/thumbnail?path=a.png", nil)
	req.Header.Set("User-Agent", "test-agent")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{"GET", "/api/thumbnail", "path=a.png", "404", "test-agent"} {
		if !strings.Contains(line, want) {
			t.Errorf("access line missing %q: %s", want, line)
		}
	}

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))
	if buf.Len() != 0 {
		t.Errorf("skipped path produced a log line: %s", buf.String())
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "GET /api/catalog", "GET /api/catalog"},
		{"newline", "a\nb", "a b"},
		{"carriage return", "a\rb", "a b"},
		{"null byte", "a\x00b", "ab"},
		{"ansi escape", "a\x1b[31mb", "a[31mb"},
		{"control char", "a\x07b", "ab"},
		{"tab kept", "a\tb", "a\tb"},
		{"unicode kept", "café", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.in); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"curl/8.0", "curl/8.0"},
		{"Mozilla 5.0", `"Mozilla 5.0"`},
		{`say "hi"`, `"say ""hi"""`},
	}
	for _, tt := range tests {
		if got := quoteLogField(tt.in); got != tt.want {
			t.Errorf("quoteLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "127.0.0.1:1234", "10.0.0.1"},
		{"forwarded single", map[string]string{"X-Forwarded-For": "10.0.0.3"}, "127.0.0.1:1234", "10.0.0.3"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.4"}, "127.0.0.1:1234", "10.0.0.4"},
		{"remote addr", nil, "192.168.1.5:5678", "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/api/catalog", "/api/catalog"},
		{"/api/view/next", "/api/view/next"},
		{"/api/a/b/c", "/api/a/b/{path}"},
		{"/x/y/z/w/v", "/x/y/z/{path}"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	var inFlight float64
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			inFlight = testutil.ToFloat64(metrics.HTTPRequestsInFlight)
			w.WriteHeader(http.StatusAccepted)
		}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/thumbnail", "202")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/thumbnail?path=x.png", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("request counter delta = %v, want 1", got)
	}
	if inFlight != 1 {
		t.Errorf("in-flight gauge during request = %v, want 1", inFlight)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge after request = %v, want 0", got)
	}
}

func TestMetricsMiddlewareSkipsPaths(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/metrics", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))

	if got := testutil.ToFloat64(counter); got != before {
		t.Errorf("scrape endpoint was recorded: %v -> %v", before, got)
	}
}

func TestCompression(t *testing.T) {
	large := strings.Repeat("catalog entry ", 200)

	serve := func(contentType, body string, acceptGzip bool) *httptest.ResponseRecorder {
		handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", contentType)
				w.Write([]byte(body))
			}))
		req := httptest.NewRequest("GET", "/api/catalog", nil)
		if acceptGzip {
			req.Header.Set("Accept-Encoding", "gzip")
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("large json compressed", func(t *testing.T) {
		rec := serve("application/json", large, true)
		if rec.Header().Get("Content-Encoding") != "gzip" {
			t.Fatal("large JSON response not gzip encoded")
		}
		gz, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(gz)
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != large {
			t.Error("decompressed body does not match original")
		}
	})

	t.Run("small body passes through", func(t *testing.T) {
		rec := serve("application/json", `{"status":"ok"}`, true)
		if rec.Header().Get("Content-Encoding") == "gzip" {
			t.Error("tiny response was compressed")
		}
		if rec.Body.String() != `{"status":"ok"}` {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("png passes through", func(t *testing.T) {
		rec := serve("image/png", large, true)
		if rec.Header().Get("Content-Encoding") == "gzip" {
			t.Error("image bytes were compressed")
		}
	})

	t.Run("no accept-encoding passes through", func(t *testing.T) {
		rec := serve("application/json", large, false)
		if rec.Header().Get("Content-Encoding") == "gzip" {
			t.Error("compressed for a client that did not ask")
		}
		if rec.Body.String() != large {
			t.Error("body altered without compression")
		}
	})
}
