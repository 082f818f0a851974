package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"batch-resizer/internal/logging"
	"batch-resizer/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewResponseWriter(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}
	if rw.bytesWritten != 0 || rw.wroteHeader {
		t.Errorf("Expected fresh writer, got bytes=%d wroteHeader=%v", rw.bytesWritten, rw.wroteHeader)
	}
}

func TestResponseWriterWriteHeader(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected first status 404 to stick, got %d", rw.statusCode)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	n, err := rw.Write([]byte("test data"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 9 || rw.bytesWritten != 9 {
		t.Errorf("Expected 9 bytes written, got n=%d bytesWritten=%d", n, rw.bytesWritten)
	}
	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

func TestResponseWriterUnwrapSupportsResponseController(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	if rw.Unwrap() != rec {
		t.Fatal("Unwrap should return the wrapped writer")
	}
	if err := http.NewResponseController(rw).Flush(); err != nil {
		t.Errorf("Flush through controller: %v", err)
	}
	if !rec.Flushed {
		t.Error("Expected recorder to be flushed")
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/batch", "/api/batch"},
		{"line1\nline2", "line1 line2"},
		{"a\r\nb", "a  b"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\tok", "tab\tok"},
	}

	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "10.0.0.5:5555"
	if got := getClientIP(req); got != "10.0.0.5" {
		t.Errorf("RemoteAddr: got %q", got)
	}

	req.Header.Set("X-Real-IP", "10.0.0.6")
	if got := getClientIP(req); got != "10.0.0.6" {
		t.Errorf("X-Real-IP: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	if got := getClientIP(req); got != "203.0.113.1" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		config        LoggingConfig
		expectLogging bool
	}{
		{"logs api requests", "/api/batch", DefaultLoggingConfig(), true},
		{"skips configured paths", "/metrics", DefaultLoggingConfig(), false},
		{"logs health checks when enabled", "/health", LoggingConfig{LogHealthChecks: true}, true},
		{"skips health checks when disabled", "/livez", LoggingConfig{LogHealthChecks: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logging.SetOutput(&buf)

			handler := Logger(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte("ok"))
			}))

			req := httptest.NewRequest(http.MethodPost, tt.path+"?dry=1", http.NoBody)
			req.Header.Set("User-Agent", "resize client")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			logging.Sync()

			if w.Code != http.StatusCreated {
				t.Errorf("Expected status 201, got %d", w.Code)
			}

			logged := strings.Contains(buf.String(), tt.path+" dry=1 201 2 ")
			if logged != tt.expectLogging {
				t.Errorf("logged = %v, want %v; output: %s", logged, tt.expectLogging, buf.String())
			}
			if logged && !strings.Contains(buf.String(), `"resize client"`) {
				t.Errorf("Expected quoted user agent in %s", buf.String())
			}
		})
	}
}

func TestLoggerAssignsRequestID(t *testing.T) {
	logging.SetOutput(io.Discard)

	var seen string
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/formats", http.NoBody))
	if seen == "" {
		t.Fatal("Expected a generated request ID in the context")
	}
	if got := w.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header = %q, context = %q", got, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	req.Header.Set(RequestIDHeader, "batch-42\n")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != "batch-42 " {
		t.Errorf("client request ID not kept on skipped path: %q", seen)
	}
}

func TestRequestIDWithoutMiddleware(t *testing.T) {
	if got := RequestID(httptest.NewRequest(http.MethodGet, "/", http.NoBody).Context()); got != "" {
		t.Errorf("RequestID = %q, want empty", got)
	}
}

func TestEscapeW3CField(t *testing.T) {
	if got := escapeW3CField("curl/8.0"); got != "curl/8.0" {
		t.Errorf("plain field changed: %q", got)
	}
	if got := escapeW3CField(`a "b" c`); got != `"a ""b"" c"` {
		t.Errorf("quoted field: %q", got)
	}
}

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		body              string
		contentType       string
		acceptEncoding    string
		expectCompression bool
	}{
		{"compresses large JSON", strings.Repeat(`{"path":"a.jpg"}`, 200), "application/json", "gzip", true},
		{"compresses NDJSON", strings.Repeat("{\"percent\":50}\n", 200), "application/x-ndjson", "gzip, deflate", true},
		{"skips small responses", `{"status":"ok"}`, "application/json", "gzip", false},
		{"skips images", strings.Repeat("data", 500), "image/jpeg", "gzip", false},
		{"respects client without gzip", strings.Repeat("data", 500), "application/json", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusAccepted)
				_, _ = io.WriteString(w, tt.body)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/batch", http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusAccepted {
				t.Errorf("Expected status 202, got %d", w.Code)
			}

			compressed := w.Header().Get("Content-Encoding") == "gzip"
			if compressed != tt.expectCompression {
				t.Fatalf("compressed = %v, want %v", compressed, tt.expectCompression)
			}

			body := w.Body.Bytes()
			if compressed {
				gz, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip reader: %v", err)
				}
				body, err = io.ReadAll(gz)
				if err != nil {
					t.Fatalf("read gzip body: %v", err)
				}
			}
			if string(body) != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionFlushSendsBufferedData(t *testing.T) {
	var afterFlush int
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, "{\"percent\":50}\n")
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("flush: %v", err)
		}
		afterFlush = w.(*gzipResponseWriter).ResponseWriter.(*httptest.ResponseRecorder).Body.Len()
		_, _ = io.WriteString(w, "{\"percent\":100}\n")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/batch/stream", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if afterFlush == 0 {
		t.Error("Expected first event to reach the client on flush")
	}
	if got := w.Body.String(); got != "{\"percent\":50}\n{\"percent\":100}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestMetricsMiddlewareRecordsRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics(DefaultMetricsConfig()))
	router.HandleFunc("/api/jobs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/jobs/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, http.NoBody))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("Expected 3 requests recorded under the route template, got %v", got)
	}

	healthCounter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	healthBefore := testutil.ToFloat64(healthCounter)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if got := testutil.ToFloat64(healthCounter) - healthBefore; got != 0 {
		t.Errorf("Expected health checks to be skipped, got %v", got)
	}
}

func TestRouteTemplateWithoutRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/anything", http.NoBody)
	if got := routeTemplate(req); got != unmatchedRoute {
		t.Errorf("routeTemplate = %q, want %q", got, unmatchedRoute)
	}
}

func TestDefaultMetricsConfig(t *testing.T) {
	config := DefaultMetricsConfig()
	for _, p := range []string{"/metrics", "/health", "/livez", "/readyz"} {
		found := false
		for _, skip := range config.SkipPaths {
			if skip == p {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in SkipPaths", p)
		}
	}
}
