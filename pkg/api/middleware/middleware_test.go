package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/logging"
)

// --- BodySizeLimit Tests ---

func TestBodySizeLimit_AllowsSmallRequest(t *testing.T) {
	handler := BodySizeLimit(1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))

	req := httptest.NewRequest("POST", "/", strings.NewReader("small body"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "small body" {
		t.Errorf("Expected echoed body, got %q", rr.Body.String())
	}
}

func TestBodySizeLimit_RejectsLargeContentLength(t *testing.T) {
	handler := BodySizeLimit(100)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called for oversized request")
	}))

	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	req.ContentLength = 1000
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status %d, got %d", http.StatusRequestEntityTooLarge, rr.Code)
	}
}

func TestBodySizeLimit_LimitsActualBody(t *testing.T) {
	handler := BodySizeLimit(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "Body too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 100)))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status %d, got %d", http.StatusRequestEntityTooLarge, rr.Code)
	}
}

// --- PanicRecovery Tests ---

func TestPanicRecovery_HandlesNormalRequest(t *testing.T) {
	handler := PanicRecovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestPanicRecovery_RecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)
	handler := PanicRecovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/boom", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if strings.Contains(rr.Body.String(), "test panic") {
		t.Error("Response should not contain panic message")
	}
	if !strings.Contains(buf.String(), "test panic") || !strings.Contains(buf.String(), "/boom") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

// --- Logging Tests ---

func TestLogging_RecordsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)

	handler := RequestID()(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "test-id-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v: %s", err, buf.String())
	}
	fields, _ := entry["fields"].(map[string]any)
	if fields == nil {
		fields = entry
	}
	if fields["request_id"] != "test-id-123" {
		t.Errorf("request_id = %v, want test-id-123", fields["request_id"])
	}
	if fields["status"] != float64(http.StatusTeapot) {
		t.Errorf("status = %v, want %d", fields["status"], http.StatusTeapot)
	}
}

func TestLogging_NilLogger(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

// --- RequestID Tests ---

func captureID(t *testing.T, header string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var captured string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return captured, rr
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	id, rr := captureID(t, "")
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Errorf("Expected a UUID, got %q", id)
	}
	if rr.Header().Get(RequestIDHeader) != id {
		t.Errorf("Response header should contain request ID")
	}

	other, _ := captureID(t, "")
	if other == id {
		t.Error("Expected distinct IDs for distinct requests")
	}
}

func TestRequestID_ClientProvided(t *testing.T) {
	tests := []struct {
		name   string
		header string
		check  func(string) bool
	}{
		{"kept", "client-provided-id", func(id string) bool { return id == "client-provided-id" }},
		{"sanitized", "id<script>alert('xss')</script>", func(id string) bool { return !strings.ContainsAny(id, "<>'\"()") }},
		{"truncated", strings.Repeat("a", 200), func(id string) bool { return len(id) == maxRequestIDLength }},
		{"only junk", "<<>>", func(id string) bool { return len(id) == 36 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _ := captureID(t, tt.header)
			if !tt.check(id) {
				t.Errorf("request ID = %q", id)
			}
		})
	}
}

func TestGetRequestID_NoContext(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest("GET", "/", nil)); id != "" {
		t.Errorf("Expected empty string for request without ID, got '%s'", id)
	}
}

func TestSanitizeRequestID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"abc123", "abc123"},
		{"abc-123_456.xyz", "abc-123_456.xyz"},
		{"<script>", "script"},
		{"foo bar", "foobar"},
		{"test@email.com", "testemail.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := sanitizeRequestID(tt.input); result != tt.expected {
				t.Errorf("sanitizeRequestID(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// --- CORS Tests ---

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	only := DefaultCORSConfig()
	only.AllowedOrigins = []string{"https://ops.example"}
	wildcard := DefaultCORSConfig()
	wildcard.AllowedOrigins = []string{"*"}

	tests := []struct {
		name       string
		config     *CORSConfig
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", only, "GET", "https://ops.example", http.StatusOK, "https://ops.example"},
		{"other origin", only, "GET", "https://evil.example", http.StatusOK, ""},
		{"wildcard", wildcard, "GET", "https://any.example", http.StatusOK, "https://any.example"},
		{"default denies", DefaultCORSConfig(), "GET", "https://ops.example", http.StatusOK, ""},
		{"nil config", nil, "GET", "https://ops.example", http.StatusOK, ""},
		{"preflight allowed", only, "OPTIONS", "https://ops.example", http.StatusNoContent, "https://ops.example"},
		{"preflight denied", only, "OPTIONS", "https://evil.example", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/session", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			CORS(tt.config)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if tt.wantAllow != "" && rr.Header().Get("Access-Control-Max-Age") != "86400" {
				t.Errorf("Max-Age = %q", rr.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

// --- Metrics Tests ---

type mockMetricsRecorder struct {
	mu            sync.Mutex
	requests      []string
	responseSizes []float64
	inFlight      int
}

func (m *mockMetricsRecorder) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, method+" "+path+" "+status)
}

func (m *mockMetricsRecorder) RecordResponseSize(method, path string, size float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseSizes = append(m.responseSizes, size)
}

func (m *mockMetricsRecorder) IncHTTPRequestsInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

func (m *mockMetricsRecorder) DecHTTPRequestsInFlight() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func TestMetrics_LabelsByPattern(t *testing.T) {
	recorder := &mockMetricsRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /session", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello"))
	})
	handler := Metrics(recorder)(mux)

	for _, path := range []string{"/session", "/nope"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	if len(recorder.requests) != 2 {
		t.Fatalf("Expected 2 recorded requests, got %d", len(recorder.requests))
	}
	if recorder.requests[0] != "GET GET /session 200" {
		t.Errorf("Unexpected recorded request: %s", recorder.requests[0])
	}
	if recorder.requests[1] != "GET unmatched 404" {
		t.Errorf("Unexpected recorded request: %s", recorder.requests[1])
	}
	if recorder.responseSizes[0] != 5 {
		t.Errorf("Expected response size 5, got %v", recorder.responseSizes[0])
	}
}

func TestMetrics_TracksInFlight(t *testing.T) {
	recorder := &mockMetricsRecorder{}
	var inFlightDuringRequest int

	handler := Metrics(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlightDuringRequest = recorder.inFlight
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if inFlightDuringRequest != 1 {
		t.Errorf("Expected in-flight to be 1 during request, got %d", inFlightDuringRequest)
	}
	if recorder.inFlight != 0 {
		t.Errorf("Expected in-flight to be 0 after request, got %d", recorder.inFlight)
	}
}

func TestMetrics_NilRecorder(t *testing.T) {
	handler := Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := wrap(rr)
	if wrap(rw) != rw {
		t.Error("wrap() should not double-wrap")
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte("abc"))
	rw.Flush()

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rw.statusCode)
	}
	if rw.bytesWritten != 3 {
		t.Errorf("bytesWritten = %d, want 3", rw.bytesWritten)
	}
	if !rr.Flushed {
		t.Error("Flush() was not forwarded")
	}
	if rw.Unwrap() != rr {
		t.Error("Unwrap() should return the underlying writer")
	}
}
