package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("no request id in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("header id %q != context id %q", got, seen)
	}

	// A caller-supplied id survives untouched.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "upstream-id" {
		t.Fatalf("context id = %q, want upstream-id", seen)
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	h := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 2, 1)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("within burst: codes = %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("over burst: code = %d, want 429", codes[2])
	}

	// A different IP has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.RemoteAddr = "203.0.113.8:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh ip: code = %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Bearer abc.def": "abc.def",
		"bearer abc.def": "abc.def",
		"Basic abc":      "",
		"abc.def":        "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := extractBearerToken(req); got != want {
			t.Errorf("header %q: got %q, want %q", header, got, want)
		}
	}
}

func TestIsPublicRequest(t *testing.T) {
	cases := []struct {
		method, path string
		want         bool
	}{
		{http.MethodPost, "/api/users/register", true},
		{http.MethodPost, "/api/users/login", true},
		{http.MethodGet, "/api/users/current", false},
		{http.MethodGet, "/api/profile/all", true},
		{http.MethodGet, "/api/profile/handle/alice", true},
		{http.MethodGet, "/api/profile/user/01ABC", true},
		{http.MethodGet, "/api/profile", false},
		{http.MethodPost, "/api/profile", false},
		{http.MethodGet, "/api/posts", true},
		{http.MethodGet, "/api/posts/01ABC", true},
		{http.MethodPost, "/api/posts", false},
		{http.MethodPut, "/api/posts/like/01ABC", false},
		{http.MethodDelete, "/api/posts/01ABC", false},
		{http.MethodGet, "/healthz", true},
		{http.MethodGet, "/metrics", true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(tc.method, tc.path, nil)
		if got := isPublicRequest(r); got != tc.want {
			t.Errorf("%s %s: public = %v, want %v", tc.method, tc.path, got, tc.want)
		}
	}
}

// The log wrapper must not hide Flusher from streaming handlers.
var _ http.Flusher = (*loggingWriter)(nil)

func TestLoggingWriterForwardsFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	lw := &loggingWriter{ResponseWriter: rec}
	lw.Flush()
	if !rec.Flushed {
		t.Fatal("flush did not reach the underlying writer")
	}
}
