package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/api/posts":                    "/api/posts",
		"/api/posts/stream":             "/api/posts/stream",
		"/api/posts/01ABC":              "/api/posts/:id",
		"/api/posts/like/01ABC":         "/api/posts/like/:id",
		"/api/posts/comment/01ABC/01CD": "/api/posts/comment/:id",
		"/api/profile/handle/jdoe":      "/api/profile/handle/:handle",
		"/api/profile/user/01ABC":       "/api/profile/user/:id",
		"/api/profile/all?limit=10":     "/api/profile/all",
		"/api/users/login":              "/api/users/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

// The metrics wrapper must not hide Flusher from streaming handlers.
var _ http.Flusher = (*statusWriter)(nil)

func TestStatusWriterForwardsFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, code: 200}
	sw.Flush()
	if !rec.Flushed {
		t.Fatal("flush did not reach the underlying writer")
	}
}
