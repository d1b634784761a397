package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentdeck/agentdeck/internal/logger"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected a generated request ID in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("response header %q does not match context ID %q", got, seen)
	}
	if len(seen) != 32 {
		t.Fatalf("expected 32-char hex ID, got %q", seen)
	}
}

func TestRequestID_PropagatesHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "client-id-1" {
		t.Fatalf("expected client-provided ID, got %q", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Fatalf("expected echoed header, got %q", got)
	}
}
