package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsProbe(t *testing.T, origins, requestOrigin, method string) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := NewCORSMiddleware(origins).Handler(next)

	req := httptest.NewRequest(method, "/posts", nil)
	if requestOrigin != "" {
		req.Header.Set("Origin", requestOrigin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowAll(t *testing.T) {
	rec := corsProbe(t, "*", "https://example.com", http.MethodGet)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSAllowList(t *testing.T) {
	rec := corsProbe(t, "https://a.example, https://b.example", "https://b.example", http.MethodGet)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://b.example" {
		t.Fatalf("Allow-Origin = %q", got)
	}

	rec = corsProbe(t, "https://a.example", "https://evil.example", http.MethodGet)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin got Allow-Origin %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	rec := corsProbe(t, "*", "https://example.com", http.MethodOptions)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("preflight missing Allow-Methods header")
	}
}
