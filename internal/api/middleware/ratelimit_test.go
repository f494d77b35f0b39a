package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Archaeopteryx/internal/cache"
	"Archaeopteryx/internal/ratelimit"
)

func newRateLimitMiddleware(t *testing.T, authedLimit, unauthedLimit int) *RateLimitMiddleware {
	t.Helper()
	c := cache.NewMemory()
	t.Cleanup(func() { c.Close() })
	return NewRateLimitMiddleware(
		ratelimit.NewLimiter(c, authedLimit, time.Minute),
		ratelimit.NewLimiter(c, unauthedLimit, time.Minute),
	)
}

func doRequest(handler http.Handler, token, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/v1/timelines/public", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

func TestRateLimit_HeadersOnAllowedRequest(t *testing.T) {
	m := newRateLimitMiddleware(t, 10, 5)
	handler := m.Middleware(okHandler())

	rec := doRequest(handler, "", "203.0.113.9")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Errorf("X-RateLimit-Limit = %q, want 5", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Errorf("X-RateLimit-Remaining = %q, want 4", got)
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset missing")
	}
}

func TestRateLimit_DeniesOverLimit(t *testing.T) {
	m := newRateLimitMiddleware(t, 10, 2)
	handler := m.Middleware(okHandler())

	doRequest(handler, "", "203.0.113.9")
	doRequest(handler, "", "203.0.113.9")
	rec := doRequest(handler, "", "203.0.113.9")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	// Headers still present on the denied response.
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON error body, got %q", rec.Header().Get("Content-Type"))
	}
}

func TestRateLimit_AuthedUsesTokenBucket(t *testing.T) {
	m := newRateLimitMiddleware(t, 100, 1)
	handler := m.Middleware(okHandler())

	// Exhaust the IP bucket.
	doRequest(handler, "", "203.0.113.9")
	if rec := doRequest(handler, "", "203.0.113.9"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected IP bucket exhausted, got %d", rec.Code)
	}

	// Authenticated requests from the same IP draw on a separate bucket.
	rec := doRequest(handler, "some-access-token-abcdef", "203.0.113.9")
	if rec.Code != http.StatusOK {
		t.Errorf("expected authed request to pass, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "100" {
		t.Errorf("authed limit = %q, want 100", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_TokensShareBucketByPrefix(t *testing.T) {
	m := newRateLimitMiddleware(t, 2, 100)
	handler := m.Middleware(okHandler())

	// Same first 16 characters, different suffixes.
	doRequest(handler, "0123456789abcdefAAAA", "")
	doRequest(handler, "0123456789abcdefBBBB", "")
	rec := doRequest(handler, "0123456789abcdefCCCC", "")

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected shared prefix bucket to be exhausted, got %d", rec.Code)
	}
}

func TestRateLimit_SeparateIPs(t *testing.T) {
	m := newRateLimitMiddleware(t, 10, 1)
	handler := m.Middleware(okHandler())

	doRequest(handler, "", "203.0.113.9")
	rec := doRequest(handler, "", "198.51.100.7")

	if rec.Code != http.StatusOK {
		t.Errorf("expected fresh bucket for second IP, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		want         string
	}{
		{"forwarded single", "203.0.113.9", "", "203.0.113.9"},
		{"forwarded chain takes first", "203.0.113.9, 10.0.0.1, 10.0.0.2", "", "203.0.113.9"},
		{"real ip fallback", "", "198.51.100.7", "198.51.100.7"},
		{"nothing", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.forwardedFor)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
