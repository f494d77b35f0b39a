package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/ratelimit"
)

// tokenPrefixLen is how much of the access token identifies a user bucket.
// Long enough to avoid collisions, short enough to keep full tokens out of
// cache keys.
const tokenPrefixLen = 16

// RateLimitMiddleware applies per-user or per-IP token buckets. Requests with
// a Bearer token share the authenticated bucket for that token; everything
// else is bucketed by client IP.
type RateLimitMiddleware struct {
	authed   *ratelimit.Limiter
	unauthed *ratelimit.Limiter
}

// NewRateLimitMiddleware creates a rate limit middleware from the two limiters.
func NewRateLimitMiddleware(authed, unauthed *ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{authed: authed, unauthed: unauthed}
}

// Middleware returns the rate limiting handler wrapper. Limit headers are set
// on every response, allowed or not.
func (m *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter, key := m.bucketFor(r)

		result, err := limiter.Allow(r.Context(), key)
		if err != nil {
			// A broken cache should not take the API down with it.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

		if !result.Allowed {
			apperr.WriteJSON(w, apperr.RateLimited("Too many requests"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bucketFor picks the limiter and cache key for a request.
func (m *RateLimitMiddleware) bucketFor(r *http.Request) (*ratelimit.Limiter, string) {
	if token := bearerToken(r); token != "" {
		prefix := token
		if len(prefix) > tokenPrefixLen {
			prefix = prefix[:tokenPrefixLen]
		}
		return m.authed, fmt.Sprintf("rate_limit:user:%s", prefix)
	}
	return m.unauthed, fmt.Sprintf("rate_limit:ip:%s", clientIP(r))
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	// Check X-Forwarded-For header (if behind proxy); the first entry is the
	// original client.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.Index(forwarded, ","); i >= 0 {
			forwarded = forwarded[:i]
		}
		return strings.TrimSpace(forwarded)
	}

	// Check X-Real-IP header
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return "unknown"
}
