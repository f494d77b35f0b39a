// Package ratelimit implements a keyed token bucket over the shared cache,
// so all gateway replicas enforce one combined limit per caller.
package ratelimit

import (
	"context"
	"time"

	"Archaeopteryx/internal/cache"
)

// Default limits: unauthenticated callers get 300 requests per 5 minutes,
// bearer-authenticated callers 1000.
const (
	DefaultWindow   = 5 * time.Minute
	DefaultUnauthed = 300
	DefaultAuthed   = 1000
)

// bucket is the persisted per-key state. LastRefill advances on every
// request, which deliberately discards fractional refill progress: callers
// hammering faster than the refill rate never accumulate new tokens.
type bucket struct {
	Tokens     int   `json:"tokens"`
	LastRefill int64 `json:"last_refill"` // Unix milliseconds
}

// Result is the outcome of one admission check, carrying everything the
// X-RateLimit-* response headers need.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     int64 // Unix seconds
}

// Limiter admits requests against a token bucket stored under each key.
// Stateless; safe for concurrent use. Two racing writers to the same key can
// overshoot the limit by a small constant, which is accepted.
type Limiter struct {
	cache  cache.Cache
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewLimiter creates a limiter admitting limit requests per window.
func NewLimiter(c cache.Cache, limit int, window time.Duration) *Limiter {
	return &Limiter{
		cache:  c,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow consumes one token from the bucket under key, refilling first at
// limit/window per second. The bucket's TTL equals the window, so idle keys
// cost nothing.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	nowMs := l.now().UnixMilli()
	reset := nowMs/1000 + int64(l.window/time.Second)

	b, found, err := cache.Get[bucket](ctx, l.cache, key)
	if err != nil {
		return Result{}, err
	}

	if !found {
		b = bucket{Tokens: l.limit - 1, LastRefill: nowMs}
		if err := cache.Set(ctx, l.cache, key, b, l.window); err != nil {
			return Result{}, err
		}
		return Result{Allowed: true, Limit: l.limit, Remaining: b.Tokens, Reset: reset}, nil
	}

	elapsed := float64(nowMs-b.LastRefill) / 1000
	if elapsed < 0 {
		elapsed = 0
	}
	refillRate := float64(l.limit) / l.window.Seconds()
	tokens := b.Tokens + int(elapsed*refillRate)
	if tokens > l.limit {
		tokens = l.limit
	}

	allowed := tokens > 0
	if allowed {
		tokens--
	}

	b.Tokens = tokens
	b.LastRefill = nowMs
	if err := cache.Set(ctx, l.cache, key, b, l.window); err != nil {
		return Result{}, err
	}

	return Result{Allowed: allowed, Limit: l.limit, Remaining: tokens, Reset: reset}, nil
}
