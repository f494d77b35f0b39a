package cache

import (
	"context"
	"sync"
	"time"
)

// entry is a stored value plus its expiry deadline (zero = no expiry).
type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is the in-process cache backend. Expiration is lazy: entries are
// checked on access, with a background sweep reclaiming memory for keys that
// are never read again. Used as the fallback when Valkey is unreachable and
// as the backend in unit tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	done    chan struct{}
	once    sync.Once
}

// NewMemory creates an in-memory cache and starts its sweep loop.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go m.sweep(time.Minute)
	return m
}

// GetRaw returns the bytes stored under key, or ErrCacheMiss.
func (m *Memory) GetRaw(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		return nil, ErrCacheMiss
	}
	return e.data, nil
}

// SetRaw stores value under key, overwriting any previous entry.
func (m *Memory) SetRaw(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{data: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key. Absent keys are a no-op.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is present and unexpired.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		return false, nil
	}
	return true, nil
}

// Flush drops every entry.
func (m *Memory) Flush(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// Close stops the sweep loop.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// sweep periodically removes expired entries so keys that are written once
// and never read back do not accumulate.
func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
