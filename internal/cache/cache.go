// Package cache provides the typed key/value substrate the gateway keeps all
// of its state in: identity mappings, OAuth records, sessions and rate-limit
// buckets. Values are JSON on the wire; the two backends (in-memory and
// Valkey) are interchangeable behind the Cache interface.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// NoTTL marks an entry that never expires.
const NoTTL time.Duration = 0

// Cache is the narrow capability the rest of the gateway programs against.
// Implementations store opaque bytes; typed access goes through Get/Set below.
type Cache interface {
	// GetRaw returns the stored bytes for key, or ErrCacheMiss if the key is
	// absent or expired.
	GetRaw(ctx context.Context, key string) ([]byte, error)

	// SetRaw stores value under key. A ttl of NoTTL means no expiry.
	SetRaw(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// Flush removes every key in the configured database. Test and
	// operational tooling only.
	Flush(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Get decodes the value stored under key into T. A missing key, an expired
// key, or stored bytes that do not decode as T all report found=false; a
// type-mismatched read is deliberately not an error so a schema change cannot
// poison a read path.
func Get[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var zero T

	data, err := c.GetRaw(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return zero, false, nil
		}
		return zero, false, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// Stored bytes predate a schema change; treat as absent.
		return zero, false, nil
	}
	return v, true, nil
}

// Set JSON-encodes value and stores it under key.
func Set[T any](ctx context.Context, c Cache, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &OperationError{Op: "set", Key: key, Err: err}
	}
	return c.SetRaw(ctx, key, data, ttl)
}
