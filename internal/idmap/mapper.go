// Package idmap maintains the bidirectional projection between AT Protocol
// identifiers (DIDs, AT URIs, handles) and the Mastodon-style snowflake IDs
// clients see. The cache is the persistent inverse index; the DID direction
// is additionally pure (SHA-256 derived), so a cold cache regenerates the
// same IDs clients already hold.
package idmap

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"

	"Archaeopteryx/internal/cache"
	"Archaeopteryx/internal/snowflake"
)

// Cache key prefixes. Entries under these prefixes never expire.
const (
	keyDIDToSnowflake   = "did_to_snowflake:%s"
	keySnowflakeToDID   = "snowflake_to_did:%d"
	keyATURIToSnowflake = "at_uri_to_snowflake:%s"
	keySnowflakeToATURI = "snowflake_to_at_uri:%d"
	keyHandleToDID      = "handle_to_did:%s"
)

// Mapper translates identifiers. It is stateless; all mappings live in the
// cache, so any number of gateway replicas share one identifier space.
type Mapper struct {
	cache cache.Cache
	gen   *snowflake.Generator
}

// NewMapper creates a mapper over the given cache and snowflake generator.
func NewMapper(c cache.Cache, gen *snowflake.Generator) *Mapper {
	return &Mapper{cache: c, gen: gen}
}

// SnowflakeForDID returns the snowflake ID for a DID. The mapping is
// deterministic: a cache miss recomputes the same ID (SHA-256 of the DID,
// truncated to 63 bits) that any previous or concurrent call produced, so
// the cache is an optimization rather than a source of truth.
func (m *Mapper) SnowflakeForDID(ctx context.Context, did string) (int64, error) {
	key := fmt.Sprintf(keyDIDToSnowflake, did)

	if id, found, err := cache.Get[int64](ctx, m.cache, key); err != nil {
		return 0, err
	} else if found {
		return id, nil
	}

	id := deriveSnowflake(did)
	m.storePair(ctx, key, fmt.Sprintf(keySnowflakeToDID, id), id, did)
	return id, nil
}

// SnowflakeForATURI returns the snowflake ID for an AT URI. The first
// observation mints a fresh time-ordered snowflake so Mastodon clients,
// which sort statuses by ID, see newer posts with larger IDs; every later
// call returns the stored value.
func (m *Mapper) SnowflakeForATURI(ctx context.Context, atURI string) (int64, error) {
	key := fmt.Sprintf(keyATURIToSnowflake, atURI)

	if id, found, err := cache.Get[int64](ctx, m.cache, key); err != nil {
		return 0, err
	} else if found {
		return id, nil
	}

	// Two racers may each mint an ID here; last writer wins and the loser's
	// ID is orphaned. Acceptable at this scale.
	id := m.gen.Generate()
	m.storePair(ctx, key, fmt.Sprintf(keySnowflakeToATURI, id), id, atURI)
	return id, nil
}

// SnowflakeForHandle resolves a handle through the cache's handle index and
// delegates to the DID path. Returns 0 when the handle has never been
// resolved; a well-formed snowflake is always positive, so 0 is unambiguous.
func (m *Mapper) SnowflakeForHandle(ctx context.Context, handle string) (int64, error) {
	did, found, err := cache.Get[string](ctx, m.cache, fmt.Sprintf(keyHandleToDID, handle))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return m.SnowflakeForDID(ctx, did)
}

// DIDForHandle returns the cached DID for a handle, or "" if the handle has
// never been resolved.
func (m *Mapper) DIDForHandle(ctx context.Context, handle string) (string, error) {
	did, found, err := cache.Get[string](ctx, m.cache, fmt.Sprintf(keyHandleToDID, handle))
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return did, nil
}

// DIDForSnowflake returns the DID previously mapped to id, or "" if none.
func (m *Mapper) DIDForSnowflake(ctx context.Context, id int64) (string, error) {
	did, found, err := cache.Get[string](ctx, m.cache, fmt.Sprintf(keySnowflakeToDID, id))
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return did, nil
}

// ATURIForSnowflake returns the AT URI previously mapped to id, or "" if none.
func (m *Mapper) ATURIForSnowflake(ctx context.Context, id int64) (string, error) {
	uri, found, err := cache.Get[string](ctx, m.cache, fmt.Sprintf(keySnowflakeToATURI, id))
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return uri, nil
}

// RecordHandle stores a handle→DID resolution. Translators call this as they
// observe profiles so later handle lookups resolve without an upstream call.
func (m *Mapper) RecordHandle(ctx context.Context, handle, did string) {
	if handle == "" || did == "" {
		return
	}
	key := fmt.Sprintf(keyHandleToDID, handle)
	if err := cache.Set(ctx, m.cache, key, did, cache.NoTTL); err != nil {
		slog.Warn("failed to record handle mapping", "handle", handle, "error", err)
	}
}

// storePair writes both directions of a mapping. Write failures are logged
// and swallowed: the forward value has already been computed (or minted), and
// a cache hiccup must not fail the user-visible request.
func (m *Mapper) storePair(ctx context.Context, forwardKey, inverseKey string, id int64, identifier string) {
	if err := cache.Set(ctx, m.cache, forwardKey, id, cache.NoTTL); err != nil {
		slog.Warn("failed to store forward id mapping", "key", forwardKey, "error", err)
	}
	if err := cache.Set(ctx, m.cache, inverseKey, identifier, cache.NoTTL); err != nil {
		slog.Warn("failed to store inverse id mapping", "key", inverseKey, "error", err)
	}
}

// deriveSnowflake hashes a DID to a stable positive 63-bit integer.
func deriveSnowflake(did string) int64 {
	sum := sha256.Sum256([]byte(did))
	id := int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
	if id == 0 {
		// Vanishingly unlikely, but 0 is the unresolvable sentinel.
		id = 1
	}
	return id
}
