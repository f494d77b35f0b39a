package idmap

import (
	"context"
	"testing"
	"time"

	"Archaeopteryx/internal/cache"
	"Archaeopteryx/internal/snowflake"
)

func newTestMapper(t *testing.T) (*Mapper, *cache.Memory) {
	t.Helper()
	c := cache.NewMemory()
	t.Cleanup(func() { c.Close() })
	return NewMapper(c, snowflake.NewGenerator()), c
}

func TestSnowflakeForDID_Deterministic(t *testing.T) {
	m, c := newTestMapper(t)
	ctx := context.Background()

	id1, err := m.SnowflakeForDID(ctx, "did:plc:abc123xyz")
	if err != nil {
		t.Fatalf("SnowflakeForDID failed: %v", err)
	}
	if id1 <= 0 {
		t.Fatalf("expected positive id, got %d", id1)
	}

	// Wipe the cache to simulate a cold restart; the ID must not change.
	if err := c.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	id2, err := m.SnowflakeForDID(ctx, "did:plc:abc123xyz")
	if err != nil {
		t.Fatalf("SnowflakeForDID after flush failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("cold lookup produced %d, warm produced %d", id2, id1)
	}
}

func TestSnowflakeForDID_InverseIndex(t *testing.T) {
	m, _ := newTestMapper(t)
	ctx := context.Background()

	id, err := m.SnowflakeForDID(ctx, "did:plc:abc123xyz")
	if err != nil {
		t.Fatalf("SnowflakeForDID failed: %v", err)
	}

	did, err := m.DIDForSnowflake(ctx, id)
	if err != nil {
		t.Fatalf("DIDForSnowflake failed: %v", err)
	}
	if did != "did:plc:abc123xyz" {
		t.Errorf("DIDForSnowflake(%d) = %q, want did:plc:abc123xyz", id, did)
	}
}

func TestSnowflakeForDID_DistinctDIDs(t *testing.T) {
	m, _ := newTestMapper(t)
	ctx := context.Background()

	a, _ := m.SnowflakeForDID(ctx, "did:plc:alice")
	b, _ := m.SnowflakeForDID(ctx, "did:plc:bob")
	if a == b {
		t.Errorf("distinct DIDs mapped to the same id %d", a)
	}
}

func TestSnowflakeForATURI_TimeOrdered(t *testing.T) {
	m, _ := newTestMapper(t)
	ctx := context.Background()

	y1, err := m.SnowflakeForATURI(ctx, "at://did:plc:a/app.bsky.feed.post/1")
	if err != nil {
		t.Fatalf("SnowflakeForATURI failed: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	y2, err := m.SnowflakeForATURI(ctx, "at://did:plc:a/app.bsky.feed.post/2")
	if err != nil {
		t.Fatalf("SnowflakeForATURI failed: %v", err)
	}

	if y2 <= y1 {
		t.Errorf("later post got id %d, not greater than earlier %d", y2, y1)
	}

	// Stable on repeat.
	again, _ := m.SnowflakeForATURI(ctx, "at://did:plc:a/app.bsky.feed.post/1")
	if again != y1 {
		t.Errorf("repeat lookup = %d, want %d", again, y1)
	}
}

func TestSnowflakeForATURI_InverseIndex(t *testing.T) {
	m, _ := newTestMapper(t)
	ctx := context.Background()

	uri := "at://did:plc:a/app.bsky.feed.post/xyz"
	id, err := m.SnowflakeForATURI(ctx, uri)
	if err != nil {
		t.Fatalf("SnowflakeForATURI failed: %v", err)
	}

	got, err := m.ATURIForSnowflake(ctx, id)
	if err != nil {
		t.Fatalf("ATURIForSnowflake failed: %v", err)
	}
	if got != uri {
		t.Errorf("ATURIForSnowflake(%d) = %q, want %q", id, got, uri)
	}
}

func TestSnowflakeForHandle(t *testing.T) {
	m, _ := newTestMapper(t)
	ctx := context.Background()

	// Unresolved handle returns the 0 sentinel.
	id, err := m.SnowflakeForHandle(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("SnowflakeForHandle failed: %v", err)
	}
	if id != 0 {
		t.Errorf("unresolved handle returned %d, want 0", id)
	}

	// After recording the resolution, the handle delegates to the DID path.
	m.RecordHandle(ctx, "alice.bsky.social", "did:plc:alice")

	id, err = m.SnowflakeForHandle(ctx, "alice.bsky.social")
	if err != nil {
		t.Fatalf("SnowflakeForHandle failed: %v", err)
	}

	want, _ := m.SnowflakeForDID(ctx, "did:plc:alice")
	if id != want {
		t.Errorf("SnowflakeForHandle = %d, want %d", id, want)
	}
}

func TestDIDForSnowflake_Unknown(t *testing.T) {
	m, _ := newTestMapper(t)

	did, err := m.DIDForSnowflake(context.Background(), 123456789)
	if err != nil {
		t.Fatalf("DIDForSnowflake failed: %v", err)
	}
	if did != "" {
		t.Errorf("unknown id resolved to %q, want empty", did)
	}
}
