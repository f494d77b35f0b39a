// Package translate converts Bluesky records (profiles, posts with rich-text
// facets, notifications) into the Mastodon objects the gateway serves.
// Translators are pure apart from ID lookups through the mapper and the
// optional subject-post fetch on notifications.
package translate

import (
	"context"
	"time"

	"github.com/bluesky-social/indigo/api/bsky"

	"Archaeopteryx/internal/idmap"
)

// PostFetcher is the slice of the session client notification translation
// needs to resolve subject posts. Nil disables subject resolution.
type PostFetcher interface {
	GetPosts(ctx context.Context, uris []string) ([]*bsky.FeedDefs_PostView, error)
}

// Translator converts Bluesky views to Mastodon objects.
type Translator struct {
	ids *idmap.Mapper
}

// NewTranslator creates a translator over the given ID mapper.
func NewTranslator(ids *idmap.Mapper) *Translator {
	return &Translator{ids: ids}
}

// parseTime parses the ISO-8601 timestamps Bluesky emits, with or without
// fractional seconds. Unparseable input yields the zero time in UTC.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}.UTC()
}
