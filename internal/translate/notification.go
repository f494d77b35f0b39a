package translate

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/bluesky-social/indigo/api/bsky"

	"Archaeopteryx/internal/mastodon"
)

// notificationType maps Bluesky notification reasons onto Mastodon types.
// Unknown reasons fall back to mention, which every client renders.
func notificationType(reason string) string {
	switch reason {
	case "like":
		return mastodon.NotificationFavourite
	case "repost":
		return mastodon.NotificationReblog
	case "follow":
		return mastodon.NotificationFollow
	case "mention", "reply":
		return mastodon.NotificationMention
	case "quote":
		return mastodon.NotificationReblog
	default:
		return mastodon.NotificationMention
	}
}

// Notification translates a Bluesky notification. When the notification
// names a subject post and a fetcher is available, the subject is resolved
// and translated; a failed fetch omits the status rather than failing the
// whole notification.
func (t *Translator) Notification(ctx context.Context, n *bsky.NotificationListNotifications_Notification, fetcher PostFetcher) (*mastodon.Notification, error) {
	id, err := t.ids.SnowflakeForATURI(ctx, n.Uri)
	if err != nil {
		return nil, err
	}

	account, err := t.AccountFromView(ctx, n.Author)
	if err != nil {
		return nil, err
	}

	notification := &mastodon.Notification{
		ID:        strconv.FormatInt(id, 10),
		Type:      notificationType(n.Reason),
		CreatedAt: parseTime(n.IndexedAt),
		Account:   *account,
	}

	if fetcher != nil {
		if subject := subjectURI(n); subject != "" {
			notification.Status = t.fetchSubject(ctx, fetcher, subject)
		}
	}

	return notification, nil
}

// subjectURI picks the post a notification is about: the reason subject for
// likes and reposts, the notification's own record for mentions and replies.
func subjectURI(n *bsky.NotificationListNotifications_Notification) string {
	switch n.Reason {
	case "like", "repost":
		if n.ReasonSubject != nil {
			return *n.ReasonSubject
		}
		return ""
	case "mention", "reply", "quote":
		return n.Uri
	default:
		return ""
	}
}

// fetchSubject resolves and translates a subject post, returning nil on any
// failure so the notification itself still renders.
func (t *Translator) fetchSubject(ctx context.Context, fetcher PostFetcher, uri string) *mastodon.Status {
	posts, err := fetcher.GetPosts(ctx, []string{uri})
	if err != nil || len(posts) == 0 {
		slog.Debug("notification subject fetch failed", "uri", uri, "error", err)
		return nil
	}

	status, err := t.Status(ctx, posts[0])
	if err != nil {
		slog.Debug("notification subject translation failed", "uri", uri, "error", err)
		return nil
	}
	return status
}
