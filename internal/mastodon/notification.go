package mastodon

import "time"

// Notification types the gateway produces. Bluesky reasons map onto these in
// the notification translator.
const (
	NotificationFavourite = "favourite"
	NotificationReblog    = "reblog"
	NotificationFollow    = "follow"
	NotificationMention   = "mention"
)

// Notification is the Mastodon representation of a notification.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Account   Account   `json:"account"`
	Status    *Status   `json:"status"`
}
