package translate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/bluesky-social/indigo/api/bsky"

	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/richtext"
)

// profile is the common subset of the three Bluesky profile view shapes.
type profile struct {
	did         string
	handle      string
	displayName *string
	description *string
	avatar      *string
	banner      *string
	followers   *int64
	follows     *int64
	posts       *int64
	createdAt   *string
}

// Account translates a detailed profile view.
func (t *Translator) Account(ctx context.Context, p *bsky.ActorDefs_ProfileViewDetailed) (*mastodon.Account, error) {
	return t.account(ctx, profile{
		did:         p.Did,
		handle:      p.Handle,
		displayName: p.DisplayName,
		description: p.Description,
		avatar:      p.Avatar,
		banner:      p.Banner,
		followers:   p.FollowersCount,
		follows:     p.FollowsCount,
		posts:       p.PostsCount,
		createdAt:   p.CreatedAt,
	})
}

// AccountFromView translates the mid-weight profile view notifications and
// search results carry. Counts are not present on this shape.
func (t *Translator) AccountFromView(ctx context.Context, p *bsky.ActorDefs_ProfileView) (*mastodon.Account, error) {
	return t.account(ctx, profile{
		did:         p.Did,
		handle:      p.Handle,
		displayName: p.DisplayName,
		description: p.Description,
		avatar:      p.Avatar,
		createdAt:   p.CreatedAt,
	})
}

// AccountFromBasicView translates the minimal profile view post authors carry.
func (t *Translator) AccountFromBasicView(ctx context.Context, p *bsky.ActorDefs_ProfileViewBasic) (*mastodon.Account, error) {
	return t.account(ctx, profile{
		did:         p.Did,
		handle:      p.Handle,
		displayName: p.DisplayName,
		avatar:      p.Avatar,
		createdAt:   p.CreatedAt,
	})
}

func (t *Translator) account(ctx context.Context, p profile) (*mastodon.Account, error) {
	id, err := t.ids.SnowflakeForDID(ctx, p.did)
	if err != nil {
		return nil, err
	}
	// Remember the handle so handle-based lookups resolve from the cache.
	t.ids.RecordHandle(ctx, p.handle, p.did)

	displayName := p.handle
	if p.displayName != nil && *p.displayName != "" {
		displayName = *p.displayName
	}

	note := "<p></p>"
	if p.description != nil {
		note = richtext.Render(*p.description, nil)
	}

	avatar := gravatarURL(p.handle)
	if p.avatar != nil && *p.avatar != "" {
		avatar = *p.avatar
	}

	header := ""
	if p.banner != nil {
		header = *p.banner
	}

	account := &mastodon.Account{
		ID:           strconv.FormatInt(id, 10),
		Username:     usernameFromHandle(p.handle),
		Acct:         p.handle,
		DisplayName:  displayName,
		Note:         note,
		URL:          richtext.ProfileURL(p.handle),
		Avatar:       avatar,
		AvatarStatic: avatar,
		Header:       header,
		HeaderStatic: header,
		Emojis:       []mastodon.Emoji{},
		Fields:       []mastodon.Field{},
	}

	if p.followers != nil {
		account.FollowersCount = *p.followers
	}
	if p.follows != nil {
		account.FollowingCount = *p.follows
	}
	if p.posts != nil {
		account.StatusesCount = *p.posts
	}
	if p.createdAt != nil {
		account.CreatedAt = parseTime(*p.createdAt)
	}

	return account, nil
}

// usernameFromHandle takes the handle prefix up to the first dot:
// "alice.bsky.social" becomes "alice".
func usernameFromHandle(handle string) string {
	if i := strings.Index(handle, "."); i >= 0 {
		return handle[:i]
	}
	return handle
}

// gravatarURL derives a deterministic identicon for profiles without an
// avatar, from the MD5 of "{handle}@gravatar.com".
func gravatarURL(handle string) string {
	sum := md5.Sum([]byte(handle + "@gravatar.com"))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))
}
