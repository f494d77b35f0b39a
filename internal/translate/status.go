package translate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bluesky-social/indigo/api/bsky"

	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/richtext"
)

// Status translates a Bluesky post view into a Mastodon status.
func (t *Translator) Status(ctx context.Context, post *bsky.FeedDefs_PostView) (*mastodon.Status, error) {
	id, err := t.ids.SnowflakeForATURI(ctx, post.Uri)
	if err != nil {
		return nil, err
	}

	account, err := t.AccountFromBasicView(ctx, post.Author)
	if err != nil {
		return nil, err
	}

	status := &mastodon.Status{
		ID:               strconv.FormatInt(id, 10),
		URI:              post.Uri,
		URL:              postURL(post.Author.Handle, post.Uri),
		Account:          *account,
		Content:          "<p></p>",
		Visibility:       "public",
		SpoilerText:      "",
		Emojis:           []mastodon.Emoji{},
		MediaAttachments: []mastodon.MediaAttachment{},
		Mentions:         []mastodon.Mention{},
		Tags:             []mastodon.Tag{},
		CreatedAt:        parseTime(post.IndexedAt),
	}

	if post.ReplyCount != nil {
		status.RepliesCount = *post.ReplyCount
	}
	if post.RepostCount != nil {
		status.ReblogsCount = *post.RepostCount
	}
	if post.LikeCount != nil {
		status.FavouritesCount = *post.LikeCount
	}
	if post.Viewer != nil {
		status.Favourited = post.Viewer.Like != nil
		status.Reblogged = post.Viewer.Repost != nil
	}

	record, ok := recordAsPost(post)
	if ok {
		if record.CreatedAt != "" {
			status.CreatedAt = parseTime(record.CreatedAt)
		}
		if len(record.Langs) > 0 {
			status.Language = &record.Langs[0]
		}

		facets := convertFacets(record.Facets)
		status.Content = richtext.Render(record.Text, facets)
		status.Text = &record.Text

		mentions, tags, err := t.extractEntities(ctx, record.Text, facets)
		if err != nil {
			return nil, err
		}
		status.Mentions = mentions
		status.Tags = tags

		if err := t.applyReply(ctx, record, status); err != nil {
			return nil, err
		}
	}

	if post.Embed != nil {
		if err := t.applyEmbed(ctx, post, status); err != nil {
			return nil, err
		}
	}

	return status, nil
}

// StatusFromFeedItem translates a timeline item. A repost reason wraps the
// translated post in a boost status attributed to the reposter.
func (t *Translator) StatusFromFeedItem(ctx context.Context, item *bsky.FeedDefs_FeedViewPost) (*mastodon.Status, error) {
	status, err := t.Status(ctx, item.Post)
	if err != nil {
		return nil, err
	}

	if item.Reason == nil || item.Reason.FeedDefs_ReasonRepost == nil {
		return status, nil
	}

	repost := item.Reason.FeedDefs_ReasonRepost
	booster, err := t.AccountFromBasicView(ctx, repost.By)
	if err != nil {
		return nil, err
	}

	// The boost gets its own stable ID, minted from a synthetic URI keyed by
	// post and reposter.
	boostID, err := t.ids.SnowflakeForATURI(ctx, fmt.Sprintf("%s#repost:%s", item.Post.Uri, repost.By.Did))
	if err != nil {
		return nil, err
	}

	return &mastodon.Status{
		ID:               strconv.FormatInt(boostID, 10),
		URI:              status.URI,
		URL:              status.URL,
		Account:          *booster,
		Reblog:           status,
		Content:          "",
		Visibility:       "public",
		Emojis:           []mastodon.Emoji{},
		MediaAttachments: []mastodon.MediaAttachment{},
		Mentions:         []mastodon.Mention{},
		Tags:             []mastodon.Tag{},
		CreatedAt:        parseTime(repost.IndexedAt),
	}, nil
}

// recordAsPost extracts the feed post record from a post view.
func recordAsPost(post *bsky.FeedDefs_PostView) (*bsky.FeedPost, bool) {
	if post.Record == nil || post.Record.Val == nil {
		return nil, false
	}
	record, ok := post.Record.Val.(*bsky.FeedPost)
	return record, ok
}

// convertFacets maps Bluesky's richtext facets onto the renderer's model.
func convertFacets(facets []*bsky.RichtextFacet) []richtext.Facet {
	out := make([]richtext.Facet, 0, len(facets))
	for _, f := range facets {
		if f == nil || f.Index == nil {
			continue
		}
		converted := richtext.Facet{
			Index: richtext.ByteSlice{Start: int(f.Index.ByteStart), End: int(f.Index.ByteEnd)},
		}
		for _, feat := range f.Features {
			switch {
			case feat.RichtextFacet_Link != nil:
				converted.Features = append(converted.Features, richtext.Feature{
					Link: &richtext.LinkFeature{URI: feat.RichtextFacet_Link.Uri},
				})
			case feat.RichtextFacet_Mention != nil:
				converted.Features = append(converted.Features, richtext.Feature{
					Mention: &richtext.MentionFeature{DID: feat.RichtextFacet_Mention.Did},
				})
			case feat.RichtextFacet_Tag != nil:
				converted.Features = append(converted.Features, richtext.Feature{
					Tag: &richtext.TagFeature{Name: feat.RichtextFacet_Tag.Tag},
				})
			}
		}
		out = append(out, converted)
	}
	return out
}

// extractEntities pulls Mastodon mentions and tags out of the facets.
func (t *Translator) extractEntities(ctx context.Context, text string, facets []richtext.Facet) ([]mastodon.Mention, []mastodon.Tag, error) {
	mentions := []mastodon.Mention{}
	tags := []mastodon.Tag{}

	for _, f := range facets {
		if f.Index.Start < 0 || f.Index.End > len(text) || f.Index.Start >= f.Index.End {
			continue
		}
		body := text[f.Index.Start:f.Index.End]

		for _, feat := range f.Features {
			switch {
			case feat.Mention != nil:
				handle := strings.TrimPrefix(body, "@")
				id, err := t.ids.SnowflakeForDID(ctx, feat.Mention.DID)
				if err != nil {
					return nil, nil, err
				}
				t.ids.RecordHandle(ctx, handle, feat.Mention.DID)
				mentions = append(mentions, mastodon.Mention{
					ID:       strconv.FormatInt(id, 10),
					Username: usernameFromHandle(handle),
					Acct:     handle,
					URL:      richtext.ProfileURL(handle),
				})
			case feat.Tag != nil:
				tags = append(tags, mastodon.Tag{
					Name: feat.Tag.Name,
					URL:  richtext.HashtagURL(feat.Tag.Name),
				})
			}
		}
	}
	return mentions, tags, nil
}

// applyReply fills in the in_reply_to fields from the record's reply ref.
func (t *Translator) applyReply(ctx context.Context, record *bsky.FeedPost, status *mastodon.Status) error {
	if record.Reply == nil || record.Reply.Parent == nil {
		return nil
	}

	parentURI := record.Reply.Parent.Uri
	parentID, err := t.ids.SnowflakeForATURI(ctx, parentURI)
	if err != nil {
		return err
	}
	idStr := strconv.FormatInt(parentID, 10)
	status.InReplyToID = &idStr

	if did := atproto.DIDFromATURI(parentURI); did != "" {
		accountID, err := t.ids.SnowflakeForDID(ctx, did)
		if err != nil {
			return err
		}
		accountStr := strconv.FormatInt(accountID, 10)
		status.InReplyToAccountID = &accountStr
	}
	return nil
}

// applyEmbed converts image embeds to media attachments and external embeds
// to a preview card.
func (t *Translator) applyEmbed(ctx context.Context, post *bsky.FeedDefs_PostView, status *mastodon.Status) error {
	embed := post.Embed

	var images []*bsky.EmbedImages_ViewImage
	if embed.EmbedImages_View != nil {
		images = embed.EmbedImages_View.Images
	} else if embed.EmbedRecordWithMedia_View != nil && embed.EmbedRecordWithMedia_View.Media != nil &&
		embed.EmbedRecordWithMedia_View.Media.EmbedImages_View != nil {
		images = embed.EmbedRecordWithMedia_View.Media.EmbedImages_View.Images
	}

	for i, img := range images {
		// Attachment IDs are minted from a synthetic per-image URI so they
		// stay stable across requests.
		attachmentID, err := t.ids.SnowflakeForATURI(ctx, fmt.Sprintf("%s#image:%d", post.Uri, i))
		if err != nil {
			return err
		}
		alt := img.Alt
		status.MediaAttachments = append(status.MediaAttachments, mastodon.MediaAttachment{
			ID:          strconv.FormatInt(attachmentID, 10),
			Type:        "image",
			URL:         img.Fullsize,
			PreviewURL:  img.Thumb,
			Description: &alt,
		})
	}

	if embed.EmbedExternal_View != nil && embed.EmbedExternal_View.External != nil {
		ext := embed.EmbedExternal_View.External
		card := &mastodon.Card{
			URL:         ext.Uri,
			Title:       ext.Title,
			Description: ext.Description,
			Type:        "link",
		}
		if ext.Thumb != nil {
			card.Image = ext.Thumb
		}
		status.Card = card
	}

	return nil
}

// postURL builds the public bsky.app URL for a post.
func postURL(handle, atURI string) string {
	parsed, err := atproto.ParseATURI(atURI)
	if err != nil {
		return richtext.ProfileURL(handle)
	}
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, parsed.RKey)
}
