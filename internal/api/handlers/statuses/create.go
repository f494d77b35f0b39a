package statuses

import (
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/richtext"
)

// HandleCreate publishes a new post.
// POST /api/v1/statuses
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	params, err := common.ParseParams(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	text := params.Get("status")
	mediaIDs := params["media_ids"]

	if text == "" && len(mediaIDs) == 0 {
		common.Error(w, apperr.Unprocessable("Validation failed: Text can't be blank"))
		return
	}
	if utf8.RuneCountInString(text) > mastodon.MaxCharacters {
		common.Error(w, apperr.Unprocessable("Validation failed: Text character limit of 300 exceeded"))
		return
	}
	if len(mediaIDs) > mastodon.MaxMediaAttachments {
		common.Error(w, apperr.Unprocessable("Validation failed: Too many media attachments"))
		return
	}

	post := &bsky.FeedPost{
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if lang := params.Get("language"); lang != "" {
		post.Langs = []string{lang}
	}
	post.Facets = h.buildFacets(r, sc, text)

	if replyID := params.Get("in_reply_to_id"); replyID != "" {
		reply, err := h.replyRef(r, sc, replyID)
		if err != nil {
			common.Error(w, err)
			return
		}
		post.Reply = reply
	}

	if len(mediaIDs) > 0 {
		embed, err := h.imageEmbed(r, mediaIDs)
		if err != nil {
			common.Error(w, err)
			return
		}
		post.Embed = &bsky.FeedPost_Embed{EmbedImages: embed}
	}

	uri, cid, err := sc.CreatePost(r.Context(), post)
	if err != nil {
		common.Error(w, err)
		return
	}

	// Read the post back so counts and viewer state come from upstream. The
	// appview may not have indexed it yet, in which case the status is built
	// from what was just written.
	if fetched, err := h.fetchPost(r, sc, uri); err == nil {
		common.JSON(w, http.StatusOK, fetched.status)
		return
	}

	status, err := h.localStatus(r, sc, uri, cid, post)
	if err != nil {
		common.Error(w, err)
		return
	}
	common.JSON(w, http.StatusOK, status)
}

// buildFacets detects links, hashtags and mentions in composed text. Mention
// handles resolve through the ID mapper first and the upstream directory
// second; a handle that resolves nowhere stays plain text.
func (h *Handler) buildFacets(r *http.Request, sc *atproto.SessionClient, text string) []*bsky.RichtextFacet {
	var facets []*bsky.RichtextFacet

	for _, span := range richtext.ParseLinks(text) {
		facets = append(facets, facet(span, &bsky.RichtextFacet_Features_Elem{
			RichtextFacet_Link: &bsky.RichtextFacet_Link{
				LexiconTypeID: "app.bsky.richtext.facet#link",
				Uri:           span.Text,
			},
		}))
	}
	for _, span := range richtext.ParseTags(text) {
		facets = append(facets, facet(span, &bsky.RichtextFacet_Features_Elem{
			RichtextFacet_Tag: &bsky.RichtextFacet_Tag{
				LexiconTypeID: "app.bsky.richtext.facet#tag",
				Tag:           span.Text,
			},
		}))
	}
	for _, span := range richtext.ParseMentions(text) {
		did, err := h.ids.DIDForHandle(r.Context(), span.Text)
		if err != nil || did == "" {
			did, err = sc.ResolveHandle(r.Context(), span.Text)
			if err != nil || did == "" {
				continue
			}
			h.ids.RecordHandle(r.Context(), span.Text, did)
		}
		facets = append(facets, facet(span, &bsky.RichtextFacet_Features_Elem{
			RichtextFacet_Mention: &bsky.RichtextFacet_Mention{
				LexiconTypeID: "app.bsky.richtext.facet#mention",
				Did:           did,
			},
		}))
	}

	return facets
}

func facet(span richtext.Span, feature *bsky.RichtextFacet_Features_Elem) *bsky.RichtextFacet {
	return &bsky.RichtextFacet{
		Index: &bsky.RichtextFacet_ByteSlice{
			ByteStart: int64(span.Index.Start),
			ByteEnd:   int64(span.Index.End),
		},
		Features: []*bsky.RichtextFacet_Features_Elem{feature},
	}
}

// replyRef builds the reply ref for a parent status ID. The thread root is
// inherited from the parent's own reply ref, so deep replies stay in one
// thread.
func (h *Handler) replyRef(r *http.Request, sc *atproto.SessionClient, replyID string) (*bsky.FeedPost_ReplyRef, error) {
	id, err := strconv.ParseInt(replyID, 10, 64)
	if err != nil {
		return nil, apperr.Validation("in_reply_to_id", "must be a numeric status id")
	}
	parentURI, err := h.ids.ATURIForSnowflake(r.Context(), id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if parentURI == "" {
		return nil, apperr.NotFound("Record not found")
	}

	posts, err := sc.GetPosts(r.Context(), []string{parentURI})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, apperr.NotFound("Record not found")
	}
	parent := posts[0]

	parentRef := &comatproto.RepoStrongRef{Uri: parent.Uri, Cid: parent.Cid}
	rootRef := parentRef
	if parent.Record != nil {
		if record, ok := parent.Record.Val.(*bsky.FeedPost); ok && record.Reply != nil && record.Reply.Root != nil {
			rootRef = record.Reply.Root
		}
	}

	return &bsky.FeedPost_ReplyRef{Root: rootRef, Parent: parentRef}, nil
}

// imageEmbed resolves pending uploads into an images embed.
func (h *Handler) imageEmbed(r *http.Request, mediaIDs []string) (*bsky.EmbedImages, error) {
	embed := &bsky.EmbedImages{
		LexiconTypeID: "app.bsky.embed.images",
	}
	for _, id := range mediaIDs {
		upload, err := h.media.Get(r.Context(), id)
		if err != nil {
			return nil, err
		}
		embed.Images = append(embed.Images, &bsky.EmbedImages_Image{
			Alt:   upload.Description,
			Image: upload.Blob,
		})
	}
	return embed, nil
}

// localStatus builds a status from the record just written, for when the
// appview has not indexed the post yet.
func (h *Handler) localStatus(r *http.Request, sc *atproto.SessionClient, uri, cid string, post *bsky.FeedPost) (*mastodon.Status, error) {
	profile, err := sc.GetProfile(r.Context(), sc.DID())
	if err != nil {
		return nil, err
	}

	view := &bsky.FeedDefs_PostView{
		Uri: uri,
		Cid: cid,
		Author: &bsky.ActorDefs_ProfileViewBasic{
			Did:         profile.Did,
			Handle:      profile.Handle,
			DisplayName: profile.DisplayName,
			Avatar:      profile.Avatar,
		},
		Record:    &lexutil.LexiconTypeDecoder{Val: post},
		IndexedAt: post.CreatedAt,
	}
	return h.tr.Status(r.Context(), view)
}
