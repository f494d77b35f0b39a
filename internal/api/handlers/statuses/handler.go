// Package statuses implements the Mastodon status endpoints over Bluesky
// posts: composition, retrieval, threads, favourites and boosts.
package statuses

import (
	"net/http"
	"strconv"

	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/idmap"
	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/media"
	"Archaeopteryx/internal/translate"
)

// postAndStatus pairs the upstream post view with its translation, for
// handlers that need both the CID and the Mastodon shape.
type postAndStatus struct {
	post   *bsky.FeedDefs_PostView
	status *mastodon.Status
}

// Handler serves the status endpoints
type Handler struct {
	client *atproto.Client
	tr     *translate.Translator
	ids    *idmap.Mapper
	media  *media.Service
}

// NewHandler creates a new statuses handler
func NewHandler(client *atproto.Client, tr *translate.Translator, ids *idmap.Mapper, mediaSvc *media.Service) *Handler {
	return &Handler{client: client, tr: tr, ids: ids, media: mediaSvc}
}

func (h *Handler) session(r *http.Request) (*atproto.SessionClient, error) {
	user := middleware.GetUser(r)
	if user == nil || user.Session == nil {
		return nil, apperr.Unauthorized("This method requires an authenticated user")
	}
	return h.client.WithSession(user.Session), nil
}

// resolveURI maps the :id path parameter back to an AT URI.
func (h *Handler) resolveURI(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", apperr.Validation("id", "must be a numeric status id")
	}

	uri, err := h.ids.ATURIForSnowflake(r.Context(), id)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if uri == "" {
		return "", apperr.NotFound("Record not found")
	}
	return uri, nil
}

// fetchPost fetches and translates a single post by AT URI.
func (h *Handler) fetchPost(r *http.Request, sc *atproto.SessionClient, uri string) (*postAndStatus, error) {
	posts, err := sc.GetPosts(r.Context(), []string{uri})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, apperr.NotFound("Record not found")
	}

	status, err := h.tr.Status(r.Context(), posts[0])
	if err != nil {
		return nil, err
	}
	return &postAndStatus{post: posts[0], status: status}, nil
}
