// Package timelines implements the home and public timeline endpoints.
package timelines

import (
	"net/http"
	"strconv"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/translate"
)

// Handler serves the timeline endpoints
type Handler struct {
	client *atproto.Client
	tr     *translate.Translator
}

// NewHandler creates a new timelines handler
func NewHandler(client *atproto.Client, tr *translate.Translator) *Handler {
	return &Handler{client: client, tr: tr}
}

// HandleHome returns the authenticated user's home timeline.
// GET /api/v1/timelines/home
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil || user.Session == nil {
		common.Error(w, apperr.Unauthorized("This method requires an authenticated user"))
		return
	}
	sc := h.client.WithSession(user.Session)

	limit, cursor := paging(r)
	feed, _, err := sc.GetTimeline(r.Context(), cursor, limit)
	if err != nil {
		common.Error(w, err)
		return
	}

	statuses := []mastodon.Status{}
	for _, item := range feed {
		status, err := h.tr.StatusFromFeedItem(r.Context(), item)
		if err != nil {
			common.Error(w, err)
			return
		}
		statuses = append(statuses, *status)
	}

	common.JSON(w, http.StatusOK, statuses)
}

// HandlePublic returns the public timeline. Bluesky has no instance-local
// firehose view over XRPC, so this serves the what's-hot discovery feed shape:
// for an authenticated user, their timeline; anonymous requests get an empty
// array rather than an error, since many clients probe this endpoint.
// GET /api/v1/timelines/public
func (h *Handler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil || user.Session == nil {
		common.JSON(w, http.StatusOK, []mastodon.Status{})
		return
	}
	sc := h.client.WithSession(user.Session)

	limit, cursor := paging(r)
	feed, _, err := sc.GetTimeline(r.Context(), cursor, limit)
	if err != nil {
		common.Error(w, err)
		return
	}

	statuses := []mastodon.Status{}
	for _, item := range feed {
		status, err := h.tr.StatusFromFeedItem(r.Context(), item)
		if err != nil {
			common.Error(w, err)
			return
		}
		statuses = append(statuses, *status)
	}

	common.JSON(w, http.StatusOK, statuses)
}

func paging(r *http.Request) (int64, string) {
	limit := int64(20)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 40 {
		limit = 40
	}
	return limit, r.URL.Query().Get("max_id")
}
