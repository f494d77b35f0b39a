// Package search implements the v2 search endpoint over Bluesky actor and
// post search.
package search

import (
	"net/http"
	"strconv"
	"strings"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/translate"
)

// Handler serves the search endpoint
type Handler struct {
	client *atproto.Client
	tr     *translate.Translator
}

// NewHandler creates a new search handler
func NewHandler(client *atproto.Client, tr *translate.Translator) *Handler {
	return &Handler{client: client, tr: tr}
}

// HandleSearch runs a combined search.
// GET /api/v2/search?q=...&type=accounts|statuses|hashtags
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil || user.Session == nil {
		common.Error(w, apperr.Unauthorized("This method requires an authenticated user"))
		return
	}
	sc := h.client.WithSession(user.Session)

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		common.Error(w, apperr.Validation("q", "must not be empty"))
		return
	}
	searchType := r.URL.Query().Get("type")

	limit := int64(20)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= 40 {
			limit = n
		}
	}

	results := mastodon.SearchResults{
		Accounts: []mastodon.Account{},
		Statuses: []mastodon.Status{},
		Hashtags: []mastodon.Tag{},
	}

	if searchType == "" || searchType == "accounts" {
		actors, _, err := sc.SearchActors(r.Context(), query, "", limit)
		if err != nil {
			common.Error(w, err)
			return
		}
		for _, actor := range actors {
			account, err := h.tr.AccountFromView(r.Context(), actor)
			if err != nil {
				common.Error(w, err)
				return
			}
			results.Accounts = append(results.Accounts, *account)
		}
	}

	if searchType == "" || searchType == "statuses" {
		posts, _, err := sc.SearchPosts(r.Context(), query, "", limit)
		if err != nil {
			common.Error(w, err)
			return
		}
		for _, post := range posts {
			status, err := h.tr.Status(r.Context(), post)
			if err != nil {
				common.Error(w, err)
				return
			}
			results.Statuses = append(results.Statuses, *status)
		}
	}

	// Hashtag search has no upstream equivalent; a literal tag query echoes
	// the tag back so tag links in clients keep working.
	if (searchType == "" || searchType == "hashtags") && strings.HasPrefix(query, "#") {
		name := strings.TrimPrefix(query, "#")
		if name != "" {
			results.Hashtags = append(results.Hashtags, mastodon.Tag{
				Name: name,
				URL:  "https://bsky.app/hashtag/" + name,
			})
		}
	}

	common.JSON(w, http.StatusOK, results)
}
