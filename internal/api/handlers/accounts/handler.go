// Package accounts implements the Mastodon account endpoints over Bluesky
// profiles and the follow graph.
package accounts

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/idmap"
	"Archaeopteryx/internal/translate"
)

// Handler serves the account endpoints
type Handler struct {
	client *atproto.Client
	tr     *translate.Translator
	ids    *idmap.Mapper
}

// NewHandler creates a new accounts handler
func NewHandler(client *atproto.Client, tr *translate.Translator, ids *idmap.Mapper) *Handler {
	return &Handler{client: client, tr: tr, ids: ids}
}

// session builds the caller's upstream client from the request context.
func (h *Handler) session(r *http.Request) (*atproto.SessionClient, error) {
	user := middleware.GetUser(r)
	if user == nil || user.Session == nil {
		return nil, apperr.Unauthorized("This method requires an authenticated user")
	}
	return h.client.WithSession(user.Session), nil
}

// resolveDID maps the :id path parameter back to a DID.
func (h *Handler) resolveDID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", apperr.Validation("id", "must be a numeric account id")
	}

	did, err := h.ids.DIDForSnowflake(r.Context(), id)
	if err != nil {
		return "", apperr.Internal(err)
	}
	if did == "" {
		return "", apperr.NotFound("Record not found")
	}
	return did, nil
}

// parsePaging reads the limit and cursor (max_id) query parameters.
func parsePaging(r *http.Request, defaultLimit, maxLimit int64) (int64, string) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, r.URL.Query().Get("max_id")
}
