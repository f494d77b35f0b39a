// Package notifications implements the notification endpoints.
package notifications

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/idmap"
	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/translate"
)

// Handler serves the notification endpoints
type Handler struct {
	client *atproto.Client
	tr     *translate.Translator
	ids    *idmap.Mapper
}

// NewHandler creates a new notifications handler
func NewHandler(client *atproto.Client, tr *translate.Translator, ids *idmap.Mapper) *Handler {
	return &Handler{client: client, tr: tr, ids: ids}
}

func (h *Handler) session(r *http.Request) (*atproto.SessionClient, error) {
	user := middleware.GetUser(r)
	if user == nil || user.Session == nil {
		return nil, apperr.Unauthorized("This method requires an authenticated user")
	}
	return h.client.WithSession(user.Session), nil
}

// HandleList returns the user's notifications.
// GET /api/v1/notifications
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	limit := int64(20)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= 40 {
			limit = n
		}
	}

	upstream, _, err := sc.ListNotifications(r.Context(), r.URL.Query().Get("max_id"), limit)
	if err != nil {
		common.Error(w, err)
		return
	}

	notifications := []mastodon.Notification{}
	for _, n := range upstream {
		notification, err := h.tr.Notification(r.Context(), n, sc)
		if err != nil {
			common.Error(w, err)
			return
		}
		notifications = append(notifications, *notification)
	}

	common.JSON(w, http.StatusOK, notifications)
}

// HandleGet returns a single notification by ID. The upstream has no lookup
// by notification, so this pages through the recent list to find it.
// GET /api/v1/notifications/:id
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	wanted, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.Error(w, apperr.Validation("id", "must be a numeric notification id"))
		return
	}

	cursor := ""
	for page := 0; page < 3; page++ {
		upstream, next, err := sc.ListNotifications(r.Context(), cursor, 40)
		if err != nil {
			common.Error(w, err)
			return
		}

		for _, n := range upstream {
			id, err := h.ids.SnowflakeForATURI(r.Context(), n.Uri)
			if err != nil {
				common.Error(w, err)
				return
			}
			if id != wanted {
				continue
			}

			notification, err := h.tr.Notification(r.Context(), n, sc)
			if err != nil {
				common.Error(w, err)
				return
			}
			common.JSON(w, http.StatusOK, notification)
			return
		}

		if next == "" {
			break
		}
		cursor = next
	}

	common.Error(w, apperr.NotFound("Record not found"))
}
