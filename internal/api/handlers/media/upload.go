// Package media implements the media upload endpoints.
package media

import (
	"io"
	"net/http"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/mastodon"
	mediastore "Archaeopteryx/internal/media"
)

// maxUploadBytes caps uploads at the Bluesky blob limit.
const maxUploadBytes = 1000000

// Handler serves the media upload endpoints
type Handler struct {
	client *atproto.Client
	store  *mediastore.Service
}

// NewHandler creates a new media handler
func NewHandler(client *atproto.Client, store *mediastore.Service) *Handler {
	return &Handler{client: client, store: store}
}

// HandleUpload uploads a file to the user's PDS and returns a pending
// attachment. Serves both POST /api/v1/media and POST /api/v2/media.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil || user.Session == nil {
		common.Error(w, apperr.Unauthorized("This method requires an authenticated user"))
		return
	}
	sc := h.client.WithSession(user.Session)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.Error(w, apperr.Validation("file", "malformed multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.Error(w, apperr.Validation("file", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		common.Error(w, apperr.Internal(err))
		return
	}
	if len(data) > maxUploadBytes {
		common.Error(w, apperr.Unprocessable("Validation failed: File size limit of 1MB exceeded"))
		return
	}

	blob, err := sc.UploadBlob(r.Context(), data)
	if err != nil {
		common.Error(w, err)
		return
	}

	description := r.FormValue("description")
	upload, err := h.store.Store(r.Context(), blob, description, header.Header.Get("Content-Type"))
	if err != nil {
		common.Error(w, err)
		return
	}

	attachment := mastodon.MediaAttachment{
		ID:          upload.ID,
		Type:        "image",
		Description: &description,
	}
	common.JSON(w, http.StatusOK, attachment)
}
