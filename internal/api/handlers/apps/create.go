// Package apps implements Mastodon app registration.
package apps

import (
	"net/http"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/oauth"
)

// CreateHandler handles client application registration
type CreateHandler struct {
	service *oauth.Service
}

// NewCreateHandler creates a new app registration handler
func NewCreateHandler(service *oauth.Service) *CreateHandler {
	return &CreateHandler{service: service}
}

// HandleCreate registers a client application and returns its credentials.
// POST /api/v1/apps
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	params, err := common.ParseParams(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	var website *string
	if site := params.Get("website"); site != "" {
		website = &site
	}

	app, err := h.service.RegisterApp(
		r.Context(),
		params.Get("client_name"),
		params.Get("redirect_uris"),
		params.Get("scopes"),
		website,
	)
	if err != nil {
		common.Error(w, err)
		return
	}

	common.JSON(w, http.StatusOK, app)
}
