package routes

import (
	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/handlers/apps"
	oauthHandlers "Archaeopteryx/internal/api/handlers/oauth"
	"Archaeopteryx/internal/oauth"
)

// RegisterOAuthRoutes registers app registration and the OAuth flow.
func RegisterOAuthRoutes(r chi.Router, service *oauth.Service) {
	createHandler := apps.NewCreateHandler(service)
	authorizeHandler := oauthHandlers.NewAuthorizeHandler(service)
	tokenHandler := oauthHandlers.NewTokenHandler(service)

	r.Post("/api/v1/apps", createHandler.HandleCreate)

	r.Get("/oauth/authorize", authorizeHandler.HandleShow)
	r.Post("/oauth/authorize", authorizeHandler.HandleSubmit)
	r.Post("/oauth/token", tokenHandler.HandleToken)
	r.Post("/oauth/revoke", tokenHandler.HandleRevoke)
}
