package routes

import (
	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/handlers/accounts"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/idmap"
	"Archaeopteryx/internal/translate"
)

// RegisterAccountRoutes registers the account endpoints. All of them require
// authentication: every upstream call runs under the caller's session.
func RegisterAccountRoutes(
	r chi.Router,
	client *atproto.Client,
	tr *translate.Translator,
	ids *idmap.Mapper,
	authMiddleware *middleware.AuthMiddleware,
) {
	handler := accounts.NewHandler(client, tr, ids)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/api/v1/accounts/verify_credentials", handler.HandleVerifyCredentials)
		r.Get("/api/v1/accounts/relationships", handler.HandleRelationships)
		r.Get("/api/v1/accounts/{id}", handler.HandleGet)
		r.Get("/api/v1/accounts/{id}/statuses", handler.HandleStatuses)
		r.Get("/api/v1/accounts/{id}/followers", handler.HandleFollowers)
		r.Get("/api/v1/accounts/{id}/following", handler.HandleFollowing)
		r.Post("/api/v1/accounts/{id}/follow", handler.HandleFollow)
		r.Post("/api/v1/accounts/{id}/unfollow", handler.HandleUnfollow)
	})
}
