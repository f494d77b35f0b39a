package routes

import (
	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/handlers/statuses"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/idmap"
	mediastore "Archaeopteryx/internal/media"
	"Archaeopteryx/internal/translate"
)

// RegisterStatusRoutes registers the status endpoints.
func RegisterStatusRoutes(
	r chi.Router,
	client *atproto.Client,
	tr *translate.Translator,
	ids *idmap.Mapper,
	store *mediastore.Service,
	authMiddleware *middleware.AuthMiddleware,
) {
	handler := statuses.NewHandler(client, tr, ids, store)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Post("/api/v1/statuses", handler.HandleCreate)
		r.Get("/api/v1/statuses/{id}", handler.HandleGet)
		r.Delete("/api/v1/statuses/{id}", handler.HandleDelete)
		r.Get("/api/v1/statuses/{id}/context", handler.HandleContext)
		r.Post("/api/v1/statuses/{id}/favourite", handler.HandleFavourite)
		r.Post("/api/v1/statuses/{id}/unfavourite", handler.HandleUnfavourite)
		r.Post("/api/v1/statuses/{id}/reblog", handler.HandleReblog)
		r.Post("/api/v1/statuses/{id}/unreblog", handler.HandleUnreblog)
	})
}
