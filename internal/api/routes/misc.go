package routes

import (
	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/handlers/compat"
	"Archaeopteryx/internal/api/handlers/instance"
	mediaHandlers "Archaeopteryx/internal/api/handlers/media"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/atproto"
	mediastore "Archaeopteryx/internal/media"
)

// RegisterInstanceRoutes registers the unauthenticated metadata endpoints.
func RegisterInstanceRoutes(r chi.Router, domain string) {
	handler := instance.NewHandler(domain)

	r.Get("/api/v1/instance", handler.HandleV1)
	r.Get("/api/v2/instance", handler.HandleV2)
	r.Get("/health", compat.HandleHealth)
}

// RegisterMediaRoutes registers the upload endpoints. The v1 and v2 shapes
// are close enough that one handler serves both.
func RegisterMediaRoutes(
	r chi.Router,
	client *atproto.Client,
	store *mediastore.Service,
	authMiddleware *middleware.AuthMiddleware,
) {
	handler := mediaHandlers.NewHandler(client, store)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Post("/api/v1/media", handler.HandleUpload)
		r.Post("/api/v2/media", handler.HandleUpload)
	})
}

// RegisterCompatRoutes registers the endpoints with no Bluesky equivalent.
func RegisterCompatRoutes(r chi.Router) {
	r.Get("/api/v1/lists", compat.HandleEmptyArray)
	r.Get("/api/v1/filters", compat.HandleEmptyArray)
	r.Get("/api/v2/filters", compat.HandleEmptyArray)
	r.Get("/api/v1/custom_emojis", compat.HandleEmptyArray)
	r.Get("/api/v1/favourites", compat.HandleEmptyArray)
	r.Get("/api/v1/bookmarks", compat.HandleEmptyArray)
	r.Get("/api/v1/conversations", compat.HandleEmptyArray)
	r.Get("/api/v1/trends/tags", compat.HandleEmptyArray)
	r.Get("/api/v1/trends/statuses", compat.HandleEmptyArray)
	r.Get("/api/v1/trends/links", compat.HandleEmptyArray)
	r.Get("/api/v1/timelines/tag/{tag}", compat.HandleEmptyArray)

	r.Post("/api/v1/polls/{id}/votes", compat.HandleUnsupported)
	r.Put("/api/v1/statuses/{id}", compat.HandleUnsupported)
	r.Post("/api/v1/statuses/{id}/pin", compat.HandleUnsupported)
	r.Post("/api/v1/statuses/{id}/unpin", compat.HandleUnsupported)
}
