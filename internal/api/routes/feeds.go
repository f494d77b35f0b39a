package routes

import (
	"github.com/go-chi/chi/v5"

	"Archaeopteryx/internal/api/handlers/notifications"
	"Archaeopteryx/internal/api/handlers/search"
	"Archaeopteryx/internal/api/handlers/timelines"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/idmap"
	"Archaeopteryx/internal/translate"
)

// RegisterFeedRoutes registers timelines, notifications and search.
func RegisterFeedRoutes(
	r chi.Router,
	client *atproto.Client,
	tr *translate.Translator,
	ids *idmap.Mapper,
	authMiddleware *middleware.AuthMiddleware,
) {
	timelineHandler := timelines.NewHandler(client, tr)
	notificationHandler := notifications.NewHandler(client, tr, ids)
	searchHandler := search.NewHandler(client, tr)

	// The public timeline serves anonymous requests an empty feed, so auth
	// is optional there.
	r.With(authMiddleware.OptionalAuth).Get("/api/v1/timelines/public", timelineHandler.HandlePublic)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/api/v1/timelines/home", timelineHandler.HandleHome)
		r.Get("/api/v1/notifications", notificationHandler.HandleList)
		r.Get("/api/v1/notifications/{id}", notificationHandler.HandleGet)
		r.Get("/api/v2/search", searchHandler.HandleSearch)
	})
}
