// Package compat serves the Mastodon endpoints that have no Bluesky
// equivalent. Clients probe these on startup; answering with well-formed
// empties keeps them working.
package compat

import (
	"net/http"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/apperr"
)

// HandleEmptyArray answers with an empty JSON array. Used for lists,
// filters, custom emojis, favourites/bookmarks indexes and the like.
func HandleEmptyArray(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, []struct{}{})
}

// HandleUnsupported answers 422 for operations that cannot be bridged,
// such as polls and status edits.
func HandleUnsupported(w http.ResponseWriter, r *http.Request) {
	common.Error(w, apperr.Unprocessable("This feature is not supported by the gateway"))
}

// HandleHealth is the liveness probe.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
