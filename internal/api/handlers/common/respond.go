// Package common holds the response helpers shared by the handler packages.
package common

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"Archaeopteryx/internal/apperr"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing to do but log.
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes the Mastodon error envelope for err, classifying it through
// the error taxonomy.
func Error(w http.ResponseWriter, err error) {
	apperr.WriteJSON(w, err)
}
