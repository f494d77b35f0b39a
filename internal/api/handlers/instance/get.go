// Package instance serves the instance metadata endpoints.
package instance

import (
	"net/http"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/mastodon"
)

// Version is the Mastodon API version the gateway advertises compatibility
// with. Clients gate features on this.
const Version = "4.2.0 (compatible; Archaeopteryx)"

const description = "A Mastodon-compatible gateway to the AT Protocol network."

// Handler serves instance metadata
type Handler struct {
	domain string
}

// NewHandler creates an instance handler for the given public domain.
func NewHandler(domain string) *Handler {
	return &Handler{domain: domain}
}

func postingConfig() mastodon.InstanceConfig {
	return mastodon.InstanceConfig{
		Statuses: mastodon.StatusesConfig{
			MaxCharacters:            mastodon.MaxCharacters,
			MaxMediaAttachments:      mastodon.MaxMediaAttachments,
			CharactersReservedPerURL: 23,
		},
		MediaAttachments: mastodon.MediaAttachmentsConfig{
			SupportedMimeTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			ImageSizeLimit:     1000000,
			ImageMatrixLimit:   16777216,
		},
	}
}

// HandleV1 serves GET /api/v1/instance.
func (h *Handler) HandleV1(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, mastodon.Instance{
		URI:              h.domain,
		Title:            h.domain,
		ShortDescription: description,
		Description:      description,
		Version:          Version,
		Languages:        []string{"en"},
		Registrations:    false,
		Configuration:    postingConfig(),
		URLs:             map[string]string{},
	})
}

// HandleV2 serves GET /api/v2/instance.
func (h *Handler) HandleV2(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, mastodon.InstanceV2{
		Domain:        h.domain,
		Title:         h.domain,
		Version:       Version,
		SourceURL:     "https://github.com/bluesky-social/atproto",
		Description:   description,
		Languages:     []string{"en"},
		Configuration: postingConfig(),
		Registrations: mastodon.InstanceV2Regs{Enabled: false},
	})
}
