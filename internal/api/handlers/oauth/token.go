package oauth

import (
	"net/http"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/mastodon"
	"Archaeopteryx/internal/oauth"
)

// TokenHandler handles the token grant and revocation endpoints
type TokenHandler struct {
	service *oauth.Service
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(service *oauth.Service) *TokenHandler {
	return &TokenHandler{service: service}
}

// HandleToken exchanges a grant for an access token.
// POST /oauth/token with grant_type=authorization_code or password
func (h *TokenHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	params, err := common.ParseParams(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	var record *oauth.TokenRecord

	switch grantType := params.Get("grant_type"); grantType {
	case "authorization_code":
		record, err = h.service.ExchangeCode(
			r.Context(),
			params.Get("client_id"),
			params.Get("client_secret"),
			params.Get("redirect_uri"),
			params.Get("code"),
		)
	case "password":
		record, err = h.service.PasswordGrant(
			r.Context(),
			params.Get("client_id"),
			params.Get("client_secret"),
			params.Get("scope"),
			params.Get("username"),
			params.Get("password"),
		)
	default:
		err = apperr.Validation("grant_type", "must be authorization_code or password")
	}

	if err != nil {
		common.Error(w, err)
		return
	}

	common.JSON(w, http.StatusOK, mastodon.Token{
		AccessToken: record.AccessToken,
		TokenType:   record.TokenType,
		Scope:       record.Scope,
		CreatedAt:   record.CreatedAt.Unix(),
		ExpiresIn:   record.ExpiresIn,
	})
}

// HandleRevoke revokes an access token. Unknown tokens revoke successfully.
// POST /oauth/revoke
func (h *TokenHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	params, err := common.ParseParams(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	if err := h.service.Revoke(r.Context(), params.Get("token")); err != nil {
		common.Error(w, err)
		return
	}

	common.JSON(w, http.StatusOK, struct{}{})
}
