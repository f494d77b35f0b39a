// Package oauth implements the gateway's OAuth 2.0 server: application
// registration, authorization codes, bearer tokens, and custody of the
// upstream Bluesky session each token is backed by.
package oauth

import (
	"time"

	"Archaeopteryx/internal/atproto"
)

// Lifetimes for the records this package owns.
const (
	// CodeTTL is how long an authorization code may be exchanged.
	CodeTTL = 10 * time.Minute

	// UsedCodeTTL is the shortened TTL applied once a code is exchanged, so
	// replays are observable (and rejected) rather than silently absent.
	UsedCodeTTL = 60 * time.Second

	// TokenTTL is the lifetime of gateway access tokens.
	TokenTTL = 7 * 24 * time.Hour
)

// Application is a registered client application. Stored forever under
// oauth:app:{client_id}; the shape matches what /api/v1/apps returns.
type Application struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Website      *string `json:"website"`
	RedirectURI  string  `json:"redirect_uri"`
	ClientID     string  `json:"client_id"`
	ClientSecret string  `json:"client_secret"`
	VapidKey     *string `json:"vapid_key"`
}

// AuthorizationCode is the single-use voucher minted by /oauth/authorize.
//
// The handle and password ride along so the token exchange can mint a fresh
// upstream session. The password is held in plaintext for the ten-minute
// code window only; encrypting or key-wrapping it at rest would remove even
// that exposure.
type AuthorizationCode struct {
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Scope       string    `json:"scope"`
	Handle      string    `json:"handle"`
	Password    string    `json:"password"`
	CreatedAt   time.Time `json:"created_at"`
	Used        bool      `json:"used"`
}

// TokenRecord is a gateway access token plus the upstream session it fronts.
// Keyed by the token string under oauth:token:{access_token}.
type TokenRecord struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	Scope       string           `json:"scope"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresIn   int64            `json:"expires_in"`
	Session     *atproto.Session `json:"session"`
	DID         string           `json:"did"`
	Handle      string           `json:"handle"`
}

// expiresAt returns the token's expiry instant, defaulting ExpiresIn to the
// standard token lifetime when unset.
func (t *TokenRecord) expiresAt() time.Time {
	expiresIn := t.ExpiresIn
	if expiresIn == 0 {
		expiresIn = int64(TokenTTL / time.Second)
	}
	return t.CreatedAt.Add(time.Duration(expiresIn) * time.Second)
}

// UserContext is what token validation hands to the rest of the gateway:
// the authenticated identity plus the upstream session to call Bluesky with.
type UserContext struct {
	DID     string
	Handle  string
	Session *atproto.Session
}
