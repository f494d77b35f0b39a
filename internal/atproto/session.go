package atproto

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Session is a Bluesky session held in custody for a user. The gateway owns
// the upstream access/refresh token pair; clients only ever see the gateway's
// own bearer tokens.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	DID          string    `json:"did"`
	Handle       string    `json:"handle"`
	Email        *string   `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// refreshLeeway is how close to upstream expiry a session is considered stale.
const refreshLeeway = 5 * time.Minute

// ExpiresSoon reports whether the upstream access JWT is expired or will be
// within the leeway. The JWT is inspected unverified: the gateway is the
// party that received it, and only the exp claim matters here.
func (s *Session) ExpiresSoon() bool {
	tok, err := jwt.Parse([]byte(s.AccessToken), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		// Unparseable token: treat as stale so the next use refreshes it.
		return true
	}
	exp := tok.Expiration()
	if exp.IsZero() {
		return false
	}
	return time.Until(exp) < refreshLeeway
}
