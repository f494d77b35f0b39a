package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newSecret returns 256 bits of randomness, base64-url-encoded without
// padding. Used for client IDs, client secrets, authorization codes and
// access tokens alike.
func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
