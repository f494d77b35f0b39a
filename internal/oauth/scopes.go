package oauth

import (
	"strings"

	"Archaeopteryx/internal/apperr"
)

// knownScopes are the Mastodon OAuth scopes the gateway accepts.
var knownScopes = map[string]bool{
	"read":   true,
	"write":  true,
	"follow": true,
	"push":   true,
}

// ValidateScope parses a space-separated scope string. An empty string
// defaults to "read"; any unknown scope fails validation naming the offender.
func ValidateScope(scope string) ([]string, error) {
	if strings.TrimSpace(scope) == "" {
		return []string{"read"}, nil
	}

	scopes := strings.Fields(scope)
	for _, s := range scopes {
		if !knownScopes[s] {
			return nil, apperr.Validation("scope", "unknown scope "+s)
		}
	}
	return scopes, nil
}
