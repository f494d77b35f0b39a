package middleware

import (
	"context"
	"net/http"
	"strings"

	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/oauth"
)

// Context keys for storing user information
type contextKey string

const (
	userContextKey contextKey = "user_context"
	accessTokenKey contextKey = "access_token"
)

// TokenValidator is the slice of the OAuth service the middleware needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*oauth.UserContext, error)
}

// AuthMiddleware resolves Bearer tokens against the OAuth service and loads
// the user's upstream session into the request context.
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth ensures the request carries a valid Bearer token.
// If not authenticated, returns 401.
// If authenticated, injects the user context and token into the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			apperr.WriteJSON(w, apperr.Unauthorized("The access token is invalid"))
			return
		}

		user, err := m.tokens.ValidateToken(r.Context(), token)
		if err != nil {
			apperr.WriteJSON(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, token)))
	})
}

// OptionalAuth loads the user context if a valid token is present, but lets
// anonymous requests through. Useful for endpoints that serve both.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.tokens.ValidateToken(r.Context(), token)
		if err != nil {
			// Invalid token - continue without user context
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, token)))
	})
}

// bearerToken extracts the token from the Authorization header.
// Returns empty string if the header is missing or not a Bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func withUser(ctx context.Context, user *oauth.UserContext, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, accessTokenKey, token)
}

// GetUser extracts the authenticated user from the request context.
// Returns nil if not authenticated.
func GetUser(r *http.Request) *oauth.UserContext {
	user, _ := r.Context().Value(userContextKey).(*oauth.UserContext)
	return user
}

// GetAccessToken extracts the Bearer token from the request context.
// Returns empty string if not authenticated.
func GetAccessToken(r *http.Request) string {
	token, _ := r.Context().Value(accessTokenKey).(string)
	return token
}

// SetTestUser injects a user context for handler tests.
func SetTestUser(ctx context.Context, user *oauth.UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
