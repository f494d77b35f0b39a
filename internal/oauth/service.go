package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/cache"
	"Archaeopteryx/internal/snowflake"
)

// Cache key prefixes for OAuth state.
const (
	keyApp     = "oauth:app:%s"   // by client_id, no TTL
	keyCode    = "oauth:code:%s"  // by code, CodeTTL then UsedCodeTTL
	keyToken   = "oauth:token:%s" // by access token, TokenTTL
	keySession = "session:%s"     // by DID, TokenTTL
)

// Service is the OAuth server. Stateless across requests: every record lives
// in the cache, so any replica can serve any step of the flow.
type Service struct {
	cache    cache.Cache
	upstream UpstreamAuthenticator
	gen      *snowflake.Generator
	now      func() time.Time
}

// NewService creates the OAuth service.
func NewService(c cache.Cache, upstream UpstreamAuthenticator, gen *snowflake.Generator) *Service {
	return &Service{
		cache:    c,
		upstream: upstream,
		gen:      gen,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterApp registers a client application and mints its credentials.
func (s *Service) RegisterApp(ctx context.Context, name, redirectURIs, scopes string, website *string) (*Application, error) {
	if name == "" {
		return nil, apperr.Validation("client_name", "must not be empty")
	}
	if redirectURIs == "" {
		return nil, apperr.Validation("redirect_uris", "must not be empty")
	}
	if _, err := ValidateScope(scopes); err != nil {
		return nil, err
	}

	clientID, err := newSecret()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	clientSecret, err := newSecret()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	app := &Application{
		ID:           strconv.FormatInt(s.gen.Generate(), 10),
		Name:         name,
		Website:      website,
		RedirectURI:  redirectURIs,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}

	if err := cache.Set(ctx, s.cache, fmt.Sprintf(keyApp, clientID), app, cache.NoTTL); err != nil {
		return nil, apperr.Internal(err)
	}
	return app, nil
}

// GetApp looks up a registered application by client ID.
func (s *Service) GetApp(ctx context.Context, clientID string) (*Application, error) {
	app, found, err := cache.Get[Application](ctx, s.cache, fmt.Sprintf(keyApp, clientID))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !found {
		return nil, apperr.Unauthorized("unknown client_id")
	}
	return &app, nil
}

// Authorize validates the app and the user's Bluesky credentials, then mints
// a single-use authorization code. Credential failures surface as 401.
func (s *Service) Authorize(ctx context.Context, clientID, redirectURI, scope, handle, password string) (string, error) {
	app, err := s.GetApp(ctx, clientID)
	if err != nil {
		return "", err
	}
	if app.RedirectURI != redirectURI {
		return "", apperr.Validation("redirect_uri", "does not match registered value")
	}
	if _, err := ValidateScope(scope); err != nil {
		return "", err
	}

	// Prove the credentials against the upstream before issuing anything.
	session, err := s.upstream.CreateSession(ctx, handle, password)
	if err != nil {
		return "", apperr.Unauthorized("invalid credentials")
	}
	s.storeSession(ctx, session)

	code, err := newSecret()
	if err != nil {
		return "", apperr.Internal(err)
	}

	record := &AuthorizationCode{
		Code:        code,
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Scope:       scope,
		Handle:      handle,
		Password:    password,
		CreatedAt:   s.now(),
	}
	if err := cache.Set(ctx, s.cache, fmt.Sprintf(keyCode, code), record, CodeTTL); err != nil {
		return "", apperr.Internal(err)
	}
	return code, nil
}

// ExchangeCode redeems an authorization code for an access token. The code
// is single-use: the exchange marks it used and shortens its TTL so a replay
// inside the window is rejected explicitly.
func (s *Service) ExchangeCode(ctx context.Context, clientID, clientSecret, redirectURI, code string) (*TokenRecord, error) {
	app, err := s.GetApp(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if app.ClientSecret != clientSecret {
		return nil, apperr.Unauthorized("client_secret mismatch")
	}

	codeKey := fmt.Sprintf(keyCode, code)
	record, found, err := cache.Get[AuthorizationCode](ctx, s.cache, codeKey)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !found {
		return nil, apperr.Unauthorized("invalid or expired authorization code")
	}
	if record.Used {
		return nil, apperr.Unauthorized("authorization code already used")
	}
	if record.ClientID != clientID {
		return nil, apperr.Unauthorized("authorization code issued to a different client")
	}
	if record.RedirectURI != redirectURI {
		return nil, apperr.Unauthorized("redirect_uri mismatch")
	}
	if s.now().After(record.CreatedAt.Add(CodeTTL)) {
		return nil, apperr.Unauthorized("authorization code expired")
	}

	record.Used = true
	if err := cache.Set(ctx, s.cache, codeKey, record, UsedCodeTTL); err != nil {
		return nil, apperr.Internal(err)
	}

	session, err := s.upstream.CreateSession(ctx, record.Handle, record.Password)
	if err != nil {
		return nil, apperr.Unauthorized("upstream session creation failed")
	}

	return s.issueToken(ctx, session, record.Scope)
}

// PasswordGrant mints a token directly from credentials, skipping the
// authorization-code step.
func (s *Service) PasswordGrant(ctx context.Context, clientID, clientSecret, scope, handle, password string) (*TokenRecord, error) {
	app, err := s.GetApp(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if app.ClientSecret != clientSecret {
		return nil, apperr.Unauthorized("client_secret mismatch")
	}
	if _, err := ValidateScope(scope); err != nil {
		return nil, err
	}

	session, err := s.upstream.CreateSession(ctx, handle, password)
	if err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	return s.issueToken(ctx, session, scope)
}

// ValidateToken resolves a bearer token to the UserContext downstream calls
// run under. A stale upstream session is refreshed in place; if the refresh
// fails the caller must re-authenticate.
func (s *Service) ValidateToken(ctx context.Context, token string) (*UserContext, error) {
	record, err := s.getToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if record.Session != nil && record.Session.ExpiresSoon() {
		record, err = s.refreshRecord(ctx, record)
		if err != nil {
			return nil, err
		}
	}

	return &UserContext{DID: record.DID, Handle: record.Handle, Session: record.Session}, nil
}

// Refresh forces an upstream session refresh for the given access token and
// returns the fresh UserContext. Upstream refusal is terminal: the stored
// refresh token is no longer good, so the user must log in again.
func (s *Service) Refresh(ctx context.Context, token string) (*UserContext, error) {
	record, err := s.getToken(ctx, token)
	if err != nil {
		return nil, err
	}

	record, err = s.refreshRecord(ctx, record)
	if err != nil {
		return nil, err
	}
	return &UserContext{DID: record.DID, Handle: record.Handle, Session: record.Session}, nil
}

// Revoke deletes a token. Revoking an unknown token succeeds.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, fmt.Sprintf(keyToken, token)); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// getToken fetches and expiry-checks a token record.
func (s *Service) getToken(ctx context.Context, token string) (*TokenRecord, error) {
	record, found, err := cache.Get[TokenRecord](ctx, s.cache, fmt.Sprintf(keyToken, token))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !found {
		return nil, apperr.Unauthorized("invalid access token")
	}
	if s.now().After(record.expiresAt()) {
		return nil, apperr.Unauthorized("access token expired")
	}
	return &record, nil
}

// issueToken mints a gateway access token backed by the given upstream
// session and persists both the token record and the DID-indexed session.
func (s *Service) issueToken(ctx context.Context, session *atproto.Session, scope string) (*TokenRecord, error) {
	token, err := newSecret()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	scopes, err := ValidateScope(scope)
	if err != nil {
		return nil, err
	}

	record := &TokenRecord{
		AccessToken: token,
		TokenType:   "Bearer",
		Scope:       strings.Join(scopes, " "),
		CreatedAt:   s.now(),
		ExpiresIn:   int64(TokenTTL / time.Second),
		Session:     session,
		DID:         session.DID,
		Handle:      session.Handle,
	}

	if err := cache.Set(ctx, s.cache, fmt.Sprintf(keyToken, token), record, TokenTTL); err != nil {
		return nil, apperr.Internal(err)
	}
	s.storeSession(ctx, session)

	return record, nil
}

// refreshRecord swaps the record's upstream session for a freshly refreshed
// one and re-persists token and session with the token's remaining TTL.
func (s *Service) refreshRecord(ctx context.Context, record *TokenRecord) (*TokenRecord, error) {
	fresh, err := s.upstream.RefreshSession(ctx, record.Session)
	if err != nil {
		return nil, apperr.Unauthorized("upstream session refresh failed")
	}

	record.Session = fresh
	record.DID = fresh.DID
	record.Handle = fresh.Handle

	remaining := time.Until(record.expiresAt())
	if remaining <= 0 {
		return nil, apperr.Unauthorized("access token expired")
	}

	if err := cache.Set(ctx, s.cache, fmt.Sprintf(keyToken, record.AccessToken), record, remaining); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := cache.Set(ctx, s.cache, fmt.Sprintf(keySession, fresh.DID), fresh, remaining); err != nil {
		slog.Warn("failed to store refreshed session", "did", fresh.DID, "error", err)
	}
	return record, nil
}

// storeSession persists the DID-indexed session record. Failures are logged
// and swallowed; the token record carries its own copy of the session.
func (s *Service) storeSession(ctx context.Context, session *atproto.Session) {
	if err := cache.Set(ctx, s.cache, fmt.Sprintf(keySession, session.DID), session, TokenTTL); err != nil {
		slog.Warn("failed to store session", "did", session.DID, "error", err)
	}
}
