package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/cache"
	"Archaeopteryx/internal/snowflake"
)

// mockUpstream implements UpstreamAuthenticator for tests.
type mockUpstream struct {
	sessions   map[string]string // identifier -> password
	createErr  error
	refreshErr error
	refreshed  int
}

func newMockUpstream() *mockUpstream {
	return &mockUpstream{sessions: map[string]string{
		"alice.bsky.social": "hunter2",
	}}
}

// freshJWT is an unsigned JWT whose exp is far in the future, so sessions
// built from it do not trigger the staleness refresh path.
func freshJWT(t *testing.T) string {
	t.Helper()
	enc := func(v any) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(data)
	}
	header := enc(map[string]string{"alg": "none", "typ": "JWT"})
	claims := enc(map[string]any{"exp": time.Now().Add(24 * time.Hour).Unix()})
	return header + "." + claims + "."
}

func (m *mockUpstream) CreateSession(_ context.Context, identifier, password string) (*atproto.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.sessions[identifier] != password {
		return nil, errors.New("invalid credentials")
	}
	return &atproto.Session{
		AccessToken:  "access-" + identifier,
		RefreshToken: "refresh-" + identifier,
		DID:          "did:plc:" + identifier,
		Handle:       identifier,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (m *mockUpstream) RefreshSession(_ context.Context, session *atproto.Session) (*atproto.Session, error) {
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	m.refreshed++
	fresh := *session
	fresh.AccessToken = session.AccessToken + "-refreshed"
	fresh.RefreshToken = session.RefreshToken + "-refreshed"
	fresh.CreatedAt = time.Now().UTC()
	return &fresh, nil
}

func newTestService(t *testing.T) (*Service, *mockUpstream, *cache.Memory) {
	t.Helper()
	c := cache.NewMemory()
	t.Cleanup(func() { c.Close() })
	upstream := newMockUpstream()
	return NewService(c, upstream, snowflake.NewGenerator()), upstream, c
}

func registerTestApp(t *testing.T, s *Service) *Application {
	t.Helper()
	app, err := s.RegisterApp(context.Background(), "Test Client", "x://cb", "read write", nil)
	require.NoError(t, err)
	return app
}

func TestRegisterApp(t *testing.T) {
	s, _, _ := newTestService(t)

	app := registerTestApp(t, s)
	require.NotEmpty(t, app.ID)
	require.Len(t, app.ClientID, 43)
	require.Len(t, app.ClientSecret, 43)
	require.Equal(t, "x://cb", app.RedirectURI)

	// The app is retrievable by client_id.
	got, err := s.GetApp(context.Background(), app.ClientID)
	require.NoError(t, err)
	require.Equal(t, app.ClientSecret, got.ClientSecret)
}

func TestRegisterApp_Validation(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.RegisterApp(ctx, "", "x://cb", "", nil)
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.Classify(err))

	_, err = s.RegisterApp(ctx, "App", "", "", nil)
	require.Error(t, err)

	_, err = s.RegisterApp(ctx, "App", "x://cb", "bogus", nil)
	require.Error(t, err)
}

func TestOAuthHappyPath(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	app := registerTestApp(t, s)

	code, err := s.Authorize(ctx, app.ClientID, "x://cb", "read", "alice.bsky.social", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, code)

	token, err := s.ExchangeCode(ctx, app.ClientID, app.ClientSecret, "x://cb", code)
	require.NoError(t, err)
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, int64(604800), token.ExpiresIn)
	require.Equal(t, "did:plc:alice.bsky.social", token.DID)

	// Replace the mock's upstream JWT with one that parses as fresh, so
	// validation does not attempt a refresh.
	token.Session.AccessToken = freshJWT(t)
	require.NoError(t, cache.Set(ctx, s.cache, "oauth:token:"+token.AccessToken, token, TokenTTL))

	userCtx, err := s.ValidateToken(ctx, token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "did:plc:alice.bsky.social", userCtx.DID)
	require.Equal(t, "alice.bsky.social", userCtx.Handle)
	require.NotNil(t, userCtx.Session)

	// Second exchange of the same code fails unauthorized.
	_, err = s.ExchangeCode(ctx, app.ClientID, app.ClientSecret, "x://cb", code)
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))
}

func TestAuthorize_BadCredentials(t *testing.T) {
	s, _, _ := newTestService(t)
	app := registerTestApp(t, s)

	_, err := s.Authorize(context.Background(), app.ClientID, "x://cb", "read", "alice.bsky.social", "wrong")
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))
}

func TestAuthorize_RedirectMismatch(t *testing.T) {
	s, _, _ := newTestService(t)
	app := registerTestApp(t, s)

	_, err := s.Authorize(context.Background(), app.ClientID, "evil://cb", "read", "alice.bsky.social", "hunter2")
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.Classify(err))
}

func TestExchangeCode_Checks(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	app := registerTestApp(t, s)

	code, err := s.Authorize(ctx, app.ClientID, "x://cb", "read", "alice.bsky.social", "hunter2")
	require.NoError(t, err)

	// Wrong secret.
	_, err = s.ExchangeCode(ctx, app.ClientID, "nope", "x://cb", code)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))

	// Wrong redirect.
	_, err = s.ExchangeCode(ctx, app.ClientID, app.ClientSecret, "y://cb", code)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))

	// Unknown code.
	_, err = s.ExchangeCode(ctx, app.ClientID, app.ClientSecret, "x://cb", "no-such-code")
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))

	// Code issued to another client.
	other, err := s.RegisterApp(ctx, "Other", "x://cb", "read", nil)
	require.NoError(t, err)
	_, err = s.ExchangeCode(ctx, other.ClientID, other.ClientSecret, "x://cb", code)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))
}

func TestExchangeCode_Expired(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	app := registerTestApp(t, s)

	code, err := s.Authorize(ctx, app.ClientID, "x://cb", "read", "alice.bsky.social", "hunter2")
	require.NoError(t, err)

	// Shift the service clock past the code TTL.
	s.now = func() time.Time { return time.Now().UTC().Add(CodeTTL + time.Minute) }

	_, err = s.ExchangeCode(ctx, app.ClientID, app.ClientSecret, "x://cb", code)
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))
}

func TestPasswordGrant(t *testing.T) {
	s, _, _ := newTestService(t)
	app := registerTestApp(t, s)

	token, err := s.PasswordGrant(context.Background(), app.ClientID, app.ClientSecret, "read write", "alice.bsky.social", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "read write", token.Scope)
	require.Equal(t, "alice.bsky.social", token.Handle)
}

func TestValidateToken_Expiry(t *testing.T) {
	s, _, c := newTestService(t)
	ctx := context.Background()

	// A token created 8 days ago with a 7-day lifetime is expired.
	record := &TokenRecord{
		AccessToken: "stale-token",
		TokenType:   "Bearer",
		Scope:       "read",
		CreatedAt:   time.Now().UTC().Add(-8 * 24 * time.Hour),
		ExpiresIn:   int64(TokenTTL / time.Second),
		DID:         "did:plc:alice",
		Handle:      "alice.bsky.social",
	}
	require.NoError(t, cache.Set(ctx, c, "oauth:token:stale-token", record, cache.NoTTL))

	_, err := s.ValidateToken(ctx, "stale-token")
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))
}

func TestValidateToken_DefaultExpiresIn(t *testing.T) {
	s, _, c := newTestService(t)
	ctx := context.Background()

	// ExpiresIn unset defaults to seven days; six days old is still valid.
	record := &TokenRecord{
		AccessToken: "legacy-token",
		TokenType:   "Bearer",
		CreatedAt:   time.Now().UTC().Add(-6 * 24 * time.Hour),
		DID:         "did:plc:alice",
		Handle:      "alice.bsky.social",
		Session: &atproto.Session{
			AccessToken: freshJWT(t),
			DID:         "did:plc:alice",
			Handle:      "alice.bsky.social",
		},
	}
	require.NoError(t, cache.Set(ctx, c, "oauth:token:legacy-token", record, cache.NoTTL))

	userCtx, err := s.ValidateToken(ctx, "legacy-token")
	require.NoError(t, err)
	require.Equal(t, "did:plc:alice", userCtx.DID)
}

func TestValidateToken_RefreshesStaleSession(t *testing.T) {
	s, upstream, c := newTestService(t)
	ctx := context.Background()

	// Session with an expired upstream access JWT triggers a refresh.
	record := &TokenRecord{
		AccessToken: "tok",
		TokenType:   "Bearer",
		CreatedAt:   time.Now().UTC(),
		ExpiresIn:   int64(TokenTTL / time.Second),
		DID:         "did:plc:alice",
		Handle:      "alice.bsky.social",
		Session: &atproto.Session{
			AccessToken:  "not-a-jwt", // parses as stale
			RefreshToken: "refresh",
			DID:          "did:plc:alice",
			Handle:       "alice.bsky.social",
		},
	}
	require.NoError(t, cache.Set(ctx, c, "oauth:token:tok", record, TokenTTL))

	userCtx, err := s.ValidateToken(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, 1, upstream.refreshed)
	require.Equal(t, "refresh-refreshed", userCtx.Session.RefreshToken)
}

func TestRefresh_UpstreamFailureIsUnauthorized(t *testing.T) {
	s, upstream, c := newTestService(t)
	ctx := context.Background()
	upstream.refreshErr = errors.New("upstream says no")

	record := &TokenRecord{
		AccessToken: "tok",
		CreatedAt:   time.Now().UTC(),
		ExpiresIn:   int64(TokenTTL / time.Second),
		DID:         "did:plc:alice",
		Handle:      "alice.bsky.social",
		Session:     &atproto.Session{RefreshToken: "refresh", DID: "did:plc:alice"},
	}
	require.NoError(t, cache.Set(ctx, c, "oauth:token:tok", record, TokenTTL))

	_, err := s.Refresh(ctx, "tok")
	require.Error(t, err)
	require.Equal(t, apperr.KindUnauthorized, apperr.Classify(err))
}

func TestRevoke_Idempotent(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()
	app := registerTestApp(t, s)

	token, err := s.PasswordGrant(ctx, app.ClientID, app.ClientSecret, "read", "alice.bsky.social", "hunter2")
	require.NoError(t, err)

	require.NoError(t, s.Revoke(ctx, token.AccessToken))
	require.NoError(t, s.Revoke(ctx, token.AccessToken)) // second revoke is fine

	_, err = s.ValidateToken(ctx, token.AccessToken)
	require.Error(t, err)
}
