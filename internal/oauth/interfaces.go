package oauth

import (
	"context"

	"Archaeopteryx/internal/atproto"
)

// UpstreamAuthenticator is the slice of the AT Protocol client this package
// needs: creating sessions from credentials and refreshing existing ones.
// *atproto.Client satisfies it; tests substitute a mock.
type UpstreamAuthenticator interface {
	CreateSession(ctx context.Context, identifier, password string) (*atproto.Session, error)
	RefreshSession(ctx context.Context, session *atproto.Session) (*atproto.Session, error)
}
