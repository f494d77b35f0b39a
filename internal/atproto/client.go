// Package atproto wraps indigo's XRPC client with the session custody and
// the handful of Bluesky calls the gateway makes. One SessionClient is built
// per request from the user's stored session; there is no shared
// authenticated client.
package atproto

import (
	"bytes"
	"context"
	"net/http"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

// Client talks to the configured AT Protocol service (bsky.social or a
// self-hosted PDS). It is safe for concurrent use.
type Client struct {
	host string
	http *http.Client
}

// NewClient creates a client for the given service URL.
func NewClient(host string) *Client {
	return &Client{
		host: host,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Host returns the upstream service URL.
func (c *Client) Host() string { return c.host }

// CreateSession authenticates identifier/password against the upstream and
// returns the resulting session.
func (c *Client) CreateSession(ctx context.Context, identifier, password string) (*Session, error) {
	xc := &xrpc.Client{Host: c.host, Client: c.http}

	out, err := comatproto.ServerCreateSession(ctx, xc, &comatproto.ServerCreateSession_Input{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, wrapError(err, "createSession")
	}

	return &Session{
		AccessToken:  out.AccessJwt,
		RefreshToken: out.RefreshJwt,
		DID:          out.Did,
		Handle:       out.Handle,
		Email:        out.Email,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// RefreshSession exchanges the session's refresh token for a fresh
// access/refresh pair.
func (c *Client) RefreshSession(ctx context.Context, session *Session) (*Session, error) {
	// The refresh endpoint authenticates with the refresh token in place of
	// the access token.
	xc := &xrpc.Client{
		Host:   c.host,
		Client: c.http,
		Auth: &xrpc.AuthInfo{
			AccessJwt:  session.RefreshToken,
			RefreshJwt: session.RefreshToken,
			Did:        session.DID,
			Handle:     session.Handle,
		},
	}

	out, err := comatproto.ServerRefreshSession(ctx, xc)
	if err != nil {
		return nil, wrapError(err, "refreshSession")
	}

	return &Session{
		AccessToken:  out.AccessJwt,
		RefreshToken: out.RefreshJwt,
		DID:          out.Did,
		Handle:       out.Handle,
		Email:        session.Email,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// WithSession returns a client scoped to one user's session.
func (c *Client) WithSession(session *Session) *SessionClient {
	return &SessionClient{
		xc: &xrpc.Client{
			Host:   c.host,
			Client: c.http,
			Auth: &xrpc.AuthInfo{
				AccessJwt:  session.AccessToken,
				RefreshJwt: session.RefreshToken,
				Did:        session.DID,
				Handle:     session.Handle,
			},
		},
		did: session.DID,
	}
}

// SessionClient makes authenticated Bluesky calls on behalf of one user.
// Request-scoped; build a fresh one per request from the stored session.
type SessionClient struct {
	xc  *xrpc.Client
	did string
}

// DID returns the session owner's DID.
func (s *SessionClient) DID() string { return s.did }

// GetProfile fetches a profile by DID or handle.
func (s *SessionClient) GetProfile(ctx context.Context, actor string) (*bsky.ActorDefs_ProfileViewDetailed, error) {
	out, err := bsky.ActorGetProfile(ctx, s.xc, actor)
	if err != nil {
		return nil, wrapError(err, "getProfile")
	}
	return out, nil
}

// GetProfiles fetches up to 25 profiles in one call.
func (s *SessionClient) GetProfiles(ctx context.Context, actors []string) ([]*bsky.ActorDefs_ProfileViewDetailed, error) {
	out, err := bsky.ActorGetProfiles(ctx, s.xc, actors)
	if err != nil {
		return nil, wrapError(err, "getProfiles")
	}
	return out.Profiles, nil
}

// GetPosts fetches post views by AT URI, up to 25 per call.
func (s *SessionClient) GetPosts(ctx context.Context, uris []string) ([]*bsky.FeedDefs_PostView, error) {
	out, err := bsky.FeedGetPosts(ctx, s.xc, uris)
	if err != nil {
		return nil, wrapError(err, "getPosts")
	}
	return out.Posts, nil
}

// GetPostThread fetches the reply tree around a post.
func (s *SessionClient) GetPostThread(ctx context.Context, uri string, depth int64) (*bsky.FeedGetPostThread_Output, error) {
	out, err := bsky.FeedGetPostThread(ctx, s.xc, depth, 0, uri)
	if err != nil {
		return nil, wrapError(err, "getPostThread")
	}
	return out, nil
}

// GetTimeline fetches the user's home timeline.
func (s *SessionClient) GetTimeline(ctx context.Context, cursor string, limit int64) ([]*bsky.FeedDefs_FeedViewPost, string, error) {
	out, err := bsky.FeedGetTimeline(ctx, s.xc, "reverse-chronological", cursor, limit)
	if err != nil {
		return nil, "", wrapError(err, "getTimeline")
	}
	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}
	return out.Feed, next, nil
}

// GetAuthorFeed fetches an actor's posts.
func (s *SessionClient) GetAuthorFeed(ctx context.Context, actor, cursor string, limit int64) ([]*bsky.FeedDefs_FeedViewPost, string, error) {
	out, err := bsky.FeedGetAuthorFeed(ctx, s.xc, actor, cursor, "posts_with_replies", false, limit)
	if err != nil {
		return nil, "", wrapError(err, "getAuthorFeed")
	}
	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}
	return out.Feed, next, nil
}

// ListNotifications fetches the user's notifications.
func (s *SessionClient) ListNotifications(ctx context.Context, cursor string, limit int64) ([]*bsky.NotificationListNotifications_Notification, string, error) {
	out, err := bsky.NotificationListNotifications(ctx, s.xc, cursor, limit, false, nil, "")
	if err != nil {
		return nil, "", wrapError(err, "listNotifications")
	}
	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}
	return out.Notifications, next, nil
}

// SearchPosts runs a full-text post search.
func (s *SessionClient) SearchPosts(ctx context.Context, query, cursor string, limit int64) ([]*bsky.FeedDefs_PostView, string, error) {
	out, err := bsky.FeedSearchPosts(ctx, s.xc, "", cursor, "", "", limit, "", query, "", "", nil, "", "")
	if err != nil {
		return nil, "", wrapError(err, "searchPosts")
	}
	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}
	return out.Posts, next, nil
}

// SearchActors runs an actor search.
func (s *SessionClient) SearchActors(ctx context.Context, query, cursor string, limit int64) ([]*bsky.ActorDefs_ProfileView, string, error) {
	out, err := bsky.ActorSearchActors(ctx, s.xc, cursor, limit, query, "")
	if err != nil {
		return nil, "", wrapError(err, "searchActors")
	}
	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}
	return out.Actors, next, nil
}

// CreatePost writes an app.bsky.feed.post record to the user's repo and
// returns its AT URI and CID.
func (s *SessionClient) CreatePost(ctx context.Context, post *bsky.FeedPost) (string, string, error) {
	post.LexiconTypeID = "app.bsky.feed.post"
	out, err := comatproto.RepoCreateRecord(ctx, s.xc, &comatproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.post",
		Repo:       s.did,
		Record:     &lexutil.LexiconTypeDecoder{Val: post},
	})
	if err != nil {
		return "", "", wrapError(err, "createPost")
	}
	return out.Uri, out.Cid, nil
}

// Follow writes an app.bsky.graph.follow record for the subject DID and
// returns the follow record's AT URI.
func (s *SessionClient) Follow(ctx context.Context, subjectDID string) (string, error) {
	out, err := comatproto.RepoCreateRecord(ctx, s.xc, &comatproto.RepoCreateRecord_Input{
		Collection: "app.bsky.graph.follow",
		Repo:       s.did,
		Record: &lexutil.LexiconTypeDecoder{Val: &bsky.GraphFollow{
			LexiconTypeID: "app.bsky.graph.follow",
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
			Subject:       subjectDID,
		}},
	})
	if err != nil {
		return "", wrapError(err, "follow")
	}
	return out.Uri, nil
}

// Like writes an app.bsky.feed.like record for the subject post.
func (s *SessionClient) Like(ctx context.Context, uri, cid string) (string, error) {
	out, err := comatproto.RepoCreateRecord(ctx, s.xc, &comatproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.like",
		Repo:       s.did,
		Record: &lexutil.LexiconTypeDecoder{Val: &bsky.FeedLike{
			LexiconTypeID: "app.bsky.feed.like",
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
			Subject:       &comatproto.RepoStrongRef{Uri: uri, Cid: cid},
		}},
	})
	if err != nil {
		return "", wrapError(err, "like")
	}
	return out.Uri, nil
}

// Repost writes an app.bsky.feed.repost record for the subject post.
func (s *SessionClient) Repost(ctx context.Context, uri, cid string) (string, error) {
	out, err := comatproto.RepoCreateRecord(ctx, s.xc, &comatproto.RepoCreateRecord_Input{
		Collection: "app.bsky.feed.repost",
		Repo:       s.did,
		Record: &lexutil.LexiconTypeDecoder{Val: &bsky.FeedRepost{
			LexiconTypeID: "app.bsky.feed.repost",
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
			Subject:       &comatproto.RepoStrongRef{Uri: uri, Cid: cid},
		}},
	})
	if err != nil {
		return "", wrapError(err, "repost")
	}
	return out.Uri, nil
}

// DeleteRecord deletes any record in the user's repo by AT URI. Used for
// posts, likes, reposts and follows alike.
func (s *SessionClient) DeleteRecord(ctx context.Context, atURI string) error {
	parsed, err := ParseATURI(atURI)
	if err != nil {
		return err
	}

	_, err = comatproto.RepoDeleteRecord(ctx, s.xc, &comatproto.RepoDeleteRecord_Input{
		Collection: parsed.Collection,
		Repo:       parsed.DID,
		Rkey:       parsed.RKey,
	})
	if err != nil {
		return wrapError(err, "deleteRecord")
	}
	return nil
}

// GetFollowers fetches accounts following the actor.
func (s *SessionClient) GetFollowers(ctx context.Context, actor, cursor string, limit int64) ([]*bsky.ActorDefs_ProfileView, string, error) {
	out, err := bsky.GraphGetFollowers(ctx, s.xc, actor, cursor, limit)
	if err != nil {
		return nil, "", wrapError(err, "getFollowers")
	}
	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}
	return out.Followers, next, nil
}

// GetFollows fetches accounts the actor follows.
func (s *SessionClient) GetFollows(ctx context.Context, actor, cursor string, limit int64) ([]*bsky.ActorDefs_ProfileView, string, error) {
	out, err := bsky.GraphGetFollows(ctx, s.xc, actor, cursor, limit)
	if err != nil {
		return nil, "", wrapError(err, "getFollows")
	}
	next := ""
	if out.Cursor != nil {
		next = *out.Cursor
	}
	return out.Follows, next, nil
}

// ResolveHandle resolves a handle to its DID via the upstream directory.
func (s *SessionClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	out, err := comatproto.IdentityResolveHandle(ctx, s.xc, handle)
	if err != nil {
		return "", wrapError(err, "resolveHandle")
	}
	return out.Did, nil
}

// UploadBlob uploads binary data to the user's PDS and returns the blob ref
// for embedding in records.
func (s *SessionClient) UploadBlob(ctx context.Context, data []byte) (*lexutil.LexBlob, error) {
	out, err := comatproto.RepoUploadBlob(ctx, s.xc, bytes.NewReader(data))
	if err != nil {
		return nil, wrapError(err, "uploadBlob")
	}
	return out.Blob, nil
}
