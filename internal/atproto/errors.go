package atproto

import (
	"errors"
	"fmt"

	"github.com/bluesky-social/indigo/xrpc"
)

// Sentinel errors for upstream calls
var (
	// ErrUnauthorized is returned when the upstream rejects the session.
	ErrUnauthorized = errors.New("upstream unauthorized")

	// ErrNotFound is returned when the upstream has no such record or actor.
	ErrNotFound = errors.New("upstream record not found")

	// ErrRateLimited is returned when the upstream throttles the gateway.
	ErrRateLimited = errors.New("upstream rate limited")
)

// wrapError maps an xrpc error onto the package sentinels so callers can use
// errors.Is without knowing indigo's error shape.
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var xerr *xrpc.Error
	if errors.As(err, &xerr) {
		switch xerr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%s: %w: %v", operation, ErrUnauthorized, err)
		case 404:
			return fmt.Errorf("%s: %w: %v", operation, ErrNotFound, err)
		case 429:
			return fmt.Errorf("%s: %w: %v", operation, ErrRateLimited, err)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
