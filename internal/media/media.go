// Package media holds uploaded blobs between the upload call and the status
// that attaches them. Uploads live in the cache only; an upload never attached
// to a status simply expires.
package media

import (
	"context"
	"fmt"
	"strconv"
	"time"

	lexutil "github.com/bluesky-social/indigo/lex/util"

	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/cache"
	"Archaeopteryx/internal/snowflake"
)

const keyUpload = "media:upload:%s"

// UploadTTL is how long an unattached upload is kept.
const UploadTTL = 24 * time.Hour

// Upload is a blob uploaded to the user's PDS, waiting to be attached.
type Upload struct {
	ID          string           `json:"id"`
	Blob        *lexutil.LexBlob `json:"blob"`
	Description string           `json:"description"`
	MimeType    string           `json:"mime_type"`
}

// Service stores and retrieves pending uploads.
type Service struct {
	cache cache.Cache
	gen   *snowflake.Generator
}

// NewService creates the media service.
func NewService(c cache.Cache, gen *snowflake.Generator) *Service {
	return &Service{cache: c, gen: gen}
}

// Store assigns the upload an ID and persists it.
func (s *Service) Store(ctx context.Context, blob *lexutil.LexBlob, description, mimeType string) (*Upload, error) {
	upload := &Upload{
		ID:          strconv.FormatInt(s.gen.Generate(), 10),
		Blob:        blob,
		Description: description,
		MimeType:    mimeType,
	}
	if err := cache.Set(ctx, s.cache, fmt.Sprintf(keyUpload, upload.ID), upload, UploadTTL); err != nil {
		return nil, apperr.Internal(err)
	}
	return upload, nil
}

// Get fetches a pending upload by ID.
func (s *Service) Get(ctx context.Context, id string) (*Upload, error) {
	upload, found, err := cache.Get[Upload](ctx, s.cache, fmt.Sprintf(keyUpload, id))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !found {
		return nil, apperr.NotFound("Unknown media id")
	}
	return &upload, nil
}
