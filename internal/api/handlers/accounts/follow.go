package accounts

import (
	"net/http"
	"strconv"

	"github.com/bluesky-social/indigo/api/bsky"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/mastodon"
)

// HandleFollow follows an account and returns the updated relationship.
// POST /api/v1/accounts/:id/follow
func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	did, err := h.resolveDID(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	profile, err := sc.GetProfile(r.Context(), did)
	if err != nil {
		common.Error(w, err)
		return
	}

	// Already following is a no-op; writing a second follow record would
	// leave an orphan behind.
	if profile.Viewer == nil || profile.Viewer.Following == nil {
		if _, err := sc.Follow(r.Context(), did); err != nil {
			common.Error(w, err)
			return
		}
	}

	relationship, err := h.relationship(r, did, profile.Viewer, true)
	if err != nil {
		common.Error(w, err)
		return
	}
	relationship.Following = true

	common.JSON(w, http.StatusOK, relationship)
}

// HandleUnfollow removes the follow record and returns the relationship.
// POST /api/v1/accounts/:id/unfollow
func (h *Handler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	did, err := h.resolveDID(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	profile, err := sc.GetProfile(r.Context(), did)
	if err != nil {
		common.Error(w, err)
		return
	}

	// The follow record URI lives on the viewer state; absent means not
	// following, which unfollow treats as success.
	if profile.Viewer != nil && profile.Viewer.Following != nil {
		if err := sc.DeleteRecord(r.Context(), *profile.Viewer.Following); err != nil {
			common.Error(w, err)
			return
		}
	}

	relationship, err := h.relationship(r, did, profile.Viewer, false)
	if err != nil {
		common.Error(w, err)
		return
	}
	relationship.Following = false

	common.JSON(w, http.StatusOK, relationship)
}

// HandleRelationships returns relationships for the requested account IDs.
// GET /api/v1/accounts/relationships?id[]=1&id[]=2
func (h *Handler) HandleRelationships(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	ids := r.URL.Query()["id[]"]
	if len(ids) == 0 {
		ids = r.URL.Query()["id"]
	}

	relationships := []mastodon.Relationship{}
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		did, err := h.ids.DIDForSnowflake(r.Context(), id)
		if err != nil || did == "" {
			continue
		}

		profile, err := sc.GetProfile(r.Context(), did)
		if err != nil {
			continue
		}

		following := profile.Viewer != nil && profile.Viewer.Following != nil
		relationship, err := h.relationship(r, did, profile.Viewer, following)
		if err != nil {
			common.Error(w, err)
			return
		}
		relationships = append(relationships, *relationship)
	}

	common.JSON(w, http.StatusOK, relationships)
}

// relationship builds the Mastodon relationship object from Bluesky viewer
// state.
func (h *Handler) relationship(r *http.Request, did string, viewer *bsky.ActorDefs_ViewerState, following bool) (*mastodon.Relationship, error) {
	id, err := h.ids.SnowflakeForDID(r.Context(), did)
	if err != nil {
		return nil, err
	}

	relationship := &mastodon.Relationship{
		ID:        strconv.FormatInt(id, 10),
		Following: following,
	}
	if viewer != nil {
		relationship.FollowedBy = viewer.FollowedBy != nil
		relationship.Blocking = viewer.Blocking != nil
		if viewer.BlockedBy != nil {
			relationship.BlockedBy = *viewer.BlockedBy
		}
		if viewer.Muted != nil {
			relationship.Muting = *viewer.Muted
		}
	}
	return relationship, nil
}
