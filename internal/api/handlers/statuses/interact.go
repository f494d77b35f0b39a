package statuses

import (
	"net/http"

	"Archaeopteryx/internal/api/handlers/common"
)

// HandleFavourite likes a status.
// POST /api/v1/statuses/:id/favourite
func (h *Handler) HandleFavourite(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	uri, err := h.resolveURI(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	fetched, err := h.fetchPost(r, sc, uri)
	if err != nil {
		common.Error(w, err)
		return
	}

	// Liking twice is a no-op; the existing like record stands.
	if fetched.post.Viewer == nil || fetched.post.Viewer.Like == nil {
		if _, err := sc.Like(r.Context(), fetched.post.Uri, fetched.post.Cid); err != nil {
			common.Error(w, err)
			return
		}
		fetched.status.FavouritesCount++
	}
	fetched.status.Favourited = true

	common.JSON(w, http.StatusOK, fetched.status)
}

// HandleUnfavourite removes a like.
// POST /api/v1/statuses/:id/unfavourite
func (h *Handler) HandleUnfavourite(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	uri, err := h.resolveURI(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	fetched, err := h.fetchPost(r, sc, uri)
	if err != nil {
		common.Error(w, err)
		return
	}

	if fetched.post.Viewer != nil && fetched.post.Viewer.Like != nil {
		if err := sc.DeleteRecord(r.Context(), *fetched.post.Viewer.Like); err != nil {
			common.Error(w, err)
			return
		}
		if fetched.status.FavouritesCount > 0 {
			fetched.status.FavouritesCount--
		}
	}
	fetched.status.Favourited = false

	common.JSON(w, http.StatusOK, fetched.status)
}

// HandleReblog reposts a status.
// POST /api/v1/statuses/:id/reblog
func (h *Handler) HandleReblog(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	uri, err := h.resolveURI(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	fetched, err := h.fetchPost(r, sc, uri)
	if err != nil {
		common.Error(w, err)
		return
	}

	if fetched.post.Viewer == nil || fetched.post.Viewer.Repost == nil {
		if _, err := sc.Repost(r.Context(), fetched.post.Uri, fetched.post.Cid); err != nil {
			common.Error(w, err)
			return
		}
		fetched.status.ReblogsCount++
	}
	fetched.status.Reblogged = true

	common.JSON(w, http.StatusOK, fetched.status)
}

// HandleUnreblog removes a repost.
// POST /api/v1/statuses/:id/unreblog
func (h *Handler) HandleUnreblog(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	uri, err := h.resolveURI(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	fetched, err := h.fetchPost(r, sc, uri)
	if err != nil {
		common.Error(w, err)
		return
	}

	if fetched.post.Viewer != nil && fetched.post.Viewer.Repost != nil {
		if err := sc.DeleteRecord(r.Context(), *fetched.post.Viewer.Repost); err != nil {
			common.Error(w, err)
			return
		}
		if fetched.status.ReblogsCount > 0 {
			fetched.status.ReblogsCount--
		}
	}
	fetched.status.Reblogged = false

	common.JSON(w, http.StatusOK, fetched.status)
}
