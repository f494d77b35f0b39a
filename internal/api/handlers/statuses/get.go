package statuses

import (
	"net/http"

	"github.com/bluesky-social/indigo/api/bsky"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/apperr"
	"Archaeopteryx/internal/atproto"
	"Archaeopteryx/internal/mastodon"
)

// HandleGet returns a single status.
// GET /api/v1/statuses/:id
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	common.JSON(w, http.StatusOK, fetched.status)
}

// HandleDelete deletes the caller's own status.
// DELETE /api/v1/statuses/:id
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	if atproto.DIDFromATURI(uri) != middleware.GetUser(r).DID {
		common.Error(w, apperr.Forbidden("This action is not allowed"))
		return
	}

	// Fetch first so the response can carry the deleted status, per the
	// Mastodon contract. A post the appview no longer has still gets deleted.
	var status *mastodon.Status
	if fetched, err := h.fetchPost(r, sc, uri); err == nil {
		status = fetched.status
	}

	if err := sc.DeleteRecord(r.Context(), uri); err != nil {
		common.Error(w, err)
		return
	}

	if status == nil {
		common.JSON(w, http.StatusOK, struct{}{})
		return
	}
	common.JSON(w, http.StatusOK, status)
}

// HandleContext returns a status's thread as ancestors and descendants.
// GET /api/v1/statuses/:id/context
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
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

	thread, err := sc.GetPostThread(r.Context(), uri, 10)
	if err != nil {
		common.Error(w, err)
		return
	}
	if thread.Thread == nil || thread.Thread.FeedDefs_ThreadViewPost == nil {
		common.Error(w, apperr.NotFound("Record not found"))
		return
	}
	node := thread.Thread.FeedDefs_ThreadViewPost

	response := mastodon.Context{
		Ancestors:   []mastodon.Status{},
		Descendants: []mastodon.Status{},
	}

	// Ancestors walk parent links up to the root, oldest first.
	var ancestors []*bsky.FeedDefs_PostView
	for parent := node.Parent; parent != nil && parent.FeedDefs_ThreadViewPost != nil; parent = parent.FeedDefs_ThreadViewPost.Parent {
		ancestors = append(ancestors, parent.FeedDefs_ThreadViewPost.Post)
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		status, err := h.tr.Status(r.Context(), ancestors[i])
		if err != nil {
			common.Error(w, err)
			return
		}
		response.Ancestors = append(response.Ancestors, *status)
	}

	// Descendants are the reply subtree, depth first.
	if err := h.collectReplies(r, node, &response.Descendants); err != nil {
		common.Error(w, err)
		return
	}

	common.JSON(w, http.StatusOK, response)
}

func (h *Handler) collectReplies(r *http.Request, node *bsky.FeedDefs_ThreadViewPost, out *[]mastodon.Status) error {
	for _, reply := range node.Replies {
		if reply.FeedDefs_ThreadViewPost == nil {
			continue
		}
		child := reply.FeedDefs_ThreadViewPost

		status, err := h.tr.Status(r.Context(), child.Post)
		if err != nil {
			return err
		}
		*out = append(*out, *status)

		if err := h.collectReplies(r, child, out); err != nil {
			return err
		}
	}
	return nil
}
