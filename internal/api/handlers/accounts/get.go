package accounts

import (
	"net/http"

	"github.com/bluesky-social/indigo/api/bsky"

	"Archaeopteryx/internal/api/handlers/common"
	"Archaeopteryx/internal/api/middleware"
	"Archaeopteryx/internal/mastodon"
)

// HandleVerifyCredentials returns the authenticated user's own account.
// GET /api/v1/accounts/verify_credentials
func (h *Handler) HandleVerifyCredentials(w http.ResponseWriter, r *http.Request) {
	sc, err := h.session(r)
	if err != nil {
		common.Error(w, err)
		return
	}

	profile, err := sc.GetProfile(r.Context(), middleware.GetUser(r).DID)
	if err != nil {
		common.Error(w, err)
		return
	}

	account, err := h.tr.Account(r.Context(), profile)
	if err != nil {
		common.Error(w, err)
		return
	}

	common.JSON(w, http.StatusOK, account)
}

// HandleGet returns an account by ID.
// GET /api/v1/accounts/:id
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	account, err := h.tr.Account(r.Context(), profile)
	if err != nil {
		common.Error(w, err)
		return
	}

	common.JSON(w, http.StatusOK, account)
}

// HandleStatuses returns an account's posts.
// GET /api/v1/accounts/:id/statuses
func (h *Handler) HandleStatuses(w http.ResponseWriter, r *http.Request) {
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

	limit, cursor := parsePaging(r, 20, 40)
	feed, _, err := sc.GetAuthorFeed(r.Context(), did, cursor, limit)
	if err != nil {
		common.Error(w, err)
		return
	}

	statuses := []mastodon.Status{}
	for _, item := range feed {
		status, err := h.tr.StatusFromFeedItem(r.Context(), item)
		if err != nil {
			common.Error(w, err)
			return
		}
		statuses = append(statuses, *status)
	}

	common.JSON(w, http.StatusOK, statuses)
}

// HandleFollowers returns the accounts following :id.
// GET /api/v1/accounts/:id/followers
func (h *Handler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	h.handleGraph(w, r, graphFollowers)
}

// HandleFollowing returns the accounts :id follows.
// GET /api/v1/accounts/:id/following
func (h *Handler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	h.handleGraph(w, r, graphFollowing)
}

type graphDirection int

const (
	graphFollowers graphDirection = iota
	graphFollowing
)

func (h *Handler) handleGraph(w http.ResponseWriter, r *http.Request, dir graphDirection) {
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

	limit, cursor := parsePaging(r, 40, 80)

	var views []*bsky.ActorDefs_ProfileView
	if dir == graphFollowers {
		views, _, err = sc.GetFollowers(r.Context(), did, cursor, limit)
	} else {
		views, _, err = sc.GetFollows(r.Context(), did, cursor, limit)
	}
	if err != nil {
		common.Error(w, err)
		return
	}

	accounts := []mastodon.Account{}
	for _, view := range views {
		account, err := h.tr.AccountFromView(r.Context(), view)
		if err != nil {
			common.Error(w, err)
			return
		}
		accounts = append(accounts, *account)
	}

	common.JSON(w, http.StatusOK, accounts)
}
