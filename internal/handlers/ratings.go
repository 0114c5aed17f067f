// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/store"
)

// Ratings handles the vote endpoint. Votes are keyed by client IP, not
// account, so the endpoint is open to anonymous visitors and sits
// behind the rate limiter instead of RequireAuth.
type Ratings struct {
	postStore   *store.PostStore
	ratingStore *store.RatingStore
	pageCache   *cache.PageCache
}

// NewRatings creates a new Ratings handler group.
func NewRatings(postStore *store.PostStore, ratingStore *store.RatingStore, pageCache *cache.PageCache) *Ratings {
	return &Ratings{
		postStore:   postStore,
		ratingStore: ratingStore,
		pageCache:   pageCache,
	}
}

type voteRequest struct {
	Value int `json:"value"`
}

// Vote applies a ±1 vote to a post and returns the outcome and new sum
// as JSON. Repeating the same vote toggles it off; voting the other way
// flips it in place.
func (h *Ratings) Vote(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	post, err := h.postStore.FindPublishedBySlug(slugParam)
	if err != nil {
		slog.Error("find post failed", "error", err, "slug", slugParam)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if post == nil {
		writeJSONError(w, http.StatusNotFound, "post not found")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var userID *uuid.UUID
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		userID = &sess.UserID
	}

	result, err := h.ratingStore.Vote(post.ID, middleware.ClientIP(r), userID, req.Value)
	if err != nil {
		if v := store.AsValidation(err); v != nil {
			writeJSONError(w, http.StatusBadRequest, v.Message)
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "post not found")
			return
		}
		slog.Error("vote failed", "error", err, "slug", slugParam)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.pageCache.InvalidatePost(r.Context(), post.Slug)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// writeJSONError writes a JSON error body with the given status.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
