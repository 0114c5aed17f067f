// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
	"inkwell/internal/store"
)

// Comments handles posting comments on published posts. The route sits
// behind RequireAuth; anonymous visitors only read.
type Comments struct {
	renderer     *render.Renderer
	postStore    *store.PostStore
	commentStore *store.CommentStore
	pageCache    *cache.PageCache
}

// NewComments creates a new Comments handler group.
func NewComments(renderer *render.Renderer, postStore *store.PostStore, commentStore *store.CommentStore, pageCache *cache.PageCache) *Comments {
	return &Comments{
		renderer:     renderer,
		postStore:    postStore,
		commentStore: commentStore,
		pageCache:    pageCache,
	}
}

// Submit adds a comment, or a reply when parent_id is set. The reply
// target must belong to the same post.
func (h *Comments) Submit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	slugParam := chi.URLParam(r, "slug")
	post, err := h.postStore.FindPublishedBySlug(slugParam)
	if err != nil {
		slog.Error("find post failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		return
	}

	var parentID *uuid.UUID
	if raw := r.FormValue("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.renderer.Error(w, r, http.StatusBadRequest, "The comment you are replying to does not exist.")
			return
		}
		parentID = &id
	}

	if _, err := h.commentStore.Add(post.ID, sess.UserID, r.FormValue("content"), parentID); err != nil {
		if v := store.AsValidation(err); v != nil {
			h.renderer.Error(w, r, http.StatusBadRequest, v.Message)
			return
		}
		slog.Error("add comment failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.pageCache.InvalidatePost(r.Context(), post.Slug)
	http.Redirect(w, r, "/post/"+post.Slug+"#comments", http.StatusSeeOther)
}
