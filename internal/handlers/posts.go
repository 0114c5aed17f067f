// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/cache"
	"inkwell/internal/imaging"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/render"
	"inkwell/internal/session"
	"inkwell/internal/slug"
	"inkwell/internal/storage"
	"inkwell/internal/store"
)

// Posts groups the authoring handlers: creating and editing posts.
// All routes in this group sit behind RequireAuth.
type Posts struct {
	renderer      *render.Renderer
	postStore     *store.PostStore
	categoryStore *store.CategoryStore
	tagStore      *store.TagStore
	mediaStore    *store.MediaStore
	files         *storage.Client
	pageCache     *cache.PageCache
}

// PostsConfig carries the dependencies for the Posts handler group.
// Files may be nil if S3 is not configured.
type PostsConfig struct {
	Renderer      *render.Renderer
	PostStore     *store.PostStore
	CategoryStore *store.CategoryStore
	TagStore      *store.TagStore
	MediaStore    *store.MediaStore
	Files         *storage.Client
	PageCache     *cache.PageCache
}

// NewPosts creates a new Posts handler group.
func NewPosts(cfg PostsConfig) *Posts {
	return &Posts{
		renderer:      cfg.Renderer,
		postStore:     cfg.PostStore,
		categoryStore: cfg.CategoryStore,
		tagStore:      cfg.TagStore,
		mediaStore:    cfg.MediaStore,
		files:         cfg.Files,
		pageCache:     cfg.PageCache,
	}
}

// postFormData bundles the state the post form needs on every render.
type postFormData struct {
	Post             *models.Post
	SelectedCategory *uuid.UUID
	TagNames         string
	Error            string
}

// renderForm renders the post form with the category dropdown populated.
func (h *Posts) renderForm(w http.ResponseWriter, r *http.Request, f postFormData) {
	categories, err := h.categoryStore.FlatTree()
	if err != nil {
		slog.Error("load categories failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	title := "New post"
	if f.Post != nil {
		title = "Edit post"
	}
	data := map[string]any{
		"Post":             f.Post,
		"Categories":       categories,
		"SelectedCategory": f.SelectedCategory,
		"TagNames":         f.TagNames,
	}
	if f.Error != "" {
		data["Error"] = f.Error
	}
	h.renderer.Page(w, r, "post_form", &render.PageData{Title: title, Data: data})
}

// CreatePage renders the empty post form.
func (h *Posts) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, postFormData{})
}

// CreateSubmit creates a post from the submitted form. The slug is
// derived from the title; a collision gets a random 8-hex suffix.
func (h *Posts) CreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderForm(w, r, postFormData{Error: "The submitted form could not be read."})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	body := r.FormValue("body")
	tagNames := r.FormValue("tags")

	retry := func(msg string, catID *uuid.UUID) {
		h.renderForm(w, r, postFormData{
			Post: &models.Post{
				Title:       title,
				Description: description,
				Body:        body,
				Status:      postStatus(r),
			},
			SelectedCategory: catID,
			TagNames:         tagNames,
			Error:            msg,
		})
	}

	if msg := validatePost(title, description, body); msg != "" {
		retry(msg, nil)
		return
	}

	categoryID, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		retry("Choose a valid category.", nil)
		return
	}
	category, err := h.categoryStore.FindByID(categoryID)
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if category == nil {
		retry("Choose a valid category.", nil)
		return
	}

	postSlug, err := slug.Unique(h.postStore, title)
	if err != nil {
		slog.Error("slug generation failed", "error", err, "title", title)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	thumbID, err := uploadImage(r, h.files, h.mediaStore, "thumbnail", "posts", imaging.ThumbnailVariants, sess.UserID)
	if err != nil {
		if v := store.AsValidation(err); v != nil {
			retry(v.Message, &categoryID)
			return
		}
		slog.Error("thumbnail upload failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	created, err := h.postStore.Create(&models.Post{
		Title:            title,
		Slug:             postSlug,
		Description:      description,
		Body:             body,
		CategoryID:       categoryID,
		ThumbnailMediaID: thumbID,
		Status:           postStatus(r),
		Fixed:            sess.IsStaff && r.FormValue("fixed") == "1",
		AuthorID:         sess.UserID,
	})
	if err != nil {
		if v := store.AsValidation(err); v != nil {
			retry(v.Message, &categoryID)
			return
		}
		slog.Error("create post failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := h.tagStore.SetPostTags(created.ID, splitTags(tagNames)); err != nil {
		slog.Warn("set post tags failed", "error", err, "post", created.Slug)
	}

	h.pageCache.InvalidateListings(r.Context())

	if created.IsPublished() {
		http.Redirect(w, r, "/post/"+created.Slug, http.StatusSeeOther)
		return
	}
	// Drafts are not publicly routable, so send the author back to edit.
	http.Redirect(w, r, "/post/"+created.Slug+"/update", http.StatusSeeOther)
}

// UpdatePage renders the edit form for an existing post. Only the
// author or staff may open it; drafts are visible here.
func (h *Posts) UpdatePage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	post, ok := h.editablePost(w, r, sess)
	if !ok {
		return
	}

	tags, err := h.tagStore.ListByPost(post.ID)
	if err != nil {
		slog.Warn("list post tags failed", "error", err, "post", post.Slug)
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}

	h.renderForm(w, r, postFormData{
		Post:             post,
		SelectedCategory: &post.CategoryID,
		TagNames:         strings.Join(names, ", "),
	})
}

// UpdateSubmit applies the submitted form to an existing post. The slug
// is regenerated only when the title changed, ignoring the post's own
// current slug when checking for collisions.
func (h *Posts) UpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	post, ok := h.editablePost(w, r, sess)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderForm(w, r, postFormData{Post: post, SelectedCategory: &post.CategoryID,
			Error: "The submitted form could not be read."})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	body := r.FormValue("body")
	tagNames := r.FormValue("tags")

	retry := func(msg string, catID uuid.UUID) {
		updated := *post
		updated.Title = title
		updated.Description = description
		updated.Body = body
		h.renderForm(w, r, postFormData{
			Post:             &updated,
			SelectedCategory: &catID,
			TagNames:         tagNames,
			Error:            msg,
		})
	}

	if msg := validatePost(title, description, body); msg != "" {
		retry(msg, post.CategoryID)
		return
	}

	categoryID, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		retry("Choose a valid category.", post.CategoryID)
		return
	}

	newSlug := post.Slug
	if title != post.Title {
		newSlug, err = slug.Unique(h.postStore.ExceptID(post.ID), title)
		if err != nil {
			slog.Error("slug generation failed", "error", err, "title", title)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	thumbID := post.ThumbnailMediaID
	if newThumb, err := uploadImage(r, h.files, h.mediaStore, "thumbnail", "posts", imaging.ThumbnailVariants, sess.UserID); err != nil {
		if v := store.AsValidation(err); v != nil {
			retry(v.Message, categoryID)
			return
		}
		slog.Error("thumbnail upload failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	} else if newThumb != nil {
		thumbID = newThumb
	}

	fixed := post.Fixed
	if sess.IsStaff {
		fixed = r.FormValue("fixed") == "1"
	}

	updated := *post
	updated.Title = title
	updated.Slug = newSlug
	updated.Description = description
	updated.Body = body
	updated.CategoryID = categoryID
	updated.ThumbnailMediaID = thumbID
	updated.Status = postStatus(r)
	updated.Fixed = fixed

	editor := &models.User{ID: sess.UserID, IsStaff: sess.IsStaff}
	saved, err := h.postStore.Update(&updated, editor)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPermissionDenied):
			h.renderer.Error(w, r, http.StatusForbidden, "You cannot edit this post.")
		case errors.Is(err, store.ErrNotFound):
			h.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		default:
			if v := store.AsValidation(err); v != nil {
				retry(v.Message, categoryID)
				return
			}
			slog.Error("update post failed", "error", err, "post", post.Slug)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.tagStore.SetPostTags(saved.ID, splitTags(tagNames)); err != nil {
		slog.Warn("set post tags failed", "error", err, "post", saved.Slug)
	}

	h.pageCache.InvalidatePost(r.Context(), post.Slug)
	if saved.Slug != post.Slug {
		h.pageCache.InvalidatePost(r.Context(), saved.Slug)
	}
	h.pageCache.InvalidateListings(r.Context())

	if saved.IsPublished() {
		http.Redirect(w, r, "/post/"+saved.Slug, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/post/"+saved.Slug+"/update", http.StatusSeeOther)
}

// editablePost loads the post named in the URL and checks that the
// session user may edit it, writing the error response itself when not.
func (h *Posts) editablePost(w http.ResponseWriter, r *http.Request, sess *session.Data) (*models.Post, bool) {
	if sess == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}

	post, err := h.postStore.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("find post failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if post == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		return nil, false
	}
	if post.AuthorID != sess.UserID && !sess.IsStaff {
		h.renderer.Error(w, r, http.StatusForbidden, "You cannot edit this post.")
		return nil, false
	}
	return post, true
}

// postStatus reads the status field, defaulting anything unknown to draft.
func postStatus(r *http.Request) models.PostStatus {
	if r.FormValue("status") == string(models.PostStatusPublished) {
		return models.PostStatusPublished
	}
	return models.PostStatusDraft
}
