// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/cache"
	"inkwell/internal/feed"
	"inkwell/internal/markdown"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/paginate"
	"inkwell/internal/render"
	"inkwell/internal/store"
)

// Public groups handlers for the anonymous-readable site: listings,
// post pages, and the RSS feed. Responses for anonymous visitors are
// checked against the Valkey page cache before touching the database,
// and stored there on miss.
type Public struct {
	renderer      *render.Renderer
	postStore     *store.PostStore
	commentStore  *store.CommentStore
	ratingStore   *store.RatingStore
	tagStore      *store.TagStore
	categoryStore *store.CategoryStore
	mediaStore    *store.MediaStore
	files         FileURLer
	pageCache     *cache.PageCache
	feedBuilder   *feed.Builder
	pageSize      int
	feedItems     int
}

// FileURLer resolves a stored object key to a public URL. Satisfied by
// *storage.Client; nil when S3 is not configured.
type FileURLer interface {
	FileURL(key string) string
}

// PublicConfig carries the dependencies for the public handler group.
// Files may be nil if S3 is not configured.
type PublicConfig struct {
	Renderer      *render.Renderer
	PostStore     *store.PostStore
	CommentStore  *store.CommentStore
	RatingStore   *store.RatingStore
	TagStore      *store.TagStore
	CategoryStore *store.CategoryStore
	MediaStore    *store.MediaStore
	Files         FileURLer
	PageCache     *cache.PageCache
	FeedBuilder   *feed.Builder
	PageSize      int
	FeedItems     int
}

// NewPublic creates a new Public handler group.
func NewPublic(cfg PublicConfig) *Public {
	return &Public{
		renderer:      cfg.Renderer,
		postStore:     cfg.PostStore,
		commentStore:  cfg.CommentStore,
		ratingStore:   cfg.RatingStore,
		tagStore:      cfg.TagStore,
		categoryStore: cfg.CategoryStore,
		mediaStore:    cfg.MediaStore,
		files:         cfg.Files,
		pageCache:     cfg.PageCache,
		feedBuilder:   cfg.FeedBuilder,
		pageSize:      cfg.PageSize,
		feedItems:     cfg.FeedItems,
	}
}

// pageNumber reads the ?page query parameter, defaulting to 1.
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// cacheable reports whether the response may come from / go to the page
// cache. Logged-in visitors see per-user chrome, so only anonymous GET
// requests are cacheable.
func cacheable(r *http.Request) bool {
	return r.Method == http.MethodGet && middleware.SessionFromCtx(r.Context()) == nil
}

// serveCached writes a cache hit and reports whether it did.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	if !cacheable(r) {
		return false
	}
	cached, ok := p.pageCache.Get(r.Context(), key)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(cached)
	return true
}

// servePage renders a page, stores it in the cache when allowed, and
// writes it out.
func (p *Public) servePage(w http.ResponseWriter, r *http.Request, key, tmpl string, data *render.PageData) {
	data.CSRFToken = middleware.GetCSRFToken(r)
	data.Session = middleware.SessionFromCtx(r.Context())

	out, err := p.renderer.Render(tmpl, data)
	if err != nil {
		slog.Error("render failed", "template", tmpl, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if cacheable(r) {
		p.pageCache.Set(r.Context(), key, out)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

// Homepage renders a paginated listing of published posts, pinned first.
func (p *Public) Homepage(w http.ResponseWriter, r *http.Request) {
	number := pageNumber(r)
	key := cache.HomepageKey(number)
	if p.serveCached(w, r, key) {
		return
	}

	total, err := p.postStore.CountPublished()
	if err != nil {
		slog.Error("count posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	page := paginate.New(number, p.pageSize, total)

	posts, err := p.postStore.ListPublished(page.Size, page.Offset())
	if err != nil {
		slog.Error("list posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.servePage(w, r, key, "post_list", &render.PageData{
		Data: map[string]any{
			"Posts": posts,
			"Page":  page,
		},
	})
}

// ByCategory renders the posts of one category. A category with no
// posts of its own shows the posts of its direct children instead.
func (p *Public) ByCategory(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	number := pageNumber(r)
	key := cache.CategoryKey(slugParam, number)
	if p.serveCached(w, r, key) {
		return
	}

	category, err := p.categoryStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find category failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if category == nil {
		p.renderer.Error(w, r, http.StatusNotFound, "Category not found.")
		return
	}

	total, err := p.postStore.CountByCategorySlug(slugParam)
	if err != nil {
		slog.Error("count category posts failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	page := paginate.New(number, p.pageSize, total)

	posts, err := p.postStore.ListByCategorySlug(slugParam, page.Size, page.Offset())
	if err != nil {
		slog.Error("list category posts failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.servePage(w, r, key, "post_list", &render.PageData{
		Title: category.Title,
		Data: map[string]any{
			"Heading": category.Title,
			"Posts":   posts,
			"Page":    page,
		},
	})
}

// ByTag renders the published posts carrying a tag.
func (p *Public) ByTag(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	number := pageNumber(r)
	key := cache.TagKey(slugParam, number)
	if p.serveCached(w, r, key) {
		return
	}

	tag, err := p.tagStore.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find tag failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if tag == nil {
		p.renderer.Error(w, r, http.StatusNotFound, "Tag not found.")
		return
	}

	total, err := p.postStore.CountByTagSlug(slugParam)
	if err != nil {
		slog.Error("count tag posts failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	page := paginate.New(number, p.pageSize, total)

	posts, err := p.postStore.ListByTagSlug(slugParam, page.Size, page.Offset())
	if err != nil {
		slog.Error("list tag posts failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.servePage(w, r, key, "post_list", &render.PageData{
		Title: "Tagged " + tag.Name,
		Data: map[string]any{
			"Heading": "Posts tagged “" + tag.Name + "”",
			"Posts":   posts,
			"Page":    page,
		},
	})
}

// PostDetail renders a published post with its comment tree and rating.
func (p *Public) PostDetail(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	key := cache.PostKey(slugParam)
	if p.serveCached(w, r, key) {
		return
	}

	post, err := p.postStore.FindPublishedBySlug(slugParam)
	if err != nil {
		slog.Error("find post failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		p.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		return
	}

	bodyHTML, err := markdown.ToHTML(post.Body)
	if err != nil {
		slog.Error("markdown render failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if post.Tags, err = p.tagStore.ListByPost(post.ID); err != nil {
		slog.Warn("list post tags failed", "error", err, "slug", slugParam)
	}

	comments, err := p.commentStore.TreeByPost(post.ID)
	if err != nil {
		slog.Error("load comments failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	count, err := p.commentStore.CountByPost(post.ID)
	if err != nil {
		slog.Warn("count comments failed", "error", err, "slug", slugParam)
	}

	sum, err := p.ratingStore.Sum(post.ID)
	if err != nil {
		slog.Warn("rating sum failed", "error", err, "slug", slugParam)
	}

	sess := middleware.SessionFromCtx(r.Context())
	canEdit := sess != nil && (sess.UserID == post.AuthorID || sess.IsStaff)

	data := map[string]any{
		"Post":         post,
		"BodyHTML":     bodyHTML,
		"Comments":     comments,
		"CommentCount": count,
		"RatingSum":    sum,
		"CanEdit":      canEdit,
		"ThumbnailURL": p.thumbnailURL(post),
	}
	if replyTo := r.URL.Query().Get("reply"); replyTo != "" {
		if id, err := uuid.Parse(replyTo); err == nil {
			data["ReplyTo"] = id.String()
		}
	}

	p.servePage(w, r, key, "post_detail", &render.PageData{
		Title: post.Title,
		Data:  data,
	})
}

// Feed serves the RSS feed of the most recently published posts.
func (p *Public) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := cache.FeedKey()
	if cached, ok := p.pageCache.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.Write(cached)
		return
	}

	posts, err := p.postStore.ListPublished(p.feedItems, 0)
	if err != nil {
		slog.Error("feed listing failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	out, err := p.feedBuilder.RSS(posts, time.Now())
	if err != nil {
		slog.Error("feed render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, key, []byte(out))
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(out))
}

// thumbnailURL resolves a post's thumbnail media row to a public URL,
// or "" when unset or storage is not configured.
func (p *Public) thumbnailURL(post *models.Post) string {
	if post.ThumbnailMediaID == nil || p.mediaStore == nil || p.files == nil {
		return ""
	}
	media, err := p.mediaStore.FindByID(*post.ThumbnailMediaID)
	if err != nil || media == nil {
		return ""
	}
	return p.files.FileURL(media.S3Key)
}
