// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"inkwell/internal/cache"
	"inkwell/internal/database"
	"inkwell/internal/feed"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/render"
	"inkwell/internal/session"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "inkwell")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "inkwell")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "page:*", "online:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Renderer      *render.Renderer
	Sessions      *session.Store
	UserStore     *store.UserStore
	ProfileStore  *store.ProfileStore
	CategoryStore *store.CategoryStore
	PostStore     *store.PostStore
	CommentStore  *store.CommentStore
	RatingStore   *store.RatingStore
	TagStore      *store.TagStore
	MediaStore    *store.MediaStore
	PageCache     *cache.PageCache
	Public        *Public
	Auth          *Auth
	Posts         *Posts
	Comments      *Comments
	Ratings       *Ratings
	Profiles      *Profiles
}

// newTestEnv creates a complete test environment with all handler
// dependencies. Object storage is left unconfigured so uploads no-op.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New("Inkwell")
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	profileStore := store.NewProfileStore(db)
	categoryStore := store.NewCategoryStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)
	ratingStore := store.NewRatingStore(db)
	tagStore := store.NewTagStore(db)
	mediaStore := store.NewMediaStore(db)
	pageCache := cache.NewPageCache(vk, 1*time.Minute)
	feedBuilder := feed.NewBuilder("Inkwell", "http://localhost:8080")

	public := NewPublic(PublicConfig{
		Renderer:      renderer,
		PostStore:     postStore,
		CommentStore:  commentStore,
		RatingStore:   ratingStore,
		TagStore:      tagStore,
		CategoryStore: categoryStore,
		MediaStore:    mediaStore,
		PageCache:     pageCache,
		FeedBuilder:   feedBuilder,
		PageSize:      10,
		FeedItems:     5,
	})
	auth := NewAuth(renderer, sessions, userStore, "Inkwell")
	posts := NewPosts(PostsConfig{
		Renderer:      renderer,
		PostStore:     postStore,
		CategoryStore: categoryStore,
		TagStore:      tagStore,
		MediaStore:    mediaStore,
		PageCache:     pageCache,
	})
	comments := NewComments(renderer, postStore, commentStore, pageCache)
	ratings := NewRatings(postStore, ratingStore, pageCache)
	profiles := NewProfiles(renderer, sessions, userStore, profileStore, mediaStore, nil)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Renderer:      renderer,
		Sessions:      sessions,
		UserStore:     userStore,
		ProfileStore:  profileStore,
		CategoryStore: categoryStore,
		PostStore:     postStore,
		CommentStore:  commentStore,
		RatingStore:   ratingStore,
		TagStore:      tagStore,
		MediaStore:    mediaStore,
		PageCache:     pageCache,
		Public:        public,
		Auth:          auth,
		Posts:         posts,
		Comments:      comments,
		Ratings:       ratings,
		Profiles:      profiles,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for a user fixture.
func testSession(u *models.User) *session.Data {
	return &session.Data{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsStaff:     u.IsStaff,
		TwoFADone:   true,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// newMultipartRequest builds a multipart/form-data POST with text
// fields only, matching what the post and profile forms submit when no
// file is attached.
func newMultipartRequest(t *testing.T, target string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// uniqueSuffix returns a short random suffix to keep fixture titles
// and slugs unique on a shared test database.
func uniqueSuffix() string {
	return uuid.NewString()[:8]
}

// createTestUser registers a user with a unique username. Deleting the
// user cascades to its profile, posts, and comments.
func createTestUser(t *testing.T, env *testEnv) *models.User {
	t.Helper()
	name := "hnd-" + uuid.NewString()[:8]
	u, err := env.UserStore.Create(name, name+"@example.com", "password123", "Handler Tester")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return u
}

// createTestCategory inserts a category with a unique slug.
func createTestCategory(t *testing.T, env *testEnv) *models.Category {
	t.Helper()
	title := "Handlers " + uuid.NewString()[:8]
	c, err := env.CategoryStore.Create(&models.Category{
		Title: title,
		Slug:  slug.Generate(title),
	})
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM categories WHERE id = $1", c.ID)
	})
	return c
}

// createTestPost inserts a published post for the given author and category.
func createTestPost(t *testing.T, env *testEnv, author *models.User, cat *models.Category, title string) *models.Post {
	t.Helper()
	s, err := slug.Unique(env.PostStore, title)
	if err != nil {
		t.Fatalf("post slug: %v", err)
	}
	p, err := env.PostStore.Create(&models.Post{
		Title:       title,
		Slug:        s,
		Description: "Test summary.",
		Body:        "Test **body**.",
		CategoryID:  cat.ID,
		Status:      models.PostStatusPublished,
		AuthorID:    author.ID,
	})
	if err != nil {
		t.Fatalf("create test post: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM posts WHERE id = $1", p.ID)
	})
	return p
}
