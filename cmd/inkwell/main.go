// Package main is the entry point for the Inkwell blog server.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/feed"
	"inkwell/internal/handlers"
	"inkwell/internal/imaging"
	"inkwell/internal/middleware"
	"inkwell/internal/render"
	"inkwell/internal/router"
	"inkwell/internal/session"
	"inkwell/internal/storage"
	"inkwell/internal/store"
)

func main() {
	// Structured logger — text output, debug level.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Session store backed by Valkey. Outside development, session
	// cookies are marked Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Start libvips for thumbnail and avatar processing.
	imaging.Startup(0)
	defer imaging.Shutdown()

	// HTML template renderer.
	renderer, err := render.New(cfg.SiteTitle)
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Data stores.
	userStore := store.NewUserStore(db)
	profileStore := store.NewProfileStore(db)
	categoryStore := store.NewCategoryStore(db)
	postStore := store.NewPostStore(db)
	commentStore := store.NewCommentStore(db)
	ratingStore := store.NewRatingStore(db)
	tagStore := store.NewTagStore(db)
	mediaStore := store.NewMediaStore(db)

	// S3-compatible object storage (optional — app works without it).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured — media uploads disabled")
	}

	// Full-page HTML cache in Valkey.
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// RSS feed builder.
	feedBuilder := feed.NewBuilder(cfg.SiteTitle, cfg.BaseURL)

	// Rate limiter for the anonymous vote endpoint.
	rateLimiter := middleware.NewRateLimiter(30, time.Minute)
	defer rateLimiter.Stop()

	// Handler groups.
	var files handlers.FileURLer
	if storageClient != nil {
		files = storageClient
	}
	publicHandlers := handlers.NewPublic(handlers.PublicConfig{
		Renderer:      renderer,
		PostStore:     postStore,
		CommentStore:  commentStore,
		RatingStore:   ratingStore,
		TagStore:      tagStore,
		CategoryStore: categoryStore,
		MediaStore:    mediaStore,
		Files:         files,
		PageCache:     pageCache,
		FeedBuilder:   feedBuilder,
		PageSize:      cfg.PageSize,
		FeedItems:     cfg.FeedItems,
	})
	authHandlers := handlers.NewAuth(renderer, sessionStore, userStore, cfg.SiteTitle)
	postHandlers := handlers.NewPosts(handlers.PostsConfig{
		Renderer:      renderer,
		PostStore:     postStore,
		CategoryStore: categoryStore,
		TagStore:      tagStore,
		MediaStore:    mediaStore,
		Files:         storageClient,
		PageCache:     pageCache,
	})
	commentHandlers := handlers.NewComments(renderer, postStore, commentStore, pageCache)
	ratingHandlers := handlers.NewRatings(postStore, ratingStore, pageCache)
	profileHandlers := handlers.NewProfiles(renderer, sessionStore, userStore, profileStore, mediaStore, storageClient)

	// Chi router with all middleware and routes.
	r := router.New(sessionStore, rateLimiter, router.Handlers{
		Public:   publicHandlers,
		Auth:     authHandlers,
		Posts:    postHandlers,
		Comments: commentHandlers,
		Ratings:  ratingHandlers,
		Profiles: profileHandlers,
	})

	// HTTP server with sensible timeouts. ReadTimeout leaves room for
	// multipart image uploads on slow links.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
