// Package router sets up all HTTP routes and middleware chains for the
// blog: the public reading surface, the authoring area, and auth pages.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/session"
	"inkwell/web"
)

// Handlers bundles the handler groups the router wires up.
type Handlers struct {
	Public   *handlers.Public
	Auth     *handlers.Auth
	Posts    *handlers.Posts
	Comments *handlers.Comments
	Ratings  *handlers.Ratings
	Profiles *handlers.Profiles
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. rateLimiter guards the write endpoints a
// script could hammer: voting and comment submission.
func New(sessionStore *session.Store, rateLimiter *middleware.RateLimiter, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check and static assets — no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(sessionStore))
		r.Use(middleware.CSRF)

		// Public reading surface.
		r.Get("/", h.Public.Homepage)
		r.Get("/post/{slug}", h.Public.PostDetail)
		r.Get("/category/{slug}", h.Public.ByCategory)
		r.Get("/tag/{slug}", h.Public.ByTag)
		r.Get("/feeds/latest", h.Public.Feed)
		r.Get("/user/{slug}", h.Profiles.Public)

		// Voting is per client address, so it stays open to anonymous
		// visitors but sits behind the rate limiter.
		r.With(rateLimiter.Middleware).Post("/post/{slug}/rate", h.Ratings.Vote)

		// Auth pages.
		r.Get("/login", h.Auth.LoginPage)
		r.Post("/login", h.Auth.LoginSubmit)
		r.Get("/register", h.Auth.RegisterPage)
		r.Post("/register", h.Auth.RegisterSubmit)
		r.Post("/logout", h.Auth.Logout)

		// 2FA — requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", h.Auth.TwoFASetupPage)
			r.Post("/2fa/setup", h.Auth.TwoFASetupSubmit)
			r.Get("/2fa/verify", h.Auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", h.Auth.TwoFAVerifySubmit)
		})

		// Authenticated + 2FA-verified area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/post/create", h.Posts.CreatePage)
			r.Post("/post/create", h.Posts.CreateSubmit)
			r.Get("/post/{slug}/update", h.Posts.UpdatePage)
			r.Post("/post/{slug}/update", h.Posts.UpdateSubmit)
			r.With(rateLimiter.Middleware).Post("/post/{slug}/comment", h.Comments.Submit)

			r.Get("/profile", h.Profiles.Own)
			r.Post("/profile", h.Profiles.UpdateSubmit)
		})
	})

	return r
}

// staticHandler serves the embedded web/static tree at /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
