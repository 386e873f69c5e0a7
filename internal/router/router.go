// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// blog. It organizes routes into public, API and admin groups with
// appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogcms/internal/auth"
	"blogcms/internal/handlers"
	"blogcms/internal/middleware"
	"blogcms/internal/session"
	"blogcms/web"
)

// Deps holds everything the router wires together.
type Deps struct {
	Sessions     *session.Store // nil when Valkey is not configured
	Admin        *auth.Admin
	LoginLimiter *middleware.RateLimiter // optional
	SecureCookie bool

	API    *handlers.API
	Public *handlers.Public
	Pages  *handlers.Admin
	Auth   *handlers.Auth
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(d.Sessions))

	csrf := middleware.NewCSRF(d.SecureCookie)
	authEnabled := d.Admin.Enabled()

	r.Get("/health", healthHandler)
	r.Handle("/static/*", staticHandler())

	// Public pages.
	r.Get("/", d.Public.Home)
	r.Get("/posts/{slug}", d.Public.Post)
	r.Get("/categories", d.Public.Categories)
	r.Get("/categories/{slug}", d.Public.Category)
	r.Get("/search", d.Public.Search)
	r.Get("/sitemap.xml", d.Public.Sitemap)
	r.Get("/robots.txt", d.Public.Robots)

	// JSON API. Reads are public; mutations need an admin session when
	// authentication is enabled.
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", d.API.ListCategories)
		r.Get("/categories/{id}", d.API.GetCategory)
		r.Get("/posts", d.API.ListPosts)
		r.Get("/posts/{slug}", d.API.GetPost)
		r.Get("/search", d.API.Search)

		r.Group(func(r chi.Router) {
			if authEnabled {
				r.Use(middleware.RequireAdmin(d.Admin))
				r.Use(csrf)
			}
			r.Post("/categories", d.API.CreateCategory)
			r.Put("/categories/{id}", d.API.UpdateCategory)
			r.Delete("/categories/{id}", d.API.DeleteCategory)
			r.Post("/posts", d.API.CreatePost)
			r.Put("/posts/{slug}", d.API.UpdatePost)
			r.Delete("/posts/{slug}", d.API.DeletePost)
		})
	})

	// Admin pages, all behind CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(csrf)

		// Login and second factor, reachable without a session.
		if authEnabled && d.Auth != nil {
			r.Get("/login", d.Auth.LoginPage)
			r.With(loginLimit(d.LoginLimiter)).Post("/login", d.Auth.LoginSubmit)
			r.Get("/2fa", d.Auth.TwoFAPage)
			r.With(loginLimit(d.LoginLimiter)).Post("/2fa", d.Auth.TwoFASubmit)
			r.Post("/logout", d.Auth.Logout)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Admin))

			r.Get("/", d.Pages.Dashboard)
			r.Get("/posts", d.Pages.PostsList)
			r.Get("/posts/new", d.Pages.PostNew)
			r.Get("/posts/{slug}/edit", d.Pages.PostEdit)
			r.Get("/categories", d.Pages.Categories)
			r.Post("/preview", d.Pages.Preview)
		})
	})

	r.NotFound(d.Public.NotFound)

	return r
}

// loginLimit returns the rate limiting middleware, or a pass-through when
// no limiter is configured.
func loginLimit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		// The embed pattern guarantees the directory exists.
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
