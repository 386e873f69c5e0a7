// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"blogcms/internal/auth"
	"blogcms/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// LoadSession retrieves the session from Valkey and stores it in the
// request context. Downstream handlers can access it via SessionFromCtx().
// This middleware does NOT enforce authentication; it just loads the
// session if one exists. A nil store disables it.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Log but don't block; treat as unauthenticated.
				slog.Warn("session load failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				ctx := context.WithValue(r.Context(), SessionKey, data)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin lets through only fully signed-in admins. API requests
// get a 401 JSON error; page requests are sent to the login form, or to
// the TOTP form when the password step is done, carrying the requested
// page in ?next= so the editor lands back on it. With authentication
// disabled every request passes. Runs after LoadSession.
func RequireAdmin(admin *auth.Admin) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !admin.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())
			if sess.Authenticated(admin.RequiresTOTP()) {
				next.ServeHTTP(w, r)
				return
			}

			if strings.HasPrefix(r.URL.Path, "/api/") {
				reject(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}

			step := "/admin/login"
			if sess != nil && sess.Username != "" {
				step = "/admin/2fa"
			}
			http.Redirect(w, r, withReturnTo(step, r), http.StatusSeeOther)
		})
	}
}

// withReturnTo appends ?next= for GET requests below the dashboard.
func withReturnTo(step string, r *http.Request) string {
	if r.Method != http.MethodGet || r.URL.Path == "/admin" || r.URL.Path == "/admin/" {
		return step
	}
	return step + "?next=" + url.QueryEscape(r.URL.RequestURI())
}

// ReturnTo returns raw when it is a path inside the admin area and
// "/admin" otherwise, so a crafted next= cannot redirect off-site.
func ReturnTo(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/admin"
	}
	p := path.Clean(u.EscapedPath())
	if p != "/admin" && !strings.HasPrefix(p, "/admin/") {
		return "/admin"
	}
	switch p {
	case "/admin/login", "/admin/2fa", "/admin/logout":
		return "/admin"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
