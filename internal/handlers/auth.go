// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"blogcms/internal/auth"
	"blogcms/internal/middleware"
	"blogcms/internal/render"
	"blogcms/internal/session"
)

// Auth groups the admin login, second-factor and logout handlers.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	admin    *auth.Admin
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, admin *auth.Admin) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		admin:    admin,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := middleware.ReturnTo(r.URL.Query().Get("next"))
	// Nothing to log in to, or already logged in.
	if !a.admin.Enabled() || middleware.SessionFromCtx(r.Context()).Authenticated(a.admin.RequiresTOTP()) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  map[string]any{"Next": next},
	})
}

// LoginSubmit checks the submitted credentials and starts a session.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if !a.admin.Enabled() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	next := middleware.ReturnTo(r.PostFormValue("next"))

	if !a.admin.CheckCredentials(username, password) {
		slog.Warn("admin login failed", "username", username, "remote", r.RemoteAddr)
		a.renderer.PageStatus(w, r, http.StatusUnauthorized, "login", &render.PageData{
			Title: "Sign In",
			Data: map[string]any{
				"Error":    "Invalid username or password.",
				"Username": username,
				"Next":     next,
			},
		})
		return
	}

	// Start from a fresh session ID on every login.
	if middleware.SessionFromCtx(r.Context()) != nil {
		if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
			slog.Warn("destroy previous session failed", "error", err)
		}
	}

	needTOTP := a.admin.RequiresTOTP()
	_, err := a.sessions.Create(r.Context(), w, &session.Data{
		Username:  a.admin.Username(),
		TwoFADone: !needTOTP,
	}, needTOTP)
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if needTOTP {
		http.Redirect(w, r, twoFAStep(next), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// twoFAStep is the TOTP form URL, keeping next unless it is the dashboard.
func twoFAStep(next string) string {
	if next == "/admin" {
		return "/admin/2fa"
	}
	return "/admin/2fa?next=" + url.QueryEscape(next)
}

// TwoFAPage renders the TOTP code form for a session that passed the
// password step.
func (a *Auth) TwoFAPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.Username == "" {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if !a.admin.RequiresTOTP() || sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa", &render.PageData{
		Title: "Two-Factor Authentication",
		Data:  map[string]any{"Next": middleware.ReturnTo(r.URL.Query().Get("next"))},
	})
}

// TwoFASubmit validates the TOTP code and completes authentication.
func (a *Auth) TwoFASubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.Username == "" {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}
	if !a.admin.RequiresTOTP() || sess.TwoFADone {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	next := middleware.ReturnTo(r.PostFormValue("next"))
	if !a.admin.ValidateCode(strings.TrimSpace(r.PostFormValue("code"))) {
		slog.Warn("admin totp failed", "username", sess.Username, "remote", r.RemoteAddr)
		a.renderer.PageStatus(w, r, http.StatusUnauthorized, "2fa", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": "Invalid code. Please try again.", "Next": next},
		})
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
