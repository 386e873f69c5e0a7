// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogcms/internal/markdown"
	"blogcms/internal/models"
	"blogcms/internal/render"
	"blogcms/internal/store"
)

const (
	// adminPageSize is the number of posts per page in the admin list.
	adminPageSize = 20
	// recentPosts is the number of posts shown on the dashboard.
	recentPosts = 5
)

// Admin groups the admin interface pages. Mutations go through the JSON
// API from editor.js; these handlers only render.
type Admin struct {
	renderer   *render.Renderer
	posts      PostRepository
	categories CategoryRepository
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(renderer *render.Renderer, posts PostRepository, categories CategoryRepository) *Admin {
	return &Admin{
		renderer:   renderer,
		posts:      posts,
		categories: categories,
	}
}

// Dashboard renders post and category counts with the latest posts.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := a.posts.Counts(ctx)
	if err != nil {
		slog.Error("count posts failed", "error", err)
	}
	catCount, err := a.categories.Count(ctx)
	if err != nil {
		slog.Error("count categories failed", "error", err)
	}

	recent := []models.Post{}
	page, err := a.posts.List(ctx, models.PostFilter{}, models.NewPageRequest(1, recentPosts))
	if err != nil {
		slog.Error("list recent posts failed", "error", err)
	} else {
		recent = page.Data
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"Counts":        counts,
			"CategoryCount": catCount,
			"Recent":        recent,
		},
	})
}

// PostsList renders every post, drafts included, with an optional status
// filter.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	var filter models.PostFilter
	statusParam := ""
	if st, ok := models.ParsePostStatus(r.URL.Query().Get("status")); ok {
		filter.Status = &st
		statusParam = string(st)
	}

	req := models.NewPageRequest(positiveInt(r.URL.Query().Get("page")), adminPageSize)
	page, err := a.posts.List(r.Context(), filter, req)
	if err != nil {
		serverError(w, r, "list posts failed", err)
		return
	}

	prefix := "/admin/posts?page="
	if statusParam != "" {
		prefix = "/admin/posts?status=" + statusParam + "&page="
	}

	a.renderer.Page(w, r, "posts", &render.PageData{
		Title:   "Posts",
		Section: "posts",
		Data: map[string]any{
			"Posts":      page.Data,
			"Pagination": page.Pagination,
			"PagePrefix": prefix,
			"Status":     statusParam,
		},
	})
}

// PostNew renders the editor for a new post.
func (a *Admin) PostNew(w http.ResponseWriter, r *http.Request) {
	cats, err := a.categories.List(r.Context())
	if err != nil {
		serverError(w, r, "list categories failed", err)
		return
	}

	a.renderer.Page(w, r, "post_form", &render.PageData{
		Title:   "New Post",
		Section: "new",
		Data:    map[string]any{"Categories": cats},
	})
}

// PostEdit renders the editor for an existing post.
func (a *Admin) PostEdit(w http.ResponseWriter, r *http.Request) {
	post, err := a.posts.Get(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "get post failed", err)
		return
	}

	cats, err := a.categories.List(r.Context())
	if err != nil {
		serverError(w, r, "list categories failed", err)
		return
	}

	a.renderer.Page(w, r, "post_form", &render.PageData{
		Title:   "Edit: " + post.Title,
		Section: "posts",
		Data: map[string]any{
			"Post":       post,
			"Categories": cats,
		},
	})
}

// Categories renders the category manager.
func (a *Admin) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.categories.List(r.Context())
	if err != nil {
		serverError(w, r, "list categories failed", err)
		return
	}

	a.renderer.Page(w, r, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": cats},
	})
}

// previewRequest is the body of POST /admin/preview.
type previewRequest struct {
	Content string `json:"content"`
}

// previewResponse carries the rendered Markdown.
type previewResponse struct {
	HTML string `json:"html"`
}

// Preview renders submitted Markdown with the public renderer.
func (a *Admin) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := markdown.ToHTML(req.Content)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{HTML: out})
}
