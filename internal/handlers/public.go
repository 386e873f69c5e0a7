// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogcms/internal/cache"
	"blogcms/internal/markdown"
	"blogcms/internal/models"
	"blogcms/internal/render"
	"blogcms/internal/sitemap"
	"blogcms/internal/store"
)

// publicPageSize is the number of posts per public listing page.
const publicPageSize = 10

// Public groups handlers for the public-facing site. Rendered pages are
// stored in the Valkey page cache and served from it until the next
// mutation invalidates it.
type Public struct {
	renderer   *render.Renderer
	posts      PostRepository
	categories CategoryRepository
	pageCache  *cache.PageCache
	baseURL    string
}

// NewPublic creates a new Public handler group. pageCache may be nil.
func NewPublic(renderer *render.Renderer, posts PostRepository, categories CategoryRepository, pageCache *cache.PageCache, baseURL string) *Public {
	return &Public{
		renderer:   renderer,
		posts:      posts,
		categories: categories,
		pageCache:  pageCache,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// serveCached writes a cached response for the request when present. On a
// miss it returns the cache generation observed before any database read,
// which the caller hands back when storing the page.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request, contentType string) (gen int64, hit bool) {
	cached, gen, ok := p.pageCache.Get(r.Context(), pageCacheKey(r))
	if !ok {
		return gen, false
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache", "HIT")
	w.Write(cached)
	return gen, true
}

// pageCacheKey keys a public page by its path and the query parameters
// the handlers read.
func pageCacheKey(r *http.Request) string {
	return cache.PathKey(r.URL.Path, r.URL.Query())
}

// render renders a public page, caches it in generation gen and writes it.
func (p *Public) render(w http.ResponseWriter, r *http.Request, gen int64, name string, data *render.PageData) {
	out, err := p.renderer.Public(name, data)
	if err != nil {
		slog.Error("render public page failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	p.pageCache.Set(r.Context(), gen, pageCacheKey(r), out)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.Write(out)
}

// notFound renders the not-found page. It is never cached.
func (p *Public) notFound(w http.ResponseWriter, r *http.Request) {
	out, err := p.renderer.Public("not_found", &render.PageData{Title: "Not Found"})
	if err != nil {
		slog.Error("render not found page failed", "error", err)
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(out)
}

// serverError logs err and reports a plain 500.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "path", r.URL.Path)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// Home lists published posts, newest first.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	gen, hit := p.serveCached(w, r, "text/html; charset=utf-8")
	if hit {
		return
	}

	published := models.PostStatusPublished
	req := models.NewPageRequest(positiveInt(r.URL.Query().Get("page")), publicPageSize)
	page, err := p.posts.List(r.Context(), models.PostFilter{Status: &published}, req)
	if err != nil {
		serverError(w, r, "list published posts failed", err)
		return
	}

	p.render(w, r, gen, "home", &render.PageData{
		Section: "home",
		Data: map[string]any{
			"Posts":      page.Data,
			"Pagination": page.Pagination,
			"PagePrefix": "/?page=",
		},
	})
}

// Post renders a single published post.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	gen, hit := p.serveCached(w, r, "text/html; charset=utf-8")
	if hit {
		return
	}

	slugParam := chi.URLParam(r, "slug")
	post, err := p.posts.GetPublished(r.Context(), slugParam)
	if errors.Is(err, store.ErrNotFound) {
		p.notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "get post failed", err)
		return
	}

	body, err := markdown.Render(post.Content)
	if err != nil {
		serverError(w, r, "render markdown failed", err)
		return
	}

	p.render(w, r, gen, "post", &render.PageData{
		Title: post.Title,
		Data: map[string]any{
			"Post":        post,
			"HTML":        body,
			"Description": post.Summary(),
		},
	})
}

// Categories lists every category with its post count.
func (p *Public) Categories(w http.ResponseWriter, r *http.Request) {
	gen, hit := p.serveCached(w, r, "text/html; charset=utf-8")
	if hit {
		return
	}

	cats, err := p.categories.List(r.Context())
	if err != nil {
		serverError(w, r, "list categories failed", err)
		return
	}

	p.render(w, r, gen, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": cats},
	})
}

// Category renders a category header and its published posts.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	gen, hit := p.serveCached(w, r, "text/html; charset=utf-8")
	if hit {
		return
	}

	cat, err := p.categories.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, store.ErrNotFound) {
		p.notFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "get category failed", err)
		return
	}

	published := models.PostStatusPublished
	req := models.NewPageRequest(positiveInt(r.URL.Query().Get("page")), publicPageSize)
	page, err := p.posts.List(r.Context(), models.PostFilter{Status: &published, CategoryID: &cat.ID}, req)
	if err != nil {
		serverError(w, r, "list category posts failed", err)
		return
	}

	p.render(w, r, gen, "category", &render.PageData{
		Title:   cat.Name,
		Section: "categories",
		Data: map[string]any{
			"Category":    cat,
			"Posts":       page.Data,
			"Pagination":  page.Pagination,
			"PagePrefix":  "/categories/" + url.PathEscape(cat.Slug) + "?page=",
			"Description": derefString(cat.Description),
		},
	})
}

// Search shows the search form and, for a non-blank ?q=, the matching
// published posts.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	gen, hit := p.serveCached(w, r, "text/html; charset=utf-8")
	if hit {
		return
	}

	q := r.URL.Query().Get("q")
	data := map[string]any{"Query": q}

	if strings.TrimSpace(q) != "" {
		req := models.NewPageRequest(positiveInt(r.URL.Query().Get("page")), publicPageSize)
		page, err := p.posts.Search(r.Context(), q, req)
		if err != nil {
			serverError(w, r, "search posts failed", err)
			return
		}
		data["Posts"] = page.Data
		data["Pagination"] = page.Pagination
		data["PagePrefix"] = "/search?q=" + url.QueryEscape(q) + "&page="
	}

	p.render(w, r, gen, "search", &render.PageData{
		Title:   "Search",
		Section: "search",
		Data:    data,
	})
}

// Sitemap serves /sitemap.xml.
func (p *Public) Sitemap(w http.ResponseWriter, r *http.Request) {
	const contentType = "application/xml; charset=utf-8"
	gen, hit := p.serveCached(w, r, contentType)
	if hit {
		return
	}

	out, err := sitemap.Generate(r.Context(), p.baseURL, p.posts, p.categories)
	if err != nil {
		serverError(w, r, "generate sitemap failed", err)
		return
	}
	p.pageCache.Set(r.Context(), gen, pageCacheKey(r), out)

	w.Header().Set("Content-Type", contentType)
	w.Write(out)
}

// Robots serves /robots.txt, allowing all crawlers outside /admin and
// /api and pointing at the sitemap.
func (p *Public) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("User-agent: *\nAllow: /\nDisallow: /admin\nDisallow: /api\n\nSitemap: " + p.baseURL + "/sitemap.xml\n"))
}

// NotFound is the router's fallback for unknown public paths.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	p.notFound(w, r)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
