// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers of the blog: the JSON API
// under /api, the public pages and the admin interface.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"blogcms/internal/cache"
	"blogcms/internal/middleware"
	"blogcms/internal/models"
	"blogcms/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// PostRepository is the post data access used by the handlers.
// *store.PostStore implements it.
type PostRepository interface {
	List(ctx context.Context, filter models.PostFilter, req models.PageRequest) (*models.PostPage, error)
	Search(ctx context.Context, query string, req models.PageRequest) (*models.PostPage, error)
	Get(ctx context.Context, slug string) (*models.Post, error)
	GetPublished(ctx context.Context, slug string) (*models.Post, error)
	Create(ctx context.Context, in models.PostInput) (*models.Post, error)
	Update(ctx context.Context, slug string, patch models.PostPatch) (*models.Post, error)
	Delete(ctx context.Context, slug string) error
	ListPublishedForSitemap(ctx context.Context) ([]store.SitemapEntry, error)
	Counts(ctx context.Context) (models.PostCounts, error)
}

// CategoryRepository is the category data access used by the handlers.
// *store.CategoryStore implements it.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetWithPosts(ctx context.Context, id int64) (*models.CategoryWithPosts, error)
	Create(ctx context.Context, in models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// API groups the JSON handlers mounted under /api.
type API struct {
	posts      PostRepository
	categories CategoryRepository
	pageCache  *cache.PageCache
}

// NewAPI creates the API handler group. pageCache may be nil.
func NewAPI(posts PostRepository, categories CategoryRepository, pageCache *cache.PageCache) *API {
	return &API{
		posts:      posts,
		categories: categories,
		pageCache:  pageCache,
	}
}

// errorResponse is the body of every API error.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is the body of successful deletes.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeError writes an {"error": msg} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeInternalError logs err and reports an opaque 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.RequestIDFromCtx(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// writeStoreError maps a store error to its HTTP status. entity names the
// resource in not-found messages ("Post", "Category").
func writeStoreError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, store.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, "Category does not exist")
	case errors.Is(err, store.ErrCategoryHasPosts):
		writeError(w, http.StatusBadRequest, "Cannot delete category with associated posts")
	case errors.Is(err, store.ErrSlugTaken):
		writeError(w, http.StatusConflict, "Slug already exists")
	case errors.Is(err, store.ErrNameTaken):
		writeError(w, http.StatusConflict, "Name already exists")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Conflict")
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	default:
		writeInternalError(w, r, err)
	}
}

// decodeJSON reads a JSON body into dst. It reports false after writing a
// 400 response when the body is missing or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "Request body is required")
		default:
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
		}
		return false
	}
	return true
}

// invalidatePages drops every cached public page after a mutation.
func (a *API) invalidatePages(ctx context.Context) {
	a.pageCache.InvalidateAll(ctx)
}
