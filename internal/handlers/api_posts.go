// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogcms/internal/models"
)

// searchResponse is the body of GET /api/search.
type searchResponse struct {
	Query      string            `json:"query"`
	Data       []models.Post     `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

// ListPosts returns one page of posts, optionally filtered by status and
// category.
func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePostFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.posts.List(r.Context(), filter, parsePageRequest(r))
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreatePost creates a post from a JSON body. Status defaults to draft.
func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}

	post, err := a.posts.Create(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, "Post", err)
		return
	}
	a.invalidatePages(r.Context())
	writeJSON(w, http.StatusCreated, post)
}

// GetPost returns a post of any status with its category.
func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := a.posts.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeStoreError(w, r, "Post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// UpdatePost applies a partial update from a JSON body.
func (a *API) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var patch models.PostPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	post, err := a.posts.Update(r.Context(), chi.URLParam(r, "slug"), patch)
	if err != nil {
		writeStoreError(w, r, "Post", err)
		return
	}
	a.invalidatePages(r.Context())
	writeJSON(w, http.StatusOK, post)
}

// DeletePost removes a post.
func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := a.posts.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeStoreError(w, r, "Post", err)
		return
	}
	a.invalidatePages(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Message: "Post deleted successfully"})
}

// Search returns one page of published posts matching ?q=.
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	page, err := a.posts.Search(r.Context(), q, parsePageRequest(r))
	if err != nil {
		writeStoreError(w, r, "Post", err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:      q,
		Data:       page.Data,
		Pagination: page.Pagination,
	})
}
