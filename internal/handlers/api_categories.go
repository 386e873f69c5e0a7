// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"blogcms/internal/models"
)

// ListCategories returns every category with its post count as a bare array.
func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.categories.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// CreateCategory creates a category from a JSON body.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	cat, err := a.categories.Create(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, "Category", err)
		return
	}
	a.invalidatePages(r.Context())
	writeJSON(w, http.StatusCreated, cat)
}

// GetCategory returns a category with all of its posts.
func (a *API) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := categoryIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	cat, err := a.categories.GetWithPosts(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, "Category", err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// UpdateCategory applies a partial update from a JSON body.
func (a *API) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := categoryIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var patch models.CategoryPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	cat, err := a.categories.Update(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, r, "Category", err)
		return
	}
	a.invalidatePages(r.Context())
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory removes a category that has no posts.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := categoryIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := a.categories.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, "Category", err)
		return
	}
	a.invalidatePages(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Message: "Category deleted successfully"})
}
