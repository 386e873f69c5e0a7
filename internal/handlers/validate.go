// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogcms/internal/models"
)

var (
	errInvalidStatus   = errors.New("invalid status filter")
	errInvalidCategory = errors.New("invalid category ID")
)

// positiveInt parses s as a positive integer. Anything else yields 0 so the
// caller's default applies.
func positiveInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// parsePageRequest reads ?page= and ?limit=. Missing, malformed or
// non-positive values fall back to page 1 and the default limit; the limit
// is capped at models.MaxPageSize.
func parsePageRequest(r *http.Request) models.PageRequest {
	q := r.URL.Query()
	return models.NewPageRequest(positiveInt(q.Get("page")), positiveInt(q.Get("limit")))
}

// parseID parses a positive int64 from a string.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// categoryIDParam reads the {id} URL parameter.
func categoryIDParam(r *http.Request) (int64, bool) {
	return parseID(chi.URLParam(r, "id"))
}

// parsePostFilter reads ?status= and ?categoryId=. Empty values do not
// filter; malformed ones are rejected.
func parsePostFilter(r *http.Request) (models.PostFilter, error) {
	var f models.PostFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		st, ok := models.ParsePostStatus(raw)
		if !ok {
			return f, errInvalidStatus
		}
		f.Status = &st
	}
	if raw := q.Get("categoryId"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			return f, errInvalidCategory
		}
		f.CategoryID = &id
	}
	return f, nil
}
