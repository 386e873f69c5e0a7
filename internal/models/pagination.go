// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

const (
	// DefaultPageSize is used when a request does not specify a limit.
	DefaultPageSize = 10
	// MaxPageSize caps the limit a client may request.
	MaxPageSize = 100
)

// PageRequest is a 1-based page number and page size.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest normalizes a page request: a non-positive page becomes 1,
// a non-positive limit becomes DefaultPageSize, and limit is capped at
// MaxPageSize.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits within the full result set.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes TotalPages as ceil(total / limit).
func NewPagination(req PageRequest, total int) Pagination {
	totalPages := 0
	if req.Limit > 0 {
		totalPages = (total + req.Limit - 1) / req.Limit
	}
	return Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// PostPage is one page of a post listing.
type PostPage struct {
	Data       []Post     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
