// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Category groups posts. A post belongs to at most one category.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`

	// PostCount is computed on read and only set by listing queries.
	PostCount *int `json:"postCount,omitempty"`
}

// CategoryWithPosts is a category together with every post assigned to it.
type CategoryWithPosts struct {
	Category
	Posts []Post `json:"posts"`
}

// CategoryInput is the payload for creating a category.
type CategoryInput struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

// Normalize trims surrounding whitespace and turns a blank description into nil.
func (in *CategoryInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = blankToNil(in.Description)
}

// Validate checks the input after Normalize.
func (in CategoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, maxCategoryNameLen),
		),
		validation.Field(&in.Slug,
			validation.Required.Error("slug is required"),
			validation.RuneLength(1, maxSlugLen),
			slugRule,
		),
		validation.Field(&in.Description,
			validation.RuneLength(0, maxDescriptionLen),
		),
	)
}

// CategoryPatch is a partial update. Nil Name/Slug (or blank strings) leave
// the column unchanged; Description distinguishes absent from explicit null.
type CategoryPatch struct {
	Name        *string          `json:"name"`
	Slug        *string          `json:"slug"`
	Description Optional[string] `json:"description"`
}

// Normalize trims string fields and folds blank values: blank Name/Slug mean
// "unchanged", a blank Description means "clear".
func (p *CategoryPatch) Normalize() {
	p.Name = blankToNil(p.Name)
	p.Slug = blankToNil(p.Slug)
	if p.Description.Set {
		p.Description.Value = blankToNil(p.Description.Value)
	}
}

// Validate checks the patch after Normalize.
func (p CategoryPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.RuneLength(1, maxCategoryNameLen)),
		validation.Field(&p.Slug, validation.RuneLength(1, maxSlugLen), slugRule),
		validation.Field(&p.Description, validation.By(optionalLength(maxDescriptionLen))),
	)
}

// Empty reports whether the patch changes nothing.
func (p CategoryPatch) Empty() bool {
	return p.Name == nil && p.Slug == nil && !p.Description.Set
}
