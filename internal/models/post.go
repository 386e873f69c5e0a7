// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// ParsePostStatus converts a query or form value into a PostStatus.
func ParsePostStatus(s string) (PostStatus, bool) {
	st := PostStatus(strings.TrimSpace(s))
	return st, st.Valid()
}

// Post is a Markdown article. Category is resolved by the store on read and
// is nil for uncategorized posts.
type Post struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Content    string     `json:"content"`
	Excerpt    *string    `json:"excerpt"`
	CategoryID *int64     `json:"categoryId"`
	Status     PostStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	Category *Category `json:"category"`
}

// IsPublished returns true if the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// Summary returns the excerpt, or an empty string when none is set.
func (p *Post) Summary() string {
	if p.Excerpt == nil {
		return ""
	}
	return *p.Excerpt
}

// PostInput is the payload for creating a post.
type PostInput struct {
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Content    string     `json:"content"`
	Excerpt    *string    `json:"excerpt"`
	CategoryID *int64     `json:"categoryId"`
	Status     PostStatus `json:"status"`
}

// Normalize trims text fields and applies the draft default.
func (in *PostInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	in.Excerpt = blankToNil(in.Excerpt)
	if in.Status == "" {
		in.Status = PostStatusDraft
	}
}

// Validate checks the input after Normalize.
func (in PostInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, maxTitleLen),
		),
		validation.Field(&in.Slug,
			validation.Required.Error("slug is required"),
			validation.RuneLength(1, maxSlugLen),
			slugRule,
		),
		validation.Field(&in.Content,
			validation.Required.Error("content is required"),
			validation.RuneLength(1, maxContentLen),
		),
		validation.Field(&in.Excerpt, validation.RuneLength(0, maxExcerptLen)),
		validation.Field(&in.CategoryID, validation.Min(int64(1))),
		validation.Field(&in.Status, validation.In(PostStatusDraft, PostStatusPublished)),
	)
}

// PostPatch is a partial update. Nil (or blank) Title, Slug, Content and
// Status leave the column unchanged; Excerpt and CategoryID distinguish an
// absent key from an explicit null, which clears the column.
type PostPatch struct {
	Title      *string          `json:"title"`
	Slug       *string          `json:"slug"`
	Content    *string          `json:"content"`
	Excerpt    Optional[string] `json:"excerpt"`
	CategoryID Optional[int64]  `json:"categoryId"`
	Status     *PostStatus      `json:"status"`
}

// Normalize trims text fields and folds blank values.
func (p *PostPatch) Normalize() {
	p.Title = blankToNil(p.Title)
	p.Slug = blankToNil(p.Slug)
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		p.Content = nil
	}
	if p.Excerpt.Set {
		p.Excerpt.Value = blankToNil(p.Excerpt.Value)
	}
	if p.Status != nil && *p.Status == "" {
		p.Status = nil
	}
}

// Validate checks the patch after Normalize.
func (p PostPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.RuneLength(1, maxTitleLen)),
		validation.Field(&p.Slug, validation.RuneLength(1, maxSlugLen), slugRule),
		validation.Field(&p.Content, validation.RuneLength(1, maxContentLen)),
		validation.Field(&p.Excerpt, validation.By(optionalLength(maxExcerptLen))),
		validation.Field(&p.CategoryID, validation.By(func(value interface{}) error {
			o, _ := value.(Optional[int64])
			if o.Value != nil && *o.Value < 1 {
				return validation.NewError("validation_min_greater_equal_than_required",
					"must be no less than 1")
			}
			return nil
		})),
		validation.Field(&p.Status, validation.In(PostStatusDraft, PostStatusPublished)),
	)
}

// PostFilter narrows a post listing. Nil fields do not filter.
type PostFilter struct {
	Status     *PostStatus
	CategoryID *int64
}

// PostCounts is the number of posts per status.
type PostCounts struct {
	Total     int
	Published int
	Drafts    int
}
