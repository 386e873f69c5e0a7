// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"blogcms/internal/models"
	"blogcms/internal/store"
)

// memStore is an in-memory stand-in for PostgreSQL that enforces the same
// constraints and returns the same error kinds as the real stores.
type memStore struct {
	mu         sync.Mutex
	nextCatID  int64
	nextPostID int64
	categories []*models.Category
	posts      []*models.Post
	clock      time.Time

	// err, when set, is returned by every operation.
	err error
}

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// now advances a fake clock so timestamps are distinct and ordered.
func (m *memStore) now() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) category(id int64) *models.Category {
	for _, c := range m.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *memStore) post(slug string) *models.Post {
	for _, p := range m.posts {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

func (m *memStore) postCount(catID int64) int {
	n := 0
	for _, p := range m.posts {
		if p.CategoryID != nil && *p.CategoryID == catID {
			n++
		}
	}
	return n
}

// withCategory returns a copy of p with its category attached.
func (m *memStore) withCategory(p *models.Post) models.Post {
	out := *p
	out.Category = nil
	if p.CategoryID != nil {
		if c := m.category(*p.CategoryID); c != nil {
			cc := *c
			out.Category = &cc
		}
	}
	return out
}

// fakePosts implements PostRepository over a memStore.
type fakePosts struct{ m *memStore }

// fakeCategories implements CategoryRepository over a memStore.
type fakeCategories struct{ m *memStore }

func (f fakeCategories) List(ctx context.Context) ([]models.Category, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cc := *c
		n := m.postCount(c.ID)
		cc.PostCount = &n
		out = append(out, cc)
	}
	return out, nil
}

func (f fakeCategories) Get(ctx context.Context, id int64) (*models.Category, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c := m.category(id)
	if c == nil {
		return nil, store.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (f fakeCategories) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.categories {
		if c.Slug == slug {
			cc := *c
			return &cc, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f fakeCategories) GetWithPosts(ctx context.Context, id int64) (*models.CategoryWithPosts, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c := m.category(id)
	if c == nil {
		return nil, store.ErrNotFound
	}
	posts := []models.Post{}
	for _, p := range m.sorted() {
		if p.CategoryID != nil && *p.CategoryID == id {
			posts = append(posts, m.withCategory(p))
		}
	}
	cc := *c
	n := len(posts)
	cc.PostCount = &n
	return &models.CategoryWithPosts{Category: cc, Posts: posts}, nil
}

func (f fakeCategories) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, store.Validation(err)
	}
	if err := m.checkCategoryUnique(0, in.Name, in.Slug); err != nil {
		return nil, err
	}
	m.nextCatID++
	c := &models.Category{
		ID:          m.nextCatID,
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		CreatedAt:   m.now(),
	}
	m.categories = append(m.categories, c)
	cc := *c
	return &cc, nil
}

func (m *memStore) checkCategoryUnique(self int64, name, slug string) error {
	for _, c := range m.categories {
		if c.ID == self {
			continue
		}
		if c.Name == name {
			return store.ErrNameTaken
		}
		if c.Slug == slug {
			return store.ErrSlugTaken
		}
	}
	return nil
}

func (f fakeCategories) Update(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, store.Validation(err)
	}
	c := m.category(id)
	if c == nil {
		return nil, store.ErrNotFound
	}
	next := *c
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Slug != nil {
		next.Slug = *patch.Slug
	}
	if patch.Description.Set {
		next.Description = patch.Description.Value
	}
	if err := m.checkCategoryUnique(id, next.Name, next.Slug); err != nil {
		return nil, err
	}
	*c = next
	cc := *c
	return &cc, nil
}

func (f fakeCategories) Delete(ctx context.Context, id int64) error {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, c := range m.categories {
		if c.ID != id {
			continue
		}
		if m.postCount(id) > 0 {
			return store.ErrCategoryHasPosts
		}
		m.categories = append(m.categories[:i], m.categories[i+1:]...)
		return nil
	}
	return store.ErrNotFound
}

func (f fakeCategories) Count(ctx context.Context) (int, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.categories), nil
}

// sorted returns posts newest first, ties broken by id.
func (m *memStore) sorted() []*models.Post {
	out := append([]*models.Post(nil), m.posts...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) page(match func(*models.Post) bool, req models.PageRequest) *models.PostPage {
	var all []models.Post
	for _, p := range m.sorted() {
		if match(p) {
			all = append(all, m.withCategory(p))
		}
	}
	data := []models.Post{}
	if off := req.Offset(); off < len(all) {
		end := off + req.Limit
		if end > len(all) {
			end = len(all)
		}
		data = append(data, all[off:end]...)
	}
	return &models.PostPage{Data: data, Pagination: models.NewPagination(req, len(all))}
}

func (f fakePosts) List(ctx context.Context, filter models.PostFilter, req models.PageRequest) (*models.PostPage, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.page(func(p *models.Post) bool {
		if filter.Status != nil && p.Status != *filter.Status {
			return false
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			return false
		}
		return true
	}, req), nil
}

func (f fakePosts) Search(ctx context.Context, query string, req models.PageRequest) (*models.PostPage, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(query) == "" {
		return nil, store.Validation(errors.New("q: search query is required"))
	}
	query = strings.ToLower(query)
	return m.page(func(p *models.Post) bool {
		return p.IsPublished() &&
			(strings.Contains(strings.ToLower(p.Title), query) || strings.Contains(strings.ToLower(p.Content), query))
	}, req), nil
}

func (f fakePosts) Get(ctx context.Context, slug string) (*models.Post, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p := m.post(slug)
	if p == nil {
		return nil, store.ErrNotFound
	}
	out := m.withCategory(p)
	return &out, nil
}

func (f fakePosts) GetPublished(ctx context.Context, slug string) (*models.Post, error) {
	p, err := f.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished() {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f fakePosts) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, store.Validation(err)
	}
	if m.post(in.Slug) != nil {
		return nil, store.ErrSlugTaken
	}
	if in.CategoryID != nil && m.category(*in.CategoryID) == nil {
		return nil, store.ErrUnknownCategory
	}
	m.nextPostID++
	ts := m.now()
	p := &models.Post{
		ID:         m.nextPostID,
		Title:      in.Title,
		Slug:       in.Slug,
		Content:    in.Content,
		Excerpt:    in.Excerpt,
		CategoryID: in.CategoryID,
		Status:     in.Status,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	m.posts = append(m.posts, p)
	out := m.withCategory(p)
	return &out, nil
}

func (f fakePosts) Update(ctx context.Context, slug string, patch models.PostPatch) (*models.Post, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, store.Validation(err)
	}
	p := m.post(slug)
	if p == nil {
		return nil, store.ErrNotFound
	}
	next := *p
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Slug != nil {
		if other := m.post(*patch.Slug); other != nil && other.ID != p.ID {
			return nil, store.ErrSlugTaken
		}
		next.Slug = *patch.Slug
	}
	if patch.Content != nil {
		next.Content = *patch.Content
	}
	if patch.Excerpt.Set {
		next.Excerpt = patch.Excerpt.Value
	}
	if patch.CategoryID.Set {
		if patch.CategoryID.Value != nil && m.category(*patch.CategoryID.Value) == nil {
			return nil, store.ErrUnknownCategory
		}
		next.CategoryID = patch.CategoryID.Value
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	next.UpdatedAt = m.now()
	*p = next
	out := m.withCategory(p)
	return &out, nil
}

func (f fakePosts) Delete(ctx context.Context, slug string) error {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, p := range m.posts {
		if p.Slug == slug {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f fakePosts) ListPublishedForSitemap(ctx context.Context) ([]store.SitemapEntry, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []store.SitemapEntry
	for _, p := range m.sorted() {
		if p.IsPublished() {
			out = append(out, store.SitemapEntry{Slug: p.Slug, UpdatedAt: p.UpdatedAt})
		}
	}
	return out, nil
}

func (f fakePosts) Counts(ctx context.Context) (models.PostCounts, error) {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.PostCounts{}, m.err
	}
	var c models.PostCounts
	for _, p := range m.posts {
		c.Total++
		if p.IsPublished() {
			c.Published++
		} else {
			c.Drafts++
		}
	}
	return c, nil
}

// Compile-time checks that the fakes and the real stores satisfy the
// handler interfaces.
var (
	_ PostRepository     = fakePosts{}
	_ CategoryRepository = fakeCategories{}
	_ PostRepository     = (*store.PostStore)(nil)
	_ CategoryRepository = (*store.CategoryStore)(nil)
)
