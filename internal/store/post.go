// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blogcms/internal/models"
)

// PostStore manages posts in the database.
type PostStore struct {
	db *sql.DB
}

// NewPostStore returns a new PostStore.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, slug, content, excerpt, category_id, status, created_at, updated_at`

// postJoined selects a post (aliased p) with its category (aliased c).
const postJoined = `
	p.id, p.title, p.slug, p.content, p.excerpt, p.category_id, p.status,
	p.created_at, p.updated_at,
	c.id, c.name, c.slug, c.description, c.created_at`

// scanPost scans a row of postColumns into a Post struct.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt,
		&p.CategoryID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPostWithCategory scans a row of postJoined. Category stays nil when
// the post is uncategorized.
func scanPostWithCategory(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var (
		p       models.Post
		catID   sql.NullInt64
		catName sql.NullString
		catSlug sql.NullString
		catDesc *string
		catAt   sql.NullTime
	)
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt,
		&p.CategoryID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&catID, &catName, &catSlug, &catDesc, &catAt,
	)
	if err != nil {
		return nil, err
	}
	if catID.Valid {
		p.Category = &models.Category{
			ID:          catID.Int64,
			Name:        catName.String,
			Slug:        catSlug.String,
			Description: catDesc,
			CreatedAt:   catAt.Time,
		}
	}
	return &p, nil
}

// whereBuilder accumulates AND-ed conditions with positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// next returns the placeholder for the argument that would be added next.
func (w *whereBuilder) next(offset int) string {
	return "$" + strconv.Itoa(len(w.args)+offset)
}

// page runs a COUNT(*) over where and then fetches one page of joined rows,
// newest first.
func (s *PostStore) page(ctx context.Context, where *whereBuilder, req models.PageRequest) (*models.PostPage, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts p `+where.String(), where.args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	query := `SELECT ` + postJoined + `
		FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id
		` + where.String() + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ` + where.next(1) + ` OFFSET ` + where.next(2)
	args := append(append([]any{}, where.args...), req.Limit, req.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	data := []models.Post{}
	for rows.Next() {
		p, err := scanPostWithCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		data = append(data, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return &models.PostPage{Data: data, Pagination: models.NewPagination(req, total)}, nil
}

// List returns one page of posts matching filter, newest first.
func (s *PostStore) List(ctx context.Context, filter models.PostFilter, req models.PageRequest) (*models.PostPage, error) {
	var where whereBuilder
	if filter.Status != nil {
		where.add("p.status = ?", string(*filter.Status))
	}
	if filter.CategoryID != nil {
		where.add("p.category_id = ?", *filter.CategoryID)
	}
	return s.page(ctx, &where, req)
}

// Search returns one page of published posts whose title or content
// contains query, ignoring case. The query is matched literally, surrounding
// whitespace included; a blank query is rejected.
func (s *PostStore) Search(ctx context.Context, query string, req models.PageRequest) (*models.PostPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, Validation(errors.New("q: search query is required"))
	}

	var where whereBuilder
	where.add("p.status = ?", string(models.PostStatusPublished))
	where.add(`(p.title ILIKE ? ESCAPE '\' OR p.content ILIKE ? ESCAPE '\')`, "%"+escapeLike(query)+"%")
	return s.page(ctx, &where, req)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Get retrieves a post of any status by slug, with its category.
func (s *PostStore) Get(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, `p.slug = $1`, slug)
}

// GetPublished retrieves a published post by slug. Drafts are reported as
// ErrNotFound.
func (s *PostStore) GetPublished(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, `p.slug = $1 AND p.status = 'published'`, slug)
}

func (s *PostStore) findOne(ctx context.Context, cond string, arg any) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postJoined+`
		FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE `+cond, arg)
	p, err := scanPostWithCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

// Create validates in and inserts a new post, returning it with its
// category. A duplicate slug returns ErrSlugTaken; a categoryId that does
// not exist returns ErrUnknownCategory.
func (s *PostStore) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, Validation(err)
	}

	row := s.db.QueryRowContext(ctx, `
		WITH p AS (
			INSERT INTO posts (title, slug, content, excerpt, category_id, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+postColumns+`
		)
		SELECT `+postJoined+`
		FROM p
		LEFT JOIN categories c ON c.id = p.category_id
	`, in.Title, in.Slug, in.Content, in.Excerpt, in.CategoryID, string(in.Status))
	p, err := scanPostWithCategory(row)
	if err != nil {
		return nil, classify("create post", err)
	}
	return p, nil
}

// Update applies a partial update to the post with the given slug and
// returns it with its category. updated_at always moves strictly forward,
// even when the patch changes nothing.
func (s *PostStore) Update(ctx context.Context, slug string, patch models.PostPatch) (*models.Post, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, Validation(err)
	}

	var updated *models.Post
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := scanPost(tx.QueryRowContext(ctx,
			`SELECT `+postColumns+` FROM posts WHERE slug = $1 FOR UPDATE`, slug))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find post: %w", err)
		}

		next := *current
		if patch.Title != nil {
			next.Title = *patch.Title
		}
		if patch.Slug != nil {
			next.Slug = *patch.Slug
		}
		if patch.Content != nil {
			next.Content = *patch.Content
		}
		if patch.Excerpt.Set {
			next.Excerpt = patch.Excerpt.Value
		}
		if patch.CategoryID.Set {
			next.CategoryID = patch.CategoryID.Value
		}
		if patch.Status != nil {
			next.Status = *patch.Status
		}

		row := tx.QueryRowContext(ctx, `
			WITH p AS (
				UPDATE posts SET
					title = $1, slug = $2, content = $3, excerpt = $4,
					category_id = $5, status = $6,
					updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
				WHERE id = $7
				RETURNING `+postColumns+`
			)
			SELECT `+postJoined+`
			FROM p
			LEFT JOIN categories c ON c.id = p.category_id
		`, next.Title, next.Slug, next.Content, next.Excerpt,
			next.CategoryID, string(next.Status), current.ID)
		updated, err = scanPostWithCategory(row)
		if err != nil {
			return classify("update post", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a post by slug.
func (s *PostStore) Delete(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SitemapEntry is the slug and last modification time of a published post.
type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}

// ListPublishedForSitemap returns every published post, newest first.
func (s *PostStore) ListPublishedForSitemap(ctx context.Context) ([]SitemapEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, updated_at FROM posts
		WHERE status = 'published'
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sitemap posts: %w", err)
	}
	defer rows.Close()

	var entries []SitemapEntry
	for rows.Next() {
		var e SitemapEntry
		if err := rows.Scan(&e.Slug, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sitemap post: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the number of posts per status.
func (s *PostStore) Counts(ctx context.Context) (models.PostCounts, error) {
	var c models.PostCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'published'),
		       COUNT(*) FILTER (WHERE status = 'draft')
		FROM posts
	`).Scan(&c.Total, &c.Published, &c.Drafts)
	if err != nil {
		return c, fmt.Errorf("count posts: %w", err)
	}
	return c, nil
}
