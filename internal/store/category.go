// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blogcms/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, description, created_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories in creation order, each with the number of
// posts (any status) assigned to it.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at,
		       COUNT(p.id) AS post_count
		FROM categories c
		LEFT JOIN posts p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var c models.Category
		var count int
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &count); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.PostCount = &count
		items = append(items, c)
	}
	return items, rows.Err()
}

// Get retrieves a category by ID.
func (s *CategoryStore) Get(ctx context.Context, id int64) (*models.Category, error) {
	return s.findOne(ctx, s.db, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

// GetBySlug retrieves a category by its slug.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.findOne(ctx, s.db, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
}

func (s *CategoryStore) findOne(ctx context.Context, q queryer, query string, arg any) (*models.Category, error) {
	c, err := scanCategory(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

// GetWithPosts retrieves a category together with all of its posts, drafts
// included, newest first. PostCount is set to the number of posts.
func (s *CategoryStore) GetWithPosts(ctx context.Context, id int64) (*models.CategoryWithPosts, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE category_id = $1
		ORDER BY created_at DESC, id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list category posts: %w", err)
	}
	defer rows.Close()

	base := *c
	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Category = &base
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list category posts: %w", err)
	}

	count := len(posts)
	c.PostCount = &count
	return &models.CategoryWithPosts{Category: *c, Posts: posts}, nil
}

// Create validates in and inserts a new category. A duplicate name or slug
// returns ErrNameTaken or ErrSlugTaken.
func (s *CategoryStore) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, Validation(err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		in.Name, in.Slug, in.Description,
	)
	c, err := scanCategory(row)
	if err != nil {
		return nil, classify("create category", err)
	}
	return c, nil
}

// Update applies a partial update to the category with the given ID.
// An empty patch returns the category unchanged.
func (s *CategoryStore) Update(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, Validation(err)
	}

	var updated *models.Category
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.findOne(ctx, tx,
			`SELECT `+categoryColumns+` FROM categories WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if patch.Empty() {
			updated = current
			return nil
		}

		name, slug, desc := current.Name, current.Slug, current.Description
		if patch.Name != nil {
			name = *patch.Name
		}
		if patch.Slug != nil {
			slug = *patch.Slug
		}
		if patch.Description.Set {
			desc = patch.Description.Value
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE categories SET name = $1, slug = $2, description = $3
			WHERE id = $4
			RETURNING `+categoryColumns,
			name, slug, desc, id,
		)
		updated, err = scanCategory(row)
		if err != nil {
			return classify("update category", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a category. It returns ErrCategoryHasPosts while any post
// still references it.
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.findOne(ctx, tx,
			`SELECT `+categoryColumns+` FROM categories WHERE id = $1 FOR UPDATE`, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
			if isForeignKeyViolation(err, constraintPostCategory) {
				return ErrCategoryHasPosts
			}
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

// Count returns the number of categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}
