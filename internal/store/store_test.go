// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Integration tests for the store run against the PostgreSQL named by the
// POSTGRES_* variables. When it is unreachable they start a PostgreSQL
// container under -tags integration and are skipped otherwise.

package store

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"

	"blogcms/internal/database"
	"blogcms/internal/models"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(envOr("POSTGRES_USER", "blogcms"), envOr("POSTGRES_PASSWORD", "changeme")),
		Host:     net.JoinHostPort(envOr("POSTGRES_HOST", "localhost"), envOr("POSTGRES_PORT", "5432")),
		Path:     "/" + envOr("POSTGRES_DB", "blogcms"),
		RawQuery: "sslmode=disable&connect_timeout=2",
	}
	return u.String()
}

var (
	migrateOnce sync.Once
	migrateErr  error
)

// testDB connects to the test database, migrating it on first use in the
// package, and closes the pool when the test ends.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Connect(ctx, testDSN())
	if err != nil {
		dsn := fallbackDSN(t)
		if dsn == "" {
			t.Skipf("skipping integration test: %v", err)
		}
		if db, err = database.Connect(ctx, dsn); err != nil {
			t.Fatalf("connect to PostgreSQL container: %v", err)
		}
	}
	t.Cleanup(func() { db.Close() })

	migrateOnce.Do(func() { migrateErr = database.Migrate(ctx, db) })
	if migrateErr != nil {
		t.Fatalf("migrate: %v", migrateErr)
	}
	return db
}

// uniqueSlug returns prefix followed by a random suffix, so tests sharing a
// database never collide.
func uniqueSlug(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// cleanPosts removes test posts by slug. Call in t.Cleanup().
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM posts WHERE slug = $1", slug)
	}
}

// cleanCategories removes test categories and any posts still assigned to
// them. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM posts WHERE category_id IN (SELECT id FROM categories WHERE slug = $1)", slug)
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}

// createTestCategory inserts a category with a unique slug and schedules
// its removal.
func createTestCategory(t *testing.T, db *sql.DB) *models.Category {
	t.Helper()
	slug := uniqueSlug("cat")
	t.Cleanup(func() { cleanCategories(t, db, slug) })

	c, err := NewCategoryStore(db).Create(context.Background(), models.CategoryInput{
		Name: "Category " + slug,
		Slug: slug,
	})
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	return c
}
