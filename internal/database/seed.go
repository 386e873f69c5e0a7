// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type seedCategory struct {
	name, slug, description string
}

type seedPost struct {
	title, slug, content, excerpt string
	category                      string // category slug
	status                        string
}

var seedCategories = []seedCategory{
	{name: "技术", slug: "tech", description: "技术相关文章"},
	{name: "生活", slug: "life", description: "生活随笔"},
	{name: "教程", slug: "tutorial", description: "学习教程"},
}

var seedPosts = []seedPost{
	{
		title: "Next.js 15 新特性介绍",
		slug:  "nextjs-15-features",
		content: "# Next.js 15 新特性\n\n" +
			"Next.js 15 带来了许多令人兴奋的新特性：\n\n" +
			"## Turbopack 稳定版\n\n" +
			"Turbopack 现在是默认的开发服务器打包工具，提供更快的热更新。\n\n" +
			"## React 19 支持\n\n" +
			"完整支持 React 19，包括新的 hooks 和并发特性。\n\n" +
			"```typescript\n// 使用新的 use hook\nconst data = use(fetchData());\n```\n\n" +
			"## 改进的缓存\n\n" +
			"更智能的缓存策略，提升应用性能。",
		excerpt:  "了解 Next.js 15 的最新特性和改进",
		category: "tech",
		status:   "published",
	},
	{
		title: "TypeScript 最佳实践",
		slug:  "typescript-best-practices",
		content: "# TypeScript 最佳实践\n\n" +
			"## 类型推断\n\n" +
			"让 TypeScript 自动推断类型，减少冗余代码。\n\n" +
			"```typescript\n// 好的做法\nconst numbers = [1, 2, 3]; // TypeScript 自动推断为 number[]\n\n" +
			"// 避免\nconst numbers: number[] = [1, 2, 3];\n```\n\n" +
			"## 使用 unknown 替代 any\n\n" +
			"`unknown` 是类型安全的 `any` 替代品。",
		excerpt:  "提升 TypeScript 代码质量的实用技巧",
		category: "tech",
		status:   "published",
	},
	{
		title: "我的 2026 年目标",
		slug:  "my-2026-goals",
		content: "# 2026 年目标\n\n" +
			"## 技术方面\n- 深入学习 AI 开发\n- 贡献开源项目\n- 写更多技术博客\n\n" +
			"## 生活方面\n- 保持健康的作息\n- 每周运动三次\n- 读完 20 本书",
		excerpt:  "新年新计划",
		category: "life",
		status:   "published",
	},
	{
		title: "Drizzle ORM 入门教程",
		slug:  "drizzle-orm-tutorial",
		content: "# Drizzle ORM 入门\n\n" +
			"Drizzle 是一个轻量级、类型安全的 ORM。\n\n" +
			"## 安装\n\n" +
			"```bash\nnpm install drizzle-orm better-sqlite3\nnpm install -D drizzle-kit @types/better-sqlite3\n```\n\n" +
			"## 定义 Schema\n\n" +
			"```typescript\nimport { sqliteTable, text, integer } from \"drizzle-orm/sqlite-core\";\n\n" +
			"export const users = sqliteTable(\"users\", {\n  id: integer(\"id\").primaryKey(),\n  name: text(\"name\").notNull(),\n});\n```",
		excerpt:  "学习如何使用 Drizzle ORM",
		category: "tutorial",
		status:   "published",
	},
	{
		title:    "草稿文章示例",
		slug:     "draft-example",
		content:  "这是一篇草稿文章，尚未完成...",
		excerpt:  "草稿",
		category: "tech",
		status:   "draft",
	},
}

// Seed populates an empty database with sample categories and posts.
// It does nothing when any category or post already exists.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM categories) + (SELECT COUNT(*) FROM posts)`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("seed check existing: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(seedCategories))
	for _, c := range seedCategories {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO categories (name, slug, description)
			VALUES ($1, $2, $3)
			RETURNING id
		`, c.name, c.slug, c.description).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.slug, err)
		}
		ids[c.slug] = id
	}

	for _, p := range seedPosts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (title, slug, content, excerpt, category_id, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.title, p.slug, p.content, p.excerpt, ids[p.category], p.status)
		if err != nil {
			return fmt.Errorf("seed insert post %s: %w", p.slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample content",
		"categories", len(seedCategories),
		"posts", len(seedPosts),
	)
	return nil
}
