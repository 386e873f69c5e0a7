// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation and validation.
// Slugs are made of lowercase ASCII letters, digits, CJK ideographs
// (U+4E00–U+9FA5) and hyphens.
package slug

import (
	"regexp"
	"strings"
)

var (
	// disallowed matches every run of characters that may not appear in a slug.
	disallowed = regexp.MustCompile(`[^a-z0-9\x{4e00}-\x{9fa5}]+`)
	// valid matches a complete, well-formed slug.
	valid = regexp.MustCompile(`^[a-z0-9\x{4e00}-\x{9fa5}]+(?:-[a-z0-9\x{4e00}-\x{9fa5}]+)*$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026", "Go 教程" → "go-教程"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = disallowed.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Valid reports whether s is already a well-formed slug: non-empty, no
// leading, trailing or doubled hyphens, and only allowed characters.
func Valid(s string) bool {
	return valid.MatchString(s)
}
