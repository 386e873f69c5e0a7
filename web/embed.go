// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package web provides embedded static assets (CSS, JS) served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree: the shared stylesheet and
// editor.js, which drives the admin post editor and category manager.
//
//go:embed all:static
var StaticFS embed.FS
