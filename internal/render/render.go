// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site and
// the admin interface. Public pages are rendered into a buffer so they can
// be stored in the page cache; admin pages are written straight to the
// response.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blogcms/internal/middleware"
	"blogcms/internal/session"
)

//go:embed templates/public/*.html templates/admin/*.html
var templateFS embed.FS

// PageData holds all data passed to templates.
type PageData struct {
	Title       string         // Page title for <title> tag
	Section     string         // Active navigation section (e.g., "posts", "categories")
	SiteTitle   string         // Set by the renderer
	Session     *session.Data  // Current admin session (nil if unauthenticated)
	AuthEnabled bool           // Whether admin login is configured
	CSRFToken   string         // CSRF token for forms and fetch headers
	Data        map[string]any // Page-specific data
}

// Renderer handles template parsing and execution.
type Renderer struct {
	siteTitle   string
	authEnabled bool
	public      map[string]*template.Template
	admin       map[string]*template.Template
	funcMap     template.FuncMap
}

// standaloneTemplates lists admin templates that render as full HTML pages
// without the base layout.
var standaloneTemplates = map[string]bool{
	"login": true,
	"2fa":   true,
}

// New creates a Renderer by parsing the embedded public and admin
// templates. Each page template is paired with its base layout.
func New(siteTitle string, authEnabled bool) (*Renderer, error) {
	r := &Renderer{
		siteTitle:   siteTitle,
		authEnabled: authEnabled,
		funcMap: template.FuncMap{
			"active": func(current, target string) string {
				if current == target {
					return "active"
				}
				return ""
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			// idEq reports whether an optional foreign key points at id.
			"idEq": func(ptr *int64, id int64) bool {
				return ptr != nil && *ptr == id
			},
			"date": func(t time.Time) string {
				return t.Format("2006-01-02")
			},
			"datetime": func(t time.Time) string {
				return t.Format("2006-01-02 15:04")
			},
			"add": func(a, b int) int { return a + b },
			"sub": func(a, b int) int { return a - b },
			// pathEscape escapes a slug for use in a URL path segment.
			"pathEscape": func(s string) string {
				return url.PathEscape(s)
			},
			"queryEscape": func(s string) string {
				return url.QueryEscape(s)
			},
		},
	}

	var err error
	if r.public, err = r.parseDir("public", nil); err != nil {
		return nil, err
	}
	if r.admin, err = r.parseDir("admin", standaloneTemplates); err != nil {
		return nil, err
	}
	return r, nil
}

// parseDir parses every page in templates/<dir>, pairing each with the
// directory's base.html unless it is standalone.
func (rn *Renderer) parseDir(dir string, standalone map[string]bool) (map[string]*template.Template, error) {
	root := "templates/" + dir
	entries, err := fs.ReadDir(templateFS, root)
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	templates := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		if standalone[tmplName] {
			tmpl, err = template.New(name).Funcs(rn.funcMap).ParseFS(templateFS, root+"/"+name)
		} else {
			tmpl, err = template.New("base.html").Funcs(rn.funcMap).ParseFS(
				templateFS, root+"/base.html", root+"/"+name,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s/%s: %w", dir, name, err)
		}
		templates[tmplName] = tmpl
	}
	return templates, nil
}

// Public renders a public page into a byte slice, ready to be cached.
func (rn *Renderer) Public(name string, data *PageData) ([]byte, error) {
	tmpl, ok := rn.public[name]
	if !ok {
		return nil, fmt.Errorf("render public: template %q not found", name)
	}
	data.SiteTitle = rn.siteTitle
	data.AuthEnabled = rn.authEnabled

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return nil, fmt.Errorf("render public %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Page renders a full admin page. The CSRF token and session are taken
// from the request context.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus is Page with an explicit status code.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.admin[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.SiteTitle = rn.siteTitle
	data.AuthEnabled = rn.authEnabled
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}

	// Render into a buffer so a template error does not leave a half-written page.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
