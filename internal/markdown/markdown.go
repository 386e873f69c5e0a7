// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown turns post bodies into HTML with goldmark.
//
// Raw HTML in the source is never passed through (goldmark emits a comment
// in its place), so stored content cannot inject markup. Headings get
// anchor IDs built with the same rules as post slugs, which keeps CJK
// headings linkable, and links to other sites open with
// rel="nofollow noopener".
package markdown

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"blogcms/internal/slug"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(highlighting.WithStyle("github")),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
		parser.WithASTTransformers(util.Prioritized(externalLinks{}, 100)),
	),
)

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	if err := md.Convert([]byte(source), &buf, parser.WithContext(ctx)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render is ToHTML typed for direct use in templates.
func Render(source string) (template.HTML, error) {
	s, err := ToHTML(source)
	if err != nil {
		return "", err
	}
	return template.HTML(s), nil
}

// headingIDs hands out unique anchor IDs within one document.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: map[string]bool{}}
}

// Generate implements parser.IDs.
func (h *headingIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	base := slug.Generate(string(value))
	if base == "" {
		base = "section"
	}
	id := base
	for i := 1; h.used[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	h.used[id] = true
	return []byte(id)
}

// Put implements parser.IDs for explicitly set IDs.
func (h *headingIDs) Put(value []byte) {
	h.used[string(value)] = true
}

// externalLinks marks absolute http(s) links so they do not pass ranking
// or window.opener to other sites.
type externalLinks struct{}

func (externalLinks) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch link := n.(type) {
		case *ast.Link:
			if isExternal(link.Destination) {
				markExternal(link)
			}
		case *ast.AutoLink:
			if link.AutoLinkType == ast.AutoLinkURL && isExternal(link.URL(source)) {
				markExternal(link)
			}
		}
		return ast.WalkContinue, nil
	})
}

func isExternal(dest []byte) bool {
	d := strings.ToLower(string(dest))
	return strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://")
}

func markExternal(n ast.Node) {
	n.SetAttributeString("rel", []byte("nofollow noopener"))
	n.SetAttributeString("target", []byte("_blank"))
}
