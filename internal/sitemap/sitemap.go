// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sitemap builds the XML sitemap for the public site.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"blogcms/internal/models"
	"blogcms/internal/store"
)

// Namespace is the sitemap protocol XML namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Change frequencies used by the site.
const (
	Daily  = "daily"
	Weekly = "weekly"
)

// URL is a single <url> entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// URLSet is the <urlset> document root.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// PostSource lists the published posts to include.
type PostSource interface {
	ListPublishedForSitemap(ctx context.Context) ([]store.SitemapEntry, error)
}

// CategorySource lists the categories to include.
type CategorySource interface {
	List(ctx context.Context) ([]models.Category, error)
}

// Build assembles the sitemap: the home page, the category index, every
// published post and every category. baseURL must not end in a slash.
// Pages without their own modification time use now.
func Build(baseURL string, now time.Time, posts []store.SitemapEntry, categories []models.Category) *URLSet {
	baseURL = strings.TrimRight(baseURL, "/")
	stamp := formatTime(now)

	set := &URLSet{
		Xmlns: Namespace,
		URLs:  make([]URL, 0, 2+len(posts)+len(categories)),
	}
	set.URLs = append(set.URLs,
		URL{Loc: baseURL, LastMod: stamp, ChangeFreq: Daily, Priority: "1.0"},
		URL{Loc: baseURL + "/categories", LastMod: stamp, ChangeFreq: Weekly, Priority: "0.8"},
	)
	for _, p := range posts {
		set.URLs = append(set.URLs, URL{
			Loc:        baseURL + "/posts/" + url.PathEscape(p.Slug),
			LastMod:    formatTime(p.UpdatedAt),
			ChangeFreq: Weekly,
			Priority:   "0.9",
		})
	}
	for _, c := range categories {
		set.URLs = append(set.URLs, URL{
			Loc:        baseURL + "/categories/" + url.PathEscape(c.Slug),
			LastMod:    stamp,
			ChangeFreq: Weekly,
			Priority:   "0.7",
		})
	}
	return set
}

// Marshal encodes the set as an indented XML document with its header.
func (s *URLSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Generate loads posts and categories and returns the encoded sitemap.
func Generate(ctx context.Context, baseURL string, posts PostSource, categories CategorySource) ([]byte, error) {
	entries, err := posts.ListPublishedForSitemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap posts: %w", err)
	}
	cats, err := categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap categories: %w", err)
	}
	return Build(baseURL, time.Now(), entries, cats).Marshal()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
