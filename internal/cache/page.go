// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pagePrefix = "blog:page:"

	// generationKey holds a counter that is part of every page key.
	// Bumping it orphans all cached pages at once; they then age out
	// through their TTL.
	generationKey = pagePrefix + "gen"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute

	// noGeneration marks a lookup whose generation could not be read.
	noGeneration = -1
)

// PageCache stores rendered public pages (HTML, sitemap) keyed by request
// URI. A nil *PageCache is valid and never hits. Cache errors are logged
// and treated as misses so the site keeps serving from the database.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache returns a cache on client. A non-positive ttl selects
// DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// generation returns the current generation, 0 before the first
// invalidation.
func (pc *PageCache) generation(ctx context.Context) (int64, error) {
	gen, err := pc.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func pageKey(gen int64, key string) string {
	return pagePrefix + strconv.FormatInt(gen, 10) + ":" + key
}

// Get returns the cached body for key. On a miss gen is the generation
// observed before the lookup; the caller passes it back to Set so a page
// built from data read before an invalidation is filed under the old
// generation and never served.
func (pc *PageCache) Get(ctx context.Context, key string) (body []byte, gen int64, ok bool) {
	if pc == nil {
		return nil, noGeneration, false
	}
	gen, err := pc.generation(ctx)
	if err != nil {
		slog.Warn("page cache generation read failed", "error", err)
		return nil, noGeneration, false
	}
	body, err = pc.client.Get(ctx, pageKey(gen, key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, gen, false
	case err != nil:
		slog.Warn("page cache get failed", "key", key, "error", err)
		return nil, gen, false
	}
	slog.Debug("page cache hit", "key", key, "generation", gen)
	return body, gen, true
}

// Set stores body under key in generation gen, as returned by Get.
func (pc *PageCache) Set(ctx context.Context, gen int64, key string, body []byte) {
	if pc == nil || gen == noGeneration {
		return
	}
	if err := pc.client.Set(ctx, pageKey(gen, key), body, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set failed", "key", key, "error", err)
	}
}

// InvalidateAll drops every cached page. A post or category change can
// show up on any listing, category page or the sitemap, so mutations never
// invalidate selectively.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if pc == nil {
		return
	}
	gen, err := pc.client.Incr(ctx, generationKey).Result()
	if err != nil {
		slog.Warn("page cache invalidate failed", "error", err)
		return
	}
	slog.Debug("page cache invalidated", "generation", gen)
}

// cachedParams are the query parameters public pages read. Anything else
// in the query string does not change the page and is left out of the key.
var cachedParams = []string{"page", "q"}

// PathKey returns the cache key for a request path and the query
// parameters that select its content.
func PathKey(path string, query url.Values) string {
	kept := url.Values{}
	for _, name := range cachedParams {
		if v, ok := query[name]; ok && len(v) > 0 {
			kept.Set(name, v[0])
		}
	}
	if len(kept) == 0 {
		return "path:" + path
	}
	return "path:" + path + "?" + kept.Encode()
}
