// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed full-page HTML cache.
// When a public page is rendered, the resulting HTML is stored in Valkey
// so subsequent requests skip the DB queries and template execution
// entirely. Only anonymous GET responses are cacheable; any write to a
// post invalidates its detail page and every listing that could include it.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// listKeyPrefix marks keys for listing pages (homepage, category,
	// tag, feed), which are invalidated together on any post write.
	listKeyPrefix = "list:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages full-page HTML caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML for a page key. Returns false on miss.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML for a page key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// InvalidatePost removes a post's cached detail page.
func (pc *PageCache) InvalidatePost(ctx context.Context, slug string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+PostKey(slug)).Err(); err != nil {
		slog.Warn("page cache invalidate error", "slug", slug, "error", err)
	}
	slog.Debug("page cache invalidated", "slug", slug)
}

// InvalidateListings removes every cached listing page (homepage,
// category, tag, feed). Called on any post create, update, or delete,
// since listings can't be traced back to individual posts cheaply.
func (pc *PageCache) InvalidateListings(ctx context.Context) {
	pc.deleteByPattern(ctx, pageKeyPrefix+listKeyPrefix+"*")
}

// InvalidateAll removes all cached pages by scanning for the prefix.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	pc.deleteByPattern(ctx, pageKeyPrefix+"*")
}

func (pc *PageCache) deleteByPattern(ctx context.Context, pattern string) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache cleared", "pattern", pattern, "deleted", deleted)
	}
}

// HomepageKey returns the cache key for a homepage listing page.
func HomepageKey(page int) string {
	return fmt.Sprintf("%shome:%d", listKeyPrefix, page)
}

// PostKey returns the cache key for a post detail page.
func PostKey(slug string) string {
	return "post:" + slug
}

// CategoryKey returns the cache key for a category listing page.
func CategoryKey(slug string, page int) string {
	return fmt.Sprintf("%scat:%s:%d", listKeyPrefix, slug, page)
}

// TagKey returns the cache key for a tag listing page.
func TagKey(slug string, page int) string {
	return fmt.Sprintf("%stag:%s:%d", listKeyPrefix, slug, page)
}

// FeedKey returns the cache key for the RSS feed.
func FeedKey() string {
	return listKeyPrefix + "feed"
}
