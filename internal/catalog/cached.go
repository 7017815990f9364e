package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// Cache is a keyed byte store with age-limited reads.
type Cache interface {
	CacheGet(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error)
	CachePut(ctx context.Context, key string, value []byte) error
}

// Cached decorates a Catalog with a response cache. Errors are never cached;
// cache failures are logged and fall through to the wrapped catalog.
type Cached struct {
	inner  Catalog
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

var _ Catalog = (*Cached)(nil)

// NewCached wraps inner. A zero ttl keeps entries forever.
func NewCached(inner Catalog, cache Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, cache: cache, ttl: ttl, logger: orDiscard(logger)}
}

func (c *Cached) SearchTitles(ctx context.Context, kind media.Type, query string, year int, filterByYear bool) ([]media.Candidate, error) {
	if !filterByYear {
		year = 0
	}
	key := fmt.Sprintf("search|%s|%s|%d", kind, strings.ToLower(strings.Join(strings.Fields(query), " ")), year)
	return cachedCall(ctx, c, key, func() ([]media.Candidate, error) {
		return c.inner.SearchTitles(ctx, kind, query, year, filterByYear)
	})
}

func (c *Cached) EpisodesByAirDate(ctx context.Context, showID int64, date time.Time) ([]media.EpisodeRef, error) {
	key := fmt.Sprintf("airdate|%d|%s", showID, date.Format(media.DateLayout))
	return cachedCall(ctx, c, key, func() ([]media.EpisodeRef, error) {
		return c.inner.EpisodesByAirDate(ctx, showID, date)
	})
}

func (c *Cached) EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error) {
	key := fmt.Sprintf("episode|%d|%d|%d", showID, season, episode)
	return cachedCall(ctx, c, key, func() (string, error) {
		return c.inner.EpisodeTitle(ctx, showID, season, episode)
	})
}

func cachedCall[T any](ctx context.Context, c *Cached, key string, fetch func() (T, error)) (T, error) {
	if raw, ok, err := c.cache.CacheGet(ctx, key, c.ttl); err != nil {
		c.logger.Warn("catalog cache read failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			c.logger.Debug("catalog cache hit", "key", key)
			return v, nil
		}
		c.logger.Warn("catalog cache entry unreadable", "key", key)
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.cache.CachePut(ctx, key, raw); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
	return v, nil
}
