package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voterpulse/sentinel/internal/domain"
)

// cacheKeyPrefix is the Redis key prefix for fetch result caching.
const cacheKeyPrefix = "sentinel:fetchcache:"

// maxStaleAge bounds how long stale entries are kept for fallback use.
const maxStaleAge = 24 * time.Hour

// ErrCacheMiss is returned when no cached entry exists for a request.
var ErrCacheMiss = errors.New("cache miss")

// cacheEntry wraps cached items with their storage time so freshness
// can be judged at read time.
type cacheEntry struct {
	Items    []*domain.ContentItem `json:"items"`
	StoredAt time.Time             `json:"stored_at"`
}

// Cache is the in-process-equivalent fetch cache, backed by Redis so
// all workers share it. Entries older than the freshness TTL remain
// readable for the stale-fallback path until maxStaleAge.
type Cache struct {
	client   *redis.Client
	freshTTL time.Duration
	now      func() time.Time
}

// NewCache creates a fetch cache with the given freshness window.
func NewCache(client *redis.Client, freshTTL time.Duration) *Cache {
	return &Cache{client: client, freshTTL: freshTTL, now: time.Now}
}

func (c *Cache) key(sourceKey string, req Request) string {
	return cacheKeyPrefix + sourceKey + ":" + req.CacheKey()
}

// Get returns cached items newer than the freshness window.
func (c *Cache) Get(ctx context.Context, sourceKey string, req Request) ([]*domain.ContentItem, error) {
	entry, err := c.load(ctx, sourceKey, req)
	if err != nil {
		return nil, err
	}
	if c.now().Sub(entry.StoredAt) > c.freshTTL {
		return nil, ErrCacheMiss
	}
	return entry.Items, nil
}

// GetStale returns cached items regardless of age. Used only on the
// fallback path after live fetching fails.
func (c *Cache) GetStale(ctx context.Context, sourceKey string, req Request) ([]*domain.ContentItem, error) {
	entry, err := c.load(ctx, sourceKey, req)
	if err != nil {
		return nil, err
	}
	return entry.Items, nil
}

// Put stores a successful live fetch result.
func (c *Cache) Put(ctx context.Context, sourceKey string, req Request, items []*domain.ContentItem) error {
	entry := cacheEntry{Items: items, StoredAt: c.now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if setErr := c.client.Set(ctx, c.key(sourceKey, req), data, maxStaleAge).Err(); setErr != nil {
		return fmt.Errorf("set cache entry: %w", setErr)
	}
	return nil
}

func (c *Cache) load(ctx context.Context, sourceKey string, req Request) (*cacheEntry, error) {
	data, err := c.client.Get(ctx, c.key(sourceKey, req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get cache entry: %w", err)
	}

	var entry cacheEntry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", unmarshalErr)
	}
	return &entry, nil
}
