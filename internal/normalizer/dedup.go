package normalizer

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voterpulse/sentinel/internal/domain"
)

const dedupKeyPrefix = "sentinel:seen:"

// Deduper tracks content hashes that have already entered the
// pipeline. Entries expire so the working set stays bounded; the
// persisted store's unique hash constraint backstops anything that
// ages out.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeduper creates a Deduper with the given retention window.
func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Deduper{client: client, ttl: ttl}
}

func dedupKey(hash string) string {
	return dedupKeyPrefix + hash
}

// CheckAndMark atomically records the item's hash and reports whether
// it was already present. SETNX makes the check race-free across
// concurrent workers ingesting the same story from multiple feeds.
func (d *Deduper) CheckAndMark(ctx context.Context, item *domain.ContentItem) (bool, error) {
	set, err := d.client.SetNX(ctx, dedupKey(item.ContentHash), item.ID, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup mark for %s: %w", item.ContentHash, err)
	}
	return !set, nil
}

// Forget removes a hash, letting the same content be ingested again.
// Used by reprocessing jobs that re-run the backlog.
func (d *Deduper) Forget(ctx context.Context, hash string) error {
	if err := d.client.Del(ctx, dedupKey(hash)).Err(); err != nil {
		return fmt.Errorf("dedup forget for %s: %w", hash, err)
	}
	return nil
}
