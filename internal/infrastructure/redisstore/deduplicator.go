package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 24 * time.Hour

// Deduplicator remembers which handler already ran for which event, so a
// redelivered event is skipped across process restarts.
type Deduplicator struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeduplicator(client *redis.Client, ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &Deduplicator{client: client, ttl: ttl}
}

// Claim returns false when (handler, eventID) was claimed before.
func (d *Deduplicator) Claim(ctx context.Context, handler, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupKey(handler, eventID), time.Now().UTC().Format(time.RFC3339Nano), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release forgets a claim so a failed handler can run again on redelivery.
func (d *Deduplicator) Release(ctx context.Context, handler, eventID string) error {
	if err := d.client.Del(ctx, dedupKey(handler, eventID)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func dedupKey(handler, eventID string) string {
	return fmt.Sprintf("dedup:%s:%s", handler, eventID)
}
