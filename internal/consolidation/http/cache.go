package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix  = "groundwork:consol:"
	defaultCacheTTL = 5 * time.Minute
)

// ReportCache stores rendered consolidation payloads in redis so repeated
// report pulls skip the graph walk. A nil client disables caching.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *ReportCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	// cache writes are best effort; a failed set only costs a rebuild
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Bust removes every cached consolidation payload. Jobs call this after
// ownership or ledger mutations invalidate the reports.
func (c *ReportCache) Bust(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func buildCacheKey(report string, rootID int64, includeEliminations bool) string {
	elimToken := "0"
	if includeEliminations {
		elimToken = "1"
	}
	return fmt.Sprintf("%s%s:%d|elim=%s", cacheKeyPrefix, report, rootID, elimToken)
}
