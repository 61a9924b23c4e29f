package redis_cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Modeva-Ecommerce/modeva-webshop/metrics"
)

const (
	CatalogCountKey = "webshop:catalog_count"
	CatalogCountTTL = time.Hour
)

// CatalogCount caches the number of catalog entries. The search guard only
// needs an approximate figure, so a stale value within the TTL is fine.
type CatalogCount struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCatalogCount(client *redis.Client, ttl time.Duration) *CatalogCount {
	if ttl <= 0 {
		ttl = CatalogCountTTL
	}
	return &CatalogCount{client: client, ttl: ttl}
}

func (c *CatalogCount) Get(ctx context.Context) (int, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	n, err := c.client.Get(ctx, CatalogCountKey).Int()
	if err != nil {
		metrics.RecordCacheLookup("catalog_count", false)
		return 0, false
	}
	metrics.RecordCacheLookup("catalog_count", true)
	return n, true
}

func (c *CatalogCount) Set(ctx context.Context, n int) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, CatalogCountKey, n, c.ttl).Err()
}

// Invalidate forces the next read to recount.
func (c *CatalogCount) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, CatalogCountKey).Err()
}
