package redis_cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Modeva-Ecommerce/modeva-webshop/metrics"
)

const (
	FilterOptionsPrefix = "webshop:filters:"
	FilterOptionsTTL    = 10 * time.Minute

	// allGroups is the key suffix used when no item group is in scope.
	allGroups = "_all"
)

// FilterOptions caches the filter option lists shown on a category page.
// A nil *FilterOptions is a cache that never hits.
type FilterOptions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewFilterOptions(client *redis.Client, ttl time.Duration) *FilterOptions {
	if ttl <= 0 {
		ttl = FilterOptionsTTL
	}
	return &FilterOptions{client: client, ttl: ttl}
}

func filterOptionsKey(group string) string {
	if group == "" {
		group = allGroups
	}
	return FilterOptionsPrefix + group
}

// Get decodes the cached options for group into dest. A redis error is
// treated as a miss.
func (f *FilterOptions) Get(ctx context.Context, group string, dest any) bool {
	if f == nil || f.client == nil {
		return false
	}
	raw, err := f.client.Get(ctx, filterOptionsKey(group)).Bytes()
	if err != nil {
		metrics.RecordCacheLookup("filter_options", false)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.RecordCacheLookup("filter_options", false)
		return false
	}
	metrics.RecordCacheLookup("filter_options", true)
	return true
}

func (f *FilterOptions) Set(ctx context.Context, group string, v any) error {
	if f == nil || f.client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return f.client.Set(ctx, filterOptionsKey(group), raw, f.ttl).Err()
}

// InvalidateGroups drops the cached options of every given group together
// with the catalog-wide entry.
func (f *FilterOptions) InvalidateGroups(ctx context.Context, groups ...string) error {
	if f == nil || f.client == nil {
		return nil
	}
	keys := make([]string, 0, len(groups)+1)
	keys = append(keys, filterOptionsKey(""))
	for _, g := range groups {
		if g != "" {
			keys = append(keys, filterOptionsKey(g))
		}
	}
	err := f.client.Del(ctx, keys...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
