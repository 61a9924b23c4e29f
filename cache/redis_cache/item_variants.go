package redis_cache

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Modeva-Ecommerce/modeva-webshop/metrics"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

const ItemVariantsPrefix = "webshop:variants:"

// VariantAttributes maps attribute name to the variant's value.
type VariantAttributes map[string]string

// ItemVariants keeps one redis hash per template item: variant code to its
// attribute values. The hash is rebuilt whenever the template or one of its
// variants is saved.
type ItemVariants struct {
	client *redis.Client
}

func NewItemVariants(client *redis.Client) *ItemVariants {
	return &ItemVariants{client: client}
}

func itemVariantsKey(template string) string {
	return ItemVariantsPrefix + template
}

// Rebuild replaces the cached variants of template.
func (v *ItemVariants) Rebuild(ctx context.Context, template string, variants []models.Item) error {
	if v == nil || v.client == nil {
		return nil
	}
	key := itemVariantsKey(template)
	fields := make(map[string]any, len(variants))
	for _, item := range variants {
		if item.Disabled {
			continue
		}
		attrs := make(VariantAttributes, len(item.Attributes))
		for _, a := range item.Attributes {
			attrs[a.Attribute] = a.AttributeValue
		}
		raw, err := json.Marshal(attrs)
		if err != nil {
			return err
		}
		fields[item.ItemCode] = raw
	}

	_, err := v.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	return err
}

// Get returns the cached variants of template; ok is false on a miss.
func (v *ItemVariants) Get(ctx context.Context, template string) (map[string]VariantAttributes, bool, error) {
	if v == nil || v.client == nil {
		return nil, false, nil
	}
	raw, err := v.client.HGetAll(ctx, itemVariantsKey(template)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		metrics.RecordCacheLookup("item_variants", false)
		return nil, false, nil
	}
	metrics.RecordCacheLookup("item_variants", true)

	out := make(map[string]VariantAttributes, len(raw))
	for code, val := range raw {
		var attrs VariantAttributes
		if err := json.Unmarshal([]byte(val), &attrs); err != nil {
			return nil, false, err
		}
		out[code] = attrs
	}
	return out, true, nil
}

// FindVariant returns the variant of template whose attributes include every
// selected value. When several match, the lowest item code wins.
func (v *ItemVariants) FindVariant(ctx context.Context, template string, selected map[string]string) (string, bool, error) {
	variants, ok, err := v.Get(ctx, template)
	if err != nil || !ok {
		return "", false, err
	}
	codes := make([]string, 0, len(variants))
	for code := range variants {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if matchesAttributes(variants[code], selected) {
			return code, true, nil
		}
	}
	return "", false, nil
}

func matchesAttributes(attrs VariantAttributes, selected map[string]string) bool {
	for name, want := range selected {
		if attrs[name] != want {
			return false
		}
	}
	return true
}

func (v *ItemVariants) Invalidate(ctx context.Context, template string) error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Del(ctx, itemVariantsKey(template)).Err()
}
