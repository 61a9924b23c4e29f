// Package filter_builder lists the filterable dimensions of a category page:
// allow-listed catalog entry fields with their observed values, and variant
// attributes with theirs.
package filter_builder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/category_tree"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// Option is one observed value of a field and how many entries carry it.
type Option struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type FieldFilter struct {
	Field   string   `json:"field"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

type AttributeFilter struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Filters is what a category page renders in its sidebar.
type Filters struct {
	FieldFilters     []FieldFilter     `json:"field_filters"`
	AttributeFilters []AttributeFilter `json:"attribute_filters"`
}

// Cache stores built filters per item group.
type Cache interface {
	Get(ctx context.Context, group string, dest any) bool
	Set(ctx context.Context, group string, v any) error
}

type Builder struct {
	entries    store.Repository[models.CatalogEntry]
	items      store.Repository[models.Item]
	categories *category_tree.Service
	cache      Cache
}

// New creates a builder. cache may be nil.
func New(entries store.Repository[models.CatalogEntry], items store.Repository[models.Item], categories *category_tree.Service, cache Cache) *Builder {
	return &Builder{entries: entries, items: items, categories: categories, cache: cache}
}

// ValidateFields rejects field names outside the catalog entry allow-list.
func ValidateFields(op string, fields []string) error {
	var bad []string
	for _, f := range fields {
		if _, ok := models.CatalogFilterFields[f]; !ok {
			bad = append(bad, f)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return apperrors.Configuration(op,
		fmt.Sprintf("Fields %s are not allowed as filters", strings.Join(bad, ", ")),
		apperrors.ErrInvalidFilterField).WithTitle("Invalid Filter Field")
}

// Build returns the filters for itemGroup, or for the whole catalog when
// itemGroup is empty. Without a group, field and attribute filters are only
// listed when enabled in settings.
func (b *Builder) Build(ctx context.Context, itemGroup string, settings models.WebshopSettings) (Filters, error) {
	var cached Filters
	if b.cache != nil && b.cache.Get(ctx, itemGroup, &cached) {
		return cached, nil
	}

	var fields, attributes []string
	scope := store.Filter(store.Where("published", store.OpEq, true))
	if itemGroup != "" {
		group, ok, err := b.categories.Get(ctx, itemGroup)
		if err != nil {
			return Filters{}, err
		}
		if !ok {
			return Filters{}, nil
		}
		fields, attributes = group.FilterFields, group.FilterAttributes
		if err := b.scopeToGroup(ctx, &scope, group); err != nil {
			return Filters{}, err
		}
	} else {
		if settings.EnableFieldFilters {
			fields = settings.FilterFields
		}
		if settings.EnableAttributeFilters {
			attributes = settings.FilterAttributes
		}
	}

	out := Filters{FieldFilters: []FieldFilter{}, AttributeFilters: []AttributeFilter{}}
	if len(fields) == 0 && len(attributes) == 0 {
		return out, nil
	}

	entries, err := b.entries.Query(ctx, store.Query{Filters: scope})
	if err != nil {
		return Filters{}, err
	}

	for _, name := range fields {
		def, ok := models.CatalogFilterFields[name]
		if !ok {
			logger.GetLogger().Warn("skipping filter field outside the allow-list", zap.String("field", name))
			continue
		}
		if opts := fieldOptions(def, entries); len(opts) > 0 {
			out.FieldFilters = append(out.FieldFilters, FieldFilter{Field: def.Name, Label: def.Label, Options: opts})
		}
	}

	if len(attributes) > 0 {
		attrs, err := b.attributeFilters(ctx, entries, attributes)
		if err != nil {
			return Filters{}, err
		}
		out.AttributeFilters = attrs
	}

	if b.cache != nil {
		if err := b.cache.Set(ctx, itemGroup, out); err != nil {
			logger.GetLogger().Warn("failed to cache filter options", zap.String("item_group", itemGroup), zap.Error(err))
		}
	}
	return out, nil
}

// scopeToGroup adds the OR group matching entries listed under group.
func (b *Builder) scopeToGroup(ctx context.Context, scope *store.PredicateSet, group models.ItemGroup) error {
	scope.AddOr(store.WhereChild("website_item_groups", "item_group", store.OpEq, group.Name))
	if !group.IncludeDescendants {
		scope.AddOr(store.Where("item_group", store.OpEq, group.Name))
		return nil
	}
	groups, err := b.categories.Descendants(ctx, group.Name, true)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		groups = []string{group.Name}
	}
	scope.AddOr(store.Where("item_group", store.OpIn, groups))
	return nil
}

func fieldOptions(def models.FilterableField, entries []models.CatalogEntry) []Option {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, v := range fieldValues(def, e) {
			if v != "" {
				counts[v]++
			}
		}
	}
	opts := make([]Option, 0, len(counts))
	for v, n := range counts {
		opts = append(opts, Option{Value: v, Count: n})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Value < opts[j].Value })
	return opts
}

func fieldValues(def models.FilterableField, e models.CatalogEntry) []string {
	switch def.Name {
	case "brand":
		return []string{e.Brand}
	case "item_group":
		return []string{e.ItemGroup}
	case "stock_uom":
		return []string{e.StockUOM}
	case "tags":
		seen := make(map[string]bool, len(e.Tags))
		var out []string
		for _, t := range e.Tags {
			if !seen[t.Tag] {
				seen[t.Tag] = true
				out = append(out, t.Tag)
			}
		}
		return out
	}
	return nil
}

// attributeFilters collects the values of the configured attributes over the
// in-scope entries' items and their variants.
func (b *Builder) attributeFilters(ctx context.Context, entries []models.CatalogEntry, attributes []string) ([]AttributeFilter, error) {
	out := []AttributeFilter{}
	if len(entries) == 0 {
		return out, nil
	}
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.ItemCode)
	}

	var filters store.PredicateSet
	filters.Add(store.WhereChild("attributes", "attribute", store.OpIn, attributes))
	filters.AddOr(
		store.Where("item_code", store.OpIn, codes),
		store.Where("variant_of", store.OpIn, codes),
	)
	items, err := b.items.Query(ctx, store.Query{Filters: filters})
	if err != nil {
		return nil, err
	}

	values := make(map[string]map[string]bool, len(attributes))
	for _, item := range items {
		for _, a := range item.Attributes {
			if a.AttributeValue == "" {
				continue
			}
			if values[a.Attribute] == nil {
				values[a.Attribute] = make(map[string]bool)
			}
			values[a.Attribute][a.AttributeValue] = true
		}
	}

	for _, name := range attributes {
		set, ok := values[name]
		if !ok {
			continue
		}
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out = append(out, AttributeFilter{Name: name, Values: vals})
	}
	return out, nil
}
