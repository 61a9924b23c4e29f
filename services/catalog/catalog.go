// Package catalog keeps catalog entries in step with the inventory items they
// list: publishing, unpublishing, field propagation, renames and the item
// variants cache.
package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// VariantsCache holds the attribute map of every variant of a template.
type VariantsCache interface {
	Rebuild(ctx context.Context, template string, variants []models.Item) error
	Invalidate(ctx context.Context, template string) error
}

type Service struct {
	repos    *repositories.Set
	variants VariantsCache
}

// New creates the service. variants may be nil.
func New(repos *repositories.Set, variants VariantsCache) *Service {
	return &Service{repos: repos, variants: variants}
}

// EntryFor returns the catalog entry of itemCode; ok is false when the item
// is not listed.
func (s *Service) EntryFor(ctx context.Context, itemCode string) (models.CatalogEntry, bool, error) {
	return s.repos.CatalogEntries.First(ctx, store.Query{
		Filters: store.Filter(store.Where("item_code", store.OpEq, itemCode)),
	})
}

// MakeCatalogEntry publishes an inventory item on the website.
func (s *Service) MakeCatalogEntry(ctx context.Context, itemCode string) (models.CatalogEntry, error) {
	const op = "catalog.make_catalog_entry"

	item, err := s.repos.Items.Get(ctx, itemCode)
	if err != nil {
		return models.CatalogEntry{}, err
	}
	if item.Disabled {
		return models.CatalogEntry{}, apperrors.Validation(op,
			fmt.Sprintf("Item %s is disabled and cannot be published", itemCode), nil)
	}
	if existing, ok, err := s.EntryFor(ctx, itemCode); err != nil {
		return models.CatalogEntry{}, err
	} else if ok {
		return models.CatalogEntry{}, apperrors.Validation(op,
			fmt.Sprintf("Website Item %s already exists against Item %s", existing.Name, itemCode),
			apperrors.ErrDuplicateCatalogItem).WithTitle("Already Published")
	}

	entry := models.CatalogEntry{
		Name:         "WEB-ITM-" + uuid.Must(uuid.NewV7()).String(),
		ItemCode:     item.ItemCode,
		WebItemName:  item.ItemName,
		ItemName:     item.ItemName,
		ItemGroup:    item.ItemGroup,
		Brand:        item.Brand,
		StockUOM:     item.StockUOM,
		Description:  item.Description,
		VariantOf:    item.VariantOf,
		HasVariants:  item.HasVariants,
		WebsiteImage: item.Image,
		Route:        Route(item.ItemGroup, item.ItemName),
		Published:    true,
	}
	if err := s.repos.CatalogEntries.Save(ctx, &entry); err != nil {
		return models.CatalogEntry{}, err
	}
	if err := s.SetPublished(ctx, itemCode, true); err != nil {
		return models.CatalogEntry{}, err
	}

	logger.GetLogger().Info("item published",
		zap.String("item_code", itemCode),
		zap.String("catalog_entry", entry.Name))
	return entry, nil
}

// Unpublish removes the catalog entry of itemCode.
func (s *Service) Unpublish(ctx context.Context, itemCode string) error {
	entry, ok, err := s.EntryFor(ctx, itemCode)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("catalog.unpublish", fmt.Sprintf("Item %s is not published", itemCode))
	}
	if err := s.repos.CatalogEntries.Delete(ctx, entry.Name); err != nil {
		return err
	}
	return s.SetPublished(ctx, itemCode, false)
}

// SetPublished records on the item whether it has a catalog entry. Missing
// items are ignored.
func (s *Service) SetPublished(ctx context.Context, itemCode string, published bool) error {
	item, err := s.repos.Items.Get(ctx, itemCode)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if item.PublishedInWebsite == published {
		return nil
	}
	item.PublishedInWebsite = published
	return s.repos.Items.Save(ctx, &item)
}

// SyncFromItem copies changed item fields onto its catalog entry. Disabling
// the item unpublishes the entry.
func (s *Service) SyncFromItem(ctx context.Context, item *models.Item, before *models.Item) error {
	if before == nil {
		return nil
	}
	entry, ok, err := s.EntryFor(ctx, item.ItemCode)
	if err != nil || !ok {
		return err
	}

	changed := false
	set := func(dst *string, was, now string) {
		if was != now {
			*dst = now
			changed = true
		}
	}
	set(&entry.ItemName, before.ItemName, item.ItemName)
	set(&entry.ItemGroup, before.ItemGroup, item.ItemGroup)
	set(&entry.StockUOM, before.StockUOM, item.StockUOM)
	set(&entry.Brand, before.Brand, item.Brand)
	set(&entry.Description, before.Description, item.Description)
	if before.Disabled != item.Disabled {
		entry.Published = !item.Disabled
		changed = true
	}
	if !changed {
		return nil
	}
	return s.repos.CatalogEntries.Save(ctx, &entry)
}

// RebuildVariants refreshes the variants cache of the template item belongs
// to, or of item itself when it is a published template.
func (s *Service) RebuildVariants(ctx context.Context, item *models.Item, _ *models.Item) error {
	if s.variants == nil {
		return nil
	}
	template := ""
	switch {
	case item.HasVariants && item.PublishedInWebsite:
		template = item.ItemCode
	case item.VariantOf != "":
		parent, err := s.repos.Items.Get(ctx, item.VariantOf)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		if parent.PublishedInWebsite {
			template = parent.ItemCode
		}
	}
	if template == "" {
		return nil
	}
	return s.rebuild(ctx, template)
}

// RebuildVariantsForEntry refreshes the variants cache of a listed template.
func (s *Service) RebuildVariantsForEntry(ctx context.Context, entry *models.CatalogEntry, _ *models.CatalogEntry) error {
	if s.variants == nil || !entry.HasVariants || !entry.Published {
		return nil
	}
	return s.rebuild(ctx, entry.ItemCode)
}

func (s *Service) rebuild(ctx context.Context, template string) error {
	variants, err := s.repos.Items.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("variant_of", store.OpEq, template)),
	})
	if err != nil {
		return err
	}
	return s.variants.Rebuild(ctx, template, variants)
}

// BlockListedMerge refuses to merge two items that both have catalog
// entries, which would leave two entries for one item.
func (s *Service) BlockListedMerge(ctx context.Context, oldCode, newCode string, merge bool) error {
	if !merge {
		return nil
	}
	entries, err := s.repos.CatalogEntries.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("item_code", store.OpIn, []string{oldCode, newCode})),
	})
	if err != nil || len(entries) <= 1 {
		return err
	}
	oldEntry := entries[0].Name
	for _, e := range entries {
		if e.ItemCode == oldCode {
			oldEntry = e.Name
		}
	}
	return apperrors.Validation("catalog.merge",
		fmt.Sprintf("Please delete linked Website Item %s before merging %s into %s", oldEntry, oldCode, newCode),
		apperrors.ErrCannotMerge).WithTitle("Cannot Merge")
}

// RepointRenamedItem moves everything keyed by the old item code to the new
// one: its catalog entry, item prices, pricing rules and variants.
func (s *Service) RepointRenamedItem(ctx context.Context, oldCode, newCode string, _ bool) error {
	if entry, ok, err := s.EntryFor(ctx, oldCode); err != nil {
		return err
	} else if ok {
		entry.ItemCode = newCode
		if err := s.repos.CatalogEntries.Save(ctx, &entry); err != nil {
			return err
		}
	}

	prices, err := s.repos.ItemPrices.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("item_code", store.OpEq, oldCode)),
	})
	if err != nil {
		return err
	}
	for i := range prices {
		prices[i].ItemCode = newCode
		if err := s.repos.ItemPrices.Save(ctx, &prices[i]); err != nil {
			return err
		}
	}

	rules, err := s.repos.PricingRules.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("item_code", store.OpEq, oldCode)),
	})
	if err != nil {
		return err
	}
	for i := range rules {
		rules[i].ItemCode = newCode
		if err := s.repos.PricingRules.Save(ctx, &rules[i]); err != nil {
			return err
		}
	}

	variants, err := s.repos.Items.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("variant_of", store.OpEq, oldCode)),
	})
	if err != nil {
		return err
	}
	for i := range variants {
		variants[i].VariantOf = newCode
		if err := s.repos.Items.Save(ctx, &variants[i]); err != nil {
			return err
		}
	}
	if s.variants != nil && len(variants) > 0 {
		if err := s.variants.Invalidate(ctx, oldCode); err != nil {
			return err
		}
	}

	logger.GetLogger().Info("item renamed",
		zap.String("old_item_code", oldCode),
		zap.String("new_item_code", newCode),
		zap.Int("item_prices", len(prices)),
		zap.Int("variants", len(variants)))
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Route builds the website route of an item from its group and name.
func Route(group, name string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{group, name} {
		if slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(p), "-"), "-"); slug != "" {
			parts = append(parts, slug)
		}
	}
	return strings.Join(parts, "/")
}
