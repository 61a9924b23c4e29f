// Package crud_events registers the webshop's lifecycle hooks on the record
// store dispatcher. Every handler is named so failures and metrics can be
// traced back to it.
package crud_events

import (
	"context"

	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/metrics"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/catalog"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/category_tree"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/filter_builder"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/settings"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/shopping_cart"
)

// CountInvalidator drops the cached catalog size.
type CountInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Deps are the services the hooks call into. Options and CatalogCount may be
// nil.
type Deps struct {
	Settings     *settings.Service
	Catalog      *catalog.Service
	Cart         *shopping_cart.Service
	Categories   *category_tree.Service
	Options      category_tree.OptionsInvalidator
	CatalogCount CountInvalidator
}

type hooks struct {
	Deps
}

// Register installs every webshop hook on d.
func Register(d *events.Dispatcher, deps Deps) {
	h := &hooks{Deps: deps}
	metrics.ObserveHooks(d)

	// Item
	events.On(d, models.EntityItem, events.AfterSave, "update_catalog_entry", deps.Catalog.SyncFromItem)
	events.On(d, models.EntityItem, events.AfterSave, "invalidate_item_variants_cache", h.rebuildVariants)
	events.On(d, models.EntityItem, events.AfterSave, "invalidate_item_group_cache", h.itemGroupCacheForItem)
	events.OnRename(d, models.EntityItem, events.BeforeRename, "validate_duplicate_catalog_entry", deps.Catalog.BlockListedMerge)
	events.OnRename(d, models.EntityItem, events.AfterRename, "repoint_renamed_item", deps.Catalog.RepointRenamedItem)

	// Catalog entry
	events.On(d, models.EntityCatalogEntry, events.AfterSave, "sync_item_published", h.markItemPublished)
	events.On(d, models.EntityCatalogEntry, events.AfterSave, "invalidate_catalog_caches", h.catalogCachesForEntry)
	events.On(d, models.EntityCatalogEntry, events.AfterSave, "invalidate_item_variants_cache", h.rebuildVariantsForEntry)
	events.On(d, models.EntityCatalogEntry, events.AfterDelete, "sync_item_unpublished", h.markItemUnpublished)
	events.On(d, models.EntityCatalogEntry, events.AfterDelete, "invalidate_catalog_caches", h.catalogCachesForEntry)

	// Item group
	events.On(d, models.EntityItemGroup, events.BeforeSave, "keep_tree_bounds", keepTreeBounds)
	events.On(d, models.EntityItemGroup, events.BeforeSave, "validate_item_group", h.validateItemGroup)
	events.On(d, models.EntityItemGroup, events.AfterSave, "rebuild_tree", h.rebuildTree)
	events.On(d, models.EntityItemGroup, events.BeforeDelete, "block_delete_with_children", h.blockDeleteWithChildren)
	events.On(d, models.EntityItemGroup, events.AfterDelete, "invalidate_item_group_cache", h.itemGroupDeleted)

	// Pricing and tax
	events.On(d, models.EntityPriceList, events.AfterSave, "check_impact_on_cart", h.priceListImpact)
	events.On(d, models.EntitySalesTaxTemplate, events.AfterSave, "check_impact_on_cart", h.taxTemplateImpact)
	events.On(d, models.EntityTaxRule, events.BeforeSave, "validate_use_for_cart", deps.Cart.PromoteCartTaxRule)
	events.On(d, models.EntityTaxRule, events.AfterSave, "unset_other_cart_tax_rules", deps.Cart.DemoteOtherCartTaxRules)
	events.On(d, models.EntityTaxRule, events.AfterDelete, "promote_remaining_cart_tax_rule", deps.Cart.PromoteAfterDelete)

	// Draft order
	events.On(d, models.EntityDraftOrder, events.BeforeSave, "validate_shopping_cart_items", deps.Cart.ValidateDraft)

	// Webshop settings
	events.On(d, models.EntityWebshopSettings, events.BeforeSave, "validate_cart_settings", h.validateSettings)
	events.On(d, models.EntityWebshopSettings, events.AfterSave, "invalidate_filter_options", h.settingsSaved)
}

// bestEffort logs a cache failure instead of failing the write that caused
// it; a stale cache entry expires on its own.
func bestEffort(hook string, err error) error {
	if err != nil {
		logger.GetLogger().Warn("cache invalidation failed", zap.String("hook", hook), zap.Error(err))
	}
	return nil
}

func (h *hooks) rebuildVariants(ctx context.Context, item *models.Item, before *models.Item) error {
	return bestEffort("invalidate_item_variants_cache", h.Catalog.RebuildVariants(ctx, item, before))
}

func (h *hooks) rebuildVariantsForEntry(ctx context.Context, entry *models.CatalogEntry, before *models.CatalogEntry) error {
	return bestEffort("invalidate_item_variants_cache", h.Catalog.RebuildVariantsForEntry(ctx, entry, before))
}

func (h *hooks) itemGroupCacheForItem(ctx context.Context, item *models.Item, before *models.Item) error {
	groups := []string{item.ItemGroup}
	if before != nil && before.ItemGroup != item.ItemGroup {
		groups = append(groups, before.ItemGroup)
	}
	return bestEffort("invalidate_item_group_cache", h.Categories.InvalidateFor(ctx, groups...))
}

func (h *hooks) markItemPublished(ctx context.Context, entry *models.CatalogEntry, before *models.CatalogEntry) error {
	if before != nil && before.ItemCode == entry.ItemCode {
		return nil
	}
	return h.Catalog.SetPublished(ctx, entry.ItemCode, true)
}

func (h *hooks) markItemUnpublished(ctx context.Context, entry *models.CatalogEntry, _ *models.CatalogEntry) error {
	return h.Catalog.SetPublished(ctx, entry.ItemCode, false)
}

// catalogCachesForEntry clears the filter options of every group the entry
// is or was listed under, and the catalog size when entries come or go.
func (h *hooks) catalogCachesForEntry(ctx context.Context, entry *models.CatalogEntry, before *models.CatalogEntry) error {
	groups := entryGroups(entry)
	if before != nil && before != entry {
		groups = append(groups, entryGroups(before)...)
	}
	err := h.Categories.InvalidateFor(ctx, groups...)
	if h.CatalogCount != nil && (before == nil || before == entry) && err == nil {
		err = h.CatalogCount.Invalidate(ctx)
	}
	return bestEffort("invalidate_catalog_caches", err)
}

func entryGroups(e *models.CatalogEntry) []string {
	groups := []string{e.ItemGroup}
	for _, g := range e.WebsiteItemGroups {
		groups = append(groups, g.ItemGroup)
	}
	return groups
}

// keepTreeBounds carries the stored bounds over when a write leaves them
// unset. Only the tree rebuild assigns bounds.
func keepTreeBounds(_ context.Context, g *models.ItemGroup, before *models.ItemGroup) error {
	if before != nil && g.Lft == 0 && g.Rgt == 0 {
		g.Lft, g.Rgt = before.Lft, before.Rgt
	}
	return nil
}

func (h *hooks) validateItemGroup(ctx context.Context, g *models.ItemGroup, _ *models.ItemGroup) error {
	if err := filter_builder.ValidateFields("item_group.validate", g.FilterFields); err != nil {
		return err
	}
	return h.Categories.ValidateParent(ctx, g)
}

// rebuildTree recomputes the nested bounds when the group is new or moved,
// and hands the new bounds back to the caller's record.
func (h *hooks) rebuildTree(ctx context.Context, g *models.ItemGroup, before *models.ItemGroup) error {
	groups := []string{g.Name}
	if before == nil || before.ParentItemGroup != g.ParentItemGroup {
		if err := h.Categories.Rebuild(ctx); err != nil {
			return err
		}
		rebuilt, ok, err := h.Categories.Get(ctx, g.Name)
		if err != nil {
			return err
		}
		if ok {
			g.Lft, g.Rgt = rebuilt.Lft, rebuilt.Rgt
		}
		if before != nil {
			groups = append(groups, before.ParentItemGroup)
		}
	}
	return bestEffort("rebuild_tree", h.Categories.InvalidateFor(ctx, groups...))
}

func (h *hooks) blockDeleteWithChildren(ctx context.Context, g *models.ItemGroup, _ *models.ItemGroup) error {
	has, err := h.Categories.HasChildren(ctx, g.Name)
	if err != nil {
		return err
	}
	if has {
		return apperrors.Validation("item_group.delete",
			"Cannot delete an Item Group that has child groups", nil).WithTitle("Not Allowed")
	}
	return nil
}

func (h *hooks) itemGroupDeleted(ctx context.Context, g *models.ItemGroup, _ *models.ItemGroup) error {
	return bestEffort("invalidate_item_group_cache", h.Categories.InvalidateFor(ctx, g.Name, g.ParentItemGroup))
}

// priceListImpact revalidates the settings when the cart's price list
// changes currency.
func (h *hooks) priceListImpact(ctx context.Context, pl *models.PriceList, before *models.PriceList) error {
	if before == nil || before.Currency == pl.Currency {
		return nil
	}
	st, err := h.Settings.Get(ctx)
	if err != nil {
		return err
	}
	if st.PriceList != pl.Name {
		return nil
	}
	return h.Settings.Validate(ctx, st)
}

func (h *hooks) taxTemplateImpact(ctx context.Context, _ *models.SalesTaxTemplate, _ *models.SalesTaxTemplate) error {
	st, err := h.Settings.Get(ctx)
	if err != nil {
		return err
	}
	return h.Settings.Validate(ctx, st)
}

func (h *hooks) validateSettings(ctx context.Context, st *models.WebshopSettings, _ *models.WebshopSettings) error {
	st.Name = models.WebshopSettingsKey
	return h.Settings.Validate(ctx, *st)
}

func (h *hooks) settingsSaved(ctx context.Context, _ *models.WebshopSettings, _ *models.WebshopSettings) error {
	if h.Options == nil {
		return nil
	}
	return bestEffort("invalidate_filter_options", h.Options.InvalidateGroups(ctx))
}
