package crud_events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/cache/redis_cache"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/catalog"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/category_tree"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/party"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/pricing"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/settings"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/shopping_cart"
)

type env struct {
	hooks    *events.Dispatcher
	repos    *repositories.Set
	settings *settings.Service
	count    *redis_cache.CatalogCount
}

func setup(t *testing.T) *env {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	hooks := events.NewDispatcher(nil)
	repos := repositories.NewMemory(hooks)
	options := redis_cache.NewFilterOptions(client, time.Minute)
	count := redis_cache.NewCatalogCount(client, time.Minute)
	st := settings.New(repos)

	Register(hooks, Deps{
		Settings: st,
		Catalog:  catalog.New(repos, redis_cache.NewItemVariants(client)),
		Cart: shopping_cart.New(repos,
			pricing.New(repos.Items, repos.PriceLists, repos.ItemPrices, repos.PricingRules),
			party.New(repos.Contacts, repos.Customers),
			st),
		Categories:   category_tree.New(repos.ItemGroups, nil, options),
		Options:      options,
		CatalogCount: count,
	})
	return &env{hooks: hooks, repos: repos, settings: st, count: count}
}

// seedCart stores what an enabled cart needs.
func (e *env) seedCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.repos.Companies.Save(ctx, &models.Company{Name: "Modeva Ltd", DefaultCurrency: "USD"}))
	require.NoError(t, e.repos.PriceLists.Save(ctx, &models.PriceList{Name: "Standard Selling", Currency: "USD", Enabled: true, Selling: true}))
	require.NoError(t, e.repos.SalesTaxTemplates.Save(ctx, &models.SalesTaxTemplate{Name: "VAT 10"}))
	require.NoError(t, e.repos.TaxRules.Save(ctx, &models.TaxRule{Name: "Cart VAT", SalesTaxTemplate: "VAT 10", UseForShoppingCart: true}))
}

func enabledSettings() *models.WebshopSettings {
	return &models.WebshopSettings{
		Enabled:              true,
		Company:              "Modeva Ltd",
		PriceList:            "Standard Selling",
		DefaultCustomerGroup: "Individual",
	}
}

func TestRegisterNamesHandlersInOrder(t *testing.T) {
	e := setup(t)

	assert.Equal(t,
		[]string{"update_catalog_entry", "invalidate_item_variants_cache", "invalidate_item_group_cache"},
		e.hooks.Handlers(models.EntityItem, events.AfterSave))
	assert.Equal(t, []string{"validate_use_for_cart"}, e.hooks.Handlers(models.EntityTaxRule, events.BeforeSave))
	assert.Equal(t, []string{"validate_shopping_cart_items"}, e.hooks.Handlers(models.EntityDraftOrder, events.BeforeSave))
	assert.Equal(t, []string{"block_delete_with_children"}, e.hooks.Handlers(models.EntityItemGroup, events.BeforeDelete))
}

func TestSettingsSaveValidatesCartSetup(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	err := e.settings.Save(ctx, enabledSettings())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfiguration, apperrors.KindOf(err))
	assert.ErrorIs(t, err, apperrors.ErrCartMisconfigured)

	e.seedCart(t)
	require.NoError(t, e.settings.Save(ctx, enabledSettings()))

	st, err := e.settings.Get(ctx)
	require.NoError(t, err)
	assert.True(t, st.Enabled)
}

func TestSettingsSaveRejectsUnknownFilterField(t *testing.T) {
	e := setup(t)

	err := e.settings.Save(context.Background(), &models.WebshopSettings{FilterFields: []string{"brand", "secret_margin"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilterField)
}

func TestPriceListCurrencyChangeIsCheckedAgainstCart(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.seedCart(t)
	require.NoError(t, e.settings.Save(ctx, enabledSettings()))

	pl, err := e.repos.PriceLists.Get(ctx, "Standard Selling")
	require.NoError(t, err)
	pl.Currency = "EUR"
	err = e.repos.PriceLists.Save(ctx, &pl)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCartMisconfigured)

	stored, err := e.repos.PriceLists.Get(ctx, "Standard Selling")
	require.NoError(t, err)
	assert.Equal(t, "USD", stored.Currency)

	require.NoError(t, e.repos.CurrencyExchanges.Save(ctx, &models.CurrencyExchange{
		Name: "EUR-USD", FromCurrency: "EUR", ToCurrency: "USD", ExchangeRate: 1.1,
	}))
	pl.Currency = "EUR"
	require.NoError(t, e.repos.PriceLists.Save(ctx, &pl))
}

func TestItemGroupSaveRebuildsBounds(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	root := &models.ItemGroup{Name: "All Item Groups", IsGroup: true}
	require.NoError(t, e.repos.ItemGroups.Save(ctx, root))
	assert.Equal(t, 1, root.Lft)
	assert.Equal(t, 2, root.Rgt)

	child := &models.ItemGroup{Name: "Clothing", ParentItemGroup: "All Item Groups"}
	require.NoError(t, e.repos.ItemGroups.Save(ctx, child))
	assert.Equal(t, 2, child.Lft)
	assert.Equal(t, 3, child.Rgt)

	stored, err := e.repos.ItemGroups.Get(ctx, "All Item Groups")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rgt)

	err = e.repos.ItemGroups.Save(ctx, &models.ItemGroup{Name: "Hats", ParentItemGroup: "Nowhere"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	err = e.repos.ItemGroups.Save(ctx, &models.ItemGroup{Name: "Hats", ParentItemGroup: "Clothing", FilterFields: []string{"cost_price"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilterField)
}

func TestItemGroupWithChildrenCannotBeDeleted(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.repos.ItemGroups.Save(ctx, &models.ItemGroup{Name: "All Item Groups", IsGroup: true}))
	require.NoError(t, e.repos.ItemGroups.Save(ctx, &models.ItemGroup{Name: "Clothing", ParentItemGroup: "All Item Groups"}))

	err := e.repos.ItemGroups.Delete(ctx, "All Item Groups")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, e.repos.ItemGroups.Delete(ctx, "Clothing"))
	require.NoError(t, e.repos.ItemGroups.Delete(ctx, "All Item Groups"))
}

func TestCatalogEntryTracksPublishedFlag(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.repos.Items.Save(ctx, &models.Item{ItemCode: "MUG", ItemName: "Coffee Mug", ItemGroup: "Kitchen"}))
	require.NoError(t, e.count.Set(ctx, 7))

	require.NoError(t, e.repos.CatalogEntries.Save(ctx, &models.CatalogEntry{
		Name: "WEB-MUG", ItemCode: "MUG", WebItemName: "Coffee Mug", ItemGroup: "Kitchen", Published: true,
	}))

	item, err := e.repos.Items.Get(ctx, "MUG")
	require.NoError(t, err)
	assert.True(t, item.PublishedInWebsite)
	_, ok := e.count.Get(ctx)
	assert.False(t, ok, "catalog size is recounted after a new entry")

	require.NoError(t, e.repos.CatalogEntries.Delete(ctx, "WEB-MUG"))
	item, err = e.repos.Items.Get(ctx, "MUG")
	require.NoError(t, err)
	assert.False(t, item.PublishedInWebsite)
}

func TestListedItemCannotBeMerged(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.repos.Items.Save(ctx, &models.Item{ItemCode: "MUG", ItemName: "Coffee Mug"}))
	require.NoError(t, e.repos.Items.Save(ctx, &models.Item{ItemCode: "CUP", ItemName: "Cup"}))
	require.NoError(t, e.repos.CatalogEntries.Save(ctx, &models.CatalogEntry{Name: "WEB-MUG", ItemCode: "MUG", Published: true}))

	err := e.repos.Items.Rename(ctx, "MUG", "CUP", true)
	assert.ErrorIs(t, err, apperrors.ErrCannotMerge)
}

func TestItemGroupResaveKeepsBounds(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	require.NoError(t, e.repos.ItemGroups.Save(ctx, &models.ItemGroup{Name: "All Item Groups", IsGroup: true}))
	require.NoError(t, e.repos.ItemGroups.Save(ctx, &models.ItemGroup{Name: "Clothing", ParentItemGroup: "All Item Groups"}))

	again := &models.ItemGroup{Name: "Clothing", ParentItemGroup: "All Item Groups", ShowInWebsite: true}
	require.NoError(t, e.repos.ItemGroups.Save(ctx, again))
	assert.Equal(t, 2, again.Lft)
	assert.Equal(t, 3, again.Rgt)

	stored, err := e.repos.ItemGroups.Get(ctx, "Clothing")
	require.NoError(t, err)
	assert.True(t, stored.ShowInWebsite)
	assert.Equal(t, 2, stored.Lft)
}
