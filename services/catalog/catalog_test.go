package catalog

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/cache/redis_cache"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func setup(t *testing.T) (*Service, *repositories.Set, *redis_cache.ItemVariants) {
	t.Helper()
	ctx := context.Background()

	hooks := events.NewDispatcher(nil)
	repos := repositories.NewMemory(hooks)
	variants := redis_cache.NewItemVariants(setupTestRedis(t))
	svc := New(repos, variants)

	events.On(hooks, models.EntityItem, events.AfterSave, "sync_catalog_entry", svc.SyncFromItem)
	events.On(hooks, models.EntityItem, events.AfterSave, "rebuild_item_variants", svc.RebuildVariants)
	events.OnRename(hooks, models.EntityItem, events.BeforeRename, "block_listed_merge", svc.BlockListedMerge)
	events.OnRename(hooks, models.EntityItem, events.AfterRename, "repoint_renamed_item", svc.RepointRenamedItem)

	for _, it := range []models.Item{
		{ItemCode: "MUG", ItemName: "Coffee Mug", ItemGroup: "Kitchen", StockUOM: "Nos", Brand: "Acme"},
		{ItemCode: "OLD-MUG", ItemName: "Old Mug", ItemGroup: "Kitchen", Disabled: true},
		{ItemCode: "CAP", ItemName: "Cap", ItemGroup: "Hats", HasVariants: true},
		{ItemCode: "CAP-RED", ItemName: "Cap Red", VariantOf: "CAP", Attributes: []models.ItemVariantAttribute{{Attribute: "Colour", AttributeValue: "Red"}}},
		{ItemCode: "CAP-BLUE", ItemName: "Cap Blue", VariantOf: "CAP", Attributes: []models.ItemVariantAttribute{{Attribute: "Colour", AttributeValue: "Blue"}}},
	} {
		require.NoError(t, repos.Items.Save(ctx, &it))
	}
	return svc, repos, variants
}

func TestMakeCatalogEntry(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	entry, err := svc.MakeCatalogEntry(ctx, "MUG")
	require.NoError(t, err)
	assert.Equal(t, "MUG", entry.ItemCode)
	assert.Equal(t, "Coffee Mug", entry.WebItemName)
	assert.Equal(t, "Kitchen", entry.ItemGroup)
	assert.Equal(t, "Acme", entry.Brand)
	assert.Equal(t, "kitchen/coffee-mug", entry.Route)
	assert.True(t, entry.Published)

	item, err := repos.Items.Get(ctx, "MUG")
	require.NoError(t, err)
	assert.True(t, item.PublishedInWebsite)

	_, err = svc.MakeCatalogEntry(ctx, "MUG")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCatalogItem)

	_, err = svc.MakeCatalogEntry(ctx, "OLD-MUG")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.MakeCatalogEntry(ctx, "NOPE")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUnpublish(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	_, err := svc.MakeCatalogEntry(ctx, "MUG")
	require.NoError(t, err)
	require.NoError(t, svc.Unpublish(ctx, "MUG"))

	_, ok, err := svc.EntryFor(ctx, "MUG")
	require.NoError(t, err)
	assert.False(t, ok)

	item, err := repos.Items.Get(ctx, "MUG")
	require.NoError(t, err)
	assert.False(t, item.PublishedInWebsite)

	assert.True(t, apperrors.IsNotFound(svc.Unpublish(ctx, "MUG")))
}

func TestItemChangesPropagateToEntry(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	_, err := svc.MakeCatalogEntry(ctx, "MUG")
	require.NoError(t, err)

	item, err := repos.Items.Get(ctx, "MUG")
	require.NoError(t, err)
	item.ItemName = "Travel Mug"
	item.ItemGroup = "Travel"
	require.NoError(t, repos.Items.Save(ctx, &item))

	entry, ok, err := svc.EntryFor(ctx, "MUG")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Travel Mug", entry.ItemName)
	assert.Equal(t, "Travel", entry.ItemGroup)
	// The web name is curated separately and keeps its value.
	assert.Equal(t, "Coffee Mug", entry.WebItemName)
	assert.True(t, entry.Published)

	item.Disabled = true
	require.NoError(t, repos.Items.Save(ctx, &item))
	entry, _, err = svc.EntryFor(ctx, "MUG")
	require.NoError(t, err)
	assert.False(t, entry.Published)
}

func TestMergeOfListedItemsIsBlocked(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, repos.Items.Save(ctx, &models.Item{ItemCode: "MUG-2", ItemName: "Mug Two"}))
	first, err := svc.MakeCatalogEntry(ctx, "MUG")
	require.NoError(t, err)
	_, err = svc.MakeCatalogEntry(ctx, "MUG-2")
	require.NoError(t, err)

	err = repos.Items.Rename(ctx, "MUG", "MUG-2", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCannotMerge)
	assert.Contains(t, err.Error(), "Please delete linked Website Item "+first.Name+" before merging MUG into MUG-2")

	_, err = repos.Items.Get(ctx, "MUG")
	assert.NoError(t, err)
}

func TestRenameRepointsEntryAndPrices(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	entry, err := svc.MakeCatalogEntry(ctx, "MUG")
	require.NoError(t, err)
	require.NoError(t, repos.ItemPrices.Save(ctx, &models.ItemPrice{Name: "P1", ItemCode: "MUG", PriceList: "Standard Selling", PriceListRate: 8}))

	require.NoError(t, repos.Items.Rename(ctx, "MUG", "MUG-V2", false))

	moved, ok, err := svc.EntryFor(ctx, "MUG-V2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Name, moved.Name)

	price, err := repos.ItemPrices.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "MUG-V2", price.ItemCode)
}

func TestRenameTemplateRepointsVariants(t *testing.T) {
	_, repos, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, repos.Items.Rename(ctx, "CAP", "BASEBALL-CAP", false))

	n, err := repos.Items.Count(ctx, store.Filter(store.Where("variant_of", store.OpEq, "BASEBALL-CAP")))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestVariantsCacheFollowsPublishedTemplate(t *testing.T) {
	svc, repos, variants := setup(t)
	ctx := context.Background()

	_, ok, err := variants.Get(ctx, "CAP")
	require.NoError(t, err)
	assert.False(t, ok, "unpublished templates are not cached")

	_, err = svc.MakeCatalogEntry(ctx, "CAP")
	require.NoError(t, err)

	cached, ok, err := variants.Get(ctx, "CAP")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, redis_cache.VariantAttributes{"Colour": "Red"}, cached["CAP-RED"])

	red, err := repos.Items.Get(ctx, "CAP-RED")
	require.NoError(t, err)
	red.Disabled = true
	require.NoError(t, repos.Items.Save(ctx, &red))

	cached, _, err = variants.Get(ctx, "CAP")
	require.NoError(t, err)
	assert.NotContains(t, cached, "CAP-RED")
	assert.Contains(t, cached, "CAP-BLUE")
}

func TestRoute(t *testing.T) {
	assert.Equal(t, "men-s-wear/oxford-shirt-l", Route("Men's Wear", "Oxford Shirt (L)"))
	assert.Equal(t, "cap", Route("", "Cap"))
}
