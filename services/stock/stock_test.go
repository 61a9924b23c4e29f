package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
)

var today = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	repos *repositories.Set
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repos := repositories.NewMemory(nil)

	for _, w := range []models.Warehouse{
		{Name: "All Warehouses", IsGroup: true},
		{Name: "Stores", ParentWarehouse: "All Warehouses", IsGroup: true},
		{Name: "Main", ParentWarehouse: "All Warehouses"},
		{Name: "Shop A", ParentWarehouse: "Stores"},
		{Name: "Shop B", ParentWarehouse: "Stores"},
		{Name: "Closed", ParentWarehouse: "Stores", Disabled: true},
	} {
		w := w
		require.NoError(t, repos.Warehouses.Save(ctx, &w))
	}
	for _, it := range []models.Item{
		{ItemCode: "MUG", IsStockItem: true},
		{ItemCode: "TEA", IsStockItem: true, SalesUOM: "Box",
			UOMs: []models.UOMConversion{{UOM: "Box", ConversionFactor: 4}}},
		{ItemCode: "TSHIRT", IsStockItem: true, HasVariants: true},
		{ItemCode: "TSHIRT-RED", IsStockItem: true, VariantOf: "TSHIRT"},
		{ItemCode: "GIFT-CARD"},
		{ItemCode: "GIFT-SET"},
	} {
		it := it
		require.NoError(t, repos.Items.Save(ctx, &it))
	}
	for _, e := range []models.CatalogEntry{
		{Name: "W-MUG", ItemCode: "MUG", WebsiteWarehouse: "Main", Published: true},
		{Name: "W-TEA", ItemCode: "TEA", WebsiteWarehouse: "Stores", Published: true},
		{Name: "W-TSHIRT", ItemCode: "TSHIRT", WebsiteWarehouse: "Main", Published: true},
		{Name: "W-SET", ItemCode: "GIFT-SET", WebsiteWarehouse: "Main", Published: true},
	} {
		e := e
		require.NoError(t, repos.CatalogEntries.Save(ctx, &e))
	}
	for _, b := range []models.Bin{
		{ItemCode: "MUG", Warehouse: "Main", ActualQty: 2},
		{ItemCode: "TEA", Warehouse: "Shop A", ActualQty: 12},
		{ItemCode: "TEA", Warehouse: "Shop B", ActualQty: 8},
		{ItemCode: "TEA", Warehouse: "Closed", ActualQty: 400},
		{ItemCode: "TSHIRT-RED", Warehouse: "Main", ActualQty: 3},
	} {
		b := b
		b.Name = models.BinKey(b.ItemCode, b.Warehouse)
		require.NoError(t, repos.Bins.Save(ctx, &b))
	}
	require.NoError(t, repos.ProductBundles.Save(ctx, &models.ProductBundle{
		NewItemCode: "GIFT-SET",
		Items:       []models.ProductBundleItem{{ItemCode: "MUG", Qty: 1}, {ItemCode: "TSHIRT-RED", Qty: 1}},
	}))

	svc := New(repos)
	svc.now = func() time.Time { return today }
	return fixture{svc: svc, repos: repos}
}

func TestResolveWebsiteWarehouse(t *testing.T) {
	f := newFixture(t)

	avail, err := f.svc.Resolve(context.Background(), "MUG", "")
	require.NoError(t, err)
	assert.True(t, avail.InStock)
	require.NotNil(t, avail.StockQty)
	assert.Equal(t, 2.0, *avail.StockQty)
}

func TestResolveWithoutWarehouseReportsNoQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.repos.CatalogEntries.Get(ctx, "W-MUG")
	require.NoError(t, err)
	entry.WebsiteWarehouse = ""
	require.NoError(t, f.repos.CatalogEntries.Save(ctx, &entry))

	avail, err := f.svc.Resolve(ctx, "MUG", "")
	require.NoError(t, err)
	assert.False(t, avail.InStock)
	assert.Nil(t, avail.StockQty)
	assert.True(t, avail.IsStockItem)
}

func TestResolveVariantUsesTemplateWarehouse(t *testing.T) {
	f := newFixture(t)

	avail, err := f.svc.Resolve(context.Background(), "TSHIRT-RED", "")
	require.NoError(t, err)
	assert.True(t, avail.InStock)
	assert.Equal(t, 3.0, *avail.StockQty)
}

func TestResolveGroupWarehouseConvertsToSalesUOM(t *testing.T) {
	f := newFixture(t)

	avail, err := f.svc.Resolve(context.Background(), "TEA", "")
	require.NoError(t, err)
	// (12 + 8) units in enabled leaves, 4 per box; the disabled warehouse is ignored.
	assert.Equal(t, 5.0, *avail.StockQty)
}

func TestResolveSubtractsExpiredBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, b := range []models.Batch{
		{Name: "B-OLD", Item: "MUG", ExpiryDate: today.Add(-48 * time.Hour),
			Stock: []models.BatchStock{{Warehouse: "Main", Qty: 1}}},
		{Name: "B-TODAY", Item: "MUG", ExpiryDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Stock: []models.BatchStock{{Warehouse: "Main", Qty: 5}, {Warehouse: "Shop A", Qty: 9}}},
		{Name: "B-FRESH", Item: "MUG", ExpiryDate: today.AddDate(0, 1, 0),
			Stock: []models.BatchStock{{Warehouse: "Main", Qty: 2}}},
	} {
		b := b
		require.NoError(t, f.repos.Batches.Save(ctx, &b))
	}

	avail, err := f.svc.Resolve(ctx, "MUG", "")
	require.NoError(t, err)
	assert.False(t, avail.InStock)
	require.NotNil(t, avail.StockQty)
	assert.Equal(t, 0.0, *avail.StockQty)
}

func TestResolveNonStockAndBundles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avail, err := f.svc.Resolve(ctx, "GIFT-CARD", "")
	require.NoError(t, err)
	assert.True(t, avail.InStock)
	assert.Nil(t, avail.StockQty)

	avail, err = f.svc.Resolve(ctx, "GIFT-SET", "")
	require.NoError(t, err)
	assert.True(t, avail.InStock)

	bin, err := f.repos.Bins.Get(ctx, models.BinKey("TSHIRT-RED", "Main"))
	require.NoError(t, err)
	bin.ActualQty = 0
	require.NoError(t, f.repos.Bins.Save(ctx, &bin))

	avail, err = f.svc.Resolve(ctx, "GIFT-SET", "")
	require.NoError(t, err)
	assert.False(t, avail.InStock)
}

func TestResolveUnknownItem(t *testing.T) {
	f := newFixture(t)
	avail, err := f.svc.Resolve(context.Background(), "NOPE", "")
	require.NoError(t, err)
	assert.False(t, avail.InStock)
}
