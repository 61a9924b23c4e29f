package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
)

func newService(t *testing.T) (*Service, *repositories.Set) {
	t.Helper()
	ctx := context.Background()
	repos := repositories.NewMemory(nil)

	require.NoError(t, repos.PriceLists.Save(ctx, &models.PriceList{Name: "Standard Selling", Currency: "USD", Enabled: true, Selling: true}))
	for _, it := range []models.Item{
		{ItemCode: "TSHIRT", ItemGroup: "Shirts", Brand: "Acme", HasVariants: true},
		{ItemCode: "TSHIRT-RED", ItemGroup: "Shirts", Brand: "Acme", VariantOf: "TSHIRT"},
		{ItemCode: "CAP", ItemGroup: "Hats", Brand: "Zest"},
		{ItemCode: "SOCKS", ItemGroup: "Hosiery"},
	} {
		it := it
		require.NoError(t, repos.Items.Save(ctx, &it))
	}
	for _, p := range []models.ItemPrice{
		{Name: "P-1", ItemCode: "TSHIRT", PriceList: "Standard Selling", PriceListRate: 20},
		{Name: "P-2", ItemCode: "CAP", PriceList: "Standard Selling", PriceListRate: 10},
		{Name: "P-3", ItemCode: "CAP", PriceList: "Standard Selling", Customer: "CUST-VIP", PriceListRate: 8},
	} {
		p := p
		require.NoError(t, repos.ItemPrices.Save(ctx, &p))
	}

	svc := New(repos.Items, repos.PriceLists, repos.ItemPrices, repos.PricingRules)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repos
}

func TestGetListRate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	price, err := svc.Get(ctx, Request{ItemCode: "CAP", PriceList: "Standard Selling"})
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 10.0, price.PriceListRate)
	assert.Equal(t, "USD", price.Currency)
	assert.NotEmpty(t, price.FormattedPrice)
	assert.Empty(t, price.FormattedMRP)
	assert.Nil(t, price.DiscountPercent)

	// Customer-specific price rows beat the general row.
	price, err = svc.Get(ctx, Request{ItemCode: "CAP", PriceList: "Standard Selling", Customer: "CUST-VIP"})
	require.NoError(t, err)
	assert.Equal(t, 8.0, price.PriceListRate)

	// Variants fall back to the template's price.
	price, err = svc.Get(ctx, Request{ItemCode: "TSHIRT-RED", PriceList: "Standard Selling"})
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "TSHIRT-RED", price.ItemCode)
	assert.Equal(t, 20.0, price.PriceListRate)

	for _, req := range []Request{
		{ItemCode: "SOCKS", PriceList: "Standard Selling"},
		{ItemCode: "NOPE", PriceList: "Standard Selling"},
		{ItemCode: "CAP"},
	} {
		price, err = svc.Get(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, price, req.ItemCode)
	}
}

func TestPricingRuleSpecificity(t *testing.T) {
	svc, repos := newService(t)
	ctx := context.Background()

	for _, r := range []models.PricingRule{
		{Name: "everyone", Selling: true, RateOrDiscount: models.DiscountPercentage, DiscountPercentage: 5, Priority: 9},
		{Name: "shirts", Selling: true, ItemGroup: "Shirts", RateOrDiscount: models.DiscountPercentage, DiscountPercentage: 10},
		{Name: "tshirt", Selling: true, ItemCode: "TSHIRT", RateOrDiscount: models.DiscountPercentage, DiscountPercentage: 15},
		{Name: "retail", Selling: true, CustomerGroup: "Retail", RateOrDiscount: models.DiscountPercentage, DiscountPercentage: 20},
		{Name: "vip", Selling: true, Customer: "CUST-VIP", RateOrDiscount: models.DiscountPercentage, DiscountPercentage: 25},
		{Name: "disabled", Disabled: true, Selling: true, Customer: "CUST-VIP", DiscountPercentage: 90},
		{Name: "expired", Selling: true, Customer: "CUST-VIP", DiscountPercentage: 80,
			ValidUpto: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)},
	} {
		r := r
		require.NoError(t, repos.PricingRules.Save(ctx, &r))
	}

	tests := []struct {
		name     string
		req      Request
		wantRule string
		wantRate float64
	}{
		{"item code beats group", Request{ItemCode: "TSHIRT"}, "tshirt", 17},
		{"variant matches template rule", Request{ItemCode: "TSHIRT-RED"}, "tshirt", 17},
		{"general rule", Request{ItemCode: "CAP"}, "everyone", 9.5},
		{"customer group beats item", Request{ItemCode: "TSHIRT", CustomerGroup: "Retail"}, "retail", 16},
		{"customer beats customer group", Request{ItemCode: "TSHIRT", Customer: "CUST-VIP", CustomerGroup: "Retail"}, "vip", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.PriceList = "Standard Selling"
			price, err := svc.Get(ctx, tt.req)
			require.NoError(t, err)
			require.NotNil(t, price)
			assert.Equal(t, tt.wantRule, price.PricingRule)
			assert.InDelta(t, tt.wantRate, price.PriceListRate, 0.0001)
			require.NotNil(t, price.DiscountPercent)
			assert.NotEmpty(t, price.FormattedMRP)
		})
	}
}

func TestRateAndAmountRules(t *testing.T) {
	svc, repos := newService(t)
	ctx := context.Background()

	require.NoError(t, repos.PricingRules.Save(ctx, &models.PricingRule{
		Name: "cap-rate", Selling: true, ItemCode: "CAP", RateOrDiscount: models.RateOverride, Rate: 7,
	}))
	require.NoError(t, repos.PricingRules.Save(ctx, &models.PricingRule{
		Name: "tshirt-off", Selling: true, ItemCode: "TSHIRT", RateOrDiscount: models.DiscountAmount, DiscountAmount: 4,
	}))
	require.NoError(t, repos.PricingRules.Save(ctx, &models.PricingRule{
		Name: "bulk", Selling: true, ItemCode: "TSHIRT", Priority: 5, MinQty: 10,
		RateOrDiscount: models.DiscountPercentage, DiscountPercentage: 50,
	}))

	price, err := svc.Get(ctx, Request{ItemCode: "CAP", PriceList: "Standard Selling"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, price.PriceListRate)
	assert.Equal(t, 10.0, price.MRP)
	assert.NotEmpty(t, price.FormattedDiscountRate)
	assert.Nil(t, price.DiscountPercent)

	price, err = svc.Get(ctx, Request{ItemCode: "TSHIRT", PriceList: "Standard Selling", Qty: 1})
	require.NoError(t, err)
	assert.Equal(t, "tshirt-off", price.PricingRule)
	assert.Equal(t, 16.0, price.PriceListRate)

	price, err = svc.Get(ctx, Request{ItemCode: "TSHIRT", PriceList: "Standard Selling", Qty: 12})
	require.NoError(t, err)
	assert.Equal(t, "bulk", price.PricingRule)
	assert.Equal(t, 10.0, price.PriceListRate)
}

func TestFormatMoney(t *testing.T) {
	assert.NotEmpty(t, FormatMoney(12.5, "USD"))
	assert.Equal(t, "12.50 XYZ1", FormatMoney(12.5, "XYZ1"))
	assert.Equal(t, "3.00", FormatMoney(3, ""))
}
