package shopping_cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/party"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/pricing"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/settings"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const shopperEmail = "jane.doe@example.com"

type fixture struct {
	repos *repositories.Set
	svc   *Service
	st    models.WebshopSettings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	hooks := events.NewDispatcher(nil)
	repos := repositories.NewMemory(hooks)
	svc := New(repos,
		pricing.New(repos.Items, repos.PriceLists, repos.ItemPrices, repos.PricingRules),
		party.New(repos.Contacts, repos.Customers),
		settings.New(repos))

	events.On(hooks, models.EntityDraftOrder, events.BeforeSave, "validate_draft", svc.ValidateDraft)
	events.On(hooks, models.EntityTaxRule, events.BeforeSave, "promote_cart_tax_rule", svc.PromoteCartTaxRule)
	events.On(hooks, models.EntityTaxRule, events.AfterSave, "demote_other_cart_tax_rules", svc.DemoteOtherCartTaxRules)
	events.On(hooks, models.EntityTaxRule, events.AfterDelete, "promote_after_delete", svc.PromoteAfterDelete)

	require.NoError(t, repos.Companies.Save(ctx, &models.Company{Name: "Modeva Ltd", DefaultCurrency: "USD"}))
	require.NoError(t, repos.PriceLists.Save(ctx, &models.PriceList{Name: "Standard Selling", Currency: "USD", Enabled: true, Selling: true}))

	for _, it := range []models.Item{
		{ItemCode: "TSHIRT", ItemName: "T-Shirt", StockUOM: "Nos", IsStockItem: true},
		{ItemCode: "SHIRT", ItemName: "Shirt", StockUOM: "Nos", HasVariants: true},
		{ItemCode: "SHIRT-RED", ItemName: "Shirt Red", StockUOM: "Nos", VariantOf: "SHIRT"},
		{ItemCode: "HIDDEN", ItemName: "Hidden", StockUOM: "Nos"},
	} {
		require.NoError(t, repos.Items.Save(ctx, &it))
	}
	for _, e := range []models.CatalogEntry{
		{Name: "WEB-TSHIRT", ItemCode: "TSHIRT", WebItemName: "Classic Tee", Route: "tshirt", Published: true},
		{Name: "WEB-SHIRT", ItemCode: "SHIRT", WebItemName: "Oxford Shirt", Route: "shirt", Published: true, HasVariants: true},
	} {
		require.NoError(t, repos.CatalogEntries.Save(ctx, &e))
	}
	for _, p := range []models.ItemPrice{
		{Name: "P-TSHIRT", ItemCode: "TSHIRT", PriceList: "Standard Selling", PriceListRate: 20},
		{Name: "P-SHIRT", ItemCode: "SHIRT", PriceList: "Standard Selling", PriceListRate: 30},
		{Name: "P-HIDDEN", ItemCode: "HIDDEN", PriceList: "Standard Selling", PriceListRate: 5},
	} {
		require.NoError(t, repos.ItemPrices.Save(ctx, &p))
	}

	require.NoError(t, repos.SalesTaxTemplates.Save(ctx, &models.SalesTaxTemplate{
		Name:  "VAT 10",
		Taxes: []models.SalesTaxTemplateRow{{Idx: 1, ChargeType: models.ChargeOnNetTotal, AccountHead: "VAT", Rate: 10}},
	}))
	require.NoError(t, repos.TaxRules.Save(ctx, &models.TaxRule{Name: "Cart VAT", SalesTaxTemplate: "VAT 10", UseForShoppingCart: true}))

	return &fixture{
		repos: repos,
		svc:   svc,
		st: models.WebshopSettings{
			Name:                 models.WebshopSettingsKey,
			Enabled:              true,
			Company:              "Modeva Ltd",
			PriceList:            "Standard Selling",
			DefaultCustomerGroup: "Individual",
		},
	}
}

func shopper() models.Shopper {
	return models.Shopper{User: shopperEmail}
}

// resolve returns the shopper as the request middleware sees it once a
// customer exists.
func (f *fixture) resolve(t *testing.T) models.Shopper {
	t.Helper()
	s, err := f.svc.party.Resolve(context.Background(), shopperEmail, f.st, false)
	require.NoError(t, err)
	return s
}

func TestUpdateCartCreatesDraftAndComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 2)
	require.NoError(t, err)
	require.NotNil(t, cart.Doc)
	require.Len(t, cart.Items, 1)

	line := cart.Items[0]
	assert.Equal(t, "TSHIRT", line.ItemCode)
	assert.Equal(t, "Classic Tee", line.WebItemName)
	assert.Equal(t, 1, line.Idx)
	assert.InDelta(t, 20.0, line.Rate, 0.001)
	assert.InDelta(t, 40.0, line.Amount, 0.001)

	doc := cart.Doc
	assert.Equal(t, models.DraftOrderDraft, doc.Status)
	assert.Equal(t, models.OrderTypeShoppingCart, doc.OrderType)
	assert.Equal(t, "USD", doc.Currency)
	assert.Equal(t, "VAT 10", doc.TaxesAndCharges)
	assert.InDelta(t, 40.0, doc.NetTotal, 0.001)
	assert.InDelta(t, 4.0, doc.TotalTaxes, 0.001)
	assert.InDelta(t, 44.0, doc.GrandTotal, 0.001)
	require.Len(t, doc.Taxes, 1)
	assert.InDelta(t, 44.0, doc.Taxes[0].Total, 0.001)
	assert.Equal(t, 2, cart.CartCount)

	customers, err := f.repos.Customers.Count(ctx, store.PredicateSet{})
	require.NoError(t, err)
	assert.Equal(t, 1, customers)
}

func TestUpdateCartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 3)
	require.NoError(t, err)
	second, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 3)
	require.NoError(t, err)

	assert.Equal(t, first.Doc.Name, second.Doc.Name)
	require.Len(t, second.Items, 1)
	assert.InDelta(t, first.Doc.GrandTotal, second.Doc.GrandTotal, 0.001)
	assert.InDelta(t, 3.0, second.Items[0].Qty, 0.001)

	drafts, err := f.repos.DraftOrders.Count(ctx, store.PredicateSet{})
	require.NoError(t, err)
	assert.Equal(t, 1, drafts)
}

func TestRemovingLastLineKeepsEmptyDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 1)
	require.NoError(t, err)

	removed, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 0)
	require.NoError(t, err)
	require.NotNil(t, removed.Doc)
	assert.Equal(t, added.Doc.Name, removed.Doc.Name)
	assert.Empty(t, removed.Items)
	assert.Zero(t, removed.Doc.NetTotal)
	assert.Zero(t, removed.Doc.GrandTotal)
	assert.Zero(t, removed.CartCount)

	again, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 1)
	require.NoError(t, err)
	assert.Equal(t, added.Doc.Name, again.Doc.Name)
	assert.InDelta(t, added.Doc.GrandTotal, again.Doc.GrandTotal, 0.001)
}

func TestRemovingWithoutDraftIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cart, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 0)
	require.NoError(t, err)
	assert.Nil(t, cart.Doc)
	assert.Empty(t, cart.Items)

	drafts, err := f.repos.DraftOrders.Count(ctx, store.PredicateSet{})
	require.NoError(t, err)
	assert.Zero(t, drafts)
}

func TestRemovingUnknownItemFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateCart(ctx, shopper(), f.st, "NO-SUCH-ITEM", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)

	cart, err := f.svc.GetCart(ctx, f.resolve(t))
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestRemovingDeletedOrUnpublishedItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 1)
	require.NoError(t, err)
	_, err = f.svc.UpdateCart(ctx, shopper(), f.st, "SHIRT-RED", 1)
	require.NoError(t, err)

	entry, err := f.repos.CatalogEntries.Get(ctx, "WEB-TSHIRT")
	require.NoError(t, err)
	entry.Published = false
	require.NoError(t, f.repos.CatalogEntries.Save(ctx, &entry))

	cart, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	require.NoError(t, f.repos.Items.Delete(ctx, "SHIRT-RED"))

	cart, err = f.svc.UpdateCart(ctx, shopper(), f.st, "SHIRT-RED", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestVariantUsesTemplateListingAndPrice(t *testing.T) {
	f := newFixture(t)

	cart, err := f.svc.UpdateCart(context.Background(), shopper(), f.st, "SHIRT-RED", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "SHIRT-RED", cart.Items[0].ItemCode)
	assert.Equal(t, "Oxford Shirt", cart.Items[0].WebItemName)
	assert.InDelta(t, 30.0, cart.Items[0].Rate, 0.001)
}

func TestUpdateCartRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateCart(ctx, shopper(), f.st, "HIDDEN", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = f.svc.UpdateCart(ctx, shopper(), f.st, "NOPE", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)

	_, err = f.svc.UpdateCart(ctx, models.Shopper{User: models.GuestUser}, f.st, "TSHIRT", 1)
	assert.Equal(t, apperrors.KindLoginRequired, apperrors.KindOf(err))

	_, err = f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", -1)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	disabled := f.st
	disabled.Enabled = false
	_, err = f.svc.UpdateCart(ctx, shopper(), disabled, "TSHIRT", 1)
	assert.ErrorIs(t, err, apperrors.ErrCartMisconfigured)
}

func TestRequestForQuotationSubmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 2)
	require.NoError(t, err)

	name, err := f.svc.RequestForQuotation(ctx, f.resolve(t), f.st)
	require.NoError(t, err)
	assert.Equal(t, added.Doc.Name, name)

	order, err := f.repos.DraftOrders.Get(ctx, name)
	require.NoError(t, err)
	assert.True(t, order.IsSubmitted())
	assert.NotNil(t, order.SubmittedAt)

	// The submitted order is no longer the open cart.
	cart, err := f.svc.GetCart(ctx, f.resolve(t))
	require.NoError(t, err)
	assert.Nil(t, cart.Doc)

	order.Items[0].Qty = 10
	err = f.repos.DraftOrders.Save(ctx, &order)
	assert.Equal(t, apperrors.KindImmutable, apperrors.KindOf(err))
}

func TestRequestForQuotationKeepsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.st.SaveQuotationsAsDraft = true

	added, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 1)
	require.NoError(t, err)

	name, err := f.svc.RequestForQuotation(ctx, f.resolve(t), f.st)
	require.NoError(t, err)
	assert.Equal(t, added.Doc.Name, name)

	order, err := f.repos.DraftOrders.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, models.DraftOrderDraft, order.Status)
	assert.Nil(t, order.SubmittedAt)
}

func TestRequestForQuotationRejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestForQuotation(ctx, shopper(), f.st)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	_, err = f.svc.RequestForQuotation(ctx, models.Shopper{}, f.st)
	assert.Equal(t, apperrors.KindLoginRequired, apperrors.KindOf(err))

	_, err = f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 1)
	require.NoError(t, err)
	_, err = f.svc.UpdateCart(ctx, f.resolve(t), f.st, "TSHIRT", 0)
	require.NoError(t, err)

	_, err = f.svc.RequestForQuotation(ctx, f.resolve(t), f.st)
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

func TestCartOrdersRejectUnlistedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := models.DraftOrder{
		Name:             "QTN-manual",
		PartyName:        "CUST-1",
		ContactEmail:     shopperEmail,
		OrderType:        models.OrderTypeShoppingCart,
		SellingPriceList: "Standard Selling",
		Items:            []models.DraftOrderItem{{ItemCode: "TSHIRT", Qty: 1}, {ItemCode: "HIDDEN", Qty: 1}},
	}
	err := f.repos.DraftOrders.Save(ctx, &order)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)
	assert.Contains(t, err.Error(), "Row #2: Item HIDDEN must have a Website Item")
}

func flaggedRules(t *testing.T, repos *repositories.Set) []string {
	t.Helper()
	rules, err := repos.TaxRules.Query(context.Background(), store.Query{
		Filters: store.Filter(store.Where("use_for_shopping_cart", store.OpEq, true)),
		OrderBy: []store.Order{{Field: "name"}},
	})
	require.NoError(t, err)
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

func TestCartTaxRuleStaysUnique(t *testing.T) {
	f := newFixture(t)
	ctx := events.WithNotices(context.Background())

	// Settings are still disabled, so deleting the only flagged rule is allowed.
	require.NoError(t, f.repos.TaxRules.Delete(ctx, "Cart VAT"))
	assert.Empty(t, flaggedRules(t, f.repos))

	require.NoError(t, f.repos.Settings.Save(ctx, &f.st))

	b := models.TaxRule{Name: "Rule B", SalesTaxTemplate: "VAT 10"}
	require.NoError(t, f.repos.TaxRules.Save(ctx, &b))
	assert.True(t, b.UseForShoppingCart)
	assert.Equal(t, []string{"Rule B"}, flaggedRules(t, f.repos))
	require.Len(t, events.Notices(ctx), 1)

	c := models.TaxRule{Name: "Rule C", SalesTaxTemplate: "VAT 10", UseForShoppingCart: true}
	require.NoError(t, f.repos.TaxRules.Save(ctx, &c))
	assert.Equal(t, []string{"Rule C"}, flaggedRules(t, f.repos))

	d := models.TaxRule{Name: "Rule D", SalesTaxTemplate: "VAT 10"}
	require.NoError(t, f.repos.TaxRules.Save(ctx, &d))
	assert.False(t, d.UseForShoppingCart)
	assert.Equal(t, []string{"Rule C"}, flaggedRules(t, f.repos))

	require.NoError(t, f.repos.TaxRules.Delete(ctx, "Rule C"))
	assert.Len(t, flaggedRules(t, f.repos), 1)
}

func TestRetryOnVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calls := 0
	_, err := f.svc.retry(ctx, "test", func() (*models.DraftOrder, error) {
		calls++
		if calls == 1 {
			return nil, apperrors.Conflict("test", "changed")
		}
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	_, err = f.svc.retry(ctx, "test", func() (*models.DraftOrder, error) {
		calls++
		return nil, apperrors.Conflict("test", "changed")
	})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, 1+conflictRetries, calls)
}

func TestStaleDraftSaveConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.UpdateCart(ctx, shopper(), f.st, "TSHIRT", 1)
	require.NoError(t, err)

	stale, err := f.repos.DraftOrders.Get(ctx, added.Doc.Name)
	require.NoError(t, err)

	_, err = f.svc.UpdateCart(ctx, f.resolve(t), f.st, "TSHIRT", 2)
	require.NoError(t, err)

	stale.Items[0].Qty = 5
	err = f.repos.DraftOrders.Save(ctx, &stale)
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
}
