// Package seed loads a small demo catalog: a category tree, priced and
// stocked items with variants, a cart tax rule and enabled cart settings.
// Saving goes through the repositories, so every lifecycle hook runs and
// re-seeding an existing store is safe.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Modeva-Ecommerce/modeva-webshop/app"
	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

const (
	Company   = "Modeva Ltd"
	PriceList = "Standard Selling"
	Warehouse = "Stores - MOD"
	RootGroup = "All Item Groups"
)

type product struct {
	item    models.Item
	price   float64
	stock   float64
	ranking int
}

var groups = []models.ItemGroup{
	{Name: RootGroup, IsGroup: true, ShowInWebsite: true, Route: "all"},
	{Name: "Clothing", ParentItemGroup: RootGroup, IsGroup: true, ShowInWebsite: true, Route: "clothing",
		IncludeDescendants: true, FilterFields: []string{"brand"}, FilterAttributes: []string{"Colour"}},
	{Name: "Shirts", ParentItemGroup: "Clothing", ShowInWebsite: true, Route: "clothing/shirts"},
	{Name: "Outerwear", ParentItemGroup: "Clothing", ShowInWebsite: true, Route: "clothing/outerwear"},
	{Name: "Home", ParentItemGroup: RootGroup, ShowInWebsite: true, Route: "home"},
}

var products = []product{
	{item: models.Item{ItemCode: "OXFORD", ItemName: "Oxford Shirt", ItemGroup: "Shirts", Brand: "Modeva",
		Description: "Button-down oxford cotton shirt", StockUOM: "Nos", IsStockItem: true, HasVariants: true},
		price: 45, ranking: 10},
	{item: models.Item{ItemCode: "OXFORD-WHT", ItemName: "Oxford Shirt White", ItemGroup: "Shirts", Brand: "Modeva",
		StockUOM: "Nos", IsStockItem: true, VariantOf: "OXFORD",
		Attributes: []models.ItemVariantAttribute{{Attribute: "Colour", AttributeValue: "White"}}},
		stock: 12},
	{item: models.Item{ItemCode: "OXFORD-BLU", ItemName: "Oxford Shirt Blue", ItemGroup: "Shirts", Brand: "Modeva",
		StockUOM: "Nos", IsStockItem: true, VariantOf: "OXFORD",
		Attributes: []models.ItemVariantAttribute{{Attribute: "Colour", AttributeValue: "Blue"}}},
		stock: 4},
	{item: models.Item{ItemCode: "POLO", ItemName: "Piqué Polo", ItemGroup: "Shirts", Brand: "Northline",
		Description: "Short sleeve piqué polo", StockUOM: "Nos", IsStockItem: true,
		Attributes: []models.ItemVariantAttribute{{Attribute: "Colour", AttributeValue: "Navy"}}},
		price: 30, stock: 25, ranking: 8},
	{item: models.Item{ItemCode: "PARKA", ItemName: "Field Parka", ItemGroup: "Outerwear", Brand: "Northline",
		Description: "Water resistant field parka", StockUOM: "Nos", IsStockItem: true,
		Attributes: []models.ItemVariantAttribute{{Attribute: "Colour", AttributeValue: "Olive"}}},
		price: 180, stock: 0, ranking: 5},
	{item: models.Item{ItemCode: "MUG", ItemName: "Stoneware Mug", ItemGroup: "Home", Brand: "Modeva",
		Description: "Hand glazed stoneware mug", StockUOM: "Nos", IsStockItem: true},
		price: 12, stock: 40, ranking: 1},
}

// Demo writes the demo catalog through the app's repositories.
func Demo(ctx context.Context, a *app.App) error {
	r := a.Repos

	if err := r.Companies.Save(ctx, &models.Company{Name: Company, DefaultCurrency: "USD", Country: "United States"}); err != nil {
		return fmt.Errorf("company: %w", err)
	}
	if err := r.Warehouses.Save(ctx, &models.Warehouse{Name: Warehouse, Company: Company}); err != nil {
		return fmt.Errorf("warehouse: %w", err)
	}
	if err := r.PriceLists.Save(ctx, &models.PriceList{Name: PriceList, Currency: "USD", Enabled: true, Selling: true}); err != nil {
		return fmt.Errorf("price list: %w", err)
	}

	for i := range groups {
		g := groups[i]
		if err := r.ItemGroups.Save(ctx, &g); err != nil {
			return fmt.Errorf("item group %s: %w", g.Name, err)
		}
	}

	for _, p := range products {
		it := p.item
		if err := r.Items.Save(ctx, &it); err != nil {
			return fmt.Errorf("item %s: %w", it.ItemCode, err)
		}
		if p.price > 0 {
			if err := r.ItemPrices.Save(ctx, &models.ItemPrice{
				Name: "PRICE-" + it.ItemCode, ItemCode: it.ItemCode, PriceList: PriceList, Currency: "USD", PriceListRate: p.price,
			}); err != nil {
				return fmt.Errorf("item price %s: %w", it.ItemCode, err)
			}
		}
		if it.VariantOf != "" || it.HasVariants || p.stock > 0 {
			if err := r.Bins.Save(ctx, &models.Bin{
				Name: models.BinKey(it.ItemCode, Warehouse), ItemCode: it.ItemCode, Warehouse: Warehouse, ActualQty: p.stock,
			}); err != nil {
				return fmt.Errorf("bin %s: %w", it.ItemCode, err)
			}
		}
		if it.VariantOf != "" {
			continue
		}
		if err := publish(ctx, a, it.ItemCode, p.ranking); err != nil {
			return err
		}
	}

	if err := r.PricingRules.Save(ctx, &models.PricingRule{
		Name: "Outerwear Sale", Title: "Outerwear 20% off", Selling: true, ItemGroup: "Outerwear",
		RateOrDiscount: models.DiscountPercentage, DiscountPercentage: 20, Priority: 1,
	}); err != nil {
		return fmt.Errorf("pricing rule: %w", err)
	}

	if err := r.SalesTaxTemplates.Save(ctx, &models.SalesTaxTemplate{
		Name: "US Sales Tax", Title: "US Sales Tax", Company: Company,
		Taxes: []models.SalesTaxTemplateRow{{Idx: 1, ChargeType: models.ChargeOnNetTotal, AccountHead: "Sales Tax", Description: "Sales Tax 8%", Rate: 8}},
	}); err != nil {
		return fmt.Errorf("sales tax template: %w", err)
	}
	if err := r.TaxRules.Save(ctx, &models.TaxRule{
		Name: "Cart Sales Tax", SalesTaxTemplate: "US Sales Tax", UseForShoppingCart: true, Company: Company,
	}); err != nil {
		return fmt.Errorf("tax rule: %w", err)
	}

	st, err := a.Settings.Get(ctx)
	if err != nil {
		return err
	}
	st.Enabled = true
	st.Company = Company
	st.PriceList = PriceList
	st.DefaultCustomerGroup = "Individual"
	st.ShowPrice = true
	st.ShowStockAvailability = true
	st.EnableFieldFilters = true
	st.FilterFields = []string{"brand", "item_group"}
	st.EnableAttributeFilters = true
	st.FilterAttributes = []string{"Colour"}
	st.EnableWishlist = true
	st.EnableReviews = true
	st.HideVariants = true
	if err := a.Settings.Save(ctx, &st); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}

// publish lists itemCode on the website unless it already is, then sets the
// listing's ranking and stock warehouse.
func publish(ctx context.Context, a *app.App, itemCode string, ranking int) error {
	entry, err := a.Catalog.MakeCatalogEntry(ctx, itemCode)
	if errors.Is(err, apperrors.ErrDuplicateCatalogItem) {
		var ok bool
		entry, ok, err = a.Catalog.EntryFor(ctx, itemCode)
		if err == nil && !ok {
			err = apperrors.NotFound("seed.publish", itemCode)
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", itemCode, err)
	}
	entry.Ranking = ranking
	entry.WebsiteWarehouse = Warehouse
	if err := a.Repos.CatalogEntries.Save(ctx, &entry); err != nil {
		return fmt.Errorf("catalog entry %s: %w", itemCode, err)
	}
	return nil
}
