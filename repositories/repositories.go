// Package repositories wires one Record Store repository per record type.
package repositories

import (
	"gorm.io/gorm"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
	"github.com/Modeva-Ecommerce/modeva-webshop/store/gormstore"
	"github.com/Modeva-Ecommerce/modeva-webshop/store/memstore"
)

// Set holds every repository the webshop uses. All of them share one hook
// dispatcher.
type Set struct {
	Hooks *events.Dispatcher

	CatalogEntries    store.Repository[models.CatalogEntry]
	Items             store.Repository[models.Item]
	ItemGroups        store.Repository[models.ItemGroup]
	Settings          store.Repository[models.WebshopSettings]
	DraftOrders       store.Repository[models.DraftOrder]
	TaxRules          store.Repository[models.TaxRule]
	SalesTaxTemplates store.Repository[models.SalesTaxTemplate]
	Companies         store.Repository[models.Company]
	PriceLists        store.Repository[models.PriceList]
	ItemPrices        store.Repository[models.ItemPrice]
	PricingRules      store.Repository[models.PricingRule]
	CurrencyExchanges store.Repository[models.CurrencyExchange]
	Warehouses        store.Repository[models.Warehouse]
	Bins              store.Repository[models.Bin]
	Batches           store.Repository[models.Batch]
	ProductBundles    store.Repository[models.ProductBundle]
	Customers         store.Repository[models.Customer]
	Contacts          store.Repository[models.Contact]
	Wishlist          store.Repository[models.WishlistItem]
	ItemReviews       store.Repository[models.ItemReview]
}

// NewGorm builds the PostgreSQL-backed set.
func NewGorm(db *gorm.DB, hooks *events.Dispatcher) *Set {
	return &Set{
		Hooks:             hooks,
		CatalogEntries:    gormstore.New[models.CatalogEntry](db, models.CatalogEntrySchema, hooks),
		Items:             gormstore.New[models.Item](db, models.ItemSchema, hooks),
		ItemGroups:        gormstore.New[models.ItemGroup](db, models.ItemGroupSchema, hooks),
		Settings:          gormstore.New[models.WebshopSettings](db, models.WebshopSettingsSchema, hooks),
		DraftOrders:       gormstore.New[models.DraftOrder](db, models.DraftOrderSchema, hooks),
		TaxRules:          gormstore.New[models.TaxRule](db, models.TaxRuleSchema, hooks),
		SalesTaxTemplates: gormstore.New[models.SalesTaxTemplate](db, models.SalesTaxTemplateSchema, hooks),
		Companies:         gormstore.New[models.Company](db, models.CompanySchema, hooks),
		PriceLists:        gormstore.New[models.PriceList](db, models.PriceListSchema, hooks),
		ItemPrices:        gormstore.New[models.ItemPrice](db, models.ItemPriceSchema, hooks),
		PricingRules:      gormstore.New[models.PricingRule](db, models.PricingRuleSchema, hooks),
		CurrencyExchanges: gormstore.New[models.CurrencyExchange](db, models.CurrencyExchangeSchema, hooks),
		Warehouses:        gormstore.New[models.Warehouse](db, models.WarehouseSchema, hooks),
		Bins:              gormstore.New[models.Bin](db, models.BinSchema, hooks),
		Batches:           gormstore.New[models.Batch](db, models.BatchSchema, hooks),
		ProductBundles:    gormstore.New[models.ProductBundle](db, models.ProductBundleSchema, hooks),
		Customers:         gormstore.New[models.Customer](db, models.CustomerSchema, hooks),
		Contacts:          gormstore.New[models.Contact](db, models.ContactSchema, hooks),
		Wishlist:          gormstore.New[models.WishlistItem](db, models.WishlistItemSchema, hooks),
		ItemReviews:       gormstore.New[models.ItemReview](db, models.ItemReviewSchema, hooks),
	}
}

// NewMemory builds an in-process set.
func NewMemory(hooks *events.Dispatcher) *Set {
	return &Set{
		Hooks:             hooks,
		CatalogEntries:    memstore.New[models.CatalogEntry](models.CatalogEntrySchema, hooks),
		Items:             memstore.New[models.Item](models.ItemSchema, hooks),
		ItemGroups:        memstore.New[models.ItemGroup](models.ItemGroupSchema, hooks),
		Settings:          memstore.New[models.WebshopSettings](models.WebshopSettingsSchema, hooks),
		DraftOrders:       memstore.New[models.DraftOrder](models.DraftOrderSchema, hooks),
		TaxRules:          memstore.New[models.TaxRule](models.TaxRuleSchema, hooks),
		SalesTaxTemplates: memstore.New[models.SalesTaxTemplate](models.SalesTaxTemplateSchema, hooks),
		Companies:         memstore.New[models.Company](models.CompanySchema, hooks),
		PriceLists:        memstore.New[models.PriceList](models.PriceListSchema, hooks),
		ItemPrices:        memstore.New[models.ItemPrice](models.ItemPriceSchema, hooks),
		PricingRules:      memstore.New[models.PricingRule](models.PricingRuleSchema, hooks),
		CurrencyExchanges: memstore.New[models.CurrencyExchange](models.CurrencyExchangeSchema, hooks),
		Warehouses:        memstore.New[models.Warehouse](models.WarehouseSchema, hooks),
		Bins:              memstore.New[models.Bin](models.BinSchema, hooks),
		Batches:           memstore.New[models.Batch](models.BatchSchema, hooks),
		ProductBundles:    memstore.New[models.ProductBundle](models.ProductBundleSchema, hooks),
		Customers:         memstore.New[models.Customer](models.CustomerSchema, hooks),
		Contacts:          memstore.New[models.Contact](models.ContactSchema, hooks),
		Wishlist:          memstore.New[models.WishlistItem](models.WishlistItemSchema, hooks),
		ItemReviews:       memstore.New[models.ItemReview](models.ItemReviewSchema, hooks),
	}
}

// Models lists every table for AutoMigrate, parents before children.
func Models() []any {
	return []any{
		&models.ItemGroup{},
		&models.Item{}, &models.ItemVariantAttribute{}, &models.UOMConversion{},
		&models.CatalogEntry{}, &models.CatalogEntryTag{}, &models.WebsiteItemGroup{},
		&models.WebshopSettings{},
		&models.Company{}, &models.PriceList{}, &models.ItemPrice{}, &models.PricingRule{}, &models.CurrencyExchange{},
		&models.SalesTaxTemplate{}, &models.SalesTaxTemplateRow{}, &models.TaxRule{},
		&models.DraftOrder{}, &models.DraftOrderItem{}, &models.DraftOrderTax{},
		&models.Warehouse{}, &models.Bin{}, &models.Batch{}, &models.BatchStock{},
		&models.ProductBundle{}, &models.ProductBundleItem{},
		&models.Customer{}, &models.Contact{}, &models.WishlistItem{}, &models.ItemReview{},
	}
}
