package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const EntityWebshopSettings events.Entity = "Webshop Settings"

// WebshopSettingsKey is the key of the single settings record.
const WebshopSettingsKey = "Webshop Settings"

const DefaultProductsPerPage = 20

// WebshopSettings holds the storefront and cart toggles. It is loaded once per
// request and passed to the query, enrichment and cart services.
type WebshopSettings struct {
	Name string `json:"name" gorm:"primaryKey"`

	// Catalog
	ProductsPerPage        int                         `json:"products_per_page" gorm:"default:20"`
	HideVariants           bool                        `json:"hide_variants"`
	EnableFieldFilters     bool                        `json:"enable_field_filters"`
	FilterFields           datatypes.JSONSlice[string] `json:"filter_fields" gorm:"type:jsonb"`
	EnableAttributeFilters bool                        `json:"enable_attribute_filters"`
	FilterAttributes       datatypes.JSONSlice[string] `json:"filter_attributes" gorm:"type:jsonb"`
	EnableWishlist         bool                        `json:"enable_wishlist"`
	EnableReviews          bool                        `json:"enable_reviews"`

	// Cart
	Enabled               bool   `json:"enabled"`
	SaveQuotationsAsDraft bool   `json:"save_quotations_as_draft"`
	Company               string `json:"company"`
	PriceList             string `json:"price_list"`
	DefaultCustomerGroup  string `json:"default_customer_group"`

	// Display
	ShowPrice             bool `json:"show_price"`
	HidePriceForGuest     bool `json:"hide_price_for_guest"`
	ShowStockAvailability bool `json:"show_stock_availability"`
	ShowQuantityInWebsite bool `json:"show_quantity_in_website"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (s WebshopSettings) RecordKey() string { return s.Name }

// PageLength returns the configured page size, defaulting to 20.
func (s WebshopSettings) PageLength() int {
	if s.ProductsPerPage > 0 {
		return s.ProductsPerPage
	}
	return DefaultProductsPerPage
}

// DefaultWebshopSettings is what a fresh install runs with.
func DefaultWebshopSettings() WebshopSettings {
	return WebshopSettings{
		Name:            WebshopSettingsKey,
		ProductsPerPage: DefaultProductsPerPage,
	}
}

var WebshopSettingsSchema = store.Schema{
	Entity: EntityWebshopSettings,
	Table:  "webshop_settings",
	Key:    "name",
}

func (WebshopSettings) TableName() string { return "webshop_settings" }
