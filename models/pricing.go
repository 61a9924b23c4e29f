package models

import (
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const (
	EntityCompany          events.Entity = "Company"
	EntityPriceList        events.Entity = "Price List"
	EntityItemPrice        events.Entity = "Item Price"
	EntityPricingRule      events.Entity = "Pricing Rule"
	EntityCurrencyExchange events.Entity = "Currency Exchange"
)

type Company struct {
	Name            string `json:"name" gorm:"primaryKey"`
	DefaultCurrency string `json:"default_currency"`
	Country         string `json:"country"`
}

func (c Company) RecordKey() string { return c.Name }

var CompanySchema = store.Schema{Entity: EntityCompany, Table: "companies", Key: "name"}

type PriceList struct {
	Name      string    `json:"name" gorm:"primaryKey"`
	Currency  string    `json:"currency" gorm:"not null"`
	Enabled   bool      `json:"enabled" gorm:"default:true"`
	Selling   bool      `json:"selling"`
	Buying    bool      `json:"buying"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (p PriceList) RecordKey() string { return p.Name }

var PriceListSchema = store.Schema{Entity: EntityPriceList, Table: "price_lists", Key: "name"}

// ItemPrice is the list rate of an item on a price list. Rows with a customer
// apply to that customer only.
type ItemPrice struct {
	Name          string    `json:"name" gorm:"primaryKey"`
	ItemCode      string    `json:"item_code" gorm:"not null;index:idx_item_prices_lookup"`
	PriceList     string    `json:"price_list" gorm:"not null;index:idx_item_prices_lookup"`
	Customer      string    `json:"customer"`
	UOM           string    `json:"uom"`
	Currency      string    `json:"currency"`
	PriceListRate float64   `json:"price_list_rate" gorm:"type:numeric(12,2)"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (p ItemPrice) RecordKey() string { return p.Name }

var ItemPriceSchema = store.Schema{
	Entity:   EntityItemPrice,
	Table:    "item_prices",
	Key:      "name",
	TieBreak: []store.Order{{Field: "created_at"}, {Field: "name"}},
}

type RateOrDiscount string

const (
	DiscountPercentage RateOrDiscount = "Discount Percentage"
	DiscountAmount     RateOrDiscount = "Discount Amount"
	RateOverride       RateOrDiscount = "Rate"
)

// PricingRule discounts matching items. A rule scopes to one item code, item
// group or brand (or every item when none is set) and optionally to one
// customer or customer group.
type PricingRule struct {
	Name               string         `json:"name" gorm:"primaryKey"`
	Title              string         `json:"title"`
	Disabled           bool           `json:"disabled"`
	Selling            bool           `json:"selling" gorm:"default:true"`
	ItemCode           string         `json:"item_code" gorm:"index"`
	ItemGroup          string         `json:"item_group"`
	Brand              string         `json:"brand"`
	Customer           string         `json:"customer"`
	CustomerGroup      string         `json:"customer_group"`
	PriceList          string         `json:"price_list"`
	Company            string         `json:"company"`
	RateOrDiscount     RateOrDiscount `json:"rate_or_discount" gorm:"default:'Discount Percentage'"`
	DiscountPercentage float64        `json:"discount_percentage"`
	DiscountAmount     float64        `json:"discount_amount"`
	Rate               float64        `json:"rate"`
	MinQty             float64        `json:"min_qty"`
	Priority           int            `json:"priority"`
	ValidFrom          time.Time      `json:"valid_from"`
	ValidUpto          time.Time      `json:"valid_upto"`
	CreatedAt          time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (p PricingRule) RecordKey() string { return p.Name }

var PricingRuleSchema = store.Schema{
	Entity:   EntityPricingRule,
	Table:    "pricing_rules",
	Key:      "name",
	TieBreak: []store.Order{{Field: "created_at"}, {Field: "name"}},
}

type CurrencyExchange struct {
	Name         string    `json:"name" gorm:"primaryKey"`
	FromCurrency string    `json:"from_currency" gorm:"index"`
	ToCurrency   string    `json:"to_currency" gorm:"index"`
	ExchangeRate float64   `json:"exchange_rate"`
	ForSelling   bool      `json:"for_selling" gorm:"default:true"`
	Date         time.Time `json:"date"`
}

func (c CurrencyExchange) RecordKey() string { return c.Name }

var CurrencyExchangeSchema = store.Schema{
	Entity:       EntityCurrencyExchange,
	Table:        "currency_exchanges",
	Key:          "name",
	DefaultOrder: []store.Order{{Field: "date", Desc: true}},
}
