package models

import (
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const (
	EntityTaxRule          events.Entity = "Tax Rule"
	EntitySalesTaxTemplate events.Entity = "Sales Tax Template"
)

// TaxRule selects the sales tax template applied to cart orders.
type TaxRule struct {
	Name               string    `json:"name" gorm:"primaryKey"`
	TaxType            string    `json:"tax_type" gorm:"default:'Sales'"`
	SalesTaxTemplate   string    `json:"sales_tax_template"`
	UseForShoppingCart bool      `json:"use_for_shopping_cart" gorm:"index"`
	Customer           string    `json:"customer"`
	CustomerGroup      string    `json:"customer_group"`
	Company            string    `json:"company"`
	Priority           int       `json:"priority" gorm:"default:1"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (r TaxRule) RecordKey() string { return r.Name }

var TaxRuleSchema = store.Schema{
	Entity:       EntityTaxRule,
	Table:        "tax_rules",
	Key:          "name",
	DefaultOrder: []store.Order{{Field: "priority", Desc: true}},
	TieBreak:     []store.Order{{Field: "created_at"}, {Field: "name"}},
}

type SalesTaxTemplate struct {
	Name      string                `json:"name" gorm:"primaryKey"`
	Title     string                `json:"title"`
	Company   string                `json:"company"`
	Disabled  bool                  `json:"disabled"`
	Taxes     []SalesTaxTemplateRow `json:"taxes" gorm:"foreignKey:Parent;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	UpdatedAt time.Time             `json:"updated_at" gorm:"autoUpdateTime"`
}

func (t SalesTaxTemplate) RecordKey() string { return t.Name }

const (
	ChargeOnNetTotal = "On Net Total"
	ChargeActual     = "Actual"
)

type SalesTaxTemplateRow struct {
	ID          uint    `json:"-" gorm:"primaryKey"`
	Parent      string  `json:"parent" gorm:"index;not null"`
	Idx         int     `json:"idx"`
	ChargeType  string  `json:"charge_type" gorm:"default:'On Net Total'"`
	AccountHead string  `json:"account_head"`
	Description string  `json:"description"`
	Rate        float64 `json:"rate"`
}

var SalesTaxTemplateSchema = store.Schema{
	Entity: EntitySalesTaxTemplate,
	Table:  "sales_tax_templates",
	Key:    "name",
	Children: map[string]store.Child{
		"taxes": {Table: "sales_tax_template_rows", ParentColumn: "parent", Association: "Taxes"},
	},
	TieBreak: []store.Order{{Field: "name"}},
}
