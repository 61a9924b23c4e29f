package models

import (
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const EntityDraftOrder events.Entity = "Draft Order"

type DraftOrderStatus string

const (
	DraftOrderDraft     DraftOrderStatus = "Draft"
	DraftOrderSubmitted DraftOrderStatus = "Submitted"
)

// OrderTypeShoppingCart marks orders created from the storefront cart.
const OrderTypeShoppingCart = "Shopping Cart"

// ═══════════════════════════════════════════════════════════
// Draft Order (shopping cart quotation)
// ═══════════════════════════════════════════════════════════

type DraftOrder struct {
	Name             string           `json:"name" gorm:"primaryKey"`
	PartyName        string           `json:"party_name" gorm:"not null;index:idx_draft_orders_owner"`
	ContactEmail     string           `json:"contact_email" gorm:"not null;index:idx_draft_orders_owner"`
	OrderType        string           `json:"order_type" gorm:"not null;default:'Shopping Cart'"`
	Status           DraftOrderStatus `json:"status" gorm:"not null;default:'Draft';index"`
	Company          string           `json:"company"`
	Currency         string           `json:"currency"`
	SellingPriceList string           `json:"selling_price_list"`
	CustomerGroup    string           `json:"customer_group"`
	TaxesAndCharges  string           `json:"taxes_and_charges"`
	Items            []DraftOrderItem `json:"items" gorm:"foreignKey:Parent;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Taxes            []DraftOrderTax  `json:"taxes" gorm:"foreignKey:Parent;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	TotalQty         float64          `json:"total_qty"`
	NetTotal         float64          `json:"net_total" gorm:"type:numeric(12,2)"`
	TotalTaxes       float64          `json:"total_taxes_and_charges" gorm:"column:total_taxes_and_charges;type:numeric(12,2)"`
	GrandTotal       float64          `json:"grand_total" gorm:"type:numeric(12,2)"`
	SubmittedAt      *time.Time       `json:"submitted_at,omitempty"`
	Version          int              `json:"version" gorm:"not null;default:0"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

func (o DraftOrder) RecordKey() string       { return o.Name }
func (o *DraftOrder) RecordVersion() int     { return o.Version }
func (o *DraftOrder) SetRecordVersion(v int) { o.Version = v }

// IsSubmitted reports whether the order has been finalized.
func (o DraftOrder) IsSubmitted() bool {
	return o.Status == DraftOrderSubmitted
}

// Line returns the index of the line for itemCode, or -1.
func (o DraftOrder) Line(itemCode string) int {
	for i, it := range o.Items {
		if it.ItemCode == itemCode {
			return i
		}
	}
	return -1
}

type DraftOrderItem struct {
	ID                 uint    `json:"-" gorm:"primaryKey"`
	Parent             string  `json:"parent" gorm:"index;not null"`
	Idx                int     `json:"idx"`
	ItemCode           string  `json:"item_code" gorm:"not null"`
	ItemName           string  `json:"item_name"`
	UOM                string  `json:"uom"`
	Qty                float64 `json:"qty"`
	PriceListRate      float64 `json:"price_list_rate" gorm:"type:numeric(12,2)"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Rate               float64 `json:"rate" gorm:"type:numeric(12,2)"`
	Amount             float64 `json:"amount" gorm:"type:numeric(12,2)"`
	Warehouse          string  `json:"warehouse"`
}

type DraftOrderTax struct {
	ID          uint    `json:"-" gorm:"primaryKey"`
	Parent      string  `json:"parent" gorm:"index;not null"`
	Idx         int     `json:"idx"`
	ChargeType  string  `json:"charge_type"`
	AccountHead string  `json:"account_head"`
	Description string  `json:"description"`
	Rate        float64 `json:"rate"`
	TaxAmount   float64 `json:"tax_amount" gorm:"type:numeric(12,2)"`
	Total       float64 `json:"total" gorm:"type:numeric(12,2)"`
}

var DraftOrderSchema = store.Schema{
	Entity: EntityDraftOrder,
	Table:  "draft_orders",
	Key:    "name",
	Children: map[string]store.Child{
		"items": {Table: "draft_order_items", ParentColumn: "parent", Association: "Items"},
		"taxes": {Table: "draft_order_taxes", ParentColumn: "parent", Association: "Taxes"},
	},
	DefaultOrder: []store.Order{{Field: "updated_at", Desc: true}},
	TieBreak:     []store.Order{{Field: "name"}},
}
