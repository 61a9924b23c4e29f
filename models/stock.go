package models

import (
	"fmt"
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const (
	EntityWarehouse     events.Entity = "Warehouse"
	EntityBin           events.Entity = "Bin"
	EntityBatch         events.Entity = "Batch"
	EntityProductBundle events.Entity = "Product Bundle"
)

type Warehouse struct {
	Name            string `json:"name" gorm:"primaryKey"`
	ParentWarehouse string `json:"parent_warehouse" gorm:"index"`
	IsGroup         bool   `json:"is_group"`
	Company         string `json:"company"`
	Disabled        bool   `json:"disabled"`
}

func (w Warehouse) RecordKey() string { return w.Name }

var WarehouseSchema = store.Schema{
	Entity:   EntityWarehouse,
	Table:    "warehouses",
	Key:      "name",
	TieBreak: []store.Order{{Field: "name"}},
}

// Bin is the on-hand quantity of one item in one warehouse, in stock UOM.
type Bin struct {
	Name      string  `json:"name" gorm:"primaryKey"`
	ItemCode  string  `json:"item_code" gorm:"not null;uniqueIndex:idx_bins_item_warehouse"`
	Warehouse string  `json:"warehouse" gorm:"not null;uniqueIndex:idx_bins_item_warehouse"`
	ActualQty float64 `json:"actual_qty"`
}

func (b Bin) RecordKey() string { return b.Name }

// BinKey is the key of the bin for itemCode in warehouse.
func BinKey(itemCode, warehouse string) string {
	return fmt.Sprintf("%s@%s", itemCode, warehouse)
}

var BinSchema = store.Schema{Entity: EntityBin, Table: "bins", Key: "name"}

type Batch struct {
	Name       string       `json:"name" gorm:"primaryKey"`
	Item       string       `json:"item" gorm:"not null;index"`
	ExpiryDate time.Time    `json:"expiry_date"`
	Stock      []BatchStock `json:"stock" gorm:"foreignKey:Parent;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (b Batch) RecordKey() string { return b.Name }

// Expired reports whether the batch expires on or before day. Both are read
// as calendar dates in their own location; the expiry date is stored as a
// plain date.
func (b Batch) Expired(day time.Time) bool {
	if b.ExpiryDate.IsZero() {
		return false
	}
	return !calendarDate(b.ExpiryDate).After(calendarDate(day))
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// QtyIn returns the batch quantity held in warehouse; an empty warehouse sums
// every warehouse.
func (b Batch) QtyIn(warehouse string) float64 {
	var qty float64
	for _, s := range b.Stock {
		if warehouse == "" || s.Warehouse == warehouse {
			qty += s.Qty
		}
	}
	return qty
}

type BatchStock struct {
	ID        uint    `json:"-" gorm:"primaryKey"`
	Parent    string  `json:"parent" gorm:"index;not null"`
	Warehouse string  `json:"warehouse" gorm:"not null"`
	Qty       float64 `json:"qty"`
}

var BatchSchema = store.Schema{
	Entity: EntityBatch,
	Table:  "batches",
	Key:    "name",
	Children: map[string]store.Child{
		"stock": {Table: "batch_stocks", ParentColumn: "parent", Association: "Stock"},
	},
	TieBreak: []store.Order{{Field: "name"}},
}

// ProductBundle groups items sold together under a non-stock item code.
type ProductBundle struct {
	NewItemCode string              `json:"new_item_code" gorm:"primaryKey"`
	Description string              `json:"description"`
	Items       []ProductBundleItem `json:"items" gorm:"foreignKey:Parent;references:NewItemCode;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p ProductBundle) RecordKey() string { return p.NewItemCode }

type ProductBundleItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	Parent   string  `json:"parent" gorm:"index;not null"`
	ItemCode string  `json:"item_code" gorm:"not null"`
	Qty      float64 `json:"qty"`
}

var ProductBundleSchema = store.Schema{
	Entity: EntityProductBundle,
	Table:  "product_bundles",
	Key:    "new_item_code",
	Children: map[string]store.Child{
		"items": {Table: "product_bundle_items", ParentColumn: "parent", Association: "Items"},
	},
}
