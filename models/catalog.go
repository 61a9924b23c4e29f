package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const (
	EntityCatalogEntry events.Entity = "Catalog Entry"
	EntityItem         events.Entity = "Item"
	EntityItemGroup    events.Entity = "Item Group"
)

// ═══════════════════════════════════════════════════════════
// Catalog Entry (website listing of an inventory item)
// ═══════════════════════════════════════════════════════════

type CatalogEntry struct {
	Name               string             `json:"name" gorm:"primaryKey"`
	ItemCode           string             `json:"item_code" gorm:"not null;uniqueIndex"`
	WebItemName        string             `json:"web_item_name"`
	ItemName           string             `json:"item_name"`
	ItemGroup          string             `json:"item_group" gorm:"index"`
	Brand              string             `json:"brand" gorm:"index"`
	StockUOM           string             `json:"stock_uom"`
	Description        string             `json:"description"`
	WebLongDescription string             `json:"web_long_description"`
	ShortDescription   string             `json:"short_description"`
	Ranking            int                `json:"ranking" gorm:"default:0;index:idx_catalog_entries_ranking,sort:desc"`
	OnBackorder        bool               `json:"on_backorder"`
	WebsiteWarehouse   string             `json:"website_warehouse"`
	VariantOf          string             `json:"variant_of" gorm:"index"`
	HasVariants        bool               `json:"has_variants"`
	WebsiteImage       string             `json:"website_image"`
	Route              string             `json:"route"`
	Published          bool               `json:"published" gorm:"index"`
	Tags               []CatalogEntryTag  `json:"tags" gorm:"foreignKey:Parent;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	WebsiteItemGroups  []WebsiteItemGroup `json:"website_item_groups" gorm:"foreignKey:Parent;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt          time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

func (e CatalogEntry) RecordKey() string      { return e.Name }
func (e *CatalogEntry) SetRecordKey(k string) { e.Name = k }

// DisplayName is the web name, falling back to the item name.
func (e CatalogEntry) DisplayName() string {
	if e.WebItemName != "" {
		return e.WebItemName
	}
	return e.ItemName
}

// CatalogEntryTag is one value of the tags multiselect.
type CatalogEntryTag struct {
	ID     uint   `json:"-" gorm:"primaryKey"`
	Parent string `json:"parent" gorm:"index;not null"`
	Tag    string `json:"tag" gorm:"not null"`
}

// WebsiteItemGroup cross-lists an entry under another item group.
type WebsiteItemGroup struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	Parent    string `json:"parent" gorm:"index;not null"`
	ItemGroup string `json:"item_group" gorm:"index;not null"`
}

// FilterableField describes a catalog entry field that may be exposed as a
// shopper filter. Multiselect fields live in a child table.
type FilterableField struct {
	Name       string
	Label      string
	Child      string
	ChildField string
}

// IsMultiSelect reports whether the field is backed by a child table.
func (f FilterableField) IsMultiSelect() bool {
	return f.Child != ""
}

// CatalogFilterFields is the allow-list of filterable catalog entry fields.
var CatalogFilterFields = map[string]FilterableField{
	"brand":      {Name: "brand", Label: "Brand"},
	"item_group": {Name: "item_group", Label: "Item Group"},
	"stock_uom":  {Name: "stock_uom", Label: "Stock UOM"},
	"tags":       {Name: "tags", Label: "Tags", Child: "tags", ChildField: "tag"},
}

// CatalogSearchFields are the search fields declared on the catalog entry,
// searched in addition to the engine defaults.
var CatalogSearchFields = []string{"web_item_name", "brand"}

var CatalogEntrySchema = store.Schema{
	Entity: EntityCatalogEntry,
	Table:  "catalog_entries",
	Key:    "name",
	Children: map[string]store.Child{
		"tags":                {Table: "catalog_entry_tags", ParentColumn: "parent", Association: "Tags"},
		"website_item_groups": {Table: "website_item_groups", ParentColumn: "parent", Association: "WebsiteItemGroups"},
	},
	DefaultOrder: []store.Order{{Field: "ranking", Desc: true}},
	TieBreak:     []store.Order{{Field: "created_at"}, {Field: "name"}},
}

// ═══════════════════════════════════════════════════════════
// Inventory Item
// ═══════════════════════════════════════════════════════════

type Item struct {
	ItemCode           string                 `json:"item_code" gorm:"primaryKey"`
	ItemName           string                 `json:"item_name"`
	ItemGroup          string                 `json:"item_group" gorm:"index"`
	Brand              string                 `json:"brand"`
	Description        string                 `json:"description"`
	StockUOM           string                 `json:"stock_uom"`
	SalesUOM           string                 `json:"sales_uom"`
	Disabled           bool                   `json:"disabled"`
	IsStockItem        bool                   `json:"is_stock_item" gorm:"default:true"`
	HasVariants        bool                   `json:"has_variants"`
	VariantOf          string                 `json:"variant_of" gorm:"index"`
	PublishedInWebsite bool                   `json:"published_in_website"`
	Image              string                 `json:"image"`
	Attributes         []ItemVariantAttribute `json:"attributes" gorm:"foreignKey:Parent;references:ItemCode;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	UOMs               []UOMConversion        `json:"uoms" gorm:"foreignKey:Parent;references:ItemCode;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt          time.Time              `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time              `json:"updated_at" gorm:"autoUpdateTime"`
}

func (i Item) RecordKey() string      { return i.ItemCode }
func (i *Item) SetRecordKey(k string) { i.ItemCode = k }

// ConversionFactor returns the factor for uom, or 1 when none is configured.
func (i Item) ConversionFactor(uom string) float64 {
	for _, u := range i.UOMs {
		if u.UOM == uom && u.ConversionFactor > 0 {
			return u.ConversionFactor
		}
	}
	return 1
}

type ItemVariantAttribute struct {
	ID             uint   `json:"-" gorm:"primaryKey"`
	Parent         string `json:"parent" gorm:"index;not null"`
	Attribute      string `json:"attribute" gorm:"index;not null"`
	AttributeValue string `json:"attribute_value"`
}

type UOMConversion struct {
	ID               uint    `json:"-" gorm:"primaryKey"`
	Parent           string  `json:"parent" gorm:"index;not null"`
	UOM              string  `json:"uom" gorm:"not null"`
	ConversionFactor float64 `json:"conversion_factor" gorm:"default:1"`
}

var ItemSchema = store.Schema{
	Entity: EntityItem,
	Table:  "items",
	Key:    "item_code",
	Children: map[string]store.Child{
		"attributes": {Table: "item_variant_attributes", ParentColumn: "parent", Association: "Attributes"},
		"uoms":       {Table: "uom_conversions", ParentColumn: "parent", Association: "UOMs"},
	},
	TieBreak: []store.Order{{Field: "item_code"}},
}

// ═══════════════════════════════════════════════════════════
// Item Group (category tree)
// ═══════════════════════════════════════════════════════════

type ItemGroup struct {
	Name               string                      `json:"name" gorm:"primaryKey"`
	ParentItemGroup    string                      `json:"parent_item_group" gorm:"index"`
	IsGroup            bool                        `json:"is_group"`
	ShowInWebsite      bool                        `json:"show_in_website"`
	Route              string                      `json:"route"`
	Lft                int                         `json:"lft" gorm:"index"`
	Rgt                int                         `json:"rgt" gorm:"index"`
	IncludeDescendants bool                        `json:"include_descendants"`
	FilterFields       datatypes.JSONSlice[string] `json:"filter_fields" gorm:"type:jsonb"`
	FilterAttributes   datatypes.JSONSlice[string] `json:"filter_attributes" gorm:"type:jsonb"`
	UpdatedAt          time.Time                   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (g ItemGroup) RecordKey() string      { return g.Name }
func (g *ItemGroup) SetRecordKey(k string) { g.Name = k }

var ItemGroupSchema = store.Schema{
	Entity:       EntityItemGroup,
	Table:        "item_groups",
	Key:          "name",
	DefaultOrder: []store.Order{{Field: "lft"}},
	TieBreak:     []store.Order{{Field: "name"}},
}
