// Package product_info enriches a single catalog item with price and stock
// for the current shopper. Which fields are present depends on the display
// toggles in the webshop settings.
package product_info

import (
	"context"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/pricing"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/stock"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// ProductInfo is the storefront view of one item's price and stock. Nil
// fields are left out of the response on purpose: their absence tells the
// client the matching display toggle is off.
type ProductInfo struct {
	Price        *pricing.Price `json:"price,omitempty"`
	Qty          *float64       `json:"qty,omitempty"`
	UOM          string         `json:"uom,omitempty"`
	SalesUOM     string         `json:"sales_uom,omitempty"`
	OnBackorder  *bool          `json:"on_backorder,omitempty"`
	StockQty     *float64       `json:"stock_qty,omitempty"`
	InStock      *bool          `json:"in_stock,omitempty"`
	ShowStockQty *bool          `json:"show_stock_qty,omitempty"`
}

type Service struct {
	items   store.Repository[models.Item]
	entries store.Repository[models.CatalogEntry]
	pricing *pricing.Service
	stock   *stock.Service
}

func New(items store.Repository[models.Item], entries store.Repository[models.CatalogEntry], pricing *pricing.Service, stock *stock.Service) *Service {
	return &Service{items: items, entries: entries, pricing: pricing, stock: stock}
}

// Get resolves price and stock for itemCode. cart is the shopper's open draft
// order, or nil; it supplies the quantity already in the cart. With the cart
// disabled the result is empty.
func (s *Service) Get(ctx context.Context, itemCode string, shopper models.Shopper, settings models.WebshopSettings, cart *models.DraftOrder) (ProductInfo, error) {
	var info ProductInfo
	if !settings.Enabled {
		return info, nil
	}

	item, err := s.items.Get(ctx, itemCode)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return info, nil
		}
		return info, err
	}
	info.UOM = item.StockUOM
	info.SalesUOM = item.SalesUOM
	zero := 0.0
	info.Qty = &zero

	if settings.ShowPrice && (!shopper.IsGuest() || !settings.HidePriceForGuest) {
		priceList := settings.PriceList
		if cart != nil && cart.SellingPriceList != "" {
			priceList = cart.SellingPriceList
		}
		group := shopper.CustomerGroup
		if group == "" {
			group = settings.DefaultCustomerGroup
		}
		price, err := s.pricing.Get(ctx, pricing.Request{
			ItemCode:      itemCode,
			PriceList:     priceList,
			Customer:      shopper.Customer,
			CustomerGroup: group,
			Company:       settings.Company,
			Qty:           1,
		})
		if err != nil {
			return info, err
		}
		info.Price = price
	}

	if settings.ShowStockAvailability {
		if err := s.setStock(ctx, &info, item, settings); err != nil {
			return info, err
		}
	}

	if info.Price != nil && !shopper.IsGuest() && cart != nil {
		if i := cart.Line(itemCode); i >= 0 {
			qty := cart.Items[i].Qty
			info.Qty = &qty
		}
	}
	return info, nil
}

func (s *Service) setStock(ctx context.Context, info *ProductInfo, item models.Item, settings models.WebshopSettings) error {
	entry, ok, err := s.entries.First(ctx, store.Query{
		Filters: store.Filter(store.Where("item_code", store.OpEq, item.ItemCode)),
	})
	if err != nil {
		return err
	}
	if ok && entry.OnBackorder {
		yes := true
		info.OnBackorder = &yes
		return nil
	}

	avail, err := s.stock.Resolve(ctx, item.ItemCode, "")
	if err != nil {
		return err
	}
	inStock := avail.InStock
	showQty := settings.ShowQuantityInWebsite
	info.InStock = &inStock
	info.StockQty = avail.StockQty
	info.ShowStockQty = &showQty
	return nil
}
