// Package stock resolves whether a catalog entry can be shipped from its
// website warehouse and how many sales units are on hand.
package stock

import (
	"context"
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// bundleDepth bounds bundle-in-bundle resolution.
const bundleDepth = 3

// Availability is the stock status of one item. StockQty is nil when no
// warehouse could be resolved, so no quantity is reported.
type Availability struct {
	InStock     bool
	StockQty    *float64
	IsStockItem bool
}

type Service struct {
	repos *repositories.Set
	now   func() time.Time
}

func New(repos *repositories.Set) *Service {
	return &Service{repos: repos, now: time.Now}
}

// Resolve returns the availability of itemCode. warehouse overrides the
// catalog entry's website warehouse when set.
func (s *Service) Resolve(ctx context.Context, itemCode, warehouse string) (Availability, error) {
	return s.resolve(ctx, itemCode, warehouse, 0)
}

func (s *Service) resolve(ctx context.Context, itemCode, warehouse string, depth int) (Availability, error) {
	item, err := s.repos.Items.Get(ctx, itemCode)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return Availability{}, nil
		}
		return Availability{}, err
	}

	if !item.IsStockItem {
		inStock, err := s.nonStockStatus(ctx, item, depth)
		return Availability{InStock: inStock}, err
	}

	if warehouse == "" {
		if warehouse, err = s.websiteWarehouse(ctx, item); err != nil {
			return Availability{}, err
		}
	}
	if warehouse == "" {
		return Availability{IsStockItem: true}, nil
	}

	warehouses, err := s.leafWarehouses(ctx, warehouse)
	if err != nil {
		return Availability{}, err
	}

	factor := item.ConversionFactor(item.SalesUOM)
	var total float64
	for _, wh := range warehouses {
		bin, err := s.repos.Bins.Get(ctx, models.BinKey(item.ItemCode, wh))
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return Availability{}, err
		}
		qty := bin.ActualQty / factor
		if qty == 0 {
			continue
		}
		adjusted, err := s.withoutExpired(ctx, item.ItemCode, wh, qty, factor)
		if err != nil {
			return Availability{}, err
		}
		total += adjusted
	}

	return Availability{InStock: total > 0, StockQty: &total, IsStockItem: true}, nil
}

// websiteWarehouse is the entry's warehouse, falling back to the template's
// entry for variants.
func (s *Service) websiteWarehouse(ctx context.Context, item models.Item) (string, error) {
	codes := []string{item.ItemCode}
	if item.VariantOf != "" && item.VariantOf != item.ItemCode {
		codes = append(codes, item.VariantOf)
	}
	for _, code := range codes {
		entry, ok, err := s.repos.CatalogEntries.First(ctx, store.Query{
			Filters: store.Filter(store.Where("item_code", store.OpEq, code)),
		})
		if err != nil {
			return "", err
		}
		if ok && entry.WebsiteWarehouse != "" {
			return entry.WebsiteWarehouse, nil
		}
	}
	return "", nil
}

// leafWarehouses expands a group warehouse into the enabled stock warehouses
// beneath it.
func (s *Service) leafWarehouses(ctx context.Context, name string) ([]string, error) {
	wh, err := s.repos.Warehouses.Get(ctx, name)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return []string{name}, nil
		}
		return nil, err
	}
	if !wh.IsGroup {
		return []string{name}, nil
	}

	var out []string
	queue := []string{name}
	seen := map[string]bool{name: true}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		children, err := s.repos.Warehouses.Query(ctx, store.Query{Filters: store.Filter(
			store.Where("parent_warehouse", store.OpEq, parent),
			store.Where("disabled", store.OpEq, false),
		)})
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			if c.IsGroup {
				queue = append(queue, c.Name)
			} else {
				out = append(out, c.Name)
			}
		}
	}
	return out, nil
}

// withoutExpired subtracts the quantity held in expired batches, floored at
// zero.
func (s *Service) withoutExpired(ctx context.Context, itemCode, warehouse string, qty, factor float64) (float64, error) {
	batches, err := s.repos.Batches.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("item", store.OpEq, itemCode)),
	})
	if err != nil {
		return 0, err
	}
	today := s.now()
	for _, b := range batches {
		if !b.Expired(today) {
			continue
		}
		qty = max(0, qty-b.QtyIn(warehouse)/factor)
		if qty == 0 {
			break
		}
	}
	return qty, nil
}

// nonStockStatus is true for plain non-stock items. A bundle is in stock when
// every bundled item is, read from the bundle's own website warehouse.
func (s *Service) nonStockStatus(ctx context.Context, item models.Item, depth int) (bool, error) {
	bundle, err := s.repos.ProductBundles.Get(ctx, item.ItemCode)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	if depth >= bundleDepth {
		return false, nil
	}

	warehouse, err := s.websiteWarehouse(ctx, item)
	if err != nil {
		return false, err
	}
	for _, line := range bundle.Items {
		avail, err := s.resolve(ctx, line.ItemCode, warehouse, depth+1)
		if err != nil {
			return false, err
		}
		if !avail.InStock {
			return false, nil
		}
	}
	return true, nil
}
