// Package product_query resolves a storefront listing request into a ranked,
// enriched page of catalog entries.
package product_query

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/metrics"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/category_tree"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/product_info"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// DiscountFilter is the reserved field filter holding the maximum discount
// percentage.
const DiscountFilter = "discount"

// LargeCatalog is the entry count above which the long description is no
// longer searched.
const LargeCatalog = 50000

// defaultSearchFields are searched in addition to models.CatalogSearchFields.
var defaultSearchFields = []string{"item_code", "item_name", "web_long_description", "item_group"}

// Request is one listing request. Every part is optional.
type Request struct {
	FieldFilters     map[string][]string `json:"field_filters"`
	AttributeFilters map[string][]string `json:"attribute_filters"`
	Search           string              `json:"search"`
	Start            int                 `json:"start"`
	ItemGroup        string              `json:"item_group"`
}

// Item is a catalog entry with its price, stock and shopper flags.
type Item struct {
	models.CatalogEntry
	PriceListRate   *float64 `json:"price_list_rate,omitempty"`
	FormattedPrice  string   `json:"formatted_price,omitempty"`
	FormattedMRP    string   `json:"formatted_mrp,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	Discount        string   `json:"discount,omitempty"`
	InStock         *bool    `json:"in_stock,omitempty"`
	StockQty        *float64 `json:"stock_qty,omitempty"`
	InCart          bool     `json:"in_cart"`
	Wished          bool     `json:"wished"`
}

// Result is one page of the listing. ItemsCount counts every match before the
// discount filter; Discounts is the [min, max] discount of the returned page.
type Result struct {
	Items      []Item    `json:"items"`
	ItemsCount int       `json:"items_count"`
	Discounts  []float64 `json:"discounts"`
}

// CatalogCount caches the number of catalog entries.
type CatalogCount interface {
	Get(ctx context.Context) (int, bool)
	Set(ctx context.Context, n int) error
}

// CartItems lists the item codes in the shopper's open cart.
type CartItems interface {
	CartItemCodes(ctx context.Context, shopper models.Shopper) (map[string]bool, error)
}

type Engine struct {
	repos      *repositories.Set
	categories *category_tree.Service
	info       *product_info.Service
	cart       CartItems
	count      CatalogCount
}

// New creates the engine. cart and count may be nil.
func New(repos *repositories.Set, categories *category_tree.Service, info *product_info.Service, cart CartItems, count CatalogCount) *Engine {
	return &Engine{repos: repos, categories: categories, info: info, cart: cart, count: count}
}

// Query runs a listing request. On a storage error the result is empty and
// the error is returned for logging.
func (e *Engine) Query(ctx context.Context, req Request, shopper models.Shopper, settings models.WebshopSettings) (Result, error) {
	res, err := e.query(ctx, req, shopper, settings)
	if err != nil {
		return emptyResult(), err
	}
	metrics.RecordProductQuery(kind(req), len(res.Items))
	return res, nil
}

func emptyResult() Result {
	return Result{Items: []Item{}, Discounts: []float64{}}
}

func kind(req Request) string {
	switch {
	case len(req.AttributeFilters) > 0:
		return "attribute"
	case req.Search != "":
		return "search"
	case req.ItemGroup != "":
		return "category"
	}
	return "listing"
}

func (e *Engine) query(ctx context.Context, req Request, shopper models.Shopper, settings models.WebshopSettings) (Result, error) {
	maxDiscount, withDiscount := discountBound(req.FieldFilters)

	filters := store.Filter(store.Where("published", store.OpEq, true))
	addFieldFilters(&filters, req.FieldFilters)

	if req.ItemGroup != "" {
		if err := e.addCategoryScope(ctx, &filters, req.ItemGroup, req.Search != ""); err != nil {
			return Result{}, err
		}
	}
	if req.Search != "" {
		if err := e.addSearch(ctx, &filters, req.Search); err != nil {
			return Result{}, err
		}
	}
	if settings.HideVariants {
		filters.Add(store.Where("variant_of", store.OpNotSet, nil))
	}
	if len(req.AttributeFilters) > 0 {
		codes, err := e.attributeMatches(ctx, req.AttributeFilters)
		if err != nil {
			return Result{}, err
		}
		filters.Add(store.Where("item_code", store.OpIn, codes))
	}

	total, err := e.repos.CatalogEntries.Count(ctx, filters)
	if err != nil {
		return Result{}, err
	}

	page := settings.PageLength()
	q := store.Query{
		Filters: filters,
		OrderBy: []store.Order{{Field: "ranking", Desc: true}},
		Offset:  max(req.Start, 0),
		Limit:   page,
	}
	// The discount is only known after enrichment, so the filter has to see
	// every remaining match before the page is cut.
	if withDiscount {
		q.Limit = 0
	}
	entries, err := e.repos.CatalogEntries.Query(ctx, q)
	if err != nil {
		return Result{}, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Ranking > entries[j].Ranking })

	items, err := e.enrich(ctx, entries, shopper, settings)
	if err != nil {
		return Result{}, err
	}

	if withDiscount {
		kept := items[:0]
		for _, it := range items {
			if it.DiscountPercent != nil && *it.DiscountPercent <= maxDiscount {
				kept = append(kept, it)
			}
		}
		items = kept
		if len(items) > page {
			items = items[:page]
		}
	}

	return Result{Items: items, ItemsCount: total, Discounts: discountRange(items)}, nil
}

// discountBound reads the reserved discount filter. An unreadable bound is
// ignored.
func discountBound(fields map[string][]string) (float64, bool) {
	values := fields[DiscountFilter]
	if len(values) == 0 || values[0] == "" {
		return 0, false
	}
	bound, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		logger.GetLogger().Debug("ignoring unreadable discount filter", zap.String("value", values[0]))
		return 0, false
	}
	return bound, true
}

// addFieldFilters appends one AND predicate per allow-listed field. Fields
// outside the allow-list are skipped.
func addFieldFilters(filters *store.PredicateSet, fields map[string][]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := fields[name]
		if name == DiscountFilter || len(values) == 0 {
			continue
		}
		def, ok := models.CatalogFilterFields[name]
		if !ok {
			continue
		}
		switch {
		case def.IsMultiSelect():
			filters.Add(store.WhereChild(def.Child, def.ChildField, store.OpIn, values))
		case len(values) == 1:
			filters.Add(store.Where(def.Name, store.OpEq, values[0]))
		default:
			filters.Add(store.Where(def.Name, store.OpIn, values))
		}
	}
}

// categoryScope returns the OR group matching entries listed under group:
// directly, through a cross-listing, or in a descendant group when the group
// includes descendants.
func (e *Engine) categoryScope(ctx context.Context, group string) ([]store.Predicate, error) {
	scope := []store.Predicate{
		store.Where("item_group", store.OpEq, group),
		store.WhereChild("website_item_groups", "item_group", store.OpEq, group),
	}
	g, ok, err := e.categories.Get(ctx, group)
	if err != nil {
		return nil, err
	}
	if ok && g.IncludeDescendants {
		groups, err := e.categories.Descendants(ctx, group, true)
		if err != nil {
			return nil, err
		}
		if len(groups) > 0 {
			scope = append(scope, store.Where("item_group", store.OpIn, groups))
		}
	}
	return scope, nil
}

// addCategoryScope adds the category OR group. When a search term will add
// its own OR group, the category is resolved to entry names first so the two
// groups are not merged into one.
func (e *Engine) addCategoryScope(ctx context.Context, filters *store.PredicateSet, group string, withSearch bool) error {
	scope, err := e.categoryScope(ctx, group)
	if err != nil {
		return err
	}
	if !withSearch {
		filters.AddOr(scope...)
		return nil
	}

	inScope := store.PredicateSet{And: append([]store.Predicate(nil), filters.And...), Or: scope}
	entries, err := e.repos.CatalogEntries.Query(ctx, store.Query{Filters: inScope})
	if err != nil {
		return err
	}
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	filters.Add(store.Where("name", store.OpIn, names))
	return nil
}

// addSearch adds an OR group of LIKE predicates over the search fields.
func (e *Engine) addSearch(ctx context.Context, filters *store.PredicateSet, term string) error {
	size, err := e.catalogSize(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var fields []string
	for _, f := range append(append([]string(nil), defaultSearchFields...), models.CatalogSearchFields...) {
		if seen[f] || (f == "web_long_description" && size > LargeCatalog) {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}
	sort.Strings(fields)

	pattern := "%" + term + "%"
	for _, f := range fields {
		filters.AddOr(store.Where(f, store.OpLike, pattern))
	}
	return nil
}

func (e *Engine) catalogSize(ctx context.Context) (int, error) {
	if e.count != nil {
		if n, ok := e.count.Get(ctx); ok {
			return n, nil
		}
	}
	n, err := e.repos.CatalogEntries.Count(ctx, store.PredicateSet{})
	if err != nil {
		return 0, err
	}
	if e.count != nil {
		if err := e.count.Set(ctx, n); err != nil {
			logger.GetLogger().Warn("failed to cache catalog size", zap.Error(err))
		}
	}
	return n, nil
}

// attributeMatches returns the item codes carrying one of the requested
// values for every requested attribute.
func (e *Engine) attributeMatches(ctx context.Context, filters map[string][]string) ([]string, error) {
	var matched map[string]bool
	for attribute, values := range filters {
		items, err := e.repos.Items.Query(ctx, store.Query{Filters: store.Filter(
			store.WhereChild("attributes", "attribute", store.OpEq, attribute),
			store.WhereChild("attributes", "attribute_value", store.OpIn, values),
		)})
		if err != nil {
			return nil, err
		}

		codes := make(map[string]bool, len(items))
		for _, item := range items {
			if hasAttributeValue(item, attribute, values) && (matched == nil || matched[item.ItemCode]) {
				codes[item.ItemCode] = true
			}
		}
		matched = codes
		if len(matched) == 0 {
			break
		}
	}

	out := make([]string, 0, len(matched))
	for code := range matched {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

// hasAttributeValue checks attribute and value on the same attribute row.
func hasAttributeValue(item models.Item, attribute string, values []string) bool {
	for _, a := range item.Attributes {
		if a.Attribute != attribute {
			continue
		}
		for _, v := range values {
			if a.AttributeValue == v {
				return true
			}
		}
	}
	return false
}

func (e *Engine) enrich(ctx context.Context, entries []models.CatalogEntry, shopper models.Shopper, settings models.WebshopSettings) ([]Item, error) {
	inCart := map[string]bool{}
	if settings.Enabled && e.cart != nil {
		codes, err := e.cart.CartItemCodes(ctx, shopper)
		if err != nil {
			return nil, err
		}
		inCart = codes
	}
	wished, err := e.wishlist(ctx, shopper)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		item := Item{CatalogEntry: entry, InCart: inCart[entry.ItemCode], Wished: wished[entry.ItemCode]}

		info, err := e.info.Get(ctx, entry.ItemCode, shopper, settings, nil)
		if err != nil {
			// The item stays listed without price or stock.
			logger.GetLogger().Warn("failed to enrich catalog entry",
				zap.String("item_code", entry.ItemCode),
				zap.Error(err))
		}
		if p := info.Price; p != nil {
			rate := p.PriceListRate
			item.PriceListRate = &rate
			item.FormattedPrice = p.FormattedPrice
			item.FormattedMRP = p.FormattedMRP
			if p.DiscountPercent != nil && *p.DiscountPercent > 0 {
				d := *p.DiscountPercent
				item.DiscountPercent = &d
			}
			if p.FormattedMRP != "" {
				item.Discount = p.FormattedDiscountPercent
				if item.Discount == "" {
					item.Discount = p.FormattedDiscountRate
				}
			}
		}
		item.InStock = info.InStock
		item.StockQty = info.StockQty
		if settings.Enabled && settings.ShowStockAvailability && entry.OnBackorder {
			no := false
			item.InStock = &no
		}
		items = append(items, item)
	}
	return items, nil
}

func (e *Engine) wishlist(ctx context.Context, shopper models.Shopper) (map[string]bool, error) {
	out := map[string]bool{}
	if shopper.IsGuest() {
		return out, nil
	}
	rows, err := e.repos.Wishlist.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("user", store.OpEq, shopper.User)),
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ItemCode] = true
	}
	return out, nil
}

func discountRange(items []Item) []float64 {
	out := []float64{}
	for _, it := range items {
		if it.DiscountPercent == nil {
			continue
		}
		d := *it.DiscountPercent
		if len(out) == 0 {
			out = []float64{d, d}
			continue
		}
		out[0] = min(out[0], d)
		out[1] = max(out[1], d)
	}
	return out
}
