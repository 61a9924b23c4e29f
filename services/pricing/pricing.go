// Package pricing resolves the selling price of an item for a shopper: the
// list rate on a price list and the best matching pricing rule.
package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// Price is the resolved price of one item. Rate is what the shopper pays;
// MRP is the list rate before any rule.
type Price struct {
	ItemCode                 string   `json:"item_code"`
	Currency                 string   `json:"currency"`
	PriceListRate            float64  `json:"price_list_rate"`
	MRP                      float64  `json:"mrp"`
	DiscountPercent          *float64 `json:"discount_percent,omitempty"`
	FormattedPrice           string   `json:"formatted_price"`
	FormattedMRP             string   `json:"formatted_mrp,omitempty"`
	FormattedDiscountPercent string   `json:"formatted_discount_percent,omitempty"`
	FormattedDiscountRate    string   `json:"formatted_discount_rate,omitempty"`
	PricingRule              string   `json:"pricing_rule,omitempty"`
}

// Request describes who is buying what.
type Request struct {
	ItemCode      string
	PriceList     string
	Customer      string
	CustomerGroup string
	Company       string
	Qty           float64
}

type Service struct {
	items      store.Repository[models.Item]
	priceLists store.Repository[models.PriceList]
	itemPrices store.Repository[models.ItemPrice]
	rules      store.Repository[models.PricingRule]
	now        func() time.Time
}

func New(items store.Repository[models.Item], priceLists store.Repository[models.PriceList], itemPrices store.Repository[models.ItemPrice], rules store.Repository[models.PricingRule]) *Service {
	return &Service{items: items, priceLists: priceLists, itemPrices: itemPrices, rules: rules, now: time.Now}
}

// Get returns the price of req.ItemCode, or nil when the item has no price on
// the list. A variant without a price of its own uses its template's price.
func (s *Service) Get(ctx context.Context, req Request) (*Price, error) {
	if req.PriceList == "" {
		return nil, nil
	}
	item, err := s.items.Get(ctx, req.ItemCode)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	row, ok, err := s.listRate(ctx, req.ItemCode, req.PriceList, req.Customer)
	if err != nil {
		return nil, err
	}
	if !ok && item.VariantOf != "" {
		row, ok, err = s.listRate(ctx, item.VariantOf, req.PriceList, req.Customer)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, nil
	}

	currency := row.Currency
	if currency == "" {
		pl, err := s.priceLists.Get(ctx, req.PriceList)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		currency = pl.Currency
	}

	price := &Price{
		ItemCode:      req.ItemCode,
		Currency:      currency,
		PriceListRate: row.PriceListRate,
		MRP:           row.PriceListRate,
	}

	rule, err := s.bestRule(ctx, req, item)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		applyRule(price, rule)
	}

	price.FormattedPrice = FormatMoney(price.PriceListRate, currency)
	if price.MRP != price.PriceListRate {
		price.FormattedMRP = FormatMoney(price.MRP, currency)
	}
	return price, nil
}

// listRate picks the customer's own price row over the general one.
func (s *Service) listRate(ctx context.Context, itemCode, priceList, customer string) (models.ItemPrice, bool, error) {
	rows, err := s.itemPrices.Query(ctx, store.Query{Filters: store.Filter(
		store.Where("item_code", store.OpEq, itemCode),
		store.Where("price_list", store.OpEq, priceList),
	)})
	if err != nil {
		return models.ItemPrice{}, false, err
	}
	var general *models.ItemPrice
	for i := range rows {
		switch rows[i].Customer {
		case "":
			if general == nil {
				general = &rows[i]
			}
		case customer:
			if customer != "" {
				return rows[i], true, nil
			}
		}
	}
	if general == nil {
		return models.ItemPrice{}, false, nil
	}
	return *general, true, nil
}

func applyRule(price *Price, rule *models.PricingRule) {
	price.PricingRule = rule.Name
	mrp := price.MRP
	switch rule.RateOrDiscount {
	case models.DiscountAmount:
		price.PriceListRate = max(mrp-rule.DiscountAmount, 0)
		if off := mrp - price.PriceListRate; off > 0 {
			price.FormattedDiscountRate = FormatMoney(off, price.Currency)
		}
	case models.RateOverride:
		price.PriceListRate = rule.Rate
		if off := mrp - rule.Rate; off > 0 {
			price.FormattedDiscountRate = FormatMoney(off, price.Currency)
		}
	default:
		pct := rule.DiscountPercentage
		price.DiscountPercent = &pct
		price.FormattedDiscountPercent = fmt.Sprintf("%.0f%%", pct)
		price.PriceListRate = mrp * (1 - pct/100)
	}
}

type candidate struct {
	rule  models.PricingRule
	party int
	scope int
	seq   int
}

// bestRule returns the most specific applicable selling rule. A rule for the
// customer beats one for the customer group, which beats a rule for everyone;
// then an item code rule beats an item group or brand rule; then priority.
func (s *Service) bestRule(ctx context.Context, req Request, item models.Item) (*models.PricingRule, error) {
	rules, err := s.rules.Query(ctx, store.Query{Filters: store.Filter(
		store.Where("disabled", store.OpEq, false),
		store.Where("selling", store.OpEq, true),
	)})
	if err != nil {
		return nil, err
	}

	today := s.now()
	qty := req.Qty
	if qty <= 0 {
		qty = 1
	}

	var matches []candidate
	for i, r := range rules {
		party, ok := partyScore(r, req)
		if !ok {
			continue
		}
		scope, ok := itemScore(r, item)
		if !ok {
			continue
		}
		if (r.PriceList != "" && r.PriceList != req.PriceList) ||
			(r.Company != "" && req.Company != "" && r.Company != req.Company) ||
			r.MinQty > qty ||
			(!r.ValidFrom.IsZero() && today.Before(r.ValidFrom)) ||
			(!r.ValidUpto.IsZero() && today.After(endOfDay(r.ValidUpto))) {
			continue
		}
		matches = append(matches, candidate{rule: r, party: party, scope: scope, seq: i})
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.party != b.party {
			return a.party > b.party
		}
		if a.scope != b.scope {
			return a.scope > b.scope
		}
		if a.rule.Priority != b.rule.Priority {
			return a.rule.Priority > b.rule.Priority
		}
		return a.seq < b.seq
	})
	return &matches[0].rule, nil
}

func partyScore(r models.PricingRule, req Request) (int, bool) {
	switch {
	case r.Customer != "":
		return 2, req.Customer != "" && r.Customer == req.Customer
	case r.CustomerGroup != "":
		return 1, req.CustomerGroup != "" && r.CustomerGroup == req.CustomerGroup
	}
	return 0, true
}

func itemScore(r models.PricingRule, item models.Item) (int, bool) {
	switch {
	case r.ItemCode != "":
		return 2, r.ItemCode == item.ItemCode || (item.VariantOf != "" && r.ItemCode == item.VariantOf)
	case r.ItemGroup != "":
		return 1, r.ItemGroup == item.ItemGroup
	case r.Brand != "":
		return 1, r.Brand == item.Brand
	}
	return 0, true
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
