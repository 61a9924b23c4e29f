package shopping_cart

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/pricing"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// ValidateDraft runs before every draft order save. Finalized orders are
// immutable; cart orders must only hold listed items; prices, totals and
// taxes are recomputed from the lines.
func (s *Service) ValidateDraft(ctx context.Context, order *models.DraftOrder, before *models.DraftOrder) error {
	const op = "draft_order.validate"

	if before != nil && before.IsSubmitted() {
		return apperrors.Immutable(op, fmt.Sprintf("Draft Order %s is already submitted and cannot be changed", before.Name)).
			WithTitle("Not Allowed")
	}
	if order.Status == "" {
		order.Status = models.DraftOrderDraft
	}
	if order.OrderType == models.OrderTypeShoppingCart {
		if err := s.validateListedItems(ctx, op, order); err != nil {
			return err
		}
	}
	if err := s.setPrices(ctx, order); err != nil {
		return err
	}
	setTotals(order)
	return s.setTaxes(ctx, order)
}

func (s *Service) validateListedItems(ctx context.Context, op string, order *models.DraftOrder) error {
	for i, line := range order.Items {
		item, err := s.repos.Items.Get(ctx, line.ItemCode)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if item.ItemCode == "" {
			item.ItemCode = line.ItemCode
		}
		_, ok, err := s.listing(ctx, item)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Validation(op,
				fmt.Sprintf("Row #%d: Item %s must have a Website Item for Shopping Cart Quotations", i+1, line.ItemCode),
				apperrors.ErrNotAvailable).WithTitle("Unpublished Item")
		}
	}
	return nil
}

func (s *Service) setPrices(ctx context.Context, order *models.DraftOrder) error {
	for i := range order.Items {
		line := &order.Items[i]
		line.Idx = i + 1
		line.Parent = order.Name

		price, err := s.pricing.Get(ctx, pricing.Request{
			ItemCode:      line.ItemCode,
			PriceList:     order.SellingPriceList,
			Customer:      order.PartyName,
			CustomerGroup: order.CustomerGroup,
			Company:       order.Company,
			Qty:           line.Qty,
		})
		if err != nil {
			return err
		}
		line.PriceListRate, line.Rate, line.DiscountPercentage = 0, 0, 0
		if price != nil {
			line.PriceListRate = price.MRP
			line.Rate = round2(price.PriceListRate)
			if price.DiscountPercent != nil {
				line.DiscountPercentage = *price.DiscountPercent
			}
		}
		line.Amount = round2(line.Rate * line.Qty)
	}
	return nil
}

func setTotals(order *models.DraftOrder) {
	var qty, net float64
	for _, line := range order.Items {
		qty += line.Qty
		net += line.Amount
	}
	order.TotalQty = qty
	order.NetTotal = round2(net)
}

// setTaxes applies the template chosen by the cart tax rule.
func (s *Service) setTaxes(ctx context.Context, order *models.DraftOrder) error {
	order.Taxes = nil
	order.TotalTaxes = 0
	order.GrandTotal = order.NetTotal

	if order.OrderType == models.OrderTypeShoppingCart {
		name, err := s.cartTaxTemplate(ctx, order)
		if err != nil {
			return err
		}
		order.TaxesAndCharges = name
	}
	if order.TaxesAndCharges == "" || len(order.Items) == 0 {
		return nil
	}

	tmpl, err := s.repos.SalesTaxTemplates.Get(ctx, order.TaxesAndCharges)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if tmpl.Disabled {
		return nil
	}

	rows := append([]models.SalesTaxTemplateRow(nil), tmpl.Taxes...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Idx < rows[j].Idx })

	running := order.NetTotal
	for i, row := range rows {
		var amount float64
		switch row.ChargeType {
		case models.ChargeActual:
			amount = row.Rate
		default:
			amount = order.NetTotal * row.Rate / 100
		}
		amount = round2(amount)
		running = round2(running + amount)
		order.Taxes = append(order.Taxes, models.DraftOrderTax{
			Parent:      order.Name,
			Idx:         i + 1,
			ChargeType:  row.ChargeType,
			AccountHead: row.AccountHead,
			Description: row.Description,
			Rate:        row.Rate,
			TaxAmount:   amount,
			Total:       running,
		})
		order.TotalTaxes = round2(order.TotalTaxes + amount)
	}
	order.GrandTotal = running
	return nil
}

// cartTaxTemplate picks the tax template of the cart tax rule that best fits
// the order's customer: a rule for the customer beats one for the customer
// group, which beats a general rule; then priority.
func (s *Service) cartTaxTemplate(ctx context.Context, order *models.DraftOrder) (string, error) {
	rules, err := s.repos.TaxRules.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("use_for_shopping_cart", store.OpEq, true)),
	})
	if err != nil {
		return "", err
	}

	best, bestScore := "", -1
	bestPriority := math.MinInt
	for _, r := range rules {
		if r.Company != "" && order.Company != "" && r.Company != order.Company {
			continue
		}
		score := 0
		switch {
		case r.Customer != "":
			if r.Customer != order.PartyName {
				continue
			}
			score = 2
		case r.CustomerGroup != "":
			if r.CustomerGroup != order.CustomerGroup {
				continue
			}
			score = 1
		}
		if score > bestScore || (score == bestScore && r.Priority > bestPriority) {
			best, bestScore, bestPriority = r.SalesTaxTemplate, score, r.Priority
		}
	}
	return best, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
