// Package shopping_cart maps storefront cart actions onto the shopper's open
// draft order: lazy creation, quantity updates, finalization and the
// validation that keeps line prices, totals and taxes consistent.
package shopping_cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/metrics"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/party"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/pricing"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/settings"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// conflictRetries is how often a read-modify-write is retried after another
// request updated the same draft order.
const conflictRetries = 1

// Line is a cart line with the listing it is shown under. Variants without a
// listing of their own borrow their template's.
type Line struct {
	models.DraftOrderItem
	WebItemName string `json:"web_item_name"`
	Route       string `json:"route"`
	Image       string `json:"image"`
}

// Cart is the storefront view of the open draft order.
type Cart struct {
	Doc       *models.DraftOrder `json:"doc"`
	Items     []Line             `json:"items"`
	CartCount int                `json:"cart_count"`
}

type Service struct {
	repos    *repositories.Set
	pricing  *pricing.Service
	party    *party.Service
	settings *settings.Service
	now      func() time.Time
}

func New(repos *repositories.Set, pricing *pricing.Service, party *party.Service, settings *settings.Service) *Service {
	return &Service{repos: repos, pricing: pricing, party: party, settings: settings, now: time.Now}
}

// OpenDraft returns the shopper's latest open cart order, or nil.
func (s *Service) OpenDraft(ctx context.Context, shopper models.Shopper) (*models.DraftOrder, error) {
	if shopper.IsGuest() || shopper.Customer == "" {
		return nil, nil
	}
	order, ok, err := s.repos.DraftOrders.First(ctx, store.Query{
		Filters: store.Filter(
			store.Where("party_name", store.OpEq, shopper.Customer),
			store.Where("contact_email", store.OpEq, shopper.User),
			store.Where("order_type", store.OpEq, models.OrderTypeShoppingCart),
			store.Where("status", store.OpEq, models.DraftOrderDraft),
		),
		OrderBy: []store.Order{{Field: "updated_at", Desc: true}},
	})
	if err != nil || !ok {
		return nil, err
	}
	return &order, nil
}

// CartItemCodes returns the item codes in the shopper's open cart.
func (s *Service) CartItemCodes(ctx context.Context, shopper models.Shopper) (map[string]bool, error) {
	order, err := s.OpenDraft(ctx, shopper)
	if err != nil || order == nil {
		return map[string]bool{}, err
	}
	codes := make(map[string]bool, len(order.Items))
	for _, it := range order.Items {
		codes[it.ItemCode] = true
	}
	return codes, nil
}

// GetCart returns the open cart. Without one the cart is empty.
func (s *Service) GetCart(ctx context.Context, shopper models.Shopper) (Cart, error) {
	order, err := s.OpenDraft(ctx, shopper)
	if err != nil {
		return Cart{}, err
	}
	return s.view(ctx, order)
}

// UpdateCart sets the quantity of itemCode in the shopper's cart. A positive
// quantity adds or updates the line, zero removes it. The draft order is
// created on the first add and kept when its last line is removed.
func (s *Service) UpdateCart(ctx context.Context, shopper models.Shopper, st models.WebshopSettings, itemCode string, qty float64) (Cart, error) {
	const op = "shopping_cart.update_cart"

	cart, err := s.retry(ctx, op, func() (*models.DraftOrder, error) {
		return s.updateCart(ctx, op, shopper, st, itemCode, qty)
	})
	metrics.RecordCartOperation("update", err)
	return cart, err
}

func (s *Service) updateCart(ctx context.Context, op string, shopper models.Shopper, st models.WebshopSettings, itemCode string, qty float64) (*models.DraftOrder, error) {
	if !st.Enabled {
		return nil, apperrors.Validation(op, "The shopping cart is not enabled", apperrors.ErrCartMisconfigured)
	}
	if shopper.IsGuest() {
		return nil, apperrors.LoginRequired(op)
	}
	if qty < 0 {
		return nil, apperrors.Validation(op, "Quantity cannot be negative", nil)
	}

	var (
		listing models.CatalogEntry
		item    models.Item
	)
	missing := false
	if qty > 0 {
		var err error
		if item, listing, err = s.purchasable(ctx, op, itemCode); err != nil {
			return nil, err
		}
	} else if _, err := s.repos.Items.Get(ctx, itemCode); err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		missing = true
	}

	shopper, err := s.resolveParty(ctx, shopper, st)
	if err != nil {
		return nil, err
	}
	order, err := s.OpenDraft(ctx, shopper)
	if err != nil {
		return nil, err
	}

	// a deleted item can still be removed from a cart that holds it
	if missing && (order == nil || order.Line(itemCode) < 0) {
		return nil, notAvailable(op, itemCode)
	}

	if order == nil {
		if qty == 0 {
			return nil, nil
		}
		if order, err = s.newDraft(ctx, shopper, st); err != nil {
			return nil, err
		}
	}

	i := order.Line(itemCode)
	switch {
	case qty == 0 && i >= 0:
		order.Items = append(order.Items[:i], order.Items[i+1:]...)
	case qty == 0:
		// Nothing to remove; the save below only touches the timestamp.
	case i >= 0:
		order.Items[i].Qty = qty
		order.Items[i].Warehouse = listing.WebsiteWarehouse
	default:
		order.Items = append(order.Items, models.DraftOrderItem{
			Parent:    order.Name,
			ItemCode:  itemCode,
			ItemName:  item.ItemName,
			UOM:       salesUOM(item),
			Qty:       qty,
			Warehouse: listing.WebsiteWarehouse,
		})
	}

	if err := s.repos.DraftOrders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// RequestForQuotation finalizes the open cart, or only saves it when carts
// are kept as drafts. It returns the order name.
func (s *Service) RequestForQuotation(ctx context.Context, shopper models.Shopper, st models.WebshopSettings) (string, error) {
	const op = "shopping_cart.request_for_quotation"

	cart, err := s.retry(ctx, op, func() (*models.DraftOrder, error) {
		if shopper.IsGuest() {
			return nil, apperrors.LoginRequired(op)
		}
		order, err := s.OpenDraft(ctx, shopper)
		if err != nil {
			return nil, err
		}
		if order == nil || len(order.Items) == 0 {
			return nil, apperrors.Validation(op, "Your cart is empty", apperrors.ErrEmptyCart).WithTitle("Empty Cart")
		}
		if !st.SaveQuotationsAsDraft {
			now := s.now()
			order.Status = models.DraftOrderSubmitted
			order.SubmittedAt = &now
		}
		if err := s.repos.DraftOrders.Save(ctx, order); err != nil {
			return nil, err
		}
		return order, nil
	})
	metrics.RecordCartOperation("request_for_quotation", err)
	if err != nil {
		return "", err
	}

	logger.GetLogger().Info("quotation requested",
		zap.String("order", cart.Doc.Name),
		zap.String("status", string(cart.Doc.Status)))
	return cart.Doc.Name, nil
}

// retry runs fn again once when it lost an optimistic concurrency race.
func (s *Service) retry(ctx context.Context, op string, fn func() (*models.DraftOrder, error)) (Cart, error) {
	var (
		order *models.DraftOrder
		err   error
	)
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		order, err = fn()
		if apperrors.KindOf(err) != apperrors.KindConflict {
			break
		}
		logger.GetLogger().Warn("draft order changed concurrently, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return Cart{}, err
	}
	return s.view(ctx, order)
}

func (s *Service) resolveParty(ctx context.Context, shopper models.Shopper, st models.WebshopSettings) (models.Shopper, error) {
	if shopper.Customer != "" {
		return shopper, nil
	}
	return s.party.Resolve(ctx, shopper.User, st, true)
}

func (s *Service) newDraft(ctx context.Context, shopper models.Shopper, st models.WebshopSettings) (*models.DraftOrder, error) {
	order := &models.DraftOrder{
		Name:             "QTN-" + uuid.Must(uuid.NewV7()).String(),
		PartyName:        shopper.Customer,
		ContactEmail:     shopper.User,
		OrderType:        models.OrderTypeShoppingCart,
		Status:           models.DraftOrderDraft,
		Company:          st.Company,
		SellingPriceList: st.PriceList,
		CustomerGroup:    shopper.CustomerGroup,
	}
	if pl, err := s.repos.PriceLists.Get(ctx, st.PriceList); err == nil {
		order.Currency = pl.Currency
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}
	return order, nil
}

// purchasable returns the item and the listing it is sold under: its own
// published catalog entry or, for a variant, its template's.
func (s *Service) purchasable(ctx context.Context, op, itemCode string) (models.Item, models.CatalogEntry, error) {
	unavailable := notAvailable(op, itemCode)

	item, err := s.repos.Items.Get(ctx, itemCode)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return item, models.CatalogEntry{}, unavailable
		}
		return item, models.CatalogEntry{}, err
	}
	if item.Disabled {
		return item, models.CatalogEntry{}, unavailable
	}

	entry, ok, err := s.listing(ctx, item)
	if err != nil {
		return item, entry, err
	}
	if !ok || !entry.Published {
		return item, entry, unavailable
	}
	return item, entry, nil
}

func notAvailable(op, itemCode string) *apperrors.Error {
	return apperrors.Validation(op,
		fmt.Sprintf("Item %s is not available for purchase", itemCode),
		apperrors.ErrNotAvailable).WithTitle("Not Available")
}

// listing finds the catalog entry of item, falling back to its template's.
func (s *Service) listing(ctx context.Context, item models.Item) (models.CatalogEntry, bool, error) {
	codes := []string{item.ItemCode}
	if item.VariantOf != "" {
		codes = append(codes, item.VariantOf)
	}
	for _, code := range codes {
		entry, ok, err := s.repos.CatalogEntries.First(ctx, store.Query{
			Filters: store.Filter(store.Where("item_code", store.OpEq, code)),
		})
		if err != nil {
			return entry, false, err
		}
		if ok {
			return entry, true, nil
		}
	}
	return models.CatalogEntry{}, false, nil
}

func (s *Service) view(ctx context.Context, order *models.DraftOrder) (Cart, error) {
	cart := Cart{Doc: order, Items: []Line{}}
	if order == nil {
		return cart, nil
	}
	cart.CartCount = int(order.TotalQty)
	for _, it := range order.Items {
		line := Line{DraftOrderItem: it}
		item, err := s.repos.Items.Get(ctx, it.ItemCode)
		if err != nil && !apperrors.IsNotFound(err) {
			return Cart{}, err
		}
		if err == nil {
			entry, ok, err := s.listing(ctx, item)
			if err != nil {
				return Cart{}, err
			}
			if ok {
				line.WebItemName = entry.DisplayName()
				line.Route = entry.Route
				line.Image = entry.WebsiteImage
			}
		}
		cart.Items = append(cart.Items, line)
	}
	return cart, nil
}

func salesUOM(item models.Item) string {
	if item.SalesUOM != "" {
		return item.SalesUOM
	}
	return item.StockUOM
}
