// Package wishlist stores the items a logged-in shopper has saved for later.
package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

type Service struct {
	items   store.Repository[models.WishlistItem]
	entries store.Repository[models.CatalogEntry]
}

func New(items store.Repository[models.WishlistItem], entries store.Repository[models.CatalogEntry]) *Service {
	return &Service{items: items, entries: entries}
}

// Add saves itemCode for the shopper. Adding a saved item again is a no-op.
func (s *Service) Add(ctx context.Context, shopper models.Shopper, itemCode string) (models.WishlistItem, error) {
	const op = "wishlist.add"
	if shopper.IsGuest() {
		return models.WishlistItem{}, apperrors.LoginRequired(op)
	}

	if existing, ok, err := s.find(ctx, shopper.User, itemCode); err != nil || ok {
		return existing, err
	}

	entry, ok, err := s.entries.First(ctx, store.Query{
		Filters: store.Filter(
			store.Where("item_code", store.OpEq, itemCode),
			store.Where("published", store.OpEq, true),
		),
	})
	if err != nil {
		return models.WishlistItem{}, err
	}
	if !ok {
		return models.WishlistItem{}, apperrors.NotFound(op, fmt.Sprintf("Item %s is not available on the website", itemCode))
	}

	row := models.WishlistItem{
		Name:             uuid.Must(uuid.NewV7()).String(),
		User:             shopper.User,
		ItemCode:         itemCode,
		ItemName:         entry.WebItemName,
		WebsiteItem:      entry.Name,
		WebsiteWarehouse: entry.WebsiteWarehouse,
		Route:            entry.Route,
		Image:            entry.WebsiteImage,
	}
	if err := s.items.Save(ctx, &row); err != nil {
		return models.WishlistItem{}, err
	}
	return row, nil
}

// Remove drops itemCode from the shopper's wishlist.
func (s *Service) Remove(ctx context.Context, shopper models.Shopper, itemCode string) error {
	if shopper.IsGuest() {
		return apperrors.LoginRequired("wishlist.remove")
	}
	row, ok, err := s.find(ctx, shopper.User, itemCode)
	if err != nil || !ok {
		return err
	}
	return s.items.Delete(ctx, row.Name)
}

// List returns the shopper's wishlist, newest first.
func (s *Service) List(ctx context.Context, shopper models.Shopper) ([]models.WishlistItem, error) {
	if shopper.IsGuest() {
		return nil, apperrors.LoginRequired("wishlist.list")
	}
	return s.items.Query(ctx, store.Query{
		Filters: store.Filter(store.Where("user", store.OpEq, shopper.User)),
		OrderBy: []store.Order{{Field: "created_at", Desc: true}},
	})
}

func (s *Service) find(ctx context.Context, user, itemCode string) (models.WishlistItem, bool, error) {
	return s.items.First(ctx, store.Query{
		Filters: store.Filter(
			store.Where("user", store.OpEq, user),
			store.Where("item_code", store.OpEq, itemCode),
		),
	})
}
