// Package settings loads and validates the webshop settings record.
package settings

import (
	"context"
	"fmt"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/filter_builder"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

type Service struct {
	repos *repositories.Set
}

func New(repos *repositories.Set) *Service {
	return &Service{repos: repos}
}

// Get returns the stored settings, or the defaults before the first save.
func (s *Service) Get(ctx context.Context) (models.WebshopSettings, error) {
	st, err := s.repos.Settings.Get(ctx, models.WebshopSettingsKey)
	if apperrors.IsNotFound(err) {
		return models.DefaultWebshopSettings(), nil
	}
	return st, err
}

// Save stores the settings; validation runs as a before-save hook.
func (s *Service) Save(ctx context.Context, st *models.WebshopSettings) error {
	st.Name = models.WebshopSettingsKey
	return s.repos.Settings.Save(ctx, st)
}

// Validate checks filter configuration and, when the cart is enabled, that
// everything the cart needs to price and tax an order is in place.
func (s *Service) Validate(ctx context.Context, st models.WebshopSettings) error {
	const op = "settings.validate"

	if err := filter_builder.ValidateFields(op, st.FilterFields); err != nil {
		return err
	}
	if !st.Enabled {
		return nil
	}

	switch {
	case st.Company == "":
		return misconfigured(op, "Company is required when the shopping cart is enabled")
	case st.PriceList == "":
		return misconfigured(op, "Price List is required when the shopping cart is enabled")
	case st.DefaultCustomerGroup == "":
		return misconfigured(op, "Default Customer Group is required when the shopping cart is enabled")
	}

	if err := s.validatePriceList(ctx, op, st); err != nil {
		return err
	}
	return s.validateTaxRule(ctx, op)
}

func (s *Service) validatePriceList(ctx context.Context, op string, st models.WebshopSettings) error {
	pl, err := s.repos.PriceLists.Get(ctx, st.PriceList)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return misconfigured(op, fmt.Sprintf("Price List %s does not exist", st.PriceList))
		}
		return err
	}
	if !pl.Enabled || !pl.Selling {
		return misconfigured(op, fmt.Sprintf("Price List %s must be enabled and used for selling", pl.Name))
	}

	company, err := s.repos.Companies.Get(ctx, st.Company)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return misconfigured(op, fmt.Sprintf("Company %s does not exist", st.Company))
		}
		return err
	}
	if company.DefaultCurrency == "" {
		return misconfigured(op, fmt.Sprintf("Please specify a default currency for Company %s", company.Name))
	}
	if pl.Currency == company.DefaultCurrency {
		return nil
	}

	found, err := s.repos.CurrencyExchanges.Count(ctx, store.Filter(
		store.Where("from_currency", store.OpEq, pl.Currency),
		store.Where("to_currency", store.OpEq, company.DefaultCurrency),
	))
	if err != nil {
		return err
	}
	if found == 0 {
		return misconfigured(op, fmt.Sprintf("Currency Exchange record not found for %s to %s", pl.Currency, company.DefaultCurrency))
	}
	return nil
}

func (s *Service) validateTaxRule(ctx context.Context, op string) error {
	n, err := s.repos.TaxRules.Count(ctx, store.Filter(store.Where("use_for_shopping_cart", store.OpEq, true)))
	if err != nil {
		return err
	}
	if n == 0 {
		return misconfigured(op, "Set Tax Rule for shopping cart")
	}
	return nil
}

func misconfigured(op, msg string) error {
	return apperrors.Configuration(op, msg, apperrors.ErrCartMisconfigured).WithTitle("Shopping Cart Setup Error")
}
