package shopping_cart

import (
	"context"

	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const promotedNotice = "Enabling 'Use for Shopping Cart', as Shopping Cart is enabled and there should be at least one Tax Rule for Shopping Cart"

// PromoteCartTaxRule runs before a tax rule is saved. With the cart enabled,
// an unflagged rule is flagged when no other rule is, and an advisory is
// raised instead of rejecting the save.
func (s *Service) PromoteCartTaxRule(ctx context.Context, rule *models.TaxRule, _ *models.TaxRule) error {
	if rule.UseForShoppingCart {
		return nil
	}
	st, err := s.settings.Get(ctx)
	if err != nil || !st.Enabled {
		return err
	}
	others, err := s.flaggedTaxRules(ctx, rule.Name)
	if err != nil {
		return err
	}
	if len(others) > 0 {
		return nil
	}

	rule.UseForShoppingCart = true
	events.Notify(ctx, "Tax Rule", promotedNotice)
	logger.GetLogger().Info("tax rule promoted for shopping cart", zap.String("tax_rule", rule.Name))
	return nil
}

// DemoteOtherCartTaxRules runs after a tax rule is saved. With the cart
// enabled, a newly flagged rule takes the flag from every other rule.
func (s *Service) DemoteOtherCartTaxRules(ctx context.Context, rule *models.TaxRule, _ *models.TaxRule) error {
	if !rule.UseForShoppingCart {
		return nil
	}
	st, err := s.settings.Get(ctx)
	if err != nil || !st.Enabled {
		return err
	}
	others, err := s.flaggedTaxRules(ctx, rule.Name)
	if err != nil {
		return err
	}
	for i := range others {
		others[i].UseForShoppingCart = false
		if err := s.repos.TaxRules.Save(ctx, &others[i]); err != nil {
			return err
		}
		logger.GetLogger().Info("tax rule no longer used for shopping cart",
			zap.String("tax_rule", others[i].Name),
			zap.String("replaced_by", rule.Name))
	}
	return nil
}

// PromoteAfterDelete hands the cart flag to the newest remaining rule when
// the flagged rule is deleted.
func (s *Service) PromoteAfterDelete(ctx context.Context, rule *models.TaxRule, _ *models.TaxRule) error {
	if !rule.UseForShoppingCart {
		return nil
	}
	st, err := s.settings.Get(ctx)
	if err != nil || !st.Enabled {
		return err
	}
	next, ok, err := s.repos.TaxRules.First(ctx, store.Query{
		OrderBy: []store.Order{{Field: "created_at", Desc: true}, {Field: "name", Desc: true}},
	})
	if err != nil || !ok {
		return err
	}
	next.UseForShoppingCart = true
	if err := s.repos.TaxRules.Save(ctx, &next); err != nil {
		return err
	}
	events.Notify(ctx, "Tax Rule", promotedNotice)
	return nil
}

func (s *Service) flaggedTaxRules(ctx context.Context, except string) ([]models.TaxRule, error) {
	return s.repos.TaxRules.Query(ctx, store.Query{Filters: store.Filter(
		store.Where("use_for_shopping_cart", store.OpEq, true),
		store.Where("name", store.OpNotEq, except),
	)})
}
