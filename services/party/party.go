// Package party resolves the customer behind a storefront session.
package party

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

type Service struct {
	contacts  store.Repository[models.Contact]
	customers store.Repository[models.Customer]
}

func New(contacts store.Repository[models.Contact], customers store.Repository[models.Customer]) *Service {
	return &Service{contacts: contacts, customers: customers}
}

// Resolve maps a login email to a shopper. Guests resolve to the default
// customer group. With create, a logged-in user without a customer gets one
// (and a contact) in the default customer group.
func (s *Service) Resolve(ctx context.Context, user string, settings models.WebshopSettings, create bool) (models.Shopper, error) {
	shopper := models.Shopper{User: user, CustomerGroup: settings.DefaultCustomerGroup}
	if shopper.IsGuest() {
		shopper.User = models.GuestUser
		return shopper, nil
	}

	contact, found, err := s.contacts.First(ctx, store.Query{
		Filters: store.Filter(store.Where("email_id", store.OpEq, user)),
	})
	if err != nil {
		return shopper, err
	}

	if found && contact.Customer != "" {
		customer, err := s.customers.Get(ctx, contact.Customer)
		if err != nil {
			return shopper, err
		}
		shopper.Customer = customer.Name
		if customer.CustomerGroup != "" {
			shopper.CustomerGroup = customer.CustomerGroup
		}
		return shopper, nil
	}
	if !create {
		return shopper, nil
	}

	customer := models.Customer{
		Name:          "CUST-" + uuid.Must(uuid.NewV7()).String(),
		CustomerName:  fullName(user),
		CustomerType:  "Individual",
		CustomerGroup: settings.DefaultCustomerGroup,
	}
	if err := s.customers.Save(ctx, &customer); err != nil {
		return shopper, err
	}

	if !found {
		contact = models.Contact{
			Name:      uuid.Must(uuid.NewV7()).String(),
			EmailID:   user,
			FirstName: customer.CustomerName,
		}
	}
	contact.Customer = customer.Name
	if err := s.contacts.Save(ctx, &contact); err != nil {
		return shopper, err
	}

	logger.GetLogger().Info("created customer for shopper",
		zap.String("user", user),
		zap.String("customer", customer.Name))
	shopper.Customer = customer.Name
	return shopper, nil
}

// fullName derives a display name from the local part of an email address.
func fullName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	if len(parts) == 0 {
		return email
	}
	return strings.Join(parts, " ")
}
