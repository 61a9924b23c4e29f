package models

import (
	"fmt"
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const (
	EntityCustomer     events.Entity = "Customer"
	EntityContact      events.Entity = "Contact"
	EntityWishlistItem events.Entity = "Wishlist Item"
)

// GuestUser is the session identity of an anonymous shopper.
const GuestUser = "Guest"

type Customer struct {
	Name          string    `json:"name" gorm:"primaryKey"`
	CustomerName  string    `json:"customer_name"`
	CustomerType  string    `json:"customer_type" gorm:"default:'Individual'"`
	CustomerGroup string    `json:"customer_group"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (c Customer) RecordKey() string { return c.Name }

var CustomerSchema = store.Schema{Entity: EntityCustomer, Table: "customers", Key: "name"}

// Contact links a shopper's login email to a customer.
type Contact struct {
	Name      string    `json:"name" gorm:"primaryKey"`
	EmailID   string    `json:"email_id" gorm:"uniqueIndex;not null"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Customer  string    `json:"customer" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (c Contact) RecordKey() string { return c.Name }

var ContactSchema = store.Schema{Entity: EntityContact, Table: "contacts", Key: "name"}

type WishlistItem struct {
	Name             string    `json:"name" gorm:"primaryKey"`
	User             string    `json:"user" gorm:"not null;index"`
	ItemCode         string    `json:"item_code" gorm:"not null;index"`
	ItemName         string    `json:"item_name"`
	WebsiteItem      string    `json:"website_item"`
	WebsiteWarehouse string    `json:"website_warehouse"`
	Route            string    `json:"route"`
	Image            string    `json:"image"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (w WishlistItem) RecordKey() string { return w.Name }

// WishlistKey is the key of user's wishlist row for itemCode.
func WishlistKey(user, itemCode string) string {
	return fmt.Sprintf("%s:%s", user, itemCode)
}

var WishlistItemSchema = store.Schema{
	Entity:   EntityWishlistItem,
	Table:    "wishlist_items",
	Key:      "name",
	TieBreak: []store.Order{{Field: "created_at"}, {Field: "name"}},
}

// Shopper is the resolved identity behind a storefront request.
type Shopper struct {
	// User is the login email, or GuestUser.
	User          string `json:"user"`
	Customer      string `json:"customer,omitempty"`
	CustomerGroup string `json:"customer_group,omitempty"`
}

func (s Shopper) IsGuest() bool {
	return s.User == "" || s.User == GuestUser
}
