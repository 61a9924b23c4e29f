package models

import (
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

const EntityItemReview events.Entity = "Item Review"

// MaxRating is the top of the star scale; ratings run from 1 to MaxRating.
const MaxRating = 5

// ItemReview is a customer's rating of a published catalog entry.
type ItemReview struct {
	Name        string    `json:"name" gorm:"primaryKey"`
	WebsiteItem string    `json:"website_item" gorm:"not null;index"`
	Item        string    `json:"item"`
	User        string    `json:"user" gorm:"not null;index"`
	Customer    string    `json:"customer"`
	ReviewTitle string    `json:"review_title"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	PublishedOn time.Time `json:"published_on"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (r ItemReview) RecordKey() string { return r.Name }

var ItemReviewSchema = store.Schema{
	Entity:       EntityItemReview,
	Table:        "item_reviews",
	Key:          "name",
	DefaultOrder: []store.Order{{Field: "published_on", Desc: true}},
	TieBreak:     []store.Order{{Field: "name", Desc: true}},
}
