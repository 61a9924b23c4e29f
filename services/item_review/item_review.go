// Package item_review stores customer ratings of published items and
// summarises them for the product page.
package item_review

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// DefaultPageLength is the number of reviews returned when none is asked for.
const DefaultPageLength = 10

// PartyResolver finds the customer behind a login.
type PartyResolver interface {
	Resolve(ctx context.Context, user string, settings models.WebshopSettings, create bool) (models.Shopper, error)
}

type Service struct {
	reviews store.Repository[models.ItemReview]
	entries store.Repository[models.CatalogEntry]
	party   PartyResolver
	now     func() time.Time
}

func New(reviews store.Repository[models.ItemReview], entries store.Repository[models.CatalogEntry], party PartyResolver) *Service {
	return &Service{reviews: reviews, entries: entries, party: party, now: time.Now}
}

// Review is what a shopper submits.
type Review struct {
	Title   string `json:"title" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// Summary is one page of reviews with the rating statistics of the item.
// ReviewsPerRating[i] is the share of reviews, in percent, rated i+1 stars.
type Summary struct {
	Reviews            []models.ItemReview `json:"reviews"`
	AverageRating      float64             `json:"average_rating"`
	AverageWholeRating int                 `json:"average_whole_rating"`
	ReviewsPerRating   []float64           `json:"reviews_per_rating"`
	TotalReviews       int                 `json:"total_reviews"`
}

func emptySummary() Summary {
	return Summary{Reviews: []models.ItemReview{}, ReviewsPerRating: make([]float64, models.MaxRating)}
}

// Add publishes a review of itemCode. Only shoppers linked to a customer may
// review; guests and logins without a customer are unverified reviewers.
func (s *Service) Add(ctx context.Context, shopper models.Shopper, settings models.WebshopSettings, itemCode string, in Review) (models.ItemReview, error) {
	const op = "item_review.add"
	if !settings.EnableReviews {
		return models.ItemReview{}, apperrors.Validation(op, "Reviews are not enabled", nil)
	}

	unverified := apperrors.Validation(op,
		"Please ensure that you are a customer before reviewing this item",
		apperrors.ErrUnverifiedReviewer).WithTitle("Unverified Reviewer")
	if shopper.IsGuest() {
		return models.ItemReview{}, unverified
	}
	if shopper.Customer == "" {
		resolved, err := s.party.Resolve(ctx, shopper.User, settings, false)
		if err != nil {
			return models.ItemReview{}, err
		}
		shopper = resolved
	}
	if shopper.Customer == "" {
		return models.ItemReview{}, unverified
	}

	if in.Rating < 1 || in.Rating > models.MaxRating {
		return models.ItemReview{}, apperrors.Validation(op,
			fmt.Sprintf("Rating must be between 1 and %d", models.MaxRating), nil)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.ItemReview{}, apperrors.Validation(op, "Review title is required", nil)
	}

	entry, err := s.entry(ctx, op, itemCode)
	if err != nil {
		return models.ItemReview{}, err
	}

	review := models.ItemReview{
		Name:        "REV-" + uuid.Must(uuid.NewV7()).String(),
		WebsiteItem: entry.Name,
		Item:        entry.ItemCode,
		User:        shopper.User,
		Customer:    shopper.Customer,
		ReviewTitle: title,
		Rating:      in.Rating,
		Comment:     strings.TrimSpace(in.Comment),
		PublishedOn: s.now().UTC(),
	}
	if err := s.reviews.Save(ctx, &review); err != nil {
		return models.ItemReview{}, err
	}
	logger.GetLogger().Info("item review published",
		zap.String("item_code", itemCode),
		zap.String("customer", shopper.Customer),
		zap.Int("rating", in.Rating))
	return review, nil
}

// Get returns reviews of itemCode newest first, from start, with statistics
// over every review of the item. With reviews disabled the summary is empty.
func (s *Service) Get(ctx context.Context, settings models.WebshopSettings, itemCode string, start, pageLength int) (Summary, error) {
	const op = "item_review.get"
	if !settings.EnableReviews {
		return emptySummary(), nil
	}
	if pageLength <= 0 {
		pageLength = DefaultPageLength
	}

	entry, err := s.entry(ctx, op, itemCode)
	if err != nil {
		return emptySummary(), err
	}
	scope := store.Filter(store.Where("website_item", store.OpEq, entry.Name))

	all, err := s.reviews.Query(ctx, store.Query{Filters: scope})
	if err != nil {
		return emptySummary(), err
	}
	page, err := s.reviews.Query(ctx, store.Query{
		Filters: scope,
		OrderBy: []store.Order{{Field: "published_on", Desc: true}},
		Offset:  max(start, 0),
		Limit:   pageLength,
	})
	if err != nil {
		return emptySummary(), err
	}

	summary := emptySummary()
	summary.Reviews = page
	summary.TotalReviews = len(all)
	if len(all) == 0 {
		return summary, nil
	}

	counts := make([]int, models.MaxRating)
	total := 0
	for _, r := range all {
		if r.Rating >= 1 && r.Rating <= models.MaxRating {
			counts[r.Rating-1]++
		}
		total += r.Rating
	}
	for i, n := range counts {
		summary.ReviewsPerRating[i] = math.Round(float64(n) / float64(len(all)) * 100)
	}
	avg := float64(total) / float64(len(all))
	summary.AverageRating = math.Round(avg*10) / 10
	summary.AverageWholeRating = int(math.Round(avg))
	return summary, nil
}

func (s *Service) entry(ctx context.Context, op, itemCode string) (models.CatalogEntry, error) {
	entry, ok, err := s.entries.First(ctx, store.Query{
		Filters: store.Filter(
			store.Where("item_code", store.OpEq, itemCode),
			store.Where("published", store.OpEq, true),
		),
	})
	if err != nil {
		return entry, err
	}
	if !ok {
		return entry, apperrors.NotFound(op, fmt.Sprintf("Item %s is not available on the website", itemCode))
	}
	return entry, nil
}
