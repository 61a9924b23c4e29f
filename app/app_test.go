package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-webshop/app"
	"github.com/Modeva-Ecommerce/modeva-webshop/config"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/seed"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
	"github.com/Modeva-Ecommerce/modeva-webshop/utils"
)

const (
	shopperSecret = "shopper-secret"
	adminSecret   = "admin-secret"
)

type envelope struct {
	Message string          `json:"message"`
	Title   string          `json:"title"`
	Error   bool            `json:"error"`
	Data    json.RawMessage `json:"data"`
	Notices []events.Notice `json:"notices"`
}

type server struct {
	t      *testing.T
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	return newServerWith(t, nil)
}

// newServerWith lets a test swap repositories before the app is wired.
func newServerWith(t *testing.T, wrap func(*repositories.Set)) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test", Store: "memory", AllowedOrigins: []string{"http://localhost:3000"}},
		JWT:    config.JWTConfig{ShopperSecret: shopperSecret, AdminSecret: adminSecret, Expiration: time.Hour},
		Cache:  config.CacheConfig{FilterOptionsTTL: time.Minute, CatalogCountTTL: time.Minute, CategoryTreeTTL: time.Minute},
	}
	repos := repositories.NewMemory(events.NewDispatcher(nil))
	if wrap != nil {
		wrap(repos)
	}
	shop := app.New(cfg, repos, client)
	require.NoError(t, seed.Demo(context.Background(), shop))

	return &server{t: t, router: shop.Router(cfg, nil)}
}

func (s *server) token(secret, email, role string) string {
	tok, err := utils.GenerateJWT(secret, email, "Test", role, time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *server) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

type listing struct {
	Items []struct {
		ItemCode      string   `json:"item_code"`
	} `json:"items"`
	ItemsCount int `json:"items_count"`
}

func TestStorefrontListing(t *testing.T) {
	s := newServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/store/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all listing
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Equal(t, 4, all.ItemsCount)
	require.NotEmpty(t, all.Items)
	assert.Equal(t, "OXFORD", all.Items[0].ItemCode, "highest ranking first")

	q := url.Values{"field_filters": {`{"brand":["Northline"]}`}}
	w, env = s.do(http.MethodGet, "/api/v1/store/products?"+q.Encode(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var northline listing
	require.NoError(t, json.Unmarshal(env.Data, &northline))
	assert.Equal(t, 2, northline.ItemsCount)

	w, _ = s.do(http.MethodGet, "/api/v1/store/products?field_filters=not-json", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/store/filters?item_group=Clothing", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/store/item-groups", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var menu []struct {
		Name      string `json:"name"`
		Subgroups []struct {
			Name string `json:"name"`
		} `json:"subgroups"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &menu))
	require.Len(t, menu, 1)
	assert.Len(t, menu[0].Subgroups, 2)

	w, _ = s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// flakyEntries fails catalog entry reads once broken is set.
type flakyEntries struct {
	store.Repository[models.CatalogEntry]
	broken bool
}

func (f *flakyEntries) Query(ctx context.Context, q store.Query) ([]models.CatalogEntry, error) {
	if f.broken {
		return nil, errors.New("connection reset by peer")
	}
	return f.Repository.Query(ctx, q)
}

func (f *flakyEntries) Count(ctx context.Context, filters store.PredicateSet) (int, error) {
	if f.broken {
		return 0, errors.New("connection reset by peer")
	}
	return f.Repository.Count(ctx, filters)
}

func TestStorefrontReadsDegradeOnStorageErrors(t *testing.T) {
	entries := &flakyEntries{}
	s := newServerWith(t, func(r *repositories.Set) {
		entries.Repository = r.CatalogEntries
		r.CatalogEntries = entries
	})
	entries.broken = true

	w, env := s.do(http.MethodGet, "/api/v1/store/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.Error)
	var page listing
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Items)
	assert.Zero(t, page.ItemsCount)

	w, env = s.do(http.MethodGet, "/api/v1/store/filters?item_group=Clothing", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var filters struct {
		FieldFilters []json.RawMessage `json:"field_filters"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &filters))
	assert.Empty(t, filters.FieldFilters)

	w, _ = s.do(http.MethodGet, "/api/v1/store/products?field_filters=not-json", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartFlow(t *testing.T) {
	s := newServer(t)
	shopper := s.token(shopperSecret, "jane@example.com", utils.RoleShopper)

	w, env := s.do(http.MethodPost, "/api/v1/cart/items", "", map[string]any{"item_code": "POLO", "qty": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, env.Error)

	w, _ = s.do(http.MethodPost, "/api/v1/cart/items", shopper, map[string]any{"item_code": "POLO", "qty": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "cart_count=2")

	w, env = s.do(http.MethodGet, "/api/v1/cart", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cart struct {
		CartCount int `json:"cart_count"`
		Doc       struct {
			NetTotal float64 `json:"net_total"`
		} `json:"doc"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 2, cart.CartCount)
	assert.InDelta(t, 60.0, cart.Doc.NetTotal, 0.001)

	w, env = s.do(http.MethodPost, "/api/v1/cart/items", shopper, map[string]any{"item_code": "NOPE", "qty": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Not Available", env.Title)

	w, _ = s.do(http.MethodPost, "/api/v1/cart/request-for-quotation", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/cart", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Equal(t, 0, cart.CartCount)
}

func TestReviewFlow(t *testing.T) {
	s := newServer(t)
	shopper := s.token(shopperSecret, "jane@example.com", utils.RoleShopper)
	review := map[string]any{"title": "Fits well", "rating": 4, "comment": "Soft fabric"}

	w, env := s.do(http.MethodPost, "/api/v1/store/products/POLO/reviews", "", review)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unverified Reviewer", env.Title)

	w, env = s.do(http.MethodPost, "/api/v1/store/products/POLO/reviews", shopper, review)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no customer yet")
	assert.Equal(t, "Unverified Reviewer", env.Title)

	// the first cart write links the login to a customer
	w, _ = s.do(http.MethodPost, "/api/v1/cart/items", shopper, map[string]any{"item_code": "POLO", "qty": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/store/products/POLO/reviews", shopper, review)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/store/products/POLO/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		TotalReviews     int       `json:"total_reviews"`
		AverageRating    float64   `json:"average_rating"`
		ReviewsPerRating []float64 `json:"reviews_per_rating"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.TotalReviews)
	assert.Equal(t, 4.0, summary.AverageRating)
	assert.Equal(t, []float64{0, 0, 0, 100, 0}, summary.ReviewsPerRating)
}

func TestAdminWritesRunHooks(t *testing.T) {
	s := newServer(t)
	admin := s.token(adminSecret, "ops@example.com", utils.RoleAdmin)

	w, _ := s.do(http.MethodPut, "/api/v1/admin/settings", s.token(shopperSecret, "jane@example.com", utils.RoleShopper), map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodPut, "/api/v1/admin/settings", admin, map[string]any{"price_list": "Missing List"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Shopping Cart Setup Error", env.Title)

	w, _ = s.do(http.MethodPost, "/api/v1/admin/tax-rules", admin, map[string]any{"name": "Backup Tax", "sales_tax_template": "US Sales Tax"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodDelete, "/api/v1/admin/tax-rules/Cart%20Sales%20Tax", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Tax Rule", env.Notices[0].Title)

	w, env = s.do(http.MethodPost, "/api/v1/admin/catalog-entries", admin, map[string]any{"item_code": "POLO"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Already Published", env.Title)
}
