package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/utils"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, email, role string) string {
	t.Helper()
	tok, err := utils.GenerateJWT(secret, email, "Test", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestShopperAuth(t *testing.T) {
	r := gin.New()
	r.Use(ShopperAuth(secret))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, GetShopper(c).User)
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "no token", want: models.GuestUser},
		{name: "bearer", header: "Bearer " + token(t, "jane@example.com", utils.RoleShopper), want: "jane@example.com"},
		{name: "cookie", cookie: token(t, "joe@example.com", utils.RoleShopper), want: "joe@example.com"},
		{name: "invalid token", header: "Bearer garbage", want: models.GuestUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: ShopperCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRequireLogin(t *testing.T) {
	r := gin.New()
	r.Use(ShopperAuth(secret), RequireLogin())
	r.GET("/wishlist", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wishlist", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/wishlist", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "jane@example.com", utils.RoleShopper))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(AdminAuthMiddleware(secret))
	r.PUT("/admin/settings", func(c *gin.Context) {
		email, _ := GetAdminEmail(c)
		c.String(http.StatusOK, email)
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{name: "missing", code: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer nope", code: http.StatusUnauthorized},
		{name: "shopper token", header: "Bearer " + token(t, "jane@example.com", utils.RoleShopper), code: http.StatusForbidden},
		{name: "admin token", header: "Bearer " + token(t, "ops@example.com", utils.RoleAdmin), code: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/admin/settings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := gin.New()
	r.Use(RateLimiter(client, 2, time.Minute))
	r.POST("/cart/items", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.SuccessResponse(c, "ok", nil))
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cart/items", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.True(t, mr.Exists("rl:192.0.2.1:POST:/cart/items"))
}

type stubSettings struct {
	st  models.WebshopSettings
	err error
}

func (s stubSettings) Get(context.Context) (models.WebshopSettings, error) { return s.st, s.err }

type stubParty struct{}

func (stubParty) Resolve(_ context.Context, user string, st models.WebshopSettings, _ bool) (models.Shopper, error) {
	return models.Shopper{User: user, Customer: "CUST-" + user, CustomerGroup: st.DefaultCustomerGroup}, nil
}

func TestWebshopContext(t *testing.T) {
	st := models.WebshopSettings{Enabled: true, DefaultCustomerGroup: "Retail"}

	r := gin.New()
	r.Use(ShopperAuth(secret), WebshopContext(stubSettings{st: st}, stubParty{}))
	r.GET("/ctx", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"enabled":  GetSettings(c).Enabled,
			"customer": GetShopper(c).Customer,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "jane@example.com", utils.RoleShopper))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":true,"customer":"CUST-jane@example.com"}`, w.Body.String())

	r = gin.New()
	r.Use(WebshopContext(stubSettings{err: errors.New("db down")}, stubParty{}))
	r.GET("/ctx", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ctx", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "tax_rule", extractResourceType("/api/v1/admin/tax-rules/Cart VAT"))
	assert.Equal(t, "catalog_entry", extractResourceType("/api/v1/admin/catalog-entries"))
	assert.Equal(t, "", extractResourceType("/api/v1/cart/items"))
}
