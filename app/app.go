// Package app assembles the webshop: services, lifecycle hooks, caches and
// the HTTP router on top of a repository set.
package app

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Modeva-Ecommerce/modeva-webshop/cache/category_cache"
	"github.com/Modeva-Ecommerce/modeva-webshop/cache/redis_cache"
	"github.com/Modeva-Ecommerce/modeva-webshop/config"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/catalog_entry_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/item_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/settings_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/cart_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/catalog_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/review_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/wishlist_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/routes/cms_routes"
	"github.com/Modeva-Ecommerce/modeva-webshop/routes/ecommerce_routes"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/catalog"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/category_tree"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/crud_events"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/filter_builder"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/item_review"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/party"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/pricing"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/product_info"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/product_query"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/settings"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/shopping_cart"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/stock"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/wishlist"
)

// Rate limits per client, endpoint and method.
const (
	cartWritesPerMinute  = 60
	adminWritesPerMinute = 100
)

// App holds the wired services. The repository set's dispatcher has every
// webshop hook registered.
type App struct {
	Repos      *repositories.Set
	Redis      *redis.Client
	Settings   *settings.Service
	Catalog    *catalog.Service
	Categories *category_tree.Service
	Filters    *filter_builder.Builder
	Query      *product_query.Engine
	Info       *product_info.Service
	Cart       *shopping_cart.Service
	Wishlist   *wishlist.Service
	Reviews    *item_review.Service
	Parties    *party.Service

	FilterOptions *redis_cache.FilterOptions
	CatalogCount  *redis_cache.CatalogCount
	Variants      *redis_cache.ItemVariants
}

// New wires the services on repos and registers the lifecycle hooks on
// repos.Hooks.
func New(cfg *config.Config, repos *repositories.Set, client *redis.Client) *App {
	a := &App{
		Repos:         repos,
		Redis:         client,
		FilterOptions: redis_cache.NewFilterOptions(client, cfg.Cache.FilterOptionsTTL),
		CatalogCount:  redis_cache.NewCatalogCount(client, cfg.Cache.CatalogCountTTL),
		Variants:      redis_cache.NewItemVariants(client),
	}

	prices := pricing.New(repos.Items, repos.PriceLists, repos.ItemPrices, repos.PricingRules)
	a.Parties = party.New(repos.Contacts, repos.Customers)

	a.Settings = settings.New(repos)
	a.Catalog = catalog.New(repos, a.Variants)
	a.Categories = category_tree.New(repos.ItemGroups, category_cache.New(cfg.Cache.CategoryTreeTTL), a.FilterOptions)
	a.Filters = filter_builder.New(repos.CatalogEntries, repos.Items, a.Categories, a.FilterOptions)
	a.Info = product_info.New(repos.Items, repos.CatalogEntries, prices, stock.New(repos))
	a.Cart = shopping_cart.New(repos, prices, a.Parties, a.Settings)
	a.Query = product_query.New(repos, a.Categories, a.Info, a.Cart, a.CatalogCount)
	a.Wishlist = wishlist.New(repos.Wishlist, repos.CatalogEntries)
	a.Reviews = item_review.New(repos.ItemReviews, repos.CatalogEntries, a.Parties)

	crud_events.Register(repos.Hooks, crud_events.Deps{
		Settings:     a.Settings,
		Catalog:      a.Catalog,
		Cart:         a.Cart,
		Categories:   a.Categories,
		Options:      a.FilterOptions,
		CatalogCount: a.CatalogCount,
	})
	return a
}

// Router builds the gin engine with every route.
func (a *App) Router(cfg *config.Config, health func(*gin.Context) error) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		logger.Middleware(),
		middleware.PrometheusMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Requested-With"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			if err := health(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, models.ErrorResponse(c, "unhealthy: "+err.Error()))
				return
			}
		}
		c.JSON(http.StatusOK, models.SuccessResponse(c, "ok", nil))
	})

	api := router.Group("/api/v1")

	shop := api.Group("")
	shop.Use(middleware.ShopperAuth(cfg.JWT.ShopperSecret), middleware.WebshopContext(a.Settings, a.Parties))
	ecommerce_routes.SetupStorefrontRoutes(shop, catalog_controller.New(a.Query, a.Filters, a.Info, a.Categories, a.Variants, a.Cart))
	ecommerce_routes.SetupCartRoutes(shop,
		cart_controller.New(a.Cart),
		wishlist_controller.New(a.Wishlist),
		review_controller.New(a.Reviews),
		middleware.RateLimiter(a.Redis, cartWritesPerMinute, time.Minute))

	admin := api.Group("")
	admin.Use(middleware.WebshopContext(a.Settings, a.Parties))
	cms_routes.SetupAdminRoutes(admin,
		cms_routes.AdminControllers{
			Settings:       settings_controller.New(a.Settings),
			Items:          item_controller.New(a.Repos.Items),
			CatalogEntries: catalog_entry_controller.New(a.Catalog),
		},
		a.Repos,
		middleware.AdminAuthMiddleware(cfg.JWT.AdminSecret),
		middleware.RateLimiter(a.Redis, adminWritesPerMinute, time.Minute))

	return router
}
