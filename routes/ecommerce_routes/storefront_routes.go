package ecommerce_routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/catalog_controller"
)

// SetupStorefrontRoutes registers the public catalog routes. Guests are
// served; a shopper token only changes pricing and cart flags.
func SetupStorefrontRoutes(router *gin.RouterGroup, catalog *catalog_controller.Controller) {
	store := router.Group("/store")

	products := store.Group("/products")
	{
		products.GET("", catalog.GetProducts)
		products.GET("/:code/info", catalog.GetProductInfo)
		products.GET("/:code/variants", catalog.GetProductVariants)
	}

	store.GET("/filters", catalog.GetFilters)
	store.GET("/item-groups", catalog.GetItemGroups)
	store.GET("/item-groups/:name/breadcrumbs", catalog.GetBreadcrumbs)
}
