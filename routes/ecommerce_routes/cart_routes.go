package ecommerce_routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/cart_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/review_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/ecommerce/wishlist_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
)

// SetupCartRoutes registers the cart, wishlist and reviews. Writes are rate
// limited; cart reads are open to guests and return an empty cart.
func SetupCartRoutes(router *gin.RouterGroup, cart *cart_controller.Controller, wishlist *wishlist_controller.Controller, reviews *review_controller.Controller, limiter gin.HandlerFunc) {
	carts := router.Group("/cart")
	{
		carts.GET("", cart.GetCart)

		writes := carts.Group("")
		writes.Use(limiter)
		writes.POST("/items", cart.UpdateCartItem)
		writes.POST("/request-for-quotation", cart.RequestForQuotation)
	}

	wishlists := router.Group("/wishlist")
	wishlists.Use(middleware.RequireLogin())
	{
		wishlists.GET("", wishlist.GetWishlist)
		wishlists.POST("/:item_code", wishlist.AddToWishlist)
		wishlists.DELETE("/:item_code", wishlist.RemoveFromWishlist)
	}

	reviewed := router.Group("/store/products/:code/reviews")
	{
		reviewed.GET("", reviews.GetItemReviews)
		reviewed.POST("", limiter, reviews.AddItemReview)
	}
}
