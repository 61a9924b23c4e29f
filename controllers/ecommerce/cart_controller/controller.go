// Package cart_controller serves the shopper's cart and the request for
// quotation.
package cart_controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/shopping_cart"
)

// CartCountCookie mirrors the number of units in the cart for the storefront
// header.
const CartCountCookie = "cart_count"

type Controller struct {
	cart *shopping_cart.Service
}

func New(cart *shopping_cart.Service) *Controller {
	return &Controller{cart: cart}
}

type UpdateCartItemRequest struct {
	ItemCode string   `json:"item_code" binding:"required"`
	Qty      *float64 `json:"qty" binding:"required"`
}

func setCartCount(c *gin.Context, count int) {
	c.SetCookie(CartCountCookie, strconv.Itoa(count), 0, "/", "", false, false)
}

func fail(c *gin.Context, msg string, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		logger.FromContext(c).Error(msg, zap.Error(err))
	}
	c.JSON(models.AppErrorResponse(c, err))
}
