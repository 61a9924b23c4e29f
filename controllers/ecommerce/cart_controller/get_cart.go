package cart_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// GetCart godoc
// @Summary Get the shopper's cart
// @Tags cart
// @Produce json
// @Success 200 {object} models.ApiResponse
// @Router /cart [get]
func (ctl *Controller) GetCart(c *gin.Context) {
	cart, err := ctl.cart.GetCart(c.Request.Context(), middleware.GetShopper(c))
	if err != nil {
		fail(c, "failed to load cart", err)
		return
	}
	setCartCount(c, cart.CartCount)
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Cart fetched successfully", cart))
}
