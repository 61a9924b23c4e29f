package cart_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// UpdateCartItem godoc
// @Summary Set the quantity of an item in the cart
// @Description qty 0 removes the line
// @Tags cart
// @Accept json
// @Produce json
// @Param body body UpdateCartItemRequest true "Item and quantity"
// @Success 200 {object} models.ApiResponse
// @Failure 400 {object} models.ApiResponse
// @Failure 401 {object} models.ApiResponse
// @Router /cart/items [post]
func (ctl *Controller) UpdateCartItem(c *gin.Context) {
	var input UpdateCartItemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid request body"))
		return
	}

	cart, err := ctl.cart.UpdateCart(c.Request.Context(), middleware.GetShopper(c), middleware.GetSettings(c), input.ItemCode, *input.Qty)
	if err != nil {
		fail(c, "cart update failed", err)
		return
	}
	setCartCount(c, cart.CartCount)
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Cart updated successfully", cart))
}
