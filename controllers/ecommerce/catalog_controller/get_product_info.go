package catalog_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// GetProductInfo godoc
// @Summary Get price and stock of one item
// @Tags store
// @Produce json
// @Param code path string true "Item code"
// @Success 200 {object} models.ApiResponse
// @Router /store/products/{code}/info [get]
func (ctl *Controller) GetProductInfo(c *gin.Context) {
	ctx := c.Request.Context()
	shopper := middleware.GetShopper(c)

	cart, err := ctl.cart.OpenDraft(ctx, shopper)
	if err != nil {
		fail(c, "failed to load cart", err)
		return
	}

	info, err := ctl.info.Get(ctx, c.Param("code"), shopper, middleware.GetSettings(c), cart)
	if err != nil {
		fail(c, "product info failed", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Product info fetched successfully", info))
}
