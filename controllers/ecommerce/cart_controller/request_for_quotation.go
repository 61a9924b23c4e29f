package cart_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// RequestForQuotation submits the open cart as a quotation request.
func (ctl *Controller) RequestForQuotation(c *gin.Context) {
	name, err := ctl.cart.RequestForQuotation(c.Request.Context(), middleware.GetShopper(c), middleware.GetSettings(c))
	if err != nil {
		fail(c, "request for quotation failed", err)
		return
	}
	setCartCount(c, 0)
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Quotation requested", gin.H{"name": name}))
}
