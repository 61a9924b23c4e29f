package catalog_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// GetItemGroups godoc
// @Summary Get storefront item groups
// @Description Item groups shown on the website, nested by parent
// @Tags store
// @Produce json
// @Success 200 {object} models.ApiResponse
// @Failure 500 {object} models.ApiResponse
// @Router /store/item-groups [get]
func (ctl *Controller) GetItemGroups(c *gin.Context) {
	menu, err := ctl.categories.Menu(c.Request.Context())
	if err != nil {
		if !degrade(c, "item group menu failed", err) {
			return
		}
		menu = []models.StorefrontItemGroup{}
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Item groups fetched successfully", menu))
}
