package catalog_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/filter_builder"
)

// GetFilters godoc
// @Summary Get listing filters
// @Description Field and attribute filters with the options present in the listing
// @Tags store
// @Produce json
// @Param item_group query string false "Item group"
// @Success 200 {object} models.ApiResponse
// @Router /store/filters [get]
func (ctl *Controller) GetFilters(c *gin.Context) {
	filters, err := ctl.filters.Build(c.Request.Context(), c.Query("item_group"), middleware.GetSettings(c))
	if err != nil {
		if !degrade(c, "filter build failed", err) {
			return
		}
		filters = filter_builder.Filters{FieldFilters: []filter_builder.FieldFilter{}, AttributeFilters: []filter_builder.AttributeFilter{}}
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filters fetched successfully", filters))
}
