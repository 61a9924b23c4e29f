package catalog_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// GetProducts godoc
// @Summary List storefront products
// @Description Filtered, searched and paginated catalog listing with price and stock
// @Tags store
// @Produce json
// @Param field_filters query string false "JSON object of field filters; key discount holds the maximum discount"
// @Param attribute_filters query string false "JSON object of attribute filters"
// @Param search query string false "Search text"
// @Param item_group query string false "Item group to list"
// @Param start query int false "Offset" default(0)
// @Success 200 {object} models.ApiResponse
// @Failure 400 {object} models.ApiResponse
// @Router /store/products [get]
func (ctl *Controller) GetProducts(c *gin.Context) {
	req, err := listingRequest(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	settings := middleware.GetSettings(c)
	result, err := ctl.query.Query(c.Request.Context(), req, middleware.GetShopper(c), settings)
	if err != nil && !degrade(c, "product query failed", err) {
		return
	}

	limit := settings.PageLength()
	c.JSON(http.StatusOK, models.PaginatedResponse(c, "Products fetched successfully", result, &models.Pagination{
		Page:       req.Start/limit + 1,
		Limit:      limit,
		Total:      result.ItemsCount,
		TotalPages: (result.ItemsCount + limit - 1) / limit,
	}))
}
