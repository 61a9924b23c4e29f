// Package catalog_entry_controller publishes and unpublishes items.
package catalog_entry_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/record_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/catalog"
)

type PublishItemRequest struct {
	ItemCode string `json:"item_code" binding:"required"`
}

type Controller struct {
	catalog *catalog.Service
}

func New(c *catalog.Service) *Controller {
	return &Controller{catalog: c}
}

// PublishItem creates the catalog entry of an item.
func (ctl *Controller) PublishItem(c *gin.Context) {
	var input PublishItemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid request body"))
		return
	}

	entry, err := ctl.catalog.MakeCatalogEntry(c.Request.Context(), input.ItemCode)
	if err != nil {
		record_controller.Fail(c, "failed to publish item", err)
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse(c, "Item published successfully", entry))
}

// UnpublishItem removes the catalog entry of an item.
func (ctl *Controller) UnpublishItem(c *gin.Context) {
	if err := ctl.catalog.Unpublish(c.Request.Context(), c.Param("item_code")); err != nil {
		record_controller.Fail(c, "failed to unpublish item", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Item unpublished successfully", nil))
}
