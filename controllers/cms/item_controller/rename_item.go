// Package item_controller handles admin item renames and merges.
package item_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/record_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

type RenameItemRequest struct {
	NewCode string `json:"new_code" binding:"required"`
	Merge   bool   `json:"merge"`
}

type Controller struct {
	items store.Repository[models.Item]
}

func New(items store.Repository[models.Item]) *Controller {
	return &Controller{items: items}
}

// RenameItem godoc
// @Summary Rename an item or merge it into another
// @Tags CMS - Items
// @Accept json
// @Produce json
// @Param code path string true "Item code"
// @Param body body RenameItemRequest true "New code"
// @Success 200 {object} models.ApiResponse
// @Failure 400 {object} models.ApiResponse
// @Router /api/v1/admin/items/{code}/rename [post]
func (ctl *Controller) RenameItem(c *gin.Context) {
	var input RenameItemRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid request body"))
		return
	}
	oldCode := c.Param("code")
	if input.NewCode == oldCode {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "New item code is the same as the old one"))
		return
	}

	if err := ctl.items.Rename(c.Request.Context(), oldCode, input.NewCode, input.Merge); err != nil {
		record_controller.Fail(c, "failed to rename item", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Item renamed successfully", gin.H{"item_code": input.NewCode}))
}
