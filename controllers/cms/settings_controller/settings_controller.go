// Package settings_controller reads and updates the webshop settings record.
package settings_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/record_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/settings"
)

type Controller struct {
	settings *settings.Service
}

func New(s *settings.Service) *Controller {
	return &Controller{settings: s}
}

func (ctl *Controller) GetSettings(c *gin.Context) {
	st, err := ctl.settings.Get(c.Request.Context())
	if err != nil {
		record_controller.Fail(c, "failed to load settings", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Settings fetched successfully", st))
}

// UpdateSettings godoc
// @Summary Update webshop settings
// @Description Fields missing from the body keep their stored values. Enabling the cart validates company, price list and tax rule setup.
// @Tags CMS - Settings
// @Accept json
// @Produce json
// @Success 200 {object} models.ApiResponse
// @Failure 422 {object} models.ApiResponse
// @Router /api/v1/admin/settings [put]
func (ctl *Controller) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	st, err := ctl.settings.Get(ctx)
	if err != nil {
		record_controller.Fail(c, "failed to load settings", err)
		return
	}
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid request body"))
		return
	}

	if err := ctl.settings.Save(ctx, &st); err != nil {
		record_controller.Fail(c, "failed to save settings", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Settings updated successfully", st))
}
