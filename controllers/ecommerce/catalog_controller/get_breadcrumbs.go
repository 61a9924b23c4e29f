package catalog_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

func (ctl *Controller) GetBreadcrumbs(c *gin.Context) {
	crumbs, err := ctl.categories.Breadcrumbs(c.Request.Context(), c.Param("name"), middleware.GetSettings(c))
	if err != nil {
		fail(c, "breadcrumbs failed", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Breadcrumbs fetched successfully", crumbs))
}
