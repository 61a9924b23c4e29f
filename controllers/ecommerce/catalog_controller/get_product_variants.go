package catalog_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// GetProductVariants returns the attribute map of every variant of a
// template. With ?selected={"Colour":"Red"} it returns the first matching
// variant code instead.
func (ctl *Controller) GetProductVariants(c *gin.Context) {
	ctx := c.Request.Context()
	template := c.Param("code")

	if raw := c.Query("selected"); raw != "" {
		parsed, err := parseFilterMap(raw)
		if err != nil {
			badRequest(c, "invalid selected attributes")
			return
		}
		selected := make(map[string]string, len(parsed))
		for attr, values := range parsed {
			selected[attr] = values[0]
		}
		code, ok, err := ctl.variants.FindVariant(ctx, template, selected)
		if err != nil {
			fail(c, "variant lookup failed", err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, models.ErrorResponse(c, "No variant matches the selected attributes"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(c, "Variant found", gin.H{"item_code": code}))
		return
	}

	variants, _, err := ctl.variants.Get(ctx, template)
	if err != nil {
		fail(c, "variant lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Variants fetched successfully", variants))
}
