// Package wishlist_controller serves the logged-in shopper's wishlist.
package wishlist_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/wishlist"
)

type Controller struct {
	wishlist *wishlist.Service
}

func New(w *wishlist.Service) *Controller {
	return &Controller{wishlist: w}
}

func fail(c *gin.Context, msg string, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		logger.FromContext(c).Error(msg, zap.Error(err))
	}
	c.JSON(models.AppErrorResponse(c, err))
}

func (ctl *Controller) GetWishlist(c *gin.Context) {
	rows, err := ctl.wishlist.List(c.Request.Context(), middleware.GetShopper(c))
	if err != nil {
		fail(c, "failed to load wishlist", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Wishlist fetched successfully", rows))
}

func (ctl *Controller) AddToWishlist(c *gin.Context) {
	row, err := ctl.wishlist.Add(c.Request.Context(), middleware.GetShopper(c), c.Param("item_code"))
	if err != nil {
		fail(c, "failed to add to wishlist", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Added to wishlist", row))
}

func (ctl *Controller) RemoveFromWishlist(c *gin.Context) {
	if err := ctl.wishlist.Remove(c.Request.Context(), middleware.GetShopper(c), c.Param("item_code")); err != nil {
		fail(c, "failed to remove from wishlist", err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Removed from wishlist", nil))
}
