// Package review_controller serves item reviews on the product page.
package review_controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/item_review"
)

type Controller struct {
	reviews *item_review.Service
}

func New(r *item_review.Service) *Controller {
	return &Controller{reviews: r}
}

func fail(c *gin.Context, msg string, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		logger.FromContext(c).Error(msg, zap.Error(err))
	}
	c.JSON(models.AppErrorResponse(c, err))
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// GetItemReviews godoc
// @Summary Get item reviews
// @Description Newest reviews first with average rating and the share of reviews per star
// @Tags store
// @Produce json
// @Param code path string true "Item code"
// @Param start query int false "Offset" default(0)
// @Param page_length query int false "Reviews per page" default(10)
// @Success 200 {object} models.ApiResponse
// @Failure 404 {object} models.ApiResponse
// @Router /store/products/{code}/reviews [get]
func (ctl *Controller) GetItemReviews(c *gin.Context) {
	start, ok := intQuery(c, "start", 0)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid start"))
		return
	}
	pageLength, ok := intQuery(c, "page_length", item_review.DefaultPageLength)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid page_length"))
		return
	}

	summary, err := ctl.reviews.Get(c.Request.Context(), middleware.GetSettings(c), c.Param("code"), start, pageLength)
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindInternal {
			fail(c, "item reviews failed", err)
			return
		}
		logger.FromContext(c).Warn("item reviews failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Reviews fetched successfully", summary))
}

// AddItemReview godoc
// @Summary Review an item
// @Description Only shoppers linked to a customer can post reviews
// @Tags store
// @Accept json
// @Produce json
// @Param code path string true "Item code"
// @Param body body item_review.Review true "Review"
// @Success 201 {object} models.ApiResponse
// @Failure 400 {object} models.ApiResponse
// @Router /store/products/{code}/reviews [post]
func (ctl *Controller) AddItemReview(c *gin.Context) {
	var input item_review.Review
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid request body"))
		return
	}

	review, err := ctl.reviews.Add(c.Request.Context(), middleware.GetShopper(c), middleware.GetSettings(c), c.Param("code"), input)
	if err != nil {
		fail(c, "failed to add review", err)
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse(c, "Review published", review))
}
