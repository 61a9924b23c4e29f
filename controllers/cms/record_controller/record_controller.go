// Package record_controller exposes generic admin writes on Record Store
// repositories. Every write goes through the repository so the registered
// lifecycle hooks run.
package record_controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// Fail writes the envelope for err, logging internal errors.
func Fail(c *gin.Context, msg string, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		logger.FromContext(c).Error(msg, zap.Error(err))
	}
	c.JSON(models.AppErrorResponse(c, err))
}

// Upsert decodes the JSON body over the stored record named by the path
// parameter, or over a new one, and saves it. Fields missing from the body
// keep their stored values.
func Upsert[T store.Record](repo store.Repository[T], label, param string, setKey func(*T, string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := c.Param(param)

		rec, err := repo.Get(ctx, key)
		if err != nil && !apperrors.IsNotFound(err) {
			Fail(c, "failed to load "+label, err)
			return
		}
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid request body"))
			return
		}
		setKey(&rec, key)

		if err := repo.Save(ctx, &rec); err != nil {
			Fail(c, "failed to save "+label, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(c, fmt.Sprintf("%s saved successfully", label), rec))
	}
}

// Create decodes the JSON body as a new record. The key comes from the body.
func Create[T store.Record](repo store.Repository[T], label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var rec T
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(c, "Invalid request body"))
			return
		}
		if rec.RecordKey() == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(c, label+" name is required"))
			return
		}
		if _, err := repo.Get(ctx, rec.RecordKey()); err == nil {
			c.JSON(http.StatusConflict, models.ErrorResponse(c, fmt.Sprintf("%s %s already exists", label, rec.RecordKey())))
			return
		} else if !apperrors.IsNotFound(err) {
			Fail(c, "failed to load "+label, err)
			return
		}

		if err := repo.Save(ctx, &rec); err != nil {
			Fail(c, "failed to save "+label, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(c, fmt.Sprintf("%s created successfully", label), rec))
	}
}

// Delete removes the record named by the path parameter.
func Delete[T store.Record](repo store.Repository[T], label, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Delete(c.Request.Context(), c.Param(param)); err != nil {
			Fail(c, "failed to delete "+label, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(c, fmt.Sprintf("%s deleted successfully", label), nil))
	}
}
