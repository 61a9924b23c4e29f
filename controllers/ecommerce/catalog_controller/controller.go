// Package catalog_controller serves the storefront listing, filters, product
// info, variants and breadcrumbs.
package catalog_controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/cache/redis_cache"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/category_tree"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/filter_builder"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/product_info"
	"github.com/Modeva-Ecommerce/modeva-webshop/services/product_query"
)

// Variants reads the cached attribute maps of a template's variants.
type Variants interface {
	Get(ctx context.Context, template string) (map[string]redis_cache.VariantAttributes, bool, error)
	FindVariant(ctx context.Context, template string, selected map[string]string) (string, bool, error)
}

// OpenDraft returns the shopper's open cart order, or nil.
type OpenDraft interface {
	OpenDraft(ctx context.Context, shopper models.Shopper) (*models.DraftOrder, error)
}

type Controller struct {
	query      *product_query.Engine
	filters    *filter_builder.Builder
	info       *product_info.Service
	categories *category_tree.Service
	variants   Variants
	cart       OpenDraft
}

func New(query *product_query.Engine, filters *filter_builder.Builder, info *product_info.Service, categories *category_tree.Service, variants Variants, cart OpenDraft) *Controller {
	return &Controller{query: query, filters: filters, info: info, categories: categories, variants: variants, cart: cart}
}

func fail(c *gin.Context, msg string, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		logger.FromContext(c).Error(msg, zap.Error(err))
	}
	c.JSON(models.AppErrorResponse(c, err))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse(c, msg))
}

// degrade logs a failed storefront read. Reads answer with an empty result
// instead of an error unless the error is the shopper's own doing.
func degrade(c *gin.Context, msg string, err error) bool {
	if apperrors.KindOf(err) != apperrors.KindInternal {
		fail(c, msg, err)
		return false
	}
	logger.FromContext(c).Warn(msg, zap.Error(err))
	return true
}
