package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

const settingsKey = "webshopSettings"

type SettingsLoader interface {
	Get(ctx context.Context) (models.WebshopSettings, error)
}

type PartyResolver interface {
	Resolve(ctx context.Context, user string, settings models.WebshopSettings, create bool) (models.Shopper, error)
}

// WebshopContext loads the settings record once per request, opens the
// notice collector and resolves the shopper's customer. Must run after
// ShopperAuth.
func WebshopContext(settings SettingsLoader, party PartyResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := events.WithNotices(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		st, err := settings.Get(ctx)
		if err != nil {
			logger.FromContext(c).Error("failed to load webshop settings", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(c, "Failed to load webshop settings"))
			c.Abort()
			return
		}
		c.Set(settingsKey, st)

		shopper := GetShopper(c)
		if !shopper.IsGuest() {
			resolved, err := party.Resolve(ctx, shopper.User, st, false)
			if err != nil {
				logger.FromContext(c).Warn("failed to resolve shopper party",
					zap.String("user", shopper.User), zap.Error(err))
			} else {
				c.Set(shopperKey, resolved)
			}
		}

		c.Next()
	}
}

// GetSettings returns the settings loaded by WebshopContext, or the
// defaults.
func GetSettings(c *gin.Context) models.WebshopSettings {
	if v, ok := c.Get(settingsKey); ok {
		if st, ok := v.(models.WebshopSettings); ok {
			return st
		}
	}
	return models.DefaultWebshopSettings()
}
