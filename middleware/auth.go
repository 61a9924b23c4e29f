package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/utils"
)

const (
	ShopperCookie = "auth_token"
	AdminCookie   = "admin_token"

	shopperKey = "shopper"
)

// bearerOrCookie returns the token from the cookie, falling back to the
// Authorization header.
func bearerOrCookie(c *gin.Context, cookie string) (string, error) {
	if token, err := c.Cookie(cookie); err == nil && token != "" {
		return token, nil
	}
	return utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
}

// ShopperAuth identifies the shopper from a JWT in the auth_token cookie or
// the Authorization header. Requests without a usable token continue as
// Guest.
func ShopperAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopper := models.Shopper{User: models.GuestUser}

		if token, err := bearerOrCookie(c, ShopperCookie); err == nil {
			claims, err := utils.ValidateJWT(secret, token)
			if err != nil {
				logger.FromContext(c).Debug("ignoring invalid shopper token", zap.Error(err))
			} else {
				shopper.User = claims.Email
			}
		}

		c.Set(shopperKey, shopper)
		c.Next()
	}
}

// RequireLogin rejects guests.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetShopper(c).IsGuest() {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse(c, "You need to be logged in"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetShopper returns the shopper set by ShopperAuth, or Guest.
func GetShopper(c *gin.Context) models.Shopper {
	if v, ok := c.Get(shopperKey); ok {
		if s, ok := v.(models.Shopper); ok {
			return s
		}
	}
	return models.Shopper{User: models.GuestUser}
}
