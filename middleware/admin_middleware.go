package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/utils"
)

const adminEmailKey = "adminEmail"

// AdminAuthMiddleware validates the admin JWT and checks the admin role
func AdminAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerOrCookie(c, AdminCookie)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse(c, "Unauthorized - no token provided"))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(secret, token)
		if err != nil {
			logger.FromContext(c).Info("invalid admin token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, models.ErrorResponse(c, "Unauthorized - invalid token"))
			c.Abort()
			return
		}

		if claims.Role != utils.RoleAdmin {
			logger.FromContext(c).Warn("non-admin attempted admin action", zap.String("email", claims.Email))
			c.JSON(http.StatusForbidden, models.ErrorResponse(c, "Forbidden - admin access required"))
			c.Abort()
			return
		}

		c.Set(adminEmailKey, claims.Email)
		c.Next()
	}
}

// GetAdminEmail returns the admin set by AdminAuthMiddleware.
func GetAdminEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(adminEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}
