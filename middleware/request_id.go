package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
)

// RequestID tags the request with the caller's X-Request-ID or a fresh one,
// and attaches a logger carrying it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDKey)
		if id == "" {
			id = uuid.Must(uuid.NewV7()).String()
		}
		c.Set("request_id", id)
		c.Header(logger.RequestIDKey, id)
		logger.Attach(c, logger.GetLogger().With(zap.String("request_id", id)))
		c.Next()
	}
}
