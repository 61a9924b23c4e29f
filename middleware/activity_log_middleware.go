package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
)

// ════════════════════════════════════════════════════════════
// Configuration Maps
// ════════════════════════════════════════════════════════════

// pathToResourceType maps admin URL segments to record types
var pathToResourceType = map[string]string{
	"settings":        "webshop_settings",
	"tax-rules":       "tax_rule",
	"items":           "item",
	"price-lists":     "price_list",
	"item-groups":     "item_group",
	"catalog-entries": "catalog_entry",
}

// methodToActionVerb maps HTTP methods to action verbs
var methodToActionVerb = map[string]string{
	http.MethodPost:   "created",
	http.MethodPatch:  "updated",
	http.MethodPut:    "updated",
	http.MethodDelete: "deleted",
}

// ════════════════════════════════════════════════════════════
// Activity Logging Middleware
// ════════════════════════════════════════════════════════════

// ActivityLoggingMiddleware logs every admin write once it has been handled.
// Must be used AFTER AdminAuthMiddleware.
func ActivityLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		verb, ok := methodToActionVerb[c.Request.Method]
		if !ok {
			c.Next()
			return
		}

		c.Next()

		resourceType := extractResourceType(c.Request.URL.Path)
		if resourceType == "" {
			return
		}
		action := verb + "_" + resourceType
		if strings.HasSuffix(c.FullPath(), "/rename") {
			action = "renamed_" + resourceType
		}

		admin, _ := GetAdminEmail(c)
		fields := []zap.Field{
			zap.String("admin", admin),
			zap.String("action", action),
			zap.String("resource_id", resourceID(c)),
			zap.Int("status", c.Writer.Status()),
			zap.Int("notices", len(events.Notices(c.Request.Context()))),
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			logger.FromContext(c).Info("admin action rejected", fields...)
			return
		}
		logger.FromContext(c).Info("admin action", fields...)
	}
}

// extractResourceType returns the record type of the segment after /admin/.
func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p == "admin" && i+1 < len(parts) {
			return pathToResourceType[parts[i+1]]
		}
	}
	return ""
}

func resourceID(c *gin.Context) string {
	for _, name := range []string{"name", "code", "item_code"} {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	return ""
}
