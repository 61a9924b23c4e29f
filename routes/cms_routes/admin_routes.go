package cms_routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/catalog_entry_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/item_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/record_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/controllers/cms/settings_controller"
	"github.com/Modeva-Ecommerce/modeva-webshop/middleware"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
)

// AdminControllers are the handlers behind /admin.
type AdminControllers struct {
	Settings       *settings_controller.Controller
	Items          *item_controller.Controller
	CatalogEntries *catalog_entry_controller.Controller
}

// SetupAdminRoutes sets up all admin routes with appropriate middleware
func SetupAdminRoutes(rg *gin.RouterGroup, ctl AdminControllers, repos *repositories.Set, auth, limiter gin.HandlerFunc) {
	// ════════════════════════════════════════════════════════════
	// Base Admin Group (Auth + Rate Limit + Activity Logging)
	// ════════════════════════════════════════════════════════════

	admin := rg.Group("/admin")
	admin.Use(auth, limiter, middleware.ActivityLoggingMiddleware())

	// Settings
	admin.GET("/settings", ctl.Settings.GetSettings)
	admin.PUT("/settings", ctl.Settings.UpdateSettings)

	// Tax
	admin.POST("/tax-rules", record_controller.Create(repos.TaxRules, "Tax Rule"))
	admin.PUT("/tax-rules/:name", record_controller.Upsert(repos.TaxRules, "Tax Rule", "name",
		func(r *models.TaxRule, k string) { r.Name = k }))
	admin.DELETE("/tax-rules/:name", record_controller.Delete(repos.TaxRules, "Tax Rule", "name"))
	admin.PUT("/sales-tax-templates/:name", record_controller.Upsert(repos.SalesTaxTemplates, "Sales Tax Template", "name",
		func(t *models.SalesTaxTemplate, k string) { t.Name = k }))

	// Pricing
	admin.PUT("/price-lists/:name", record_controller.Upsert(repos.PriceLists, "Price List", "name",
		func(p *models.PriceList, k string) { p.Name = k }))

	// Items
	admin.PUT("/items/:code", record_controller.Upsert(repos.Items, "Item", "code",
		func(i *models.Item, k string) { i.ItemCode = k }))
	admin.POST("/items/:code/rename", ctl.Items.RenameItem)

	// Item groups
	admin.PUT("/item-groups/:name", record_controller.Upsert(repos.ItemGroups, "Item Group", "name",
		func(g *models.ItemGroup, k string) { g.Name = k }))
	admin.DELETE("/item-groups/:name", record_controller.Delete(repos.ItemGroups, "Item Group", "name"))

	// Catalog entries
	admin.POST("/catalog-entries", ctl.CatalogEntries.PublishItem)
	admin.DELETE("/catalog-entries/:item_code", ctl.CatalogEntries.UnpublishItem)
}
