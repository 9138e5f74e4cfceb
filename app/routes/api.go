package routes

import (
	"github.com/shashiranjanraj/stockroom/app/controllers"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/router"
)

// Controllers groups every API controller.
type Controllers struct {
	Auth       *controllers.AuthController
	Products   *controllers.ProductController
	Categories *controllers.CategoryController
	Suppliers  *controllers.SupplierController
	Stock      *controllers.StockController
	Reports    *controllers.ReportController
	Alerts     *controllers.AlertController
}

// RegisterAPI mounts the /api routes. The Authenticate middleware must run
// before these so token claims are in the request context.
func RegisterAPI(r *router.Router, c Controllers) {
	api := r.Group("/api")

	api.Post("/auth/register", "auth.register", ctx.Wrap(c.Auth.Register))
	api.Post("/auth/login", "auth.login", ctx.Wrap(c.Auth.Login))

	user := api.Group("", middleware.RequireAuth).As("user")
	user.Get("/auth/profile", "auth.profile", ctx.Wrap(c.Auth.Profile))
	user.Put("/auth/profile", "auth.profile.update", ctx.Wrap(c.Auth.UpdateProfile))

	user.Get("/products", "products.index", ctx.Wrap(c.Products.Index))
	user.Get("/products/search", "products.search", ctx.Wrap(c.Products.Search))
	user.Get("/products/{id}", "products.show", ctx.Wrap(c.Products.Show))
	user.Post("/products/{id}/stock", "products.stock", ctx.Wrap(c.Products.Stock))
	user.Post("/products/{id}/sales", "products.sales.store", ctx.Wrap(c.Products.RecordSale))
	user.Get("/products/{id}/sales", "products.sales", ctx.Wrap(c.Products.Sales))

	user.Get("/categories", "categories.index", ctx.Wrap(c.Categories.Index))
	user.Get("/suppliers", "suppliers.index", ctx.Wrap(c.Suppliers.Index))
	user.Get("/suppliers/{id}", "suppliers.show", ctx.Wrap(c.Suppliers.Show))

	user.Get("/stock/status", "stock.status", ctx.Wrap(c.Stock.Status))
	user.Get("/stock/low", "stock.low", ctx.Wrap(c.Stock.Low))
	user.Get("/stock/out", "stock.out", ctx.Wrap(c.Stock.Out))

	user.Get("/reports/suppliers", "reports.suppliers", ctx.Wrap(c.Reports.Suppliers))
	user.Get("/reports/products.csv", "reports.products.csv", ctx.Wrap(c.Reports.ExportCSV))
	user.Get("/reports/products.xlsx", "reports.products.xlsx", ctx.Wrap(c.Reports.ExportXLSX))

	staff := api.Group("", middleware.RequireStaff).As("staff")
	staff.Post("/products", "products.store", ctx.Wrap(c.Products.Store))
	staff.Put("/products/{id}", "products.update", ctx.Wrap(c.Products.Update))
	staff.Delete("/products/{id}", "products.destroy", ctx.Wrap(c.Products.Destroy))
	staff.Post("/products/{id}/image", "products.image", ctx.Wrap(c.Products.Image))

	staff.Post("/categories", "categories.store", ctx.Wrap(c.Categories.Store))
	staff.Put("/categories/{id}", "categories.update", ctx.Wrap(c.Categories.Update))
	staff.Delete("/categories/{id}", "categories.destroy", ctx.Wrap(c.Categories.Destroy))

	staff.Post("/suppliers", "suppliers.store", ctx.Wrap(c.Suppliers.Store))
	staff.Put("/suppliers/{id}", "suppliers.update", ctx.Wrap(c.Suppliers.Update))
	staff.Delete("/suppliers/{id}", "suppliers.destroy", ctx.Wrap(c.Suppliers.Destroy))
	staff.Post("/suppliers/{id}/logo", "suppliers.logo", ctx.Wrap(c.Suppliers.Logo))

	staff.Post("/reports/products/import", "reports.products.import", ctx.Wrap(c.Reports.Import))
	staff.Post("/alerts/run", "alerts.run", ctx.Wrap(c.Alerts.Run))
}
