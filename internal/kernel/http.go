package kernel

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/stockroom/app/controllers"
	"github.com/shashiranjanraj/stockroom/app/routes"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/middleware"
	"github.com/shashiranjanraj/stockroom/pkg/reqid"
	"github.com/shashiranjanraj/stockroom/pkg/response"
	"github.com/shashiranjanraj/stockroom/pkg/router"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
)

// Router builds the router with the global middleware stack and every route.
func (k *Kernel) Router() *router.Router {
	r := router.New()

	// Global middleware, outermost first:
	//  1. Prometheus metrics
	//  2. Recovery
	//  3. Request ID
	//  4. Logger (reads the request id)
	//  5. CORS
	//  6. Rate limiter
	//  7. Bearer token → claims in context
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(config.RateLimitPerMinute(), time.Minute))
	r.Use(middleware.Authenticate)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Handle(http.MethodGet, "/metrics", "metrics", metrics.Handler())
	if local, ok := k.Disk.(*storage.Local); ok {
		r.Handle(http.MethodGet, "/storage/*", "storage",
			http.StripPrefix("/storage/", http.FileServer(noListing{http.Dir(local.Root())})))
	}

	routes.RegisterAPI(r, routes.Controllers{
		Auth:       controllers.NewAuthController(k.Auth),
		Products:   controllers.NewProductController(k.Catalog, k.Stock, k.Sales),
		Categories: controllers.NewCategoryController(k.Catalog),
		Suppliers:  controllers.NewSupplierController(k.Catalog),
		Stock:      controllers.NewStockController(k.Stock),
		Reports:    controllers.NewReportController(k.Reports),
		Alerts:     controllers.NewAlertController(k.Alerts, k.Queue, config.AlertExpiryDays()),
	})
	return r
}

// Handler is the HTTP entry point.
func (k *Kernel) Handler() http.Handler {
	return k.Router().Handler()
}

// noListing hides directory indexes on the public storage mount.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, "/") {
		return nil, fs.ErrNotExist
	}
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
