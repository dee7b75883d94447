package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftlane/storefront-backend/api/controllers"
	"github.com/craftlane/storefront-backend/api/middleware"
	"github.com/craftlane/storefront-backend/internal/activity"
	authsvc "github.com/craftlane/storefront-backend/internal/auth"
	cartsvc "github.com/craftlane/storefront-backend/internal/cart"
	"github.com/craftlane/storefront-backend/internal/catalog"
	"github.com/craftlane/storefront-backend/internal/categories"
	"github.com/craftlane/storefront-backend/internal/orders"
	"github.com/craftlane/storefront-backend/internal/payments"
	"github.com/craftlane/storefront-backend/pkg/config"
	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/enums"
	"github.com/craftlane/storefront-backend/pkg/logger"
	"github.com/craftlane/storefront-backend/pkg/metrics"
	pkgredis "github.com/craftlane/storefront-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *pkgredis.Client
	Registry *prometheus.Registry

	HTTPMetrics *metrics.HTTPMetrics

	Auth       authsvc.Service
	Catalog    catalog.Service
	Categories categories.Service
	Cart       cartsvc.Service
	Orders     orders.Service
	Payments   payments.Service
	Activity   *activity.Service
}

// NewRouter wires middleware and controllers into the chi tree.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.Register(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.Login(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{productID}", controllers.GetProduct(deps.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(deps.Categories, logg))
		r.Get("/activity/recent", controllers.RecentActivity(deps.Activity, logg))

		// Checkout accepts both guests and signed-in shoppers, so the token
		// is optional here but still validated when present.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
			r.Post("/orders", controllers.PlaceOrder(deps.Orders, deps.Cart, logg))
			r.Post("/orders/razorpay", controllers.InitiateRazorpayOrder(deps.Payments, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Delete("/items/{variantID}", controllers.RemoveCartItem(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			})

			r.Get("/orders", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/orders/{orderID}", controllers.GetMyOrder(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Get("/products", controllers.AdminListProducts(deps.Catalog, logg))
		r.Post("/products", controllers.AdminCreateProduct(deps.Catalog, logg))
		r.Patch("/products/{productID}", controllers.AdminUpdateProduct(deps.Catalog, logg))
		r.Delete("/products/{productID}", controllers.AdminDeleteProduct(deps.Catalog, logg))

		r.Post("/categories", controllers.AdminCreateCategory(deps.Categories, logg))
		r.Delete("/categories/{categoryID}", controllers.AdminDeleteCategory(deps.Categories, logg))

		r.Get("/gateways", controllers.AdminListGateways(deps.Payments, logg))
		r.Patch("/gateways/{gatewayID}", controllers.AdminUpdateGateway(deps.Payments, logg))

		r.Get("/orders", controllers.AdminListOrders(deps.Orders, logg))
		r.Patch("/orders/{orderID}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
	})

	return r
}
