package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medeva/pharmapos-backend/api/controllers"
	"github.com/medeva/pharmapos-backend/api/middleware"
	authsvc "github.com/medeva/pharmapos-backend/internal/auth"
	"github.com/medeva/pharmapos-backend/internal/catalog"
	checkoutsvc "github.com/medeva/pharmapos-backend/internal/checkout"
	"github.com/medeva/pharmapos-backend/internal/inventory"
	"github.com/medeva/pharmapos-backend/internal/invoices"
	"github.com/medeva/pharmapos-backend/pkg/config"
	"github.com/medeva/pharmapos-backend/pkg/db"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	"github.com/medeva/pharmapos-backend/pkg/logger"
	pkgredis "github.com/medeva/pharmapos-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs wired in.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *pkgredis.Client
	AuthService authsvc.Service
	Catalog     catalog.Service
	Inventory   inventory.Service
	Invoices    invoices.Service
	Checkout    checkoutsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A nil *redis.Client must stay a nil interface inside the middleware and
	// health checks.
	var redisP pkgredis.Pinger
	var idemStore pkgredis.IdempotencyStore
	var rateStore middleware.RateLimiterStore
	if deps.Redis != nil {
		redisP = deps.Redis
		idemStore = deps.Redis
		rateStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/resolve", controllers.ProductResolve(deps.Catalog, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg,
					string(enums.UserRoleOwner),
					string(enums.UserRolePharmacist),
				))
				r.Post("/", controllers.ProductCreate(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.ProductUpdate(deps.Catalog, logg))
				r.Delete("/{productId}", controllers.ProductDeactivate(deps.Catalog, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(middleware.BranchContext(logg))
			r.Get("/batches", controllers.BatchList(deps.Inventory, logg))
			r.With(middleware.RequireRoles(logg,
				string(enums.UserRoleOwner),
				string(enums.UserRolePharmacist),
			)).Post("/batches", controllers.BatchReceive(deps.Inventory, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(deps.Invoices, logg))
			r.Get("/lookup", controllers.InvoiceLookup(deps.Invoices, logg))
		})

		r.With(middleware.RequireRoles(logg, string(enums.UserRoleOwner))).
			Post("/tax-identities", controllers.TaxIdentityCreate(deps.Invoices, logg))

		r.With(middleware.BranchContext(logg)).
			Post("/checkout", controllers.Checkout(deps.Checkout, logg))
	})

	return r
}
