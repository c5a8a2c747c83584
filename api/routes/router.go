package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agritrace/agritrace-backend/api/controllers"
	"github.com/agritrace/agritrace-backend/api/middleware"
	adminsvc "github.com/agritrace/agritrace-backend/internal/admin"
	"github.com/agritrace/agritrace-backend/internal/assignments"
	"github.com/agritrace/agritrace-backend/internal/auth"
	"github.com/agritrace/agritrace-backend/internal/farmers"
	"github.com/agritrace/agritrace-backend/internal/journey"
	"github.com/agritrace/agritrace-backend/internal/pipeline"
	"github.com/agritrace/agritrace-backend/internal/reports"
	"github.com/agritrace/agritrace-backend/pkg/auth/session"
	"github.com/agritrace/agritrace-backend/pkg/config"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/logger"
	"github.com/agritrace/agritrace-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker

	Auth        auth.Service
	Pipeline    pipeline.Service
	Farmers     farmers.Service
	Assignments assignments.Service
	Journey     journey.Service
	Admin       adminsvc.Service
	Reports     reports.Service
}

// NewRouter mounts every route with its middleware chain.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
	})

	// Consumer tracking stays open; a printed code on the package is the
	// only credential a buyer has.
	r.Route("/api/v1/customer", func(r chi.Router) {
		r.Get("/track/{productId}", controllers.CustomerTrackProduct(d.Journey, logg))
		r.Get("/track-by-code/{code}", controllers.CustomerTrackByCode(d.Journey, logg))
		r.Get("/purchases/{phone}", controllers.CustomerPurchases(d.Journey, logg))
	})

	r.Get("/api/v1/products", controllers.ListProducts(d.Pipeline, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleFarmer.String()))
			r.Post("/products", controllers.CreateProduct(d.Pipeline, logg))
			r.Route("/farmer", func(r chi.Router) {
				r.Get("/me", controllers.FarmerGetProfile(d.Farmers, logg))
				r.Post("/me", controllers.FarmerUpsertProfile(d.Farmers, logg))
				r.Put("/me", controllers.FarmerUpsertProfile(d.Farmers, logg))
				r.Get("/products", controllers.FarmerListProducts(d.Pipeline, logg))
			})
		})

		r.With(middleware.RequireRole(logg, enums.UserRoleFarmer.String(), enums.UserRoleAdmin.String())).
			Put("/products/{productId}", controllers.UpdateProduct(d.Pipeline, logg))
		r.With(middleware.RequireRole(logg, enums.UserRoleAdmin.String())).
			Delete("/products/{productId}", controllers.DeleteProduct(d.Pipeline, logg))

		r.Route("/transport", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleTransporter.String(), enums.UserRoleAdmin.String()))
				r.Get("/", controllers.TransportListRecords(d.Pipeline, logg))
				r.Get("/available-products", controllers.TransportAvailableProducts(d.Assignments, logg))
				r.Put("/{transportId}/complete", controllers.TransportComplete(d.Pipeline, logg))
			})
			r.With(middleware.RequireRole(logg, enums.UserRoleTransporter.String())).
				Post("/", controllers.TransportAcceptPickup(d.Pipeline, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin.String())).
				Delete("/{transportId}", controllers.TransportDeleteRecord(d.Pipeline, logg))
		})

		r.Route("/warehouse", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleWarehouse.String(), enums.UserRoleAdmin.String()))
				r.Get("/", controllers.WarehouseListRecords(d.Pipeline, logg))
				r.Get("/available-products", controllers.WarehouseAvailableProducts(d.Assignments, logg))
				r.Get("/assigned-products", controllers.WarehouseAssignedProducts(d.Assignments, logg))
				r.Get("/available-retailers", controllers.WarehouseAvailableRetailers(d.Assignments, logg))
				r.Put("/{warehouseId}", controllers.WarehouseUpdateRecord(d.Pipeline, logg))
				r.Put("/product/{productId}/dispatch", controllers.WarehouseDispatch(d.Pipeline, logg))
			})
			r.With(middleware.RequireRole(logg, enums.UserRoleWarehouse.String())).
				Post("/", controllers.WarehouseStoreProduct(d.Pipeline, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin.String())).
				Delete("/{warehouseId}", controllers.WarehouseDeleteRecord(d.Pipeline, logg))
		})

		r.Route("/retail", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleRetailer.String(), enums.UserRoleAdmin.String()))
				r.Get("/", controllers.RetailListRecords(d.Pipeline, logg))
				r.Get("/available-products", controllers.RetailAssignedProducts(d.Assignments, logg))
				r.Get("/assigned-products", controllers.RetailAssignedProducts(d.Assignments, logg))
				r.Put("/{retailId}", controllers.RetailUpdateRecord(d.Pipeline, logg))
				r.Put("/{retailId}/sell-out", controllers.RetailSellOut(d.Pipeline, logg))
			})
			r.With(middleware.RequireRole(logg, enums.UserRoleRetailer.String())).
				Post("/", controllers.RetailListForSale(d.Pipeline, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin.String())).
				Delete("/{retailId}", controllers.RetailDeleteRecord(d.Pipeline, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin.String()))
			r.Get("/users", controllers.AdminListUsers(d.Admin, logg))
			r.Delete("/users/{userId}", controllers.AdminDeleteUser(d.Admin, logg))
			r.Get("/role-stats", controllers.AdminRoleStats(d.Admin, logg))
			r.Get("/report", controllers.AdminExportReport(d.Reports, logg))
		})
	})

	return r
}
