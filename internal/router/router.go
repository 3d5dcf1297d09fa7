package router

import (
	"net/http"

	"github.com/bulkdrop/api/internal/config"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/handler"
	"github.com/bulkdrop/api/internal/logger"
	mw "github.com/bulkdrop/api/internal/middleware"
	"github.com/bulkdrop/api/internal/notify"
	"github.com/bulkdrop/api/internal/service"
	"github.com/bulkdrop/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, role and region-scope middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool service.TxBeginner, hub *ws.Hub, notifier notify.Notifier, log *logrus.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(logger.Module(log, "http")))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	authn := mw.NewAuthenticator(cfg.JWTSecret, cfg.SessionCookie, queries, logger.Module(log, "auth"))

	// WebSocket route (authenticates from the token query param or cookie)
	r.Method(http.MethodGet, "/ws/regions/{rid}/orders", ws.NewHandler(hub, authn, cfg.AllowedOrigins, logger.Module(log, "ws")))

	// Services
	orderService := service.NewOrderService(
		pool,
		func(db database.DBTX) service.OrderStore { return database.New(db) },
		hub,
		logger.Module(log, "orders"),
	)
	fulfillmentService := service.NewFulfillmentService(
		queries,
		pool,
		func(db database.DBTX) service.FulfillmentStore { return database.New(db) },
		hub,
		notifier,
		logger.Module(log, "fulfillment"),
	)
	addressService := service.NewAddressService(
		pool,
		func(db database.DBTX) service.AddressStore { return database.New(db) },
	)
	invoiceService := service.NewInvoiceService(queries)

	// Handlers
	handlerLog := logger.Module(log, "handler")
	profileHandler := handler.NewProfileHandler(queries, handlerLog)
	regionHandler := handler.NewRegionHandler(queries, handlerLog)
	productHandler := handler.NewProductHandler(queries, handlerLog)
	addressHandler := handler.NewAddressHandler(addressService, queries, handlerLog)
	orderHandler := handler.NewOrderHandler(orderService, invoiceService, queries, hub, handlerLog)
	logisticsHandler := handler.NewLogisticsHandler(fulfillmentService, queries, handlerLog)
	adminOrderHandler := handler.NewAdminOrderHandler(fulfillmentService, queries, handlerLog)
	userHandler := handler.NewUserHandler(queries, notifier, handlerLog)
	reportsHandler := handler.NewReportsHandler(queries, handlerLog)

	// Protected routes (require authentication)
	r.Route("/api", func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Route("/profile", profileHandler.RegisterRoutes)
		r.Route("/regions", regionHandler.RegisterRoutes)
		r.Route("/products", productHandler.RegisterRoutes)
		r.Route("/orders", orderHandler.RegisterRoutes)

		// Customer-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(database.UserRoleUser))
			r.Route("/addresses", addressHandler.RegisterRoutes)
		})

		// Delivery partner routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(database.UserRoleLogistics))
			r.Route("/logistics/orders", logisticsHandler.RegisterRoutes)
		})

		// Admin routes (region-scoped inside the handlers)
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(database.UserRoleAdmin))

			r.Route("/orders", adminOrderHandler.RegisterRoutes)
			r.Get("/logistics-partners", adminOrderHandler.ListPartners)
			r.Route("/users", userHandler.RegisterRoutes)
			r.Route("/products", productHandler.RegisterAdminRoutes)
			r.Route("/reports", reportsHandler.RegisterRoutes)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireSuperAdmin)
				r.Route("/regions", regionHandler.RegisterAdminRoutes)
			})
		})
	})

	log.WithField("module", "router").Info("router initialized")
	return r
}
