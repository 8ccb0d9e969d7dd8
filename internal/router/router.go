package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tiffinly/api/internal/config"
	"github.com/tiffinly/api/internal/database"
	"github.com/tiffinly/api/internal/handler"
	mw "github.com/tiffinly/api/internal/middleware"
	"github.com/tiffinly/api/internal/service"
	"github.com/tiffinly/api/internal/storage"
	"github.com/tiffinly/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Customer routes require authentication; admin routes additionally
// require the ADMIN role.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, files *storage.LocalStore) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
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
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Menu browsing is public: anyone can see today's specials.
	menuHandler := handler.NewMenuHandler(queries)
	menuHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Uploaded payment screenshots
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Customer routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		cartHandler := handler.NewCartHandler(queries)
		cartHandler.RegisterRoutes(r)

		newCheckoutStore := func(db database.DBTX) service.CheckoutStore {
			return database.New(db)
		}
		checkoutService := service.NewCheckoutService(pool, newCheckoutStore)
		orderHandler := handler.NewOrderHandler(checkoutService, queries)
		orderHandler.RegisterRoutes(r)

		paymentHandler := handler.NewPaymentHandler(queries, files, cfg.OnlineGatewayEnabled)
		paymentHandler.RegisterRoutes(r)

		notificationHandler := handler.NewNotificationHandler(queries)
		notificationHandler.RegisterRoutes(r)
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole("ADMIN"))

		menuHandler.RegisterAdminRoutes(r)

		adminOrderHandler := handler.NewAdminOrderHandler(queries, hub)
		adminOrderHandler.RegisterRoutes(r)

		adminPaymentHandler := handler.NewAdminPaymentHandler(queries, hub)
		adminPaymentHandler.RegisterRoutes(r)
	})

	return r
}
