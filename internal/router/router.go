package router

import (
	"net/http"

	"github.com/booth-finance/api/internal/config"
	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/enum"
	"github.com/booth-finance/api/internal/handler"
	mw "github.com/booth-finance/api/internal/middleware"
	"github.com/booth-finance/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool) chi.Router {
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
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Session lifecycle
		newSessionStore := func(db database.DBTX) service.SessionStore {
			return database.New(db)
		}
		sessionService := service.NewSessionService(pool, newSessionStore)
		sessionHandler := handler.NewSessionHandler(sessionService, queries)
		sessionHandler.RegisterRoutes(r)

		// Items (read)
		itemHandler := handler.NewItemHandler(queries)
		itemHandler.RegisterReadRoutes(r)

		// Owner-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner))

			sessionHandler.RegisterOpenRoute(r)
			itemHandler.RegisterWriteRoutes(r)

			cashbookHandler := handler.NewCashbookHandler(queries)
			cashbookHandler.RegisterRoutes(r)

			reportsHandler := handler.NewReportsHandler(queries)
			reportsHandler.RegisterRoutes(r)

			periodService := service.NewPeriodService(queries)
			closingHandler := handler.NewClosingHandler(periodService, queries)
			closingHandler.RegisterRoutes(r)

			feeHandler := handler.NewFeeHandler(queries)
			feeHandler.RegisterRoutes(r)
		})
	})

	return r
}
