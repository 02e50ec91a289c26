package api

import (
	"convertly-api/internal/api/handlers"
	"convertly-api/internal/middleware"
	"convertly-api/internal/ratelimit"
	"convertly-api/internal/services"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type RouterDeps struct {
	DB                *gorm.DB
	AuthService       services.AuthService
	APIKeyService     services.APIKeyService
	ConversionService services.ConversionService
	AuditLogService   services.AuditLogService
	Engine            *ratelimit.Engine
}

func SetupRoutes(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.APIKeyService)
	conversionHandler := handlers.NewConversionHandler(deps.ConversionService)
	adminHandler := handlers.NewRateLimitAdminHandler(deps.Engine, deps.AuditLogService)
	auditLogHandler := handlers.NewAuditLogHandler(deps.AuditLogService)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	// Public routes
	router.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/health", healthHandler.Check).Methods("GET")

	// API routes (protected); reads fall under the "standard" policy, job
	// submission under the stricter "conversion" policy.
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(deps.AuthService))
	apiRouter.Use(middleware.APIKeyMiddleware(deps.APIKeyService))

	standard := apiRouter.NewRoute().Subrouter()
	standard.Use(middleware.RateLimit(deps.Engine, ratelimit.PolicyStandard))
	standard.HandleFunc("/conversions", conversionHandler.ListJobs).Methods("GET")
	standard.HandleFunc("/conversions/{id}", conversionHandler.GetJob).Methods("GET")

	conversion := apiRouter.NewRoute().Subrouter()
	conversion.Use(middleware.RateLimit(deps.Engine, ratelimit.PolicyConversion))
	conversion.HandleFunc("/conversions", conversionHandler.SubmitJob).Methods("POST")

	// Admin routes
	adminRouter := router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware(deps.AuthService))
	adminRouter.HandleFunc("/users/{id}/rate-limits", adminHandler.InspectUser).Methods("GET")
	adminRouter.HandleFunc("/users/{id}/rate-limits/tier", adminHandler.UpdateTier).Methods("PUT")
	adminRouter.HandleFunc("/users/{id}/rate-limits/overrides/{policy}", adminHandler.SetOverride).Methods("PUT")
	adminRouter.HandleFunc("/users/{id}/rate-limits/overrides/{policy}", adminHandler.ClearOverride).Methods("DELETE")
	adminRouter.HandleFunc("/audit-logs", auditLogHandler.GetAuditLogs).Methods("GET")

	return router
}
