package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"convertly-api/internal/api"
	"convertly-api/internal/config"
	"convertly-api/internal/database"
	"convertly-api/internal/ratelimit"
	"convertly-api/internal/repository"
	"convertly-api/internal/services"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Get underlying *sql.DB instance for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get underlying *sql.DB instance:", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	settingsRepo := repository.NewRateLimitSettingsRepository(db)
	jobRepo := repository.NewConversionJobRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	cacheService, err := services.NewRedisCacheService(config.NewCacheConfig())
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	apiKeyService := services.NewAPIKeyService(apiKeyRepo)
	authService := services.NewAuthService(userRepo, apiKeyService, jwtSecret)
	conversionService := services.NewConversionService(jobRepo, cacheService)
	auditLogService := services.NewAuditLogService(auditLogRepo)

	// Initialize the rate limit engine
	rateLimitConfig := config.NewRateLimitConfig()
	catalog := ratelimit.NewTierCatalog(rateLimitConfig.Defaults)
	counterStore := ratelimit.NewRedisCounterStore(cacheService.Client())
	engine := ratelimit.NewEngine(catalog, settingsRepo, counterStore, userRepo, rateLimitConfig.FailMode)

	// Initialize router
	router := api.SetupRoutes(api.RouterDeps{
		DB:                db,
		AuthService:       authService,
		APIKeyService:     apiKeyService,
		ConversionService: conversionService,
		AuditLogService:   auditLogService,
		Engine:            engine,
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
			"X-API-Key",
		},
		ExposedHeaders: []string{
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"Retry-After",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	// Create server with timeouts
	srv := &http.Server{
		Handler:      corsMiddleware.Handler(router),
		Addr:         ":" + getPort(),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	// Start server
	log.Printf("Server starting on port %s...", getPort())
	log.Fatal(srv.ListenAndServe())
}

func getPort() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}
	return port
}
