package main

import (
	"fmt"
	"log"
	"net/http"

	"errdeck/internal/api"
	"errdeck/internal/api/handlers"
	"errdeck/internal/api/middleware"
	"errdeck/internal/engine/alerts"
	"errdeck/internal/engine/updates"
	"errdeck/internal/pkg/logger"
	"errdeck/internal/platform/auth"
	"errdeck/internal/platform/config"
	"errdeck/internal/platform/storage"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	// Services
	tokenSvc := auth.NewTokenService(store, cfg.JWT)
	alertSvc := alerts.NewService(store)
	updatesClient := updates.NewClient(cfg.Registry.BaseURL)

	// Handlers
	appHandler := handlers.NewAppHandler(store, alertSvc, updatesClient)
	userHandler := handlers.NewUserHandler(store, tokenSvc)
	healthHandler := handlers.NewHealthHandler(store)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute)

	// Router
	deps := &api.Dependencies{
		AppHandler:     appHandler,
		UserHandler:    userHandler,
		HealthHandler:  healthHandler,
		AuthMiddleware: authMiddleware,
		LoginLimiter:   loginLimiter,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
