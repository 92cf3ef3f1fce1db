package main

import (
	"fmt"
	"log"
	"net/http"

	"cytogate/internal/api"
	"cytogate/internal/api/handlers"
	"cytogate/internal/api/middleware"
	"cytogate/internal/engine/audit"
	"cytogate/internal/engine/tokens"
	"cytogate/internal/pkg/logger"
	"cytogate/internal/platform/auth"
	"cytogate/internal/platform/config"
	"cytogate/internal/platform/database"
	"cytogate/internal/platform/metrics"
	"cytogate/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)
	metrics.Init()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories and stores
	userRepo := repositories.NewUserRepository(db)
	wsRepo := repositories.NewWorkspaceRepository(db)
	fcsRepo := repositories.NewFCSRepository(db)
	tokenRepo := tokens.NewRepository(db)
	auditStore := audit.NewStore(db)

	// Services
	sessions := auth.NewSessionService(cfg.JWT)
	issuer := tokens.NewIssuer(tokenRepo, cfg.PAT)
	validator := tokens.NewValidator(tokenRepo, userRepo, sessions, auditStore)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, sessions)
	tokenHandler := handlers.NewTokenHandler(issuer, tokenRepo, auditStore)
	userHandler := handlers.NewUserHandler(userRepo)
	wsHandler := handlers.NewWorkspaceHandler(wsRepo)
	fcsHandler := handlers.NewFCSHandler(fcsRepo, wsRepo)
	auditHandler := handlers.NewAuditHandler(auditStore)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(validator)

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:      authHandler,
		TokenHandler:     tokenHandler,
		UserHandler:      userHandler,
		WorkspaceHandler: wsHandler,
		FCSHandler:       fcsHandler,
		AuditHandler:     auditHandler,
		HealthHandler:    healthHandler,
		AuthMiddleware:   authMiddleware,
	})

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
