// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pazargate/internal/cache"
	"pazargate/internal/config"
	"pazargate/internal/database"
	"pazargate/internal/handlers"
	"pazargate/internal/metrics"
	"pazargate/internal/middleware"
	"pazargate/internal/repositories"
	"pazargate/internal/services"
	"pazargate/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting marketplace gateway...")

	// Database
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db.SqlDB); err != nil {
		log.Fatal("Failed to run migrations: %v", err)
	}

	// Repositories
	sessionRepo := repositories.NewSessionRepository(db.DB)
	securityRepo := repositories.NewSecurityRepository(db.DB)
	safetyRepo := repositories.NewSafetyRepository(db.DB)
	draftRepo := repositories.NewDraftRepository(db.DB)
	listingRepo := repositories.NewListingRepository(db.DB)
	profileRepo := repositories.NewProfileRepository(db.DB)

	// Conversation state: Redis when configured, in-process otherwise
	var states cache.Store
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisStore(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		states = redisStore
		log.Info("Conversation state backed by redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
	} else {
		states = cache.NewMemoryStore()
		log.Warn("Conversation state is in-process only; enable redis for multi-instance deployments")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Services
	pins := services.NewPinAuthService(securityRepo, cfg.Pin, log)
	sessions := services.NewSessionManager(sessionRepo, cfg.Session, log)
	safety := services.NewSafetyGate(safetyRepo, cfg.Safety, log)
	router := services.NewIntentRouter(cfg.Router)
	fsm := services.NewDraftFSM(draftRepo, listingRepo, log)
	agent := services.NewAgentClient(cfg.Agent, log)

	controller := services.NewController(
		pins, sessions, safety, router, fsm, agent,
		profileRepo, states, m, cfg.Turn, log,
	)

	sessions.StartSweeper()
	defer sessions.Stop()

	// HTTP surface
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORSMiddleware(cfg))
	engine.Use(middleware.SecureHeaders())
	engine.Use(middleware.RateLimiter(cfg))

	turnHandler := handlers.NewTurnHandler(controller, log)
	authHandler := handlers.NewAuthHandler(pins, log)
	adminHandler := handlers.NewAdminHandler(safetyRepo, sessionRepo, sessions, log)
	wsHandler := handlers.NewWSHandler(controller, cfg.WebSocket, log)
	healthHandler := handlers.NewHealthHandler(db)

	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	if cfg.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := engine.Group(cfg.Server.BasePath)
	{
		api.POST("/turn", turnHandler.HandleTurn)
		api.GET("/ws", wsHandler.Serve)

		authed := api.Group("")
		authed.Use(middleware.AuthMiddleware(cfg))
		{
			authed.POST("/auth/pin", authHandler.RegisterPin)

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireStaff())
			{
				admin.GET("/safety-flags", adminHandler.ListSafetyFlags)
				admin.POST("/safety-flags/:id/review", adminHandler.ReviewSafetyFlag)
				admin.POST("/sessions/:id/end", adminHandler.EndSession)
			}
		}
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown: %v", err)
	}

	log.Info("Gateway stopped")
}
