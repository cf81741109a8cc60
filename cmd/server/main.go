package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/config"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/handlers"
	"github.com/jyotisetu/astroconnect-backend/internal/middleware"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/internal/realtime"
	"github.com/jyotisetu/astroconnect-backend/internal/routes"
	"github.com/jyotisetu/astroconnect-backend/internal/services"
	"github.com/jyotisetu/astroconnect-backend/pkg/logger"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()

	// Environment-based logger initialization (production = JSON, development = pretty)
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting AstroConnect Backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Connect Database & Redis
	database.Connect()
	database.InitRedis()

	logger.Info().Msg("Running database migrations...")
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.ConsultationRequest{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	logger.Info().Msg("Database migrations complete")

	// 2. Services
	consultations := services.NewConsultationService(database.DB)
	if config.AppConfig.ConsultationTTLMinutes > 0 {
		consultations.SetTTL(time.Duration(config.AppConfig.ConsultationTTLMinutes) * time.Minute)
	}
	chat := services.NewChatService(database.DB)

	// 3. Realtime hub (socket.io)
	hub := realtime.NewHub(consultations, chat)
	defer hub.Close()

	handlers.Init(hub, consultations, chat)

	// One shared clock sweeps pending requests past their TTL; both
	// parties are notified when a sweep flips a request to Expired.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	consultations.StartExpirySweeper(sweepCtx, 15*time.Second, hub.NotifyExpired)

	// 4. Setup Router
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Exempt /socket.io from rate limiting
	r.Use(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 10 && c.Request.URL.Path[:10] == "/socket.io" {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	// 5. Register Routes
	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		routes.RegisterAuthRoutes(auth)

		routes.RegisterChatRoutes(api)
		routes.RegisterAstrologerRoutes(api)
		routes.RegisterConsultationRoutes(api)
	}

	// Health check with DB and Redis status
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		redisStatus := "ok"

		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "error"
		}

		if database.Redis != nil {
			if _, err := database.Redis.Ping(context.Background()).Result(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		if dbStatus != "ok" || (redisStatus != "ok" && redisStatus != "not configured") {
			status = "degraded"
		}

		c.JSON(200, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	})

	// Socket.io endpoint
	r.GET("/socket.io/*any", hub.Handler())
	r.POST("/socket.io/*any", hub.Handler())

	// 6. Start Server with graceful shutdown
	port := config.AppConfig.Port
	if port == "" {
		port = "4000"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
