package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/config"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/database"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/handlers"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/middleware"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/routes"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/services"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
)

func main() {
	config.LoadConfig()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting contest engine...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect()
	database.InitRedis()

	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Contest{},
		&models.ContestRegistration{},
		&models.Problem{},
		&models.TestCase{},
		&models.ContestSubmission{},
		&models.ContestProblemStat{},
		&models.PreviousRank{},
		&models.RatingChange{},
		&models.LeaderboardRow{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	logger.Info().Msg("Database migrations complete")

	// Socket.io first, so the broadcaster can be handed to the services.
	socketServer := handlers.InitSocketServer()
	defer socketServer.Close()

	broadcaster := services.NewSocketBroadcaster(socketServer)
	pipeline := services.NewPipeline(services.NewJudge0Client())
	submissions := services.NewSubmissionService(pipeline, broadcaster)
	finalizer := services.NewFinalizer(config.AppConfig.FinalizeTick(), broadcaster)
	handlers.Init(submissions, finalizer)

	// Background finalization sweep, stopped via the shutdown context.
	finalizerCtx, stopFinalizer := context.WithCancel(context.Background())
	defer stopFinalizer()
	go finalizer.Start(finalizerCtx)

	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Long-polling transports would starve the general limiter.
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	api := r.Group("/api")
	{
		routes.RegisterContestRoutes(api)
		routes.RegisterUserRoutes(api)
	}

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

	r.GET("/socket.io/*any", handlers.SocketHandler(socketServer))
	r.POST("/socket.io/*any", handlers.SocketHandler(socketServer))

	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		// Submit requests block on the judge poll loop, which can take
		// upwards of ten seconds for slow languages.
		WriteTimeout: 30 * time.Second,
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
	stopFinalizer()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
