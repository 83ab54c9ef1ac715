package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Dosada05/league-draw/cache"
	"github.com/Dosada05/league-draw/config"
	"github.com/Dosada05/league-draw/db"
	"github.com/Dosada05/league-draw/draw"
	"github.com/Dosada05/league-draw/fixtures"
	"github.com/Dosada05/league-draw/handlers"
	"github.com/Dosada05/league-draw/live"
	"github.com/Dosada05/league-draw/repositories"
	"github.com/Dosada05/league-draw/roster"
	api "github.com/Dosada05/league-draw/routes"
	"github.com/Dosada05/league-draw/services"
	"github.com/Dosada05/league-draw/storage"
)

// @title League Draw API
// @version 1.0
// @description League-phase draw and fixture scheduling for 36-team competitions.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	// Каталоги команд
	rosters := roster.Default()
	if cfg.RosterDir != "" {
		if rosters, err = roster.LoadDir(cfg.RosterDir, rosters); err != nil {
			logger.Error("failed to load roster catalogs", slog.String("dir", cfg.RosterDir), slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("roster catalogs loaded", slog.Int("competitions", len(rosters.List())))

	healthChecks := map[string]handlers.HealthCheck{"database": dbConn.PingContext}

	// Redis: распределённая блокировка и кэш жеребьёвок
	var (
		locker    services.Locker = cache.NewLocalLocker()
		drawCache services.DrawCache
	)
	if cfg.Redis.Enabled() {
		redisClient, err := cache.New(ctx, cache.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		locker = cache.NewLockManager(redisClient)
		drawCache = cache.NewDrawCache(redisClient, cfg.Redis.CacheTTL)
		healthChecks["redis"] = redisClient.Ping
		logger.Info("redis connected", slog.String("addr", cfg.Redis.Addr))
	} else {
		logger.Info("redis not configured, using in-process draw lock")
	}

	// Экспорт жеребьёвок в Cloudflare R2
	var exporter services.DrawExporter
	if cfg.R2.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		exporter = storage.NewDrawExporter(uploader)
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Инициализация WebSocket Hub
	hub := live.NewHub(logger)
	go hub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Сервисы
	pipeline := services.NewPipeline(pipelineConfig(cfg.Draw), logger)
	drawService := services.NewDrawService(services.DrawServiceDeps{
		Rosters:   rosters,
		Repo:      repositories.NewPostgresDrawRepository(dbConn),
		Pipeline:  pipeline,
		Locker:    locker,
		Cache:     drawCache,
		Exporter:  exporter,
		Publisher: hub,
		Logger:    logger,
	})
	simulationService := services.NewSimulationService(rosters, pipeline, logger)
	authService := services.NewAuthService(cfg.OrganizerPasswordHash, []byte(cfg.JWTSecretKey))
	if err := authService.Validate(); err != nil {
		logger.Error("invalid auth configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Health:      handlers.NewHealthHandler(healthChecks),
		Auth:        handlers.NewAuthHandler(authService),
		Competition: handlers.NewCompetitionHandler(drawService),
		Draw:        handlers.NewDrawHandler(drawService, simulationService),
		WebSocket:   handlers.NewWebSocketHandler(hub, drawService, cfg.CORSAllowedOrigins),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера. WriteTimeout покрывает полный прогон жеребьёвки.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Draw.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

func pipelineConfig(d config.DrawConfig) services.PipelineConfig {
	return services.PipelineConfig{
		Draw: draw.Options{MaxAttempts: d.MaxAttempts},
		Schedule: fixtures.Options{
			MatchingAttempts:  d.ScheduleMatchingTries,
			Restarts:          d.ScheduleRestarts,
			MaxMatchingPasses: d.ScheduleMaxPasses,
			AllowDegraded:     d.AllowDegradedSchedule,
		},
		Retries: d.PipelineRetries,
		Timeout: d.Timeout,
	}
}
