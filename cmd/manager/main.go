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

	_ "github.com/lib/pq"

	"github.com/Dosada05/agent-league/auth"
	"github.com/Dosada05/agent-league/config"
	"github.com/Dosada05/agent-league/db"
	"github.com/Dosada05/agent-league/dispatch"
	_ "github.com/Dosada05/agent-league/docs"
	"github.com/Dosada05/agent-league/handlers"
	"github.com/Dosada05/agent-league/live"
	"github.com/Dosada05/agent-league/repositories"
	"github.com/Dosada05/agent-league/routes"
	"github.com/Dosada05/agent-league/schedule"
	"github.com/Dosada05/agent-league/services"
	"github.com/Dosada05/agent-league/standings"
	"github.com/Dosada05/agent-league/storage"
)

//	@title			Agent League Manager API
//	@version		2.0
//	@description	REST surface of the round-robin league manager: league state, standings and the start trigger.
//	@BasePath		/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.LoadManager()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("league_id", cfg.LeagueID),
	)

	// Хранилище: Postgres при заданном DATABASE_URL, иначе файлы в DataDir.
	var (
		standingsRepo repositories.StandingsRepository
		recordsRepo   repositories.MatchRecordRepository
	)
	if cfg.DatabaseURL != "" {
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
		if err := db.EnsureSchema(context.Background(), dbConn); err != nil {
			logger.Error("failed to ensure database schema", slog.Any("error", err))
			os.Exit(1)
		}
		standingsRepo = repositories.NewPostgresStandingsRepository(dbConn)
		recordsRepo = repositories.NewPostgresMatchRecordRepository(dbConn)
		logger.Info("database connection established")
	} else {
		standingsRepo = repositories.NewFileStandingsRepository(cfg.DataDir)
		recordsRepo = repositories.NewFileMatchRecordRepository(cfg.DataDir)
		logger.Info("file storage initialized", slog.String("dir", cfg.DataDir))
	}

	// Архив протоколов матчей (Cloudflare R2), если настроен.
	var archiver storage.Archiver = storage.NopArchiver{}
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2Bucket,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewRecordArchiver(uploader, logger)
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("match archiving disabled: R2 credentials not configured")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	tokens := auth.NewTokenService(cfg.JWTSecretKey, cfg.TokenTTL)
	dispatcher := dispatch.NewDispatcher(dispatch.NewClient(10*time.Second), dispatch.DefaultPolicy(), logger)

	leagueService := services.NewLeagueService(
		services.LeagueConfig{
			LeagueID:         cfg.LeagueID,
			Name:             cfg.LeagueName,
			GameType:         cfg.GameType,
			MinPlayers:       cfg.MinPlayers,
			StallTimeout:     cfg.StallTimeout,
			BroadcastTimeout: cfg.BroadcastTimeout,
		},
		tokens,
		dispatcher,
		schedule.NewRoundRobinGenerator(),
		standings.NewAggregator(standingsRepo, standings.DefaultScoring()),
		recordsRepo,
		archiver,
		wsHub,
		logger,
	)
	logger.Info("League service initialized")

	// Настройка маршрутизатора
	router := routes.SetupManagerRoutes(routes.ManagerDeps{
		MCP:            handlers.NewManagerMCPHandler(leagueService, cfg.LeagueID),
		League:         handlers.NewLeagueHandler(leagueService),
		WebSocket:      handlers.NewWebSocketHandler(wsHub),
		Tokens:         tokens,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
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
