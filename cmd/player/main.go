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

	"github.com/Dosada05/agent-league/config"
	"github.com/Dosada05/agent-league/dispatch"
	"github.com/Dosada05/agent-league/handlers"
	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/repositories"
	"github.com/Dosada05/agent-league/routes"
	"github.com/Dosada05/agent-league/services"
)

const registerRetryDelay = 5 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.LoadPlayer()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("display_name", cfg.DisplayName),
		slog.String("strategy", cfg.Strategy),
	)

	dispatcher := dispatch.NewDispatcher(dispatch.NewClient(10*time.Second), dispatch.DefaultPolicy(), logger)
	history := repositories.NewFileHistoryRepository(cfg.HistoryDir)

	playerService := services.NewPlayerService(services.PlayerConfig{
		ManagerEndpoint: cfg.ManagerEndpoint,
		SelfEndpoint:    cfg.SelfEndpoint,
		DisplayName:     cfg.DisplayName,
		Version:         cfg.Version,
	}, services.NewStrategy(cfg.Strategy), history, dispatcher, logger)

	router := routes.SetupAgentRoutes(routes.AgentDeps{
		Role: models.RolePlayer,
		MCP:  handlers.NewPlayerMCPHandler(playerService).ServeMCP,
	})

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

	// Регистрируемся у менеджера после старта сервера: приглашения судей
	// приходят на наш /mcp. Повторяем, пока менеджер не ответит.
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for attempt := 1; ; attempt++ {
			err := playerService.Start(rootCtx)
			if err == nil {
				return
			}
			logger.Error("registration with manager failed",
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			select {
			case <-rootCtx.Done():
				return
			case <-time.After(registerRetryDelay):
			}
		}
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
		cancel()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

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
