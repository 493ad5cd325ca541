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
	"github.com/Dosada05/agent-league/routes"
	"github.com/Dosada05/agent-league/services"
)

// registerRetryDelay задаёт паузу между попытками регистрации, пока
// менеджер лиги ещё не поднялся.
const registerRetryDelay = 5 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.LoadReferee()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("display_name", cfg.DisplayName),
		slog.String("manager", cfg.ManagerEndpoint),
	)

	dispatcher := dispatch.NewDispatcher(dispatch.NewClient(10*time.Second), dispatch.DefaultPolicy(), logger)

	refereeService := services.NewRefereeService(services.RefereeConfig{
		ManagerEndpoint:      cfg.ManagerEndpoint,
		SelfEndpoint:         cfg.SelfEndpoint,
		DisplayName:          cfg.DisplayName,
		Version:              cfg.Version,
		MaxConcurrentMatches: cfg.MaxConcurrentMatches,
		QueueBound:           cfg.QueueBound,
		JoinTimeout:          cfg.JoinTimeout,
		ChoiceTimeout:        cfg.ChoiceTimeout,
		ReportTimeout:        cfg.ReportTimeout,
	}, dispatcher, logger)

	router := routes.SetupAgentRoutes(routes.AgentDeps{
		Role: models.RoleReferee,
		MCP:  handlers.NewRefereeMCPHandler(refereeService).ServeMCP,
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

	// Регистрируемся у менеджера после старта сервера: объявления раундов
	// приходят на наш /mcp. Повторяем, пока менеджер не ответит.
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for attempt := 1; ; attempt++ {
			err := refereeService.Start(rootCtx)
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

		// Координаторы работают на rootCtx; после cancel они завершаются
		// быстро, дожидаемся их, чтобы не бросать матчи на полпути.
		refereeService.Wait()
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
