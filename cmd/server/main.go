package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/jo-hoe/lesionscan/internal/backend"
	"github.com/jo-hoe/lesionscan/internal/backend/classifier"
	"github.com/jo-hoe/lesionscan/internal/core"
)

const shutdownTimeout = 10 * time.Second

// getConfigPath returns the config file path and whether it was set explicitly.
func getConfigPath() (string, bool) {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath, true
	}

	// Default to config.yaml in current working directory
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml"), false
}

func loadConfig() (*core.ServiceConfig, error) {
	configPath, explicit := getConfigPath()
	if _, err := os.Stat(configPath); !explicit && errors.Is(err, os.ErrNotExist) {
		return core.LoadConfigFromEnv()
	}
	return core.LoadConfig(configPath)
}

func main() {
	// A missing .env file is fine; the environment may be set by the platform.
	_ = godotenv.Load()

	config, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := core.NewLogger(config.Logging)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// The port is only bound once the model and the store are ready.
	coreService, err := core.Initialize(context.Background(), config, logger, registry)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	server := backend.NewServer(logger)
	server.Server.ReadTimeout = 30 * time.Second
	server.Server.WriteTimeout = 30 * time.Second
	server.Server.IdleTimeout = 120 * time.Second

	apiService := backend.NewAPIService(coreService, registry, logger)
	apiService.SetRoutes(server)

	portString := fmt.Sprintf(":%d", config.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	serveErr := serve(server, portString, quit, logger)
	if serveErr != nil {
		logger.Error("http server error", zap.Error(serveErr))
	}

	if err := coreService.Close(); err != nil {
		logger.Error("core service close error", zap.Error(err))
	}
	if err := classifier.DestroyEnvironment(); err != nil {
		logger.Warn("onnx runtime shutdown error", zap.Error(err))
	}
	if serveErr != nil {
		_ = logger.Sync()
		os.Exit(1)
	}
}

// serve runs the server until a signal arrives on quit or the server stops
// on its own, e.g. because the address is taken. It then shuts down with a
// bounded drain and returns the server error, if any.
func serve(server *echo.Echo, address string, quit <-chan os.Signal, logger *zap.Logger) error {
	serverErr := make(chan error, 1)

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		logger.Info("starting server", zap.String("address", address))
		if err := server.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var result error
	select {
	case err := <-serverErr:
		result = fmt.Errorf("server stopped: %w", err)
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	return result
}
