package main

import (
	"AIService/internal/config"
	"AIService/pkg/log"
	"context"
	"errors"
	"github.com/joho/godotenv"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional in containers where the environment is injected directly.
	envErr := godotenv.Load()

	logger := log.NewLogger()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Fatalf("Error loading .env file: %v", envErr)
	}
	if envErr != nil {
		logger.Info("No .env file found, using process environment")
	}

	validator := config.NewValidator()
	appConfig, err := config.Load(validator)
	if err != nil {
		logger.Fatal(err)
	}

	fiberApp := config.NewFiber(logger, appConfig.BodyLimit())

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithAppConfig(appConfig),
		config.WithMiddleware(),
		config.WithAssetSync(),
		config.WithIntentStore(),
		config.WithClassifier(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
