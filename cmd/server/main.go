package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/app"
	"github.com/sean-rowe/weather-history-service/internal/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	application := app.New(cfg, logger)

	if err := application.Start(context.Background()); err != nil {
		logger.Fatal("failed to start application", zap.Error(fmt.Errorf("startup: %w", err)))
	}

	application.WaitForShutdown()
	application.Stop()
}
