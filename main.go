package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resto/internal/config"
	"resto/pkg/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}

	// --- Start HTTP Server ---
	addr := cfg.Addr()
	log.WithField("addr", addr).Info("Starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(addr); err != nil {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info("Shutting down server...")
	cancel()

	if err := app.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	if err := app.Close(); err != nil {
		log.WithError(err).Error("Error releasing resources")
	}
	log.Info("Server gracefully stopped")
}
