package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rogerio-castellano/stockroom/internal/app"
	"github.com/rogerio-castellano/stockroom/internal/config"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

// @title Stockroom API
// @version 1.0
// @description REST API for the passphrase-gated product inventory: CRUD, low-stock alerts, CSV/XLSX import and export.
// @host localhost:8080
// @BasePath /
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: "stockroom-api",
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "could not start", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil {
		log.Error(ctx, "server stopped", err)
		stop()
		_ = a.Close()
		os.Exit(1)
	}
}
