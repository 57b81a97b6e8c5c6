// Package app wires configuration, storage, the gate and the HTTP server into
// a runnable process. Both the API binary and `stockctl serve` start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/rogerio-castellano/stockroom/internal/auth"
	"github.com/rogerio-castellano/stockroom/internal/config"
	"github.com/rogerio-castellano/stockroom/internal/db"
	api "github.com/rogerio-castellano/stockroom/internal/http"
	"github.com/rogerio-castellano/stockroom/internal/http/handlers"
	rl "github.com/rogerio-castellano/stockroom/internal/http/rate_limiter"
	"github.com/rogerio-castellano/stockroom/internal/inventory"
	"github.com/rogerio-castellano/stockroom/internal/logger"
	"github.com/rogerio-castellano/stockroom/internal/metrics"
	"github.com/rogerio-castellano/stockroom/internal/repo"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Minute
)

type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Service  *inventory.Service
	Registry *prometheus.Registry

	store   *db.Client
	limiter *rl.Limiter
}

// New opens the configured store and builds the inventory service around it.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	gate, err := newGate(cfg.Gate)
	if err != nil {
		return nil, err
	}
	if cfg.Gate.UsesDefault() && !cfg.App.IsDev() {
		log.Warn(ctx, "gate uses the built-in demo passphrase; set INVENTORY_GATE_PASSPHRASE_HASH")
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Registry: prometheus.NewRegistry(),
		limiter:  rl.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var products repo.ProductRepository
	if cfg.Store.Driver == config.DriverMemory {
		products = repo.NewInMemoryProductRepository()
	} else {
		client, err := db.Open(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		a.store = client
		products = repo.NewGormProductRepository(client.DB(), cfg.Store.QueryTimeout)
	}

	a.Service = inventory.NewService(products, gate,
		inventory.WithLogger(log),
		inventory.WithMetrics(metrics.NewInventoryMetrics(a.Registry)),
	)
	log.Event(ctx, zerolog.InfoLevel).Str("driver", cfg.Store.Driver).Msg("inventory store ready")
	return a, nil
}

func newGate(cfg config.GateConfig) (*auth.Gate, error) {
	if cfg.PassphraseHash != "" {
		return auth.NewGateFromHash(cfg.PassphraseHash)
	}
	return auth.NewGate(cfg.Passphrase)
}

// Handler builds the HTTP API.
func (a *App) Handler() http.Handler {
	opts := handlers.Options{
		Logger:         a.Log,
		MaxUploadBytes: a.Config.Import.MaxUploadBytes(),
		SeedFile:       a.Config.Import.SeedFile,
	}
	if a.store != nil {
		opts.Store = a.store
	}
	srv := handlers.NewServer(a.Service, opts)
	return api.NewRouter(srv, api.RouterOptions{
		Logger:   a.Log,
		Limiter:  a.limiter,
		Gatherer: a.Registry,
	})
}

// Serve listens on the configured address until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              a.Config.App.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go a.limiter.Run(ctx, cleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		a.Log.Event(ctx, zerolog.InfoLevel).Str("addr", server.Addr).Msg("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Log.Info(shutdownCtx, "shutting down")
	return server.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
