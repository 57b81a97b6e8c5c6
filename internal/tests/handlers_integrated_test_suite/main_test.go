package handlers_integrated_test_suite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rogerio-castellano/stockroom/internal/app"
	"github.com/rogerio-castellano/stockroom/internal/config"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

// TestMain runs the suite against a real database: Postgres when
// INVENTORY_TEST_POSTGRES_DSN is set, otherwise a throwaway sqlite file.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "stockroom-it-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not create temp dir:", err)
		os.Exit(1)
	}

	code := func() int {
		defer os.RemoveAll(dir)

		store := config.StoreConfig{
			Driver:       config.DriverSQLite,
			Path:         filepath.Join(dir, "produkty.db"),
			QueryTimeout: 5 * time.Second,
		}
		if dsn := os.Getenv("INVENTORY_TEST_POSTGRES_DSN"); dsn != "" {
			store = config.StoreConfig{Driver: config.DriverPostgres, DSN: dsn, QueryTimeout: 5 * time.Second}
		}

		seedFile = filepath.Join(dir, "produkty_demo.csv")
		cfg := &config.Config{
			App:       config.AppConfig{Env: config.AppEnvDev},
			Store:     store,
			Gate:      config.GateConfig{Passphrase: passphrase},
			Import:    config.ImportConfig{MaxUploadMB: 1, SeedFile: seedFile},
			RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
		}

		inventoryApp, err = app.New(context.Background(), cfg, logger.Nop())
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not start app:", err)
			return 1
		}
		defer inventoryApp.Close()

		router = inventoryApp.Handler()
		clearAllProducts()
		return m.Run()
	}()
	os.Exit(code)
}
