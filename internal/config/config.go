package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "INVENTORY"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	AppEnvDev = "dev"

	// DefaultPassphrase matches the demo deployment; override it everywhere else.
	DefaultPassphrase = "demo2025"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	Store     StoreConfig
	Gate      GateConfig
	Import    ImportConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env  string
	Addr string
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

type LogConfig struct {
	Level  string
	Format string
}

type StoreConfig struct {
	Driver       string
	Path         string
	DSN          string
	QueryTimeout time.Duration
}

type GateConfig struct {
	Passphrase     string
	PassphraseHash string
}

// UsesDefault reports whether the gate falls back to the built-in passphrase.
func (g GateConfig) UsesDefault() bool {
	return g.PassphraseHash == "" && g.Passphrase == DefaultPassphrase
}

type ImportConfig struct {
	MaxUploadMB int
	SeedFile    string
}

func (i ImportConfig) MaxUploadBytes() int64 {
	return int64(i.MaxUploadMB) << 20
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", AppEnvDev)
	v.SetDefault("app.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.path", "produkty.db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.query_timeout", "3s")
	v.SetDefault("gate.passphrase", DefaultPassphrase)
	v.SetDefault("gate.passphrase_hash", "")
	v.SetDefault("import.max_upload_mb", 10)
	v.SetDefault("import.seed_file", "")
	v.SetDefault("ratelimit.rps", 10)
	v.SetDefault("ratelimit.burst", 20)
}

// Load reads configuration from INVENTORY_* environment variables and, when
// INVENTORY_CONFIG points to a file, from that file first.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("app.env"),
			Addr: v.GetString("app.addr"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			Path:         v.GetString("store.path"),
			DSN:          v.GetString("store.dsn"),
			QueryTimeout: v.GetDuration("store.query_timeout"),
		},
		Gate: GateConfig{
			Passphrase:     v.GetString("gate.passphrase"),
			PassphraseHash: v.GetString("gate.passphrase_hash"),
		},
		Import: ImportConfig{
			MaxUploadMB: v.GetInt("import.max_upload_mb"),
			SeedFile:    v.GetString("import.seed_file"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("ratelimit.rps"),
			Burst: v.GetInt("ratelimit.burst"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Store.QueryTimeout <= 0 {
		errs = append(errs, errors.New("store.query_timeout must be positive"))
	}
	if c.Gate.Passphrase == "" && c.Gate.PassphraseHash == "" {
		errs = append(errs, errors.New("gate.passphrase or gate.passphrase_hash is required"))
	}
	if c.Import.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("import.max_upload_mb must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("ratelimit.rps and ratelimit.burst must be positive"))
	}

	return errors.Join(errs...)
}
