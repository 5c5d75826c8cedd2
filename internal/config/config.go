package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

// Storage backends for the ledger document.
const (
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds service configuration.
type Config struct {
	Backend       string `env:"LEDGER_BACKEND" envDefault:"file"`
	FilePath      string `env:"LEDGER_FILE_PATH" envDefault:"stats.json"`
	BoltPath      string `env:"LEDGER_BOLT_PATH" envDefault:"ledger.db"`
	DatabaseURL   string `env:"LEDGER_DATABASE_URL"`
	MigrationsDir string `env:"LEDGER_MIGRATIONS_DIR" envDefault:"internal/migrations"`
	DocumentName  string `env:"LEDGER_DOCUMENT_NAME" envDefault:"ledger"`

	ServerAddr      string        `env:"LEDGER_SERVER_ADDR" envDefault:"0.0.0.0:8080"`
	AdminTokenHash  string        `env:"LEDGER_ADMIN_TOKEN_HASH"`
	RequestTimeout  time.Duration `env:"LEDGER_REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"LEDGER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	FlushInterval      time.Duration `env:"LEDGER_FLUSH_INTERVAL" envDefault:"30s"`
	HistoryScanLimit   int           `env:"LEDGER_HISTORY_SCAN_LIMIT" envDefault:"1000"`
	HistoryScanTimeout time.Duration `env:"LEDGER_HISTORY_SCAN_TIMEOUT" envDefault:"2m"`

	LogLevel string `env:"LEDGER_LOG_LEVEL" envDefault:"info"`

	AuthorizedRoles []string `env:"LEDGER_AUTHORIZED_ROLES" envSeparator:","`
	TargetRoles     []string `env:"LEDGER_TARGET_ROLES" envSeparator:","`
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFile, BackendBolt:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: LEDGER_DATABASE_URL is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive", ErrInvalidConfig)
	}
	if c.HistoryScanLimit <= 0 {
		return fmt.Errorf("%w: history scan limit must be positive", ErrInvalidConfig)
	}
	if _, err := c.SeedConfig(); err != nil {
		return err
	}
	return nil
}

// SeedConfig builds the global configuration used when no ledger has been
// persisted yet.
func (c *Config) SeedConfig() (*ledger.GlobalConfig, error) {
	seed := ledger.NewGlobalConfig()
	for _, list := range []struct {
		name string
		raw  []string
		into ledger.IDSet
	}{
		{"LEDGER_AUTHORIZED_ROLES", c.AuthorizedRoles, seed.AuthorizedRoleIDs},
		{"LEDGER_TARGET_ROLES", c.TargetRoles, seed.TargetRoleIDs},
	} {
		for _, raw := range list.raw {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			id, err := ledger.ParseID(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, list.name, err)
			}
			list.into.Add(id)
		}
	}
	return seed, nil
}
