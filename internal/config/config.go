// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/prscore/internal/domain/rules"
	"github.com/okian/prscore/pkg/logger"
)

// Ledger backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Fact sources.
const (
	FactsLedger = "ledger"
	FactsFile   = "file"
	FactsBoth   = "both"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// WorkerCount bounds concurrent report computations for the leaderboard.
	WorkerCount int `koanf:"worker_count"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// LedgerBackend is memory, sqlite or postgres.
	LedgerBackend string `koanf:"ledger_backend"`
	SQLitePath    string `koanf:"sqlite_path"`
	PostgresDSN   string `koanf:"postgres_dsn"`

	// EnforceUniqueAwards rejects repeats of the same award tuple.
	EnforceUniqueAwards bool `koanf:"enforce_unique_awards"`

	// DirectoryPath points at the contingent/event registry YAML.
	DirectoryPath string `koanf:"directory_path"`

	// FactsSource is ledger, file or both. FactsPath is read for file/both.
	FactsSource string `koanf:"facts_source"`
	FactsPath   string `koanf:"facts_path"`

	// AwardRateLimit is the per-client POST /awards rate in requests per
	// second. Zero disables limiting.
	AwardRateLimit float64 `koanf:"award_rate_limit"`
	AwardBurst     int     `koanf:"award_burst"`

	// PointsTable maps tier -> stage -> mode -> points. A tier given in a
	// file replaces the whole default tier.
	PointsTable map[string]map[string]map[string]int `koanf:"points_table"`

	// NegativeRules lists free-form rules subtracted from the final score.
	NegativeRules []string `koanf:"negative_rules"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           string(logger.FormatText),
		Addr:                ":9080",
		ShutdownTimeout:     10 * time.Second,
		WorkerCount:         runtime.NumCPU(),
		MaxLeaderboardLimit: 100,
		LedgerBackend:       BackendMemory,
		SQLitePath:          "data/ledger.db",
		DirectoryPath:       "data/directory.yaml",
		FactsSource:         FactsLedger,
		AwardRateLimit:      20,
		AwardBurst:          40,
		PointsTable:         rules.DefaultTableConfig(),
		NegativeRules:       []string{rules.NegativeActivity},
	}
}

// Catalog builds the rule catalog described by the configuration.
func (c *Config) Catalog() (*rules.Catalog, error) {
	table, err := rules.NewTable(c.PointsTable)
	if err != nil {
		return nil, fmt.Errorf("%w: points_table: %w", ErrInvalidConfig, err)
	}
	return rules.NewCatalog(rules.WithTable(table), rules.WithNegativeRules(c.NegativeRules...)), nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	if c.MaxLeaderboardLimit < 1 {
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	}

	switch c.LedgerBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite backend", ErrInvalidConfig)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown ledger_backend %q", ErrInvalidConfig, c.LedgerBackend)
	}

	switch c.FactsSource {
	case FactsLedger:
	case FactsFile, FactsBoth:
		if c.FactsPath == "" {
			return fmt.Errorf("%w: facts_path is required for facts_source %q", ErrInvalidConfig, c.FactsSource)
		}
	default:
		return fmt.Errorf("%w: unknown facts_source %q", ErrInvalidConfig, c.FactsSource)
	}

	if c.AwardRateLimit < 0 {
		return fmt.Errorf("%w: award_rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.AwardRateLimit > 0 && c.AwardBurst < 1 {
		return fmt.Errorf("%w: award_burst must be positive when rate limiting", ErrInvalidConfig)
	}

	if _, err := c.Catalog(); err != nil {
		return err
	}
	return nil
}
