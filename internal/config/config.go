// Package config holds the bot-level configuration: the reusable core
// sections plus catalog, session and ops settings.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/filmbot/core/config"
	coredatabase "github.com/m3rciful/filmbot/core/database"
	"github.com/m3rciful/filmbot/internal/catalog"
)

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultSweepInterval = time.Minute
	defaultSQLitePath    = "data/films.db"
)

// CatalogConfig selects where films are kept.
type CatalogConfig struct {
	// Driver is memory, postgres or sqlite.
	Driver string `yaml:"driver" envconfig:"CATALOG_DRIVER"`
	// Path is the JSON snapshot for memory and the database file for sqlite.
	Path     string `yaml:"path" envconfig:"CATALOG_PATH"`
	SeedFile string `yaml:"seed_file" envconfig:"CATALOG_SEED_FILE"`
}

// SessionConfig controls expiry of abandoned dialogues.
type SessionConfig struct {
	// TTL of an idle dialogue; unset means 24h and 0 keeps sessions forever.
	TTL           *time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration  `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// OpsConfig configures the health and metrics listener; empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Catalog  CatalogConfig       `yaml:"catalog"`
	Session  SessionConfig       `yaml:"session"`
	Ops      OpsConfig           `yaml:"ops"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads path, overlays the environment and normalizes the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Load(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	c.Catalog.Driver = strings.ToLower(strings.TrimSpace(c.Catalog.Driver))
	switch c.Catalog.Driver {
	case "", catalog.DriverMemory:
		c.Catalog.Driver = catalog.DriverMemory
	case catalog.DriverSQLite:
		c.Database.Driver = coredatabase.DriverSQLite
		if c.Catalog.Path != "" {
			c.Database.Path = c.Catalog.Path
		}
		if c.Database.Path == "" {
			c.Database.Path = defaultSQLitePath
		}
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case catalog.DriverPostgres:
		c.Database.Driver = coredatabase.DriverPostgres
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid catalog.driver %q; allowed: memory, postgres, sqlite", c.Catalog.Driver)
	}

	if c.Session.TTL == nil {
		ttl := defaultSessionTTL
		c.Session.TTL = &ttl
	}
	if *c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if c.Session.SweepInterval < 0 {
		return fmt.Errorf("session.sweep_interval must be >= 0")
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = defaultSweepInterval
	}
	c.Ops.Listen = strings.TrimSpace(c.Ops.Listen)
	return nil
}

// SessionTTL returns the effective session lifetime; 0 disables expiry.
func (c *Config) SessionTTL() time.Duration {
	if c.Session.TTL == nil {
		return defaultSessionTTL
	}
	return *c.Session.TTL
}

// DatabaseConfig returns the SQL settings, or nil when the catalog lives in memory.
func (c *Config) DatabaseConfig() *coredatabase.Config {
	if c.Catalog.Driver == catalog.DriverMemory || c.Catalog.Driver == "" {
		return nil
	}
	db := c.Database
	return &db
}
