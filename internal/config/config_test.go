package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/filmbot/core/config"
	coredatabase "github.com/m3rciful/filmbot/core/database"
	"github.com/m3rciful/filmbot/internal/catalog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, catalog.DriverMemory, cfg.Catalog.Driver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Nil(t, cfg.DatabaseConfig())
	assert.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadSQLiteCatalog(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	cfg, err := Load(writeConfig(t, `
catalog:
  driver: SQLite
  path: var/films.db
  seed_file: configs/films.seed.yaml
session:
  ttl: 0s
  sweep_interval: 30s
ops:
  listen: " :9090 "
`))
	require.NoError(t, err)

	db := cfg.DatabaseConfig()
	require.NotNil(t, db)
	assert.Equal(t, coredatabase.DriverSQLite, db.Driver)
	assert.Equal(t, "var/films.db", db.Path)
	assert.Equal(t, "configs/films.seed.yaml", cfg.Catalog.SeedFile)
	assert.Zero(t, cfg.SessionTTL(), "explicit zero disables expiry")
	assert.Equal(t, 30*time.Second, cfg.Session.SweepInterval)
	assert.Equal(t, ":9090", cfg.Ops.Listen)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CATALOG_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "films")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load(writeConfig(t, "catalog:\n  driver: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, catalog.DriverPostgres, cfg.Catalog.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
}

func TestNormalizeRejects(t *testing.T) {
	base := func() Config {
		return Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}}
	}

	cfg := base()
	cfg.Catalog.Driver = "redis"
	assert.Error(t, cfg.Normalize())

	cfg = base()
	cfg.Catalog.Driver = catalog.DriverPostgres
	assert.Error(t, cfg.Normalize(), "postgres needs host and name")

	cfg = base()
	negative := -time.Second
	cfg.Session.TTL = &negative
	assert.Error(t, cfg.Normalize())

	cfg = base()
	cfg.Telegram.Token = ""
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("TOKEN", "")
	assert.Error(t, cfg.Normalize())
}
