package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/filmbot/core/logger"
)

const (
	connectTimeout = 30 * time.Second
	retryEvery     = 2 * time.Second
)

func init() {
	// modernc registers "sqlite", which sqlx does not know yet.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Connect opens the database, waits until it answers pings and configures the pool.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite && cfg.Path != "" && cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("db dir: %w", err)
		}
	}
	start := time.Now()
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	configurePool(db, cfg)

	if err := waitReady(ctx, db); err != nil {
		_ = db.Close()
		logger.LogEvent(ctx, logger.DB, slog.LevelError, "connect",
			append(connAttrs(cfg),
				slog.String("status", "fail"),
				slog.Duration("duration", time.Since(start)),
				slog.String("err", err.Error()),
			)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "connect",
		append(connAttrs(cfg),
			slog.String("status", "ok"),
			slog.Int("pool_open", db.Stats().MaxOpenConnections),
			slog.Duration("duration", time.Since(start)),
		)...)
	return db, nil
}

func configurePool(db *sqlx.DB, cfg Config) {
	if cfg.Driver == DriverSQLite {
		// One writer at a time; an in-memory database also lives on a single connection.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}
}

// waitReady pings until the server accepts connections; containers often
// start the bot before the database is up.
func waitReady(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready: %w", err)
		case <-time.After(retryEvery):
		}
	}
}

func connAttrs(cfg Config) []slog.Attr {
	if cfg.Driver == DriverSQLite {
		return []slog.Attr{slog.String("driver", cfg.Driver), slog.String("db", cfg.Path)}
	}
	return []slog.Attr{
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
}
