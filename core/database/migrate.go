package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/filmbot/core/logger"
)

// RunMigrations applies every up migration found under <driver>/ in fsys.
func RunMigrations(ctx context.Context, db *sqlx.DB, driver string, fsys fs.FS) error {
	files := listMigrationFiles(fsys, driver)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "resolve",
		slog.String("driver", driver),
		slog.Int("count", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	src, err := iofs.New(fsys, driver)
	if err != nil {
		return migrateFailed(ctx, "source", fmt.Errorf("migrations source: %w", err))
	}
	drv, release, err := migrationDriver(ctx, db, driver)
	if err != nil {
		return migrateFailed(ctx, "driver", err)
	}
	defer release()

	m, err := migrate.NewWithInstance("iofs", src, driver, drv)
	if err != nil {
		return migrateFailed(ctx, "init", fmt.Errorf("failed to initialize migrations: %w", err))
	}

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return migrateFailed(ctx, "apply", fmt.Errorf("migration execution failed: %w", upErr))
	}
	toVer, _, _ := m.Version()

	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	if len(applied) > 0 {
		names, cut := logger.SummarizeStrings(applied, 6)
		logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "apply",
			slog.String("status", "ok"),
			slog.String("files_preview", names),
			slog.Bool("files_truncated", cut),
		)
	}
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "summary",
		slog.String("status", "ok"),
		slog.String("driver", driver),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("count", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

// migrationDriver wraps db for golang-migrate. The release func frees what
// the driver holds without closing db itself.
func migrationDriver(ctx context.Context, db *sqlx.DB, driver string) (migratedb.Driver, func(), error) {
	switch driver {
	case DriverPostgres:
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("migrations conn: %w", err)
		}
		drv, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("migrations driver: %w", err)
		}
		return drv, func() { _ = drv.Close() }, nil
	case DriverSQLite:
		drv, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("migrations driver: %w", err)
		}
		// Closing the sqlite driver would close db.
		return drv, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

func migrateFailed(ctx context.Context, step string, err error) error {
	logger.LogEvent(ctx, logger.MIG, slog.LevelError, step,
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
	return err
}

func listMigrationFiles(fsys fs.FS, dir string) []string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, path.Base(e.Name()))
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
