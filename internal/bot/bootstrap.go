package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/filmbot/core/bootstrap"
	"github.com/m3rciful/filmbot/core/cmd"
	"github.com/m3rciful/filmbot/core/telegram/state"
	"github.com/m3rciful/filmbot/internal/catalog"
	"github.com/m3rciful/filmbot/internal/config"
	"github.com/m3rciful/filmbot/migrations"
)

// LoadConfig adapts config.Load to the runner.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap initializes logging and storage, seeds the catalog and builds the app.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.DatabaseConfig(),
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}

	store, err := catalog.Open(catalog.Options{
		Driver: cfg.Catalog.Driver,
		Path:   cfg.Catalog.Path,
		DB:     infra.DB,
	})
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}

	if cfg.Catalog.SeedFile != "" {
		if err := bootstrap.RunSeeders(ctx, catalog.Seeder(store, cfg.Catalog.SeedFile)); err != nil {
			return nil, errors.Join(err, store.Close(), infra.Close())
		}
	}

	app, err := New(cfg, store, state.NewMemoryManager())
	if err != nil {
		return nil, errors.Join(err, store.Close(), infra.Close())
	}
	app.infra = infra
	return app, nil
}
