// Package bot wires the film catalog, the creation dialogue and the
// Telegram runtime together.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/filmbot/core/bootstrap"
	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/core/metrics"
	"github.com/m3rciful/filmbot/core/ops"
	coretelegram "github.com/m3rciful/filmbot/core/telegram"
	"github.com/m3rciful/filmbot/core/telegram/commands"
	"github.com/m3rciful/filmbot/core/telegram/router"
	"github.com/m3rciful/filmbot/core/telegram/state"
	"github.com/m3rciful/filmbot/core/telegram/ui"
	"github.com/m3rciful/filmbot/internal/catalog"
	"github.com/m3rciful/filmbot/internal/catalogview"
	"github.com/m3rciful/filmbot/internal/config"
	"github.com/m3rciful/filmbot/internal/dialogue"
)

// Command names.
const (
	CommandStart  = "/start"
	CommandFilms  = "/films"
	CommandCreate = "/create_film"
)

// App holds every long-lived component of the bot.
type App struct {
	cfg      *config.Config
	store    catalog.Store
	sessions state.Manager
	machine  *dialogue.Machine
	registry *coretelegram.Registry

	// infra is what bootstrap opened; nil when the app was built directly.
	infra *bootstrap.Result

	mu          sync.Mutex
	stopJanitor context.CancelFunc
	janitorDone chan struct{}
	ops         *ops.Server
}

// New builds the app over an open store and registers every handler.
func New(cfg *config.Config, store catalog.Store, sessions state.Manager) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	if store == nil {
		return nil, errors.New("bot: nil catalog store")
	}
	if sessions == nil {
		sessions = state.NewMemoryManager()
	}
	a := &App{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		machine:  dialogue.New(sessions, store),
		registry: coretelegram.NewRegistry(),
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register() error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{CommandStart, commands.Command{Handler: a.handleStart, Description: "Start the bot"}},
		{CommandFilms, commands.Command{Handler: a.handleFilms, Description: "Show the film list"}},
		{CommandCreate, commands.Command{Handler: a.handleCreate, Description: "Add a new film"}},
	}
	for _, c := range cmds {
		if err := a.registry.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	if err := a.registry.RegisterCallback(catalogview.CallbackFilm, a.handleFilmSelected); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	for _, st := range dialogue.States() {
		a.sessions.RegisterHandler(st, a.handleDialogueStep)
	}
	return nil
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	mws := append(coretelegram.DefaultMiddlewares(core, a.handleRateLimited),
		coretelegram.Middleware{Name: "session", Use: state.WithSession(a.sessions)},
	)
	routes := append(router.CommandRoutes(a.registry), ui.Routes(a, a.sessions, a.registry)...)
	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: mws,
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ coretelegram.Runtime) error {
	metrics.Init()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg.Ops.Listen != "" {
		srv := ops.New(a.cfg.Ops.Listen, map[string]ops.Check{"catalog": a.checkCatalog})
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("bot: ops server: %w", err)
		}
		a.ops = srv
	}

	jctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	a.stopJanitor, a.janitorDone = cancel, done
	go func() {
		defer close(done)
		state.RunJanitor(jctx, a.sessions, a.cfg.SessionTTL(), a.cfg.Session.SweepInterval)
	}()
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "app.start",
		slog.String("status", "ok"),
		slog.String("driver", a.cfg.Catalog.Driver),
		slog.Duration("ttl", a.cfg.SessionTTL()),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopJanitor != nil {
		a.stopJanitor()
		<-a.janitorDone
		a.stopJanitor = nil
	}
	if a.ops != nil {
		err := a.ops.Shutdown(ctx)
		a.ops = nil
		return err
	}
	return nil
}

func (a *App) checkCatalog(ctx context.Context) error {
	_, err := a.store.Count(ctx)
	return err
}

// Close releases the catalog and whatever bootstrap opened.
func (a *App) Close() error {
	return errors.Join(a.store.Close(), a.infra.Close())
}
