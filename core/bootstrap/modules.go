package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/filmbot/core/logger"
)

// Seeder loads reference data once storage is ready.
type Seeder interface {
	Name() string
	// Seed returns how many records it inserted.
	Seed(ctx context.Context) (int, error)
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context) (int, error)
}

// Name returns the label used in logs.
func (f SeederFunc) Name() string { return f.Label }

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context) (int, error) { return f.Fn(ctx) }

// RunSeeders executes seeders in order and stops at the first failure.
func RunSeeders(ctx context.Context, seeders ...Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		n, err := s.Seed(ctx)
		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.String("cause", s.Name()),
			slog.Int("count", n),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.LogEvent(ctx, logger.SEED, slog.LevelError, "seed",
				append(attrs, slog.String("err", err.Error()))...)
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed", attrs...)
	}
	return nil
}
