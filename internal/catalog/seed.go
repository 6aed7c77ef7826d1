package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/filmbot/core/bootstrap"
	"github.com/m3rciful/filmbot/internal/film"
)

type seedFile struct {
	Films []film.Film `yaml:"films"`
}

// LoadSeed reads films from a YAML seed file and validates each of them.
func LoadSeed(path string) ([]film.Film, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, f := range sf.Films {
		if err := film.Validate(f); err != nil {
			return nil, fmt.Errorf("seed film #%d (%q): %w", i+1, f.Name, err)
		}
	}
	return sf.Films, nil
}

// Seeder appends the films from path when the catalog is still empty.
func Seeder(store Store, path string) bootstrap.Seeder {
	return bootstrap.SeederFunc{
		Label: "films",
		Fn: func(ctx context.Context) (int, error) {
			n, err := store.Count(ctx)
			if err != nil {
				return 0, err
			}
			if n > 0 {
				return 0, nil
			}
			films, err := LoadSeed(path)
			if err != nil {
				return 0, err
			}
			for i, f := range films {
				if _, err := store.Append(ctx, f); err != nil {
					return i, err
				}
			}
			return len(films), nil
		},
	}
}
