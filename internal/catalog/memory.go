package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/internal/film"
)

// MemoryStore keeps films in process memory, optionally mirrored to a JSON
// snapshot that is rewritten after every append.
type MemoryStore struct {
	mu     sync.RWMutex
	films  []film.Film
	byID   map[int64]int
	lastID int64
	path   string
}

type snapshot struct {
	LastID int64       `json:"last_id"`
	Films  []film.Film `json:"films"`
}

// NewMemoryStore returns an empty store, or one restored from path when the
// snapshot file exists.
func NewMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{byID: make(map[int64]int), path: path}
	if path == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return persistErr("load", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return persistErr("load", fmt.Errorf("decode %s: %w", s.path, err))
	}
	for _, f := range snap.Films {
		if f.ID <= 0 {
			return persistErr("load", fmt.Errorf("snapshot %s: film %q has no id", s.path, f.Name))
		}
		if _, dup := s.byID[f.ID]; dup {
			return persistErr("load", fmt.Errorf("snapshot %s: duplicate id %d", s.path, f.ID))
		}
		s.byID[f.ID] = len(s.films)
		s.films = append(s.films, f)
		s.lastID = max(s.lastID, f.ID)
	}
	s.lastID = max(s.lastID, snap.LastID)
	logger.LogEvent(context.Background(), logger.SVCCatalog, slog.LevelInfo, "snapshot.load",
		slog.String("status", "ok"),
		slog.String("db", s.path),
		slog.Int("films", len(s.films)),
	)
	return nil
}

// List returns a copy of all films in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]film.Film, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]film.Film, len(s.films))
	for i, f := range s.films {
		out[i] = cloneFilm(f)
	}
	return out, nil
}

// Get returns the film with id or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id int64) (film.Film, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return film.Film{}, ErrNotFound
	}
	return cloneFilm(s.films[idx]), nil
}

// Append assigns the next id. When the snapshot cannot be written the
// append is rolled back.
func (s *MemoryStore) Append(ctx context.Context, f film.Film) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f = cloneFilm(f)
	f.ID = s.lastID + 1
	s.films = append(s.films, f)
	s.byID[f.ID] = len(s.films) - 1

	if err := s.persistLocked(); err != nil {
		s.films = s.films[:len(s.films)-1]
		delete(s.byID, f.ID)
		logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelError, "append",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, persistErr("append", err)
	}
	s.lastID = f.ID
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "append",
		slog.String("status", "ok"),
		slog.String("driver", DriverMemory),
		slog.Int64("film_id", f.ID),
	)
	return f.ID, nil
}

// Count reports how many films are stored.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.films), nil
}

// Close is a no-op; snapshots are written on every append.
func (s *MemoryStore) Close() error { return nil }

// persistLocked writes the snapshot via a temp file and rename so readers
// never see a partial file.
func (s *MemoryStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(snapshot{LastID: s.films[len(s.films)-1].ID, Films: s.films}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func cloneFilm(f film.Film) film.Film {
	f.Actors = append([]string(nil), f.Actors...)
	return f
}
