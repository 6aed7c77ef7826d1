// Package catalog stores committed films. Records are append-only and listed
// in insertion order; identifiers are assigned by the store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	coredatabase "github.com/m3rciful/filmbot/core/database"
	"github.com/m3rciful/filmbot/internal/film"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = coredatabase.DriverPostgres
	DriverSQLite   = coredatabase.DriverSQLite
)

// ErrNotFound is returned when no film has the requested id.
var ErrNotFound = errors.New("film not found")

// Store is the catalog persistence contract.
type Store interface {
	// List returns every film ordered by id; an empty catalog yields an empty slice.
	List(ctx context.Context) ([]film.Film, error)
	Get(ctx context.Context, id int64) (film.Film, error)
	// Append stores f under a fresh id and returns it. Duplicates are allowed.
	Append(ctx context.Context, f film.Film) (int64, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code identifies the error kind in logs. Postgres errors carry their SQLSTATE class.
func (e *PersistenceError) Code() string {
	if code := pqClass(e.Err); code != "" {
		return "persistence_" + code
	}
	return "persistence_error"
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Options select and configure a store.
type Options struct {
	Driver string
	// Path is the memory snapshot file; empty keeps films in memory only.
	Path string
	// DB backs the SQL drivers and must already be migrated.
	DB *sqlx.DB
}

// Open builds the store for opts.Driver.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts.Path)
	case DriverPostgres, DriverSQLite:
		if opts.DB == nil {
			return nil, fmt.Errorf("catalog: driver %q needs a database", opts.Driver)
		}
		return NewSQLStore(opts.DB, strings.ToLower(strings.TrimSpace(opts.Driver))), nil
	default:
		return nil, fmt.Errorf("catalog: unknown driver %q; allowed: memory, postgres, sqlite", opts.Driver)
	}
}
