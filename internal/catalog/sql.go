package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/filmbot/core/logger"
	"github.com/m3rciful/filmbot/internal/film"
)

// queryTimeout bounds every catalog statement.
const queryTimeout = 5 * time.Second

const selectFilms = `SELECT id, name, description, rating, genre, actors, poster FROM films`

// SQLStore keeps the catalog in the films table of a postgres or sqlite database.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// NewSQLStore wraps an open, migrated database. The store does not own db;
// Close leaves it open for whoever opened it.
func NewSQLStore(db *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

type filmRow struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	Rating      string     `db:"rating"`
	Genre       string     `db:"genre"`
	Actors      actorsList `db:"actors"`
	Poster      string     `db:"poster"`
}

func (r filmRow) film() film.Film {
	return film.Film{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Rating:      r.Rating,
		Genre:       r.Genre,
		Actors:      []string(r.Actors),
		Poster:      r.Poster,
	}
}

// List returns all films ordered by id.
func (s *SQLStore) List(ctx context.Context) ([]film.Film, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []filmRow
	if err := s.db.SelectContext(ctx, &rows, selectFilms+` ORDER BY id`); err != nil {
		return nil, s.fail(ctx, "list", err)
	}
	out := make([]film.Film, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.film())
	}
	return out, nil
}

// Get returns the film with id or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, id int64) (film.Film, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row filmRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(selectFilms+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return film.Film{}, ErrNotFound
	}
	if err != nil {
		return film.Film{}, s.fail(ctx, "get", err)
	}
	return row.film(), nil
}

// Append inserts f and returns the id chosen by the database sequence.
func (s *SQLStore) Append(ctx context.Context, f film.Film) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := s.db.Rebind(`INSERT INTO films (name, description, rating, genre, actors, poster)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	var id int64
	err := s.db.QueryRowxContext(ctx, query,
		f.Name, f.Description, f.Rating, f.Genre, s.actorsArg(f.Actors), f.Poster,
	).Scan(&id)
	if err != nil {
		return 0, s.fail(ctx, "append", err)
	}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "append",
		slog.String("status", "ok"),
		slog.String("driver", s.driver),
		slog.Int64("film_id", id),
	)
	return id, nil
}

// Count reports how many films are stored.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM films`); err != nil {
		return 0, s.fail(ctx, "count", err)
	}
	return n, nil
}

// Close does nothing; the database belongs to the bootstrap result.
func (s *SQLStore) Close() error { return nil }

func (s *SQLStore) actorsArg(actors []string) any {
	if actors == nil {
		actors = []string{}
	}
	if s.driver == DriverPostgres {
		return pq.StringArray(actors)
	}
	return actorsList(actors)
}

func (s *SQLStore) fail(ctx context.Context, op string, err error) error {
	perr := &PersistenceError{Op: op, Err: err}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelError, op,
		slog.String("status", "fail"),
		slog.String("driver", s.driver),
		slog.String("err_code", perr.Code()),
		slog.String("err", err.Error()),
	)
	return perr
}

// actorsList stores actors as a JSON array on sqlite and reads either that
// or a postgres TEXT[] literal.
type actorsList []string

// Value encodes the list as JSON text.
func (a actorsList) Value() (driver.Value, error) {
	if a == nil {
		a = actorsList{}
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan accepts JSON arrays and postgres array literals.
func (a *actorsList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = actorsList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("actors: unsupported column type %T", src)
	}
	if len(raw) > 0 && raw[0] == '{' {
		var arr pq.StringArray
		if err := arr.Scan(raw); err != nil {
			return err
		}
		*a = actorsList(arr)
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("actors: %w", err)
	}
	*a = list
	return nil
}

// pqClass returns the SQLSTATE class name of a postgres error, if any.
func pqClass(err error) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ""
	}
	return pqErr.Code.Class().Name()
}
