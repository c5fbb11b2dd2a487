package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when no widget exists for a given id.
	ErrNotFound = errors.New("widget not found")

	// ErrDuplicate is returned when a widget for the same location already exists.
	ErrDuplicate = errors.New("widget already exists")
)

// Fixed-width UTC layout so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Widget is a persisted binding to a single named location.
type Widget struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// WidgetStore is the contract used by the HTTP layer and the scheduler.
type WidgetStore interface {
	Create(ctx context.Context, location string) (Widget, error)
	List(ctx context.Context) ([]Widget, error)
	Get(ctx context.Context, id string) (Widget, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// SQLiteWidgetStore implements WidgetStore on SQLite (pure Go driver modernc.org/sqlite).
type SQLiteWidgetStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteWidgetStore opens (or creates) the database at path and applies the schema.
func NewSQLiteWidgetStore(path string) (*SQLiteWidgetStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS widgets (
        id TEXT PRIMARY KEY,
        location TEXT NOT NULL UNIQUE COLLATE NOCASE,
        created_at TEXT NOT NULL
    );`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteWidgetStore{db: db, now: time.Now}, nil
}

// Create stores a widget for an already normalized location.
// Locations are unique regardless of case.
func (s *SQLiteWidgetStore) Create(ctx context.Context, location string) (Widget, error) {
	w := Widget{
		ID:        uuid.NewString(),
		Location:  location,
		CreatedAt: s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO widgets(id, location, created_at) VALUES(?,?,?)`,
		w.ID, w.Location, w.CreatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return Widget{}, ErrDuplicate
		}
		return Widget{}, err
	}
	return w, nil
}

// List returns all widgets, newest first.
func (s *SQLiteWidgetStore) List(ctx context.Context) ([]Widget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, location, created_at FROM widgets ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Widget, 0)
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Get returns the widget with the given id.
func (s *SQLiteWidgetStore) Get(ctx context.Context, id string) (Widget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, location, created_at FROM widgets WHERE id = ?`, id)

	w, err := scanWidget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Widget{}, ErrNotFound
	}
	return w, err
}

// Delete removes the widget with the given id.
func (s *SQLiteWidgetStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM widgets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteWidgetStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWidget(sc scanner) (Widget, error) {
	var (
		w  Widget
		ts string
	)
	if err := sc.Scan(&w.ID, &w.Location, &ts); err != nil {
		return Widget{}, err
	}
	t, err := time.Parse(timeLayout, ts)
	if err != nil {
		return Widget{}, fmt.Errorf("parse created_at %q: %w", ts, err)
	}
	w.CreatedAt = t
	return w, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
