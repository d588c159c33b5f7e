package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/4PPL8/PakGroccrry/internal/auth/store"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed durable store. It currently holds only the
// sessions table; the ephemeral pending store lives in the redis driver.
type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Single writer: sqlite serializes writes anyway, and a pool of one keeps
	// in-memory databases from splitting across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Sessions returns the durable sessions repository.
func (s *Store) Sessions() store.Sessions {
	return &sessionsRepo{db: s.db}
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
