// Package store persists the last program the server was asked to keep.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	// ErrNoProgram is returned by Latest when nothing has been stored.
	ErrNoProgram = errors.New("store: no stored program")
	// ErrNoStore reports that persistence is not configured.
	ErrNoStore = errors.New("store: no program store configured")
)

// Program is one stored row.
type Program struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Source      string `db:"source"`
	Fingerprint string `db:"fingerprint"`
	StoredAt    int64  `db:"stored_at"` // unix nanoseconds
}

func (p Program) Time() time.Time {
	return time.Unix(0, p.StoredAt).UTC()
}

type Store struct {
	db *sqlx.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS programs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		fingerprint TEXT NOT NULL UNIQUE,
		stored_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS programs_stored_at ON programs(stored_at)`,
}

// Open opens (creating if needed) the sqlite database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)
	if err := doTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: setup %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save records a program. Saving a fingerprint that is already stored only
// moves it to the front.
func (s *Store) Save(ctx context.Context, name, source, fingerprint string) error {
	now := time.Now().UnixNano()
	return doTx(ctx, s.db, func(tx *sqlx.Tx) error {
		// stored_at stays strictly increasing even when the clock does not
		_, err := tx.ExecContext(ctx, `INSERT INTO programs (name, source, fingerprint, stored_at)
			VALUES (?, ?, ?, MAX(?, COALESCE((SELECT MAX(stored_at) FROM programs), 0) + 1))
			ON CONFLICT(fingerprint) DO UPDATE SET name = excluded.name, stored_at = excluded.stored_at`,
			name, source, fingerprint, now)
		return err
	})
}

// Latest returns the most recently stored program.
func (s *Store) Latest(ctx context.Context) (Program, error) {
	var p Program
	err := s.db.GetContext(ctx, &p, `SELECT id, name, source, fingerprint, stored_at
		FROM programs ORDER BY stored_at DESC, id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return Program{}, ErrNoProgram
	}
	return p, err
}

// List returns up to limit stored programs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Program, error) {
	var ps []Program
	err := s.db.SelectContext(ctx, &ps, `SELECT id, name, source, fingerprint, stored_at
		FROM programs ORDER BY stored_at DESC, id DESC LIMIT ?`, limit)
	return ps, err
}

func doTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
