// Package database is the on-device mirror of the user's account and events.
package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pliu/eventplanner/internal/apperr"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the local SQLite database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", apperr.ErrLocalStore, dsn, err)
	}
	// One connection: statements are serialized and :memory: stays a single database.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %w", apperr.ErrLocalStore, err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create tables: %w", apperr.ErrLocalStore, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		event_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		user_id TEXT NOT NULL,
		owner_name TEXT NOT NULL DEFAULT '',
		owner_email TEXT NOT NULL DEFAULT '',
		participants TEXT NOT NULL DEFAULT '[]',
		images TEXT NOT NULL DEFAULT '[]',
		files TEXT NOT NULL DEFAULT '[]'
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrLocalStore) || errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", apperr.ErrLocalStore, op, err)
}
