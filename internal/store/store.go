// Package store provides SQLite persistence for Boomer AI domain entities.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// DB wraps the SQLite database connection.
type DB struct {
	conn     *sql.DB
	path     string
	isMemory bool
}

// Config for database initialization.
type Config struct {
	Path     string // Path to database file
	InMemory bool   // Use an in-memory database (for testing)
}

// Open opens or creates a SQLite database.
func Open(cfg Config) (*DB, error) {
	var dsn string
	var isMemory bool

	if cfg.InMemory {
		dsn = ":memory:?cache=shared"
		isMemory = true
	} else {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = cfg.Path
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite doesn't handle concurrent writers well.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: cfg.Path, isMemory: isMemory}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB for direct access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Store bundles the per-entity stores over one database.
type Store struct {
	db *DB

	Users        *UserStore
	Appointments *AppointmentStore
	Medications  *MedicationStore
	Contacts     *ContactStore
	Notes        *NoteStore
}

// New creates a Store over an opened database.
func New(db *DB) *Store {
	return &Store{
		db:           db,
		Users:        &UserStore{db: db},
		Appointments: &AppointmentStore{db: db},
		Medications:  &MedicationStore{db: db},
		Contacts:     &ContactStore{db: db},
		Notes:        &NoteStore{db: db},
	}
}
