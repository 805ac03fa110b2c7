// Package store owns the relational model for openings, videos and their
// match relationships, backed by a single SQLite file.
//
// The store is the source of truth for the whole pipeline: the migration
// orchestrator loads into it, the legacy integrator reconciles against it,
// and the static artifact generator reads from it. External readers (the
// API layer) query the same file concurrently, so every insert and upsert
// commits as a single atomic statement — a half-written relationship row is
// never visible.
//
// Default pragmas:
//
//	foreign_keys = ON
//	journal_mode = WAL
//	busy_timeout = 10000
//	synchronous  = NORMAL
//
// Usage:
//
//	s, err := store.Open("db/videos.sqlite", store.WithMkdirAll())
//
// In tests:
//
//	s := store.OpenMemory(t)
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// ErrStoreUnavailable wraps any failure to open or initialize the store.
// It is fatal for the current run and is never retried internally.
var ErrStoreUnavailable = errors.New("store: unavailable")

type config struct {
	driver      string
	busyTimeout int
	cacheSize   int
	synchronous string
	foreignKeys bool
	mkdirAll    bool
	ping        bool
}

func defaults() config {
	return config{
		driver:      "sqlite",
		busyTimeout: 10_000,
		synchronous: "NORMAL",
		foreignKeys: true,
		ping:        true,
	}
}

// Option customises Open behaviour.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithCacheSize sets PRAGMA cache_size. 0 (default) keeps the SQLite default.
// Negative values are KiB (e.g. -64000 = 64 MB).
func WithCacheSize(pages int) Option { return func(c *config) { c.cacheSize = pages } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(c *config) { c.synchronous = mode } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithoutPing skips the db.Ping() verification after opening.
func WithoutPing() Option { return func(c *config) { c.ping = false } }

// WithoutForeignKeys opens the store with referential checks disabled.
// Bulk loads normally use PrepareMigration/FinalizeMigration instead.
func WithoutForeignKeys() Option { return func(c *config) { c.foreignKeys = false } }

// Store wraps the opening/video database.
type Store struct {
	DB   *sql.DB
	path string
}

// Open opens the SQLite store at path with production-safe pragmas applied.
// The connection pool is pinned to one connection: pragmas (in particular
// the foreign_keys migration toggle) are per-connection in SQLite, and the
// pipeline is a sequential batch job that gains nothing from pooling.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir: %v", ErrStoreUnavailable, err)
		}
	}

	db, err := sql.Open(cfg.driver, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db, &cfg); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.ping {
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: ping: %v", ErrStoreUnavailable, err)
		}
	}

	return &Store{DB: db, path: path}, nil
}

// OpenMemory opens an in-memory store for testing with the schema applied.
// It registers t.Cleanup to close the database automatically.
func OpenMemory(t testing.TB, opts ...Option) *Store {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	if err := s.InitSchema(); err != nil {
		t.Fatalf("store.OpenMemory: schema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Path returns the database file path ("" for in-memory stores).
func (s *Store) Path() string {
	if s.path == ":memory:" {
		return ""
	}
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func wrapUnavailable(verb string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, verb, err)
}

func applyPragmas(db *sql.DB, cfg *config) error {
	fk := "ON"
	if !cfg.foreignKeys {
		fk = "OFF"
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA foreign_keys = %s", fk),
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}

	if cfg.cacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA cache_size = %d", cfg.cacheSize))
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, p, err)
		}
	}
	return nil
}
