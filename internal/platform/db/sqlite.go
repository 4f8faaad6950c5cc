package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Store owns the embedded database file for one storage path. All SQL in
// the application flows through a Store: reads go straight to the pool,
// writes serialize through WriteTx.
type Store struct {
	path    string
	db      *sql.DB
	writeMu sync.Mutex
}

// Open returns the Store for the given database path, creating it on first
// use. At most one Store exists per distinct path within the process, so
// repeated opens cannot produce divergently configured connection managers
// against the same file.
func Open(path string) (*Store, error) {
	key := canonicalPath(path)

	storesMu.Lock()
	defer storesMu.Unlock()

	if s, ok := stores[key]; ok {
		return s, nil
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	s := &Store{path: path, db: db}
	stores[key] = s
	return s, nil
}

var (
	storesMu sync.Mutex
	stores   = make(map[string]*Store)
)

// dsn builds the connection string. Pragmas travel in the DSN so that every
// pooled connection is configured identically: foreign keys on, a 5 s busy
// timeout to absorb transient lock contention, and NORMAL synchronous
// durability. WAL is unreliable on network filesystems, so share-prefixed
// paths fall back to the rollback journal.
func dsn(path string) string {
	journal := "WAL"
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		journal = "DELETE"
	}
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(" + journal + ")" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
}

func canonicalPath(path string) string {
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		// filepath.Clean collapses the leading double separator that marks
		// a network share; keep the raw spelling as the registry key.
		return path
	}
	return filepath.Clean(path)
}

// DB exposes the underlying pool for read queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the storage path this Store was opened with.
func (s *Store) Path() string {
	return s.path
}

// WithTx runs fn inside a scoped transaction: commit when fn returns nil,
// rollback otherwise. The original error is returned unmodified; a rollback
// failure is attached to its message without masking it.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// WriteTx is WithTx behind the process-wide write lock. Every mutation of
// the database goes through here; reads never take the lock.
func (s *Store) WriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.WithTx(ctx, fn)
}

// Close tears down the pool and removes the Store from the path registry,
// so a later Open on the same path builds a fresh instance.
func (s *Store) Close() error {
	storesMu.Lock()
	delete(stores, canonicalPath(s.path))
	storesMu.Unlock()
	return s.db.Close()
}
