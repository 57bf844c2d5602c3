// Package store implements the SQLite storage layer for a single tenant
// board. Each Store owns the connection pool for one physical database file;
// opening, schema bootstrap, and transaction handling live here, while the
// position algorithms live in the service layer on top.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
)

// maxBusyRetries bounds the retry loop for mutations that auto-assign
// positions. Caller-specified positions are never retried.
const maxBusyRetries = 5

// Store is the handle for one tenant's database file. A Store is safe for
// concurrent use; writers are serialized by SQLite's file lock plus the
// immediate transaction mode set at open time.
type Store struct {
	db       *sql.DB
	path     string
	openedAt time.Time
}

// dsn builds the modernc.org/sqlite DSN for a store file. Transactions start
// in immediate mode so that every mutation takes the write lock up front
// instead of upgrading mid-transaction.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	return "file:" + filepath.ToSlash(path) + "?" + q.Encode()
}

// Open opens an existing store file. It does not create the file and does
// not apply schema; use Create for new stores.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, pberr.BoardNotFound(strings.TrimSuffix(filepath.Base(path), ".db"))
		}
		return nil, pberr.Storage("open", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, pberr.Storage("open", err)
	}

	return &Store{db: db, path: path, openedAt: time.Now()}, nil
}

// Create creates a new store file, applies the full schema, and stamps the
// meta table with the current schema version and a store UID.
func Create(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, pberr.BoardAlreadyExists(strings.TrimSuffix(filepath.Base(path), ".db"))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, pberr.Storage("create", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, pberr.Storage("create", err)
	}

	s := &Store{db: db, path: path, openedAt: time.Now()}
	if err := s.bootstrap(); err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}
	return s, nil
}

// bootstrap applies the schema DDL and stamps the meta table.
func (s *Store) bootstrap() error {
	for _, stmt := range schemaDDL {
		if _, err := s.db.Exec(stmt); err != nil {
			return pberr.Storage("schema", err)
		}
	}

	stamp := func(key, value string) error {
		_, err := s.db.Exec(
			`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
		return err
	}
	if err := stamp(metaSchemaVersion, strconv.Itoa(SchemaVersion)); err != nil {
		return pberr.Storage("schema", err)
	}
	if err := stamp(metaStoreUID, newStoreUID()); err != nil {
		return pberr.Storage("schema", err)
	}
	if err := stamp(metaCreatedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return pberr.Storage("schema", err)
	}
	return nil
}

// newStoreUID generates a UUID v7 for the store's identity stamp.
func newStoreUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// OpenedAt returns when this handle was created.
func (s *Store) OpenedAt() time.Time {
	return s.openedAt
}

// Close releases the connection pool. Handles are only closed at process
// shutdown or when a board is archived.
func (s *Store) Close() error {
	return s.db.Close()
}

// Version reads the schema version stamped in the meta table.
func (s *Store) Version() (int, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT value FROM meta WHERE key = ?`, metaSchemaVersion).Scan(&raw)
	if err != nil {
		return 0, pberr.Storage("meta", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pberr.Storage("meta", fmt.Errorf("bad schema_version %q", raw))
	}
	return v, nil
}

// SetMeta writes a key/value pair into the meta table.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return pberr.Storage("meta", err)
	}
	return nil
}

// Meta reads a value from the meta table. Returns "" when the key is absent.
func (s *Store) Meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", pberr.Storage("meta", err)
	}
	return value, nil
}

// UID reads the store UID stamped in the meta table.
func (s *Store) UID() (string, error) {
	var uid string
	err := s.db.QueryRow(
		`SELECT value FROM meta WHERE key = ?`, metaStoreUID).Scan(&uid)
	if err != nil {
		return "", pberr.Storage("meta", err)
	}
	return uid, nil
}

// Update runs fn inside a write transaction. The transaction is rolled back
// if fn returns an error or the context is cancelled; either everything fn
// did commits or none of it does.
func (s *Store) Update(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pberr.Storage("tx", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return pberr.Storage("tx", err)
	}
	return nil
}

// UpdateAuto runs fn like Update, retrying up to maxBusyRetries times when
// the write lock is contended. Only mutations that auto-assign positions go
// through here: re-running them yields a fresh (and still correct) position.
// Mutations with caller-specified positions use Update — a conflict there is
// a genuine validation failure and must surface.
func (s *Store) UpdateAuto(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		err = s.Update(ctx, fn)
		if err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return pberr.Storage("tx", ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
	return err
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return pberr.Storage("tx", err)
	}
	defer tx.Rollback()

	return fn(tx)
}

// isBusy reports whether err is SQLite lock contention. modernc.org/sqlite
// surfaces these as SQLITE_BUSY / "database is locked" error strings.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
