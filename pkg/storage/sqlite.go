package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore is a file-backed Store. The namespaces table plays the
// container role: entry writes are rejected with ErrNamespaceMissing
// until the namespace row exists.
type SQLiteStore struct {
	db         *sql.DB
	namespace  string
	writeMutex sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path and returns a
// store scoped to the given namespace. The schema is created up front;
// the namespace itself is not.
func NewSQLiteStore(path, namespace string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"CREATE TABLE IF NOT EXISTS namespaces (name TEXT PRIMARY KEY)",
		`CREATE TABLE IF NOT EXISTS entries (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			body BLOB NOT NULL,
			content_type TEXT NOT NULL,
			cache_control TEXT NOT NULL,
			stored_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return &SQLiteStore{
		db:        db,
		namespace: namespace,
	}, nil
}

// Get retrieves the object stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Object, error) {
	var obj Object
	var storedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT body, content_type, cache_control, stored_at FROM entries WHERE namespace = ? AND key = ?",
		s.namespace, key,
	).Scan(&obj.Body, &obj.ContentType, &obj.CacheControl, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}
	obj.LastModified = time.Unix(storedAt, 0)
	return &obj, nil
}

// Put stores obj under key. INSERT OR REPLACE keeps the last write
// authoritative for concurrent writers of the same key.
func (s *SQLiteStore) Put(ctx context.Context, key string, obj *Object) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM namespaces WHERE name = ?", s.namespace,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNamespaceMissing
	}
	if err != nil {
		return fmt.Errorf("sqlite namespace check: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO entries (namespace, key, body, content_type, cache_control, stored_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.namespace, key, obj.Body, obj.ContentType, obj.CacheControl, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}
	return nil
}

// EnsureNamespace creates the namespace row. Idempotent.
func (s *SQLiteStore) EnsureNamespace(ctx context.Context) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO namespaces (name) VALUES (?)", s.namespace,
	)
	if err != nil {
		return fmt.Errorf("sqlite ensure namespace: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
