// Package cachestore keeps compiled snapshots and macro ordering hints in a
// local SQLite database so unchanged inputs are not compiled twice.
package cachestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/xxh3"

	"github.com/vk/conceptc/internal/ctxlog"
	"github.com/vk/conceptc/internal/macro"
)

// Build is one stored compilation.
type Build struct {
	ID        string
	Key       string
	CreatedAt time.Time
	Snapshot  []byte
}

// Store is a SQLite-backed cache.
type Store struct {
	db *sql.DB
}

// Key combines the fingerprints of the inputs of a compilation into a
// cache key.
func Key(fingerprints ...uint64) string {
	h := xxh3.New()
	var buf [8]byte
	for _, f := range fingerprints {
		for i := range buf {
			buf[i] = byte(f >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Open opens or creates the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Cache opened.", "path", path)
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		cache_key TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL,
		snapshot BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS macro_hints (
		rule TEXT PRIMARY KEY,
		last_iteration INTEGER NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the build stored under key. The boolean is false on a
// cache miss.
func (s *Store) Lookup(ctx context.Context, key string) (*Build, bool, error) {
	b := &Build{Key: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, snapshot FROM builds WHERE cache_key = ?`, key,
	).Scan(&b.ID, &b.CreatedAt, &b.Snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached build: %w", err)
	}
	return b, true, nil
}

// Save stores a snapshot under key, replacing any earlier build with the
// same key, and returns the new build.
func (s *Store) Save(ctx context.Context, key string, snapshot []byte) (*Build, error) {
	b := &Build{ID: uuid.NewString(), Key: key, CreatedAt: time.Now().UTC(), Snapshot: snapshot}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (id, cache_key, created_at, snapshot) VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET id = excluded.id, created_at = excluded.created_at, snapshot = excluded.snapshot`,
		b.ID, b.Key, b.CreatedAt, b.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to store build: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Build cached.", "id", b.ID, "key", key, "bytes", len(snapshot))
	return b, nil
}

// LoadHints merges the persisted ordering hints into hints.
func (s *Store) LoadHints(ctx context.Context, hints *macro.Hints) error {
	rows, err := s.db.QueryContext(ctx, `SELECT rule, last_iteration FROM macro_hints`)
	if err != nil {
		return fmt.Errorf("failed to read macro hints: %w", err)
	}
	defer rows.Close()

	last := map[string]int{}
	for rows.Next() {
		var rule string
		var iteration int
		if err := rows.Scan(&rule, &iteration); err != nil {
			return fmt.Errorf("failed to read macro hints: %w", err)
		}
		last[rule] = iteration
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read macro hints: %w", err)
	}
	hints.Import(last)
	return nil
}

// SaveHints persists hints, overwriting the stored value of every rule they
// mention.
func (s *Store) SaveHints(ctx context.Context, hints *macro.Hints) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to save macro hints: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO macro_hints (rule, last_iteration) VALUES (?, ?)
		ON CONFLICT(rule) DO UPDATE SET last_iteration = excluded.last_iteration`)
	if err != nil {
		return fmt.Errorf("failed to save macro hints: %w", err)
	}
	defer stmt.Close()

	for rule, iteration := range hints.Export() {
		if _, err := stmt.ExecContext(ctx, rule, iteration); err != nil {
			return fmt.Errorf("failed to save hint for rule '%s': %w", rule, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to save macro hints: %w", err)
	}
	return nil
}
