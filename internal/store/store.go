package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store is a namespaced key/value store persisted to a local sqlite file.
// Values are JSON-serialized and may carry an expiry; expired entries are
// removed lazily on read.
type Store struct {
	db        *sqlx.DB
	namespace string
}

// Open creates the database file (and its directory) if needed and prepares
// the schema.
func Open(path, namespace string) (*Store, error) {
	if namespace == "" {
		return nil, errors.New("store namespace is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        expires_at INTEGER
    );`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}

	return &Store{db: db, namespace: namespace}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) scoped(key string) string {
	return s.namespace + ":" + key
}

// Get returns the raw JSON stored under key, or nil when the key is absent.
// An entry past its expiry is deleted and reported absent.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var row struct {
		Value     string        `db:"value"`
		ExpiresAt sql.NullInt64 `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT value, expires_at FROM kv WHERE key=?`, s.scoped(key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store get %q: %w", key, err)
	}

	if row.ExpiresAt.Valid && time.Now().UnixMilli() >= row.ExpiresAt.Int64 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, s.scoped(key)); err != nil {
			return nil, fmt.Errorf("store expire %q: %w", key, err)
		}
		return nil, nil
	}
	return json.RawMessage(row.Value), nil
}

// GetJSON decodes the value stored under key into out. It reports false when
// the key is absent or expired.
func (s *Store) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("store decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key, JSON-serialized, with an optional ttl
// (ttl <= 0 means no expiry). A value that cannot be serialized degrades to
// a logged no-op; the failure never propagates.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("store: dropping unserializable value for key %q: %v", key, err)
		return nil
	}

	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value=excluded.value, expires_at=excluded.expires_at`,
		s.scoped(key), string(raw), expiresAt)
	if err != nil {
		return fmt.Errorf("store set %q: %w", key, err)
	}
	return nil
}

// Remove deletes a single key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, s.scoped(key)); err != nil {
		return fmt.Errorf("store remove %q: %w", key, err)
	}
	return nil
}

// Clear removes every key under the store's namespace and nothing else.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE ?`, s.namespace+":%"); err != nil {
		return fmt.Errorf("store clear: %w", err)
	}
	return nil
}

// ClearExpired sweeps entries whose expiry has passed. Expiry is otherwise
// only checked lazily on Get.
func (s *Store) ClearExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key LIKE ? AND expires_at IS NOT NULL AND expires_at <= ?`,
		s.namespace+":%", time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store clear expired: %w", err)
	}
	return nil
}
