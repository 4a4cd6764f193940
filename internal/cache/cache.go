// Package cache is a small sqlite-backed TTL store for upstream payloads such
// as token lists. Entries past their TTL are still served as stale data until
// they age out of the retention window.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Retention bounds how long expired entries stay around as stale fallback.
const Retention = 7 * 24 * time.Hour

type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

type Result struct {
	Hit      bool
	Value    []byte
	Age      time.Duration
	Stale    bool
	TooStale bool
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	queries := []string{
		"PRAGMA busy_timeout=5000;",
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			namespace TEXT NOT NULL DEFAULT '',
			value BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			ttl_seconds INTEGER NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_cache_entries_namespace ON cache_entries(namespace);",
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init cache schema: %w", err)
		}
	}

	store := &Store{db: db, lock: flock.New(lockPath)}
	_ = store.Prune(Retention)
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Key builds a namespaced cache key. The namespace stays readable so a whole
// namespace can be dropped; the remaining parts are hashed.
func Key(namespace string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// Prune deletes entries that expired more than retention ago.
func (s *Store) Prune(retention time.Duration) error {
	if s == nil || s.db == nil {
		return nil
	}
	cutoff := time.Now().UTC().Add(-retention).Unix()
	_, err := s.db.Exec("DELETE FROM cache_entries WHERE created_at + ttl_seconds < ?", cutoff)
	if err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

// Get reads key. maxStale < 0 means stale entries are never too stale.
func (s *Store) Get(key string, maxStale time.Duration) (Result, error) {
	var value []byte
	var createdUnix int64
	var ttlSeconds int64
	err := s.db.QueryRow("SELECT value, created_at, ttl_seconds FROM cache_entries WHERE key = ?", key).Scan(&value, &createdUnix, &ttlSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{Hit: false}, nil
		}
		return Result{}, fmt.Errorf("cache read: %w", err)
	}

	created := time.Unix(createdUnix, 0).UTC()
	age := time.Since(created)
	if age < 0 {
		age = 0
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	stale := age > ttl
	tooStale := stale && maxStale >= 0 && age > ttl+maxStale

	return Result{
		Hit:      true,
		Value:    value,
		Age:      age,
		Stale:    stale,
		TooStale: tooStale,
	}, nil
}

// GetJSON is Get followed by decoding the value into out on a hit.
func (s *Store) GetJSON(key string, maxStale time.Duration, out any) (Result, error) {
	res, err := s.Get(key, maxStale)
	if err != nil || !res.Hit {
		return res, err
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		return Result{}, fmt.Errorf("decode cached value: %w", err)
	}
	return res, nil
}

func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	createdUnix := time.Now().UTC().Unix()
	ttlSeconds := int64(ttl.Seconds())
	if ttlSeconds <= 0 {
		ttlSeconds = 1
	}
	_, err = s.db.Exec(`
		INSERT INTO cache_entries (key, namespace, value, created_at, ttl_seconds)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			created_at=excluded.created_at,
			ttl_seconds=excluded.ttl_seconds
	`, key, namespaceOf(key), value, createdUnix, ttlSeconds)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

func (s *Store) SetJSON(key string, value any, ttl time.Duration) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return s.Set(key, buf, ttl)
}

// DeleteNamespace drops every entry written under namespace.
func (s *Store) DeleteNamespace(namespace string) (int64, error) {
	unlock, err := s.acquire()
	if err != nil {
		return 0, err
	}
	defer unlock()

	res, err := s.db.Exec("DELETE FROM cache_entries WHERE namespace = ?", namespace)
	if err != nil {
		return 0, fmt.Errorf("cache delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) acquire() (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	locked, err := s.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock cache: timeout acquiring lock")
	}
	return func() { _ = s.lock.Unlock() }, nil
}

func namespaceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return ""
}
