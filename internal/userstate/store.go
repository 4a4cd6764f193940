// Package userstate persists user-added tokens and transaction settings.
package userstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/ericvale0128/cronaswap-interfacev3/internal/currency"
	"github.com/ericvale0128/cronaswap-interfacev3/internal/id"
)

const settingsKey = "transaction_settings"

type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

type AddedToken struct {
	currency.Currency
	AddedAt time.Time `json:"added_at"`
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state lock directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state sqlite: %w", err)
	}
	queries := []string{
		"PRAGMA busy_timeout=5000;",
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS added_tokens (
			chain_id INTEGER NOT NULL,
			address TEXT NOT NULL,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL,
			decimals INTEGER NOT NULL,
			added_at INTEGER NOT NULL,
			PRIMARY KEY (chain_id, address)
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init state schema: %w", err)
		}
	}
	return &Store{db: db, lock: flock.New(lockPath)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddToken stores c as a user-added token. Re-adding refreshes its metadata.
func (s *Store) AddToken(c currency.Currency) error {
	if c.Native || !id.IsAddress(c.Address) {
		return fmt.Errorf("add token: %q is not a token address", c.Address)
	}
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.db.Exec(`
		INSERT INTO added_tokens (chain_id, address, symbol, name, decimals, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chain_id, address) DO UPDATE SET
			symbol=excluded.symbol,
			name=excluded.name,
			decimals=excluded.decimals
	`, c.ChainID, id.NormalizeAddress(c.Address), c.Symbol, c.Name, c.Decimals, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

func (s *Store) RemoveToken(chainID int64, address string) (bool, error) {
	unlock, err := s.acquire()
	if err != nil {
		return false, err
	}
	defer unlock()

	res, err := s.db.Exec("DELETE FROM added_tokens WHERE chain_id = ? AND address = ?", chainID, id.NormalizeAddress(address))
	if err != nil {
		return false, fmt.Errorf("remove token: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AddedTokens lists user-added tokens for chainID, oldest first.
func (s *Store) AddedTokens(chainID int64) ([]AddedToken, error) {
	rows, err := s.db.Query(`
		SELECT address, symbol, name, decimals, added_at FROM added_tokens
		WHERE chain_id = ? ORDER BY added_at ASC, address ASC
	`, chainID)
	if err != nil {
		return nil, fmt.Errorf("list added tokens: %w", err)
	}
	defer rows.Close()

	out := []AddedToken{}
	for rows.Next() {
		var (
			address, symbol, name string
			decimals              int
			addedUnix             int64
		)
		if err := rows.Scan(&address, &symbol, &name, &decimals, &addedUnix); err != nil {
			return nil, fmt.Errorf("scan added token: %w", err)
		}
		out = append(out, AddedToken{
			Currency: currency.Token(chainID, address, symbol, name, decimals),
			AddedAt:  time.Unix(addedUnix, 0).UTC(),
		})
	}
	return out, rows.Err()
}

// AddedCurrencies is AddedTokens without the timestamps.
func (s *Store) AddedCurrencies(chainID int64) ([]currency.Currency, error) {
	added, err := s.AddedTokens(chainID)
	if err != nil {
		return nil, err
	}
	out := make([]currency.Currency, 0, len(added))
	for _, a := range added {
		out = append(out, a.Currency)
	}
	return out, nil
}

// Settings returns the stored settings, or the defaults if none were saved.
func (s *Store) Settings() (Settings, error) {
	var raw []byte
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", settingsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	settings := DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func (s *Store) SaveSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	unlock, err := s.acquire()
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
	`, settingsKey, payload, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) acquire() (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	locked, err := s.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock state store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock state store: timeout acquiring lock")
	}
	return func() { _ = s.lock.Unlock() }, nil
}
