// Package cache provides a sqlite-backed cache of matcher verdicts, keyed
// on a hash of the model/observation/flags that produced them, so a repeat
// request skips the external model-checker round trip entirely.
//
// modernc.org/sqlite is pure Go (no cgo), which is why it sits in go.mod
// even though nothing else in this codebase previously imported it: nothing
// needed persistence, but its build/dependency story (single static binary,
// no C toolchain required) is exactly what a result cache here wants.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache wraps a sqlite database of cached verdicts.
type Cache struct {
	db *sql.DB
}

// Open creates (if absent) and opens the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	key         TEXT PRIMARY KEY,
	is_satisfied INTEGER NOT NULL,
	is_timeout   INTEGER NOT NULL,
	created_at   TIMESTAMP NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }

// Key computes the cache key for a given model XML, observation payload,
// and a stable representation of the active matcher flags.
func Key(modelXML, observationJSON, flags string) string {
	h := sha256.New()
	h.Write([]byte(modelXML))
	h.Write([]byte{0})
	h.Write([]byte(observationJSON))
	h.Write([]byte{0})
	h.Write([]byte(flags))
	return hex.EncodeToString(h.Sum(nil))
}

// Verdict is a cached matcher outcome.
type Verdict struct {
	IsSatisfied bool
	IsTimeout   bool
}

// Get returns the cached verdict for key, or ok=false if absent.
func (c *Cache) Get(ctx context.Context, key string) (v Verdict, ok bool, err error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT is_satisfied, is_timeout FROM verdicts WHERE key = ?`, key)
	var sat, to int
	if err := row.Scan(&sat, &to); err != nil {
		if err == sql.ErrNoRows {
			return Verdict{}, false, nil
		}
		return Verdict{}, false, fmt.Errorf("cache: reading %s: %w", key, err)
	}
	return Verdict{IsSatisfied: sat != 0, IsTimeout: to != 0}, true, nil
}

// Put stores a verdict under key, overwriting any previous entry.
func (c *Cache) Put(ctx context.Context, key string, v Verdict) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO verdicts (key, is_satisfied, is_timeout, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET is_satisfied=excluded.is_satisfied, is_timeout=excluded.is_timeout, created_at=excluded.created_at`,
		key, boolToInt(v.IsSatisfied), boolToInt(v.IsTimeout), time.Now())
	if err != nil {
		return fmt.Errorf("cache: writing %s: %w", key, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
