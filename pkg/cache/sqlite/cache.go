package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arena-ai/arena/pkg/models"
)

// Cache is a comparison cache backed by SQLite, so cached results survive
// process restarts. The prompt is stored hashed, not verbatim.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS comparison_cache (
	prompt_hash TEXT NOT NULL,
	seed INTEGER NOT NULL,
	result BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL,
	PRIMARY KEY (prompt_hash, seed)
);
`

// New creates a Cache with the given database path and TTL. A zero TTL keeps
// entries until cleared.
func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// hashPrompt computes a SHA-256 hash of the prompt text.
func hashPrompt(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("%x", h)
}

// Get retrieves a cached comparison result. Returns false if not found,
// expired, or unreadable.
func (c *Cache) Get(key models.ComparisonKey) (models.ComparisonResult, bool) {
	var raw []byte
	var createdAt time.Time
	var ttlSeconds int64

	err := c.db.QueryRow(
		`SELECT result, created_at, ttl_seconds FROM comparison_cache WHERE prompt_hash = ? AND seed = ?`,
		hashPrompt(key.Prompt), key.Seed,
	).Scan(&raw, &createdAt, &ttlSeconds)

	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	if ttlSeconds > 0 && time.Since(createdAt) >= time.Duration(ttlSeconds)*time.Second {
		c.misses.Add(1)
		return nil, false
	}

	var result models.ComparisonResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return result, true
}

// Put stores a comparison result, overwriting any previous entry for the key.
func (c *Cache) Put(key models.ComparisonKey, result models.ComparisonResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO comparison_cache (prompt_hash, seed, result, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		hashPrompt(key.Prompt), key.Seed, raw, time.Now().UTC(), int64(c.ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM comparison_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM comparison_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
