package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arena-ai/arena/pkg/models"
)

// Logger writes and queries backend call audit entries in a dedicated SQLite
// database.
type Logger struct {
	db   *sql.DB
	cfg  models.AuditConfig
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the audit SQLite database and creates the schema.
func New(cfg models.AuditConfig) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	if cfg.RetentionDays > 0 {
		l.wg.Add(1)
		go l.retentionLoop()
	}

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS call_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		model       TEXT NOT NULL,
		url         TEXT NOT NULL,
		prompt_hash TEXT NOT NULL,
		seed        INTEGER NOT NULL,
		status_code INTEGER,
		latency_ms  INTEGER,
		error       TEXT,
		created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_call_model ON call_log(model)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_call_created ON call_log(created_at)`)
	return err
}

// HashPrompt computes a hex SHA-256 hash of the prompt text, so audit rows
// never store prompts verbatim.
func HashPrompt(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}

// Log inserts an audit entry.
func (l *Logger) Log(ctx context.Context, entry models.AuditEntry) error {
	if l == nil || l.db == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO call_log (model, url, prompt_hash, seed, status_code, latency_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Model, entry.URL, entry.PromptHash, entry.Seed,
		entry.StatusCode, entry.LatencyMs, entry.Error, entry.CreatedAt,
	)
	return err
}

// Query returns audit entries matching the given options, newest first.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, error) {
	q := `SELECT id, model, url, prompt_hash, seed, status_code, latency_ms, error, created_at
		FROM call_log WHERE 1=1`
	var args []any

	if opts.Model != "" {
		q += " AND model = ?"
		args = append(args, opts.Model)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	q += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &e.Model, &e.URL, &e.PromptHash, &e.Seed,
			&e.StatusCode, &e.LatencyMs, &errText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// retentionLoop periodically deletes entries older than the retention window.
func (l *Logger) retentionLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		l.purgeExpired()
		select {
		case <-l.done:
			return
		case <-ticker.C:
		}
	}
}

func (l *Logger) purgeExpired() {
	cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	_, _ = l.db.Exec(`DELETE FROM call_log WHERE created_at < ?`, cutoff)
}

// Close stops the retention loop and releases the database connection.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}
