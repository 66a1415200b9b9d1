package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arena-ai/arena/pkg/models"
)

// Store records and queries completed comparisons.
type Store interface {
	// Record stores a completed comparison with its per-model outcomes.
	Record(ctx context.Context, rec models.ComparisonRecord) error
	// Summary returns per-model aggregates across all recorded comparisons.
	Summary(ctx context.Context) ([]models.ModelSummary, error)
	// Recent returns the most recent comparisons, newest first.
	Recent(ctx context.Context, limit int) ([]models.ComparisonRecord, error)
	// TotalTokens returns generation tokens spent since a given time.
	TotalTokens(ctx context.Context, since time.Time) (int64, error)
	// CountSince returns the number of comparisons run since a given time.
	CountSince(ctx context.Context, since time.Time) (int64, error)
	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store with a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const createComparisonsTable = `
CREATE TABLE IF NOT EXISTS comparisons (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	prompt TEXT NOT NULL,
	seed INTEGER NOT NULL,
	best_model TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_comparisons_time ON comparisons(created_at);
`

const createResultsTable = `
CREATE TABLE IF NOT EXISTS comparison_results (
	comparison_id INTEGER NOT NULL REFERENCES comparisons(id),
	model TEXT NOT NULL,
	image_url TEXT NOT NULL,
	quality REAL NOT NULL,
	gen_time REAL NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	tokens INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (comparison_id, model)
);
`

// New creates a SQLiteStore and runs auto-migration.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(createComparisonsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	if _, err := db.Exec(createResultsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate results table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewRecord builds a ComparisonRecord from a finished comparison, with
// outcomes in canonical model order.
func NewRecord(key models.ComparisonKey, result models.ComparisonResult, best models.ModelID, duration time.Duration) models.ComparisonRecord {
	rec := models.ComparisonRecord{
		Prompt:     key.Prompt,
		Seed:       key.Seed,
		Best:       best,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	for _, id := range models.AllModels {
		r := result[id]
		rec.Outcomes = append(rec.Outcomes, models.ModelOutcome{
			Model:        id,
			ImageURL:     r.ImageURL,
			Quality:      r.Quality,
			Time:         r.Time,
			ModelVersion: r.ModelVersion,
			Tokens:       r.Tokens,
		})
	}
	return rec
}

// Record stores a comparison and its per-model outcomes in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, rec models.ComparisonRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record comparison: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO comparisons (prompt, seed, best_model, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Prompt, rec.Seed, rec.Best, rec.DurationMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record comparison: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("record comparison: %w", err)
	}

	for _, o := range rec.Outcomes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comparison_results (comparison_id, model, image_url, quality, gen_time, model_version, tokens)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, o.Model, o.ImageURL, o.Quality, o.Time, o.ModelVersion, o.Tokens,
		)
		if err != nil {
			return fmt.Errorf("record outcome: %w", err)
		}
	}

	return tx.Commit()
}

// Summary returns per-model aggregates grouped by model.
func (s *SQLiteStore) Summary(ctx context.Context) ([]models.ModelSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.model, COUNT(*),
			SUM(CASE WHEN c.best_model = r.model THEN 1 ELSE 0 END),
			AVG(r.quality), AVG(r.gen_time), COALESCE(SUM(r.tokens), 0)
		 FROM comparison_results r
		 JOIN comparisons c ON c.id = r.comparison_id
		 GROUP BY r.model ORDER BY r.model`,
	)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.ModelSummary
	for rows.Next() {
		var s models.ModelSummary
		if err := rows.Scan(&s.Model, &s.Comparisons, &s.Wins, &s.AvgQuality, &s.AvgTime, &s.TotalTokens); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Recent returns the most recent comparisons with their outcomes.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]models.ComparisonRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, seed, best_model, duration_ms, created_at
		 FROM comparisons ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent comparisons: %w", err)
	}
	defer rows.Close()

	var records []models.ComparisonRecord
	for rows.Next() {
		var r models.ComparisonRecord
		if err := rows.Scan(&r.ID, &r.Prompt, &r.Seed, &r.Best, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		outcomes, err := s.outcomes(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Outcomes = outcomes
	}
	return records, nil
}

func (s *SQLiteStore) outcomes(ctx context.Context, comparisonID int64) ([]models.ModelOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model, image_url, quality, gen_time, model_version, tokens
		 FROM comparison_results WHERE comparison_id = ? ORDER BY model`,
		comparisonID,
	)
	if err != nil {
		return nil, fmt.Errorf("comparison outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.ModelOutcome
	for rows.Next() {
		var o models.ModelOutcome
		if err := rows.Scan(&o.Model, &o.ImageURL, &o.Quality, &o.Time, &o.ModelVersion, &o.Tokens); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// TotalTokens returns generation tokens spent since a given time.
func (s *SQLiteStore) TotalTokens(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(r.tokens), 0)
		 FROM comparison_results r
		 JOIN comparisons c ON c.id = r.comparison_id
		 WHERE c.created_at >= ?`,
		since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total tokens: %w", err)
	}
	return total, nil
}

// CountSince returns the number of comparisons run since a given time.
func (s *SQLiteStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comparisons WHERE created_at >= ?`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count comparisons: %w", err)
	}
	return count, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
