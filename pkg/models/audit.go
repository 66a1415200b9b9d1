package models

import "time"

// AuditEntry records a single outbound backend call. The request URL is
// stored without credentials; the prompt is stored only as a hash.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Model      ModelID   `json:"model"`
	URL        string    `json:"url"`
	PromptHash string    `json:"prompt_hash"`
	Seed       int64     `json:"seed"`
	StatusCode int       `json:"status_code"`
	LatencyMs  int64     `json:"latency_ms"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditConfig controls the backend call audit log.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// AuditQueryOpts specifies filters for querying audit entries.
type AuditQueryOpts struct {
	Model ModelID
	Since time.Time
	Limit int
}
