package models

import "time"

// ComparisonRecord is a completed comparison as stored in history.
type ComparisonRecord struct {
	ID         int64          `json:"id"`
	Prompt     string         `json:"prompt"`
	Seed       int64          `json:"seed"`
	Best       ModelID        `json:"best"`
	DurationMs int64          `json:"duration_ms"`
	Outcomes   []ModelOutcome `json:"outcomes"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ModelOutcome is one backend's result within a stored comparison.
type ModelOutcome struct {
	Model        ModelID `json:"model"`
	ImageURL     string  `json:"image_url"`
	Quality      float64 `json:"quality"`
	Time         float64 `json:"time"`
	ModelVersion string  `json:"model_version,omitempty"`
	Tokens       int     `json:"tokens,omitempty"`
}

// ModelSummary aggregates history per backend.
type ModelSummary struct {
	Model       ModelID `json:"model"`
	Comparisons int     `json:"comparisons"`
	Wins        int     `json:"wins"`
	AvgQuality  float64 `json:"avg_quality"`
	AvgTime     float64 `json:"avg_time"`
	TotalTokens int64   `json:"total_tokens"`
}
