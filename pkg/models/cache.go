package models

import "time"

// CacheEntry stores a cached comparison result.
type CacheEntry struct {
	Key        ComparisonKey    `json:"key"`
	Value      ComparisonResult `json:"value"`
	InsertedAt time.Time        `json:"inserted_at"`
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
