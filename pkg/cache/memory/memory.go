package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/arena-ai/arena/pkg/models"
)

// Store is an in-process comparison cache keyed by (prompt, seed). Entries
// expire ttl after insertion; a zero ttl keeps them until Clear.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[models.ComparisonKey]models.CacheEntry
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[models.ComparisonKey]models.CacheEntry),
	}
}

// Get retrieves a cached result. Expired entries are dropped on read.
func (s *Store) Get(key models.ComparisonKey) (models.ComparisonResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	if s.ttl > 0 && time.Since(e.InsertedAt) >= s.ttl {
		delete(s.entries, key)
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return e.Value, true
}

// Put stores a result for a key, overwriting any previous entry.
func (s *Store) Put(key models.ComparisonKey, value models.ComparisonResult) error {
	s.mu.Lock()
	s.entries[key] = models.CacheEntry{Key: key, Value: value, InsertedAt: time.Now().UTC()}
	s.mu.Unlock()
	return nil
}

// Clear removes all entries.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.entries = make(map[models.ComparisonKey]models.CacheEntry)
	s.mu.Unlock()
	return nil
}

// Stats returns cache performance metrics.
func (s *Store) Stats() (models.CacheStats, error) {
	s.mu.Lock()
	entries := int64(len(s.entries))
	s.mu.Unlock()
	return models.CacheStats{
		Entries: entries,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}, nil
}

// Close is a no-op; it exists so memory and sqlite stores are interchangeable.
func (s *Store) Close() error { return nil }
