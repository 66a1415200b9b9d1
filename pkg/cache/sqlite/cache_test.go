package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arena-ai/arena/pkg/models"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath, ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleResult() models.ComparisonResult {
	return models.ComparisonResult{
		models.ModelGemini: {ImageURL: "https://img.example.com/1.png", Quality: 0.92, Time: 1.4},
		models.ModelImagen: {ImageURL: "https://img.example.com/2.png", Quality: 0.88, Time: 2.0},
		models.ModelUltra:  {ImageURL: "https://img.example.com/3.png", Quality: 0.95, Time: 3.1, Tokens: 120},
	}
}

func TestPutAndGet(t *testing.T) {
	c := newTestCache(t, time.Hour)
	key := models.ComparisonKey{Prompt: "a dog outline", Seed: 12345}

	if err := c.Put(key, sampleResult()); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got[models.ModelUltra].Tokens != 120 {
		t.Errorf("unexpected cached result: %+v", got)
	}

	// Miss for a different seed.
	if _, ok := c.Get(models.ComparisonKey{Prompt: "a dog outline", Seed: 54321}); ok {
		t.Error("expected cache miss for different seed")
	}
}

func TestTTLExpiration(t *testing.T) {
	c := newTestCache(t, 1*time.Second)
	key := models.ComparisonKey{Prompt: "p", Seed: 1}

	if err := c.Put(key, sampleResult()); err != nil {
		t.Fatal(err)
	}

	// Rewind created_at past the TTL instead of sleeping.
	if _, err := c.db.Exec(`UPDATE comparison_cache SET created_at = ?`, time.Now().UTC().Add(-2*time.Second)); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("expected cache miss after TTL expiration")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := newTestCache(t, 0)
	key := models.ComparisonKey{Prompt: "p", Seed: 1}

	_ = c.Put(key, sampleResult())
	if _, err := c.db.Exec(`UPDATE comparison_cache SET created_at = ?`, time.Now().UTC().Add(-240*time.Hour)); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(key); !ok {
		t.Error("zero TTL entries must live until cleared")
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t, time.Hour)
	key := models.ComparisonKey{Prompt: "p", Seed: 1}

	_ = c.Put(key, sampleResult())
	c.Get(key)                                             // hit
	c.Get(models.ComparisonKey{Prompt: "other", Seed: 1}) // miss

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t, time.Hour)

	_ = c.Put(models.ComparisonKey{Prompt: "a", Seed: 1}, sampleResult())
	_ = c.Put(models.ComparisonKey{Prompt: "b", Seed: 2}, sampleResult())

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}

	stats, _ := c.Stats()
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Entries)
	}
}
