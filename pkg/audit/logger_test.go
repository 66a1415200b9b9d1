package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/arena-ai/arena/pkg/models"
)

func tempCfg(t *testing.T) models.AuditConfig {
	t.Helper()
	return models.AuditConfig{
		Enabled:       true,
		DBPath:        filepath.Join(t.TempDir(), "audit_test.db"),
		RetentionDays: 90,
	}
}

func mustNew(t *testing.T, cfg models.AuditConfig) *Logger {
	t.Helper()
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func sampleEntry() models.AuditEntry {
	return models.AuditEntry{
		Model:      models.ModelGemini,
		URL:        "https://api.example.com/v1/images/gemini",
		PromptHash: HashPrompt("a dog outline"),
		Seed:       12345,
		StatusCode: 200,
		LatencyMs:  150,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestHashPrompt(t *testing.T) {
	if HashPrompt("a") != HashPrompt("a") {
		t.Error("same prompt should produce same hash")
	}
	if HashPrompt("a") == HashPrompt("b") {
		t.Error("different prompts should produce different hashes")
	}
	if len(HashPrompt("a")) != 64 {
		t.Errorf("expected hex sha256, got %q", HashPrompt("a"))
	}
}

func TestLogAndQuery(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	if err := l.Log(ctx, sampleEntry()); err != nil {
		t.Fatalf("Log: %v", err)
	}
	failed := sampleEntry()
	failed.Model = models.ModelUltra
	failed.StatusCode = 500
	failed.Error = "ultra: status=500: internal error"
	if err := l.Log(ctx, failed); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := l.Query(ctx, models.AuditQueryOpts{Model: models.ModelGemini})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Seed != 12345 || entries[0].StatusCode != 200 {
		t.Errorf("unexpected entry: %+v", entries[0])
	}

	entries, err = l.Query(ctx, models.AuditQueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestQuerySince(t *testing.T) {
	l := mustNew(t, tempCfg(t))
	ctx := context.Background()

	old := sampleEntry()
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	_ = l.Log(ctx, old)
	_ = l.Log(ctx, sampleEntry())

	entries, err := l.Query(ctx, models.AuditQueryOpts{Since: time.Now().UTC().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 recent entry, got %d", len(entries))
	}
}

func TestRetentionPurge(t *testing.T) {
	cfg := tempCfg(t)
	cfg.RetentionDays = 7
	l := mustNew(t, cfg)
	ctx := context.Background()

	old := sampleEntry()
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -30)
	_ = l.Log(ctx, old)
	_ = l.Log(ctx, sampleEntry())

	l.purgeExpired()

	entries, err := l.Query(ctx, models.AuditQueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected purge to keep 1 entry, got %d", len(entries))
	}
}
