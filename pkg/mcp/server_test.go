package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arena-ai/arena/pkg/backends"
	"github.com/arena-ai/arena/pkg/cache/memory"
	"github.com/arena-ai/arena/pkg/compare"
	"github.com/arena-ai/arena/pkg/models"
)

// fakeHistory implements history.Store for testing.
type fakeHistory struct {
	recorded  []models.ComparisonRecord
	summaries []models.ModelSummary
	recent    []models.ComparisonRecord
}

func (f *fakeHistory) Record(_ context.Context, rec models.ComparisonRecord) error {
	f.recorded = append(f.recorded, rec)
	return nil
}
func (f *fakeHistory) Summary(_ context.Context) ([]models.ModelSummary, error) {
	return f.summaries, nil
}
func (f *fakeHistory) Recent(_ context.Context, _ int) ([]models.ComparisonRecord, error) {
	return f.recent, nil
}
func (f *fakeHistory) TotalTokens(_ context.Context, _ time.Time) (int64, error) { return 0, nil }
func (f *fakeHistory) CountSince(_ context.Context, _ time.Time) (int64, error)  { return 0, nil }
func (f *fakeHistory) Close() error                                              { return nil }

// fakeCache implements CacheStatter for testing.
type fakeCache struct {
	stats models.CacheStats
}

func (f *fakeCache) Stats() (models.CacheStats, error) { return f.stats, nil }

func newTestAggregator(t *testing.T) *compare.Aggregator {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		qualities := map[string]float64{"gemini": 0.6, "imagen": 0.9, "ultra": 0.7}
		model := strings.TrimPrefix(r.URL.Path, "/")
		fmt.Fprintf(w, `{"imageUrl":"https://img.example.com/%s.png","quality":%g,"time":1.0,"tokens":25}`, model, qualities[model])
	}))
	t.Cleanup(upstream.Close)
	return compare.New(backends.New(upstream.URL, "test-token", nil), memory.New(0), 5*time.Second)
}

func sendAndReceive(t *testing.T, srv *Server, req Request) Response {
	t.Helper()
	line, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	line = append(line, '\n')

	var out bytes.Buffer
	if err := srv.Run(context.Background(), bytes.NewReader(line), &out); err != nil {
		t.Fatal(err)
	}

	var resp Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, out.String())
	}
	return resp
}

func callTool(t *testing.T, srv *Server, name string, args string) ToolCallResult {
	t.Helper()
	params, _ := json.Marshal(ToolCallParams{Name: name, Arguments: json.RawMessage(args)})
	resp := sendAndReceive(t, srv, Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  "tools/call",
		Params:  params,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	data, _ := json.Marshal(resp.Result)
	var result ToolCallResult
	json.Unmarshal(data, &result)
	return result
}

func TestInitialize(t *testing.T) {
	srv := New(nil, &fakeHistory{}, nil, nil, "test")
	resp := sendAndReceive(t, srv, Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  "initialize",
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	data, _ := json.Marshal(resp.Result)
	var result InitializeResult
	json.Unmarshal(data, &result)

	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("protocol version = %s, want 2024-11-05", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "arena" {
		t.Errorf("server name = %s, want arena", result.ServerInfo.Name)
	}
}

func TestToolsList(t *testing.T) {
	srv := New(nil, &fakeHistory{}, nil, nil, "test")
	resp := sendAndReceive(t, srv, Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`2`),
		Method:  "tools/list",
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	data, _ := json.Marshal(resp.Result)
	var result ToolsListResult
	json.Unmarshal(data, &result)

	if len(result.Tools) != 5 {
		t.Errorf("got %d tools, want 5", len(result.Tools))
	}

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"arena_compare", "arena_stats", "arena_recent", "arena_budget", "arena_cache_stats"} {
		if !names[want] {
			t.Errorf("missing tool: %s", want)
		}
	}
}

func TestToolCallCompare(t *testing.T) {
	hist := &fakeHistory{}
	srv := New(newTestAggregator(t), hist, nil, nil, "test")

	result := callTool(t, srv, "arena_compare", `{"prompt":"a red fox","seed":3}`)
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", result.Content[0].Text)
	}
	text := result.Content[0].Text
	if !strings.Contains(text, "Best: imagen") {
		t.Errorf("expected imagen as winner, got: %s", text)
	}
	if len(hist.recorded) != 1 {
		t.Errorf("expected 1 recorded comparison, got %d", len(hist.recorded))
	}
}

func TestToolCallCompareMissingPrompt(t *testing.T) {
	srv := New(newTestAggregator(t), &fakeHistory{}, nil, nil, "test")

	result := callTool(t, srv, "arena_compare", `{}`)
	if !result.IsError {
		t.Error("expected isError=true for missing prompt")
	}
}

func TestToolCallStats(t *testing.T) {
	hist := &fakeHistory{
		summaries: []models.ModelSummary{
			{Model: models.ModelImagen, Comparisons: 4, Wins: 3, AvgQuality: 0.9, AvgTime: 1.2, TotalTokens: 160},
		},
	}
	srv := New(nil, hist, nil, nil, "test")

	result := callTool(t, srv, "arena_stats", `{}`)
	if !strings.Contains(result.Content[0].Text, "imagen") {
		t.Errorf("expected imagen in output, got: %s", result.Content[0].Text)
	}
}

func TestToolCallRecent(t *testing.T) {
	hist := &fakeHistory{
		recent: []models.ComparisonRecord{
			{Prompt: "a red fox", Seed: 9, Best: models.ModelUltra, DurationMs: 1200, CreatedAt: time.Now().UTC()},
		},
	}
	srv := New(nil, hist, nil, nil, "test")

	result := callTool(t, srv, "arena_recent", `{}`)
	text := result.Content[0].Text
	if !strings.Contains(text, "ultra") || !strings.Contains(text, "a red fox") {
		t.Errorf("unexpected recent output: %s", text)
	}
}

func TestToolCallBudgetNotConfigured(t *testing.T) {
	srv := New(nil, &fakeHistory{}, nil, nil, "test")

	result := callTool(t, srv, "arena_budget", `{}`)
	if !strings.Contains(result.Content[0].Text, "not configured") {
		t.Errorf("expected 'not configured', got: %s", result.Content[0].Text)
	}
}

func TestToolCallCacheStats(t *testing.T) {
	cache := &fakeCache{stats: models.CacheStats{Entries: 42, Hits: 10, Misses: 5}}
	srv := New(nil, &fakeHistory{}, cache, nil, "test")

	result := callTool(t, srv, "arena_cache_stats", `{}`)
	text := result.Content[0].Text
	if !strings.Contains(text, "42") || !strings.Contains(text, "66.7%") {
		t.Errorf("unexpected cache stats output: %s", text)
	}
}

func TestNotificationNoResponse(t *testing.T) {
	srv := New(nil, &fakeHistory{}, nil, nil, "test")

	line, _ := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})
	line = append(line, '\n')

	var out bytes.Buffer
	_ = srv.Run(context.Background(), bytes.NewReader(line), &out)

	if out.Len() != 0 {
		t.Errorf("expected no output for notification, got: %s", out.String())
	}
}

func TestUnknownMethod(t *testing.T) {
	srv := New(nil, &fakeHistory{}, nil, nil, "test")
	resp := sendAndReceive(t, srv, Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`9`),
		Method:  "unknown/method",
	})

	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("error code = %d, want %d", resp.Error.Code, CodeMethodNotFound)
	}
}
