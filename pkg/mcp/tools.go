package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arena-ai/arena/pkg/compare"
	"github.com/arena-ai/arena/pkg/history"
	"github.com/arena-ai/arena/pkg/models"
)

// Tool argument structs.

type compareArgs struct {
	Prompt string `json:"prompt"`
	Seed   int64  `json:"seed"`
}

type recentArgs struct {
	Limit int `json:"limit"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"arena_compare":     handleCompare,
	"arena_stats":       handleStats,
	"arena_recent":      handleRecent,
	"arena_budget":      handleBudget,
	"arena_cache_stats": handleCacheStats,
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "arena_compare",
		Description: "Generate the same image with gemini, imagen and ultra and compare the results.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"prompt"},
			"properties": map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"description": "The generation prompt",
				},
				"seed": map[string]any{
					"type":        "integer",
					"description": "Generation seed (optional, defaults to 0)",
				},
			},
		},
	},
	{
		Name:        "arena_stats",
		Description: "Show aggregated per-model statistics: comparisons, wins, average quality and latency.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "arena_recent",
		Description: "List recent comparisons with their winning model.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of comparisons to return (optional, defaults to 20)",
				},
			},
		},
	},
	{
		Name:        "arena_budget",
		Description: "Show budget status (usage vs limits) for all configured policies.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "arena_cache_stats",
		Description: "Show comparison cache statistics (entries, hits, misses, hit rate).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func handleCompare(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args compareArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if args.Prompt == "" {
		return errorResult("prompt is required")
	}

	start := time.Now()
	result, cached, err := s.agg.Compare(ctx, args.Prompt, args.Seed, nil)
	if err != nil {
		return errorResult("Comparison failed: " + err.Error())
	}
	duration := time.Since(start)

	best := compare.BestModel(result)
	if !cached {
		key := models.ComparisonKey{Prompt: args.Prompt, Seed: args.Seed}
		_ = s.history.Record(ctx, history.NewRecord(key, result, best, duration))
	}

	return textResult(formatComparison(result, best, duration))
}

func handleStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	summaries, err := s.history.Summary(ctx)
	if err != nil {
		return errorResult("Error fetching stats: " + err.Error())
	}
	return textResult(formatSummary(summaries))
}

func handleRecent(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args recentArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	records, err := s.history.Recent(ctx, args.Limit)
	if err != nil {
		return errorResult("Error fetching recent comparisons: " + err.Error())
	}
	return textResult(formatRecent(records))
}

func handleBudget(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.enforcer == nil {
		return textResult("Budget enforcement is not configured.")
	}
	statuses, err := s.enforcer.Status(ctx)
	if err != nil {
		return errorResult("Error fetching budget status: " + err.Error())
	}
	return textResult(formatBudgetStatus(statuses))
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Cache is not configured.")
	}
	stats, err := s.cache.Stats()
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}
