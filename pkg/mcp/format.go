package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/arena-ai/arena/pkg/models"
)

// formatComparison formats a single comparison as a text table, marking the winner.
func formatComparison(result models.ComparisonResult, best models.ModelID, duration time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %8s %8s %8s  %s\n",
		"Model", "Quality", "Time", "Tokens", "Image")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for _, id := range models.AllModels {
		r := result[id]
		marker := "  "
		if id == best {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%-8s %8.2f %8.2f %8d  %s\n",
			marker, id, r.Quality, r.Time, r.Tokens, r.ImageURL)
	}
	fmt.Fprintf(&b, "\nBest: %s (completed in %dms)\n", best, duration.Milliseconds())
	return b.String()
}

// formatSummary formats per-model summaries as a text table.
func formatSummary(rows []models.ModelSummary) string {
	if len(rows) == 0 {
		return "No comparison data found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %12s %6s %12s %10s %12s\n",
		"Model", "Comparisons", "Wins", "Avg Quality", "Avg Time", "Tokens")
	b.WriteString(strings.Repeat("-", 68) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-10s %12d %6d %12.2f %10.2f %12d\n",
			r.Model, r.Comparisons, r.Wins, r.AvgQuality, r.AvgTime, r.TotalTokens)
	}
	return b.String()
}

// formatRecent formats recent comparisons as a text table.
func formatRecent(records []models.ComparisonRecord) string {
	if len(records) == 0 {
		return "No comparisons found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-10s %10s %8s  %s\n",
		"Time", "Best", "Seed", "Duration", "Prompt")
	b.WriteString(strings.Repeat("-", 90) + "\n")
	for _, r := range records {
		prompt := r.Prompt
		if len(prompt) > 36 {
			prompt = prompt[:33] + "..."
		}
		fmt.Fprintf(&b, "%-20s %-10s %10d %6dms  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Best, r.Seed, r.DurationMs, prompt)
	}
	return b.String()
}

// formatBudgetStatus formats budget statuses as a text table.
func formatBudgetStatus(statuses []models.BudgetStatus) string {
	if len(statuses) == 0 {
		return "No budget policies found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %12s %12s %14s %14s\n",
		"Period", "Max Tokens", "Used", "Max Compares", "Used")
	b.WriteString(strings.Repeat("-", 64) + "\n")
	for _, s := range statuses {
		fmt.Fprintf(&b, "%-8s %12s %12d %14s %14d\n",
			s.Policy.Period,
			formatLimit(s.Policy.MaxTokens), s.UsedTokens,
			formatLimit(s.Policy.MaxComparisons), s.UsedComparisons)
	}
	return b.String()
}

func formatLimit(limit int64) string {
	if limit <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", limit)
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:  %d\n"+
		"  Hits:     %d\n"+
		"  Misses:   %d\n"+
		"  Hit Rate: %.1f%%\n",
		stats.Entries, stats.Hits, stats.Misses, hitRate)
}
