package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arena-ai/arena/pkg/audit"
	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/models"
	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the backend call audit log",
	}

	cmd.AddCommand(newAuditSearchCmd())
	return cmd
}

func newAuditSearchCmd() *cobra.Command {
	var (
		configPath string
		model      string
		since      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cfg.Audit.Enabled {
				fmt.Println("Audit logging is disabled.")
				return nil
			}

			l, err := audit.New(cfg.Audit)
			if err != nil {
				return fmt.Errorf("open audit db: %w", err)
			}
			defer func() { _ = l.Close() }()

			opts := models.AuditQueryOpts{
				Model: models.ModelID(model),
				Limit: limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			entries, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatAuditEntries(entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	cmd.Flags().StringVar(&model, "model", "", "filter by model")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max entries to return")

	return cmd
}

func formatAuditEntries(entries []models.AuditEntry) string {
	if len(entries) == 0 {
		return "No audit entries found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %6s %8s %10s %-20s %s\n",
		"MODEL", "STATUS", "LATENCY", "SEED", "TIME", "ERROR")
	b.WriteString(strings.Repeat("-", 90) + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-10s %6d %6dms %10d %-20s %s\n",
			e.Model, e.StatusCode, e.LatencyMs, e.Seed,
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Error)
	}
	return b.String()
}
