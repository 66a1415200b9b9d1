package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/arena-ai/arena/pkg/budget"
	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/history"
	"github.com/spf13/cobra"
)

func newBudgetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage comparison budgets and policies",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show budget usage vs limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if !cfg.Budget.Enabled {
				fmt.Println("Budget enforcement is disabled.")
				return nil
			}

			hist, err := history.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = hist.Close() }()

			enforcer := budget.New(cfg.Budget.Policies, hist)

			statuses, err := enforcer.Status(context.Background())
			if err != nil {
				return err
			}

			if len(statuses) == 0 {
				fmt.Println("No budget policies found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PERIOD\tMAX TOKENS\tUSED\tMAX COMPARISONS\tUSED")
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n",
					s.Policy.Period,
					formatLimit(s.Policy.MaxTokens), s.UsedTokens,
					formatLimit(s.Policy.MaxComparisons), s.UsedComparisons)
			}
			return w.Flush()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	cmd.AddCommand(statusCmd)
	return cmd
}

func formatLimit(limit int64) string {
	if limit <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", limit)
}
