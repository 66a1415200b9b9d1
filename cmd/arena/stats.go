package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/history"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-model comparison statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			hist, err := history.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = hist.Close() }()

			ctx := context.Background()

			// Recent comparison view
			if recent > 0 {
				records, err := hist.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No comparisons found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tBEST\tSEED\tDURATION\tPROMPT")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%d\t%dms\t%s\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Best, r.Seed, r.DurationMs, r.Prompt)
				}
				return w.Flush()
			}

			// Default: per-model summary
			summaries, err := hist.Summary(ctx)
			if err != nil {
				return err
			}

			if len(summaries) == 0 {
				fmt.Println("No comparison data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tCOMPARISONS\tWINS\tAVG QUALITY\tAVG TIME\tTOKENS")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.2f\t%d\n",
					s.Model, s.Comparisons, s.Wins, s.AvgQuality, s.AvgTime, s.TotalTokens)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent comparisons instead")
	return cmd
}
