package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/arena-ai/arena/pkg/budget"
	"github.com/arena-ai/arena/pkg/compare"
	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/history"
	"github.com/arena-ai/arena/pkg/models"
	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	var (
		configPath string
		seed       int64
		timeout    time.Duration
		progress   bool
		noRecord   bool
	)

	cmd := &cobra.Command{
		Use:   "compare <prompt>",
		Short: "Generate the same image with all backends and compare",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()

			agg := buildAggregator(cfg, cache)
			if timeout > 0 {
				agg.SetTimeout(timeout)
			}

			var hist history.Store
			if cfg.Budget.Enabled || !noRecord {
				hist, err = history.New(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("init history: %w", err)
				}
				defer func() { _ = hist.Close() }()
			}
			if cfg.Budget.Enabled {
				agg.SetDispatchGate(budget.New(cfg.Budget.Policies, hist).Check)
			}

			// Ctrl-C aborts the in-flight batch.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var onProgress func(models.ProgressEvent)
			if progress {
				onProgress = func(ev models.ProgressEvent) {
					names := make([]string, len(ev.Completed))
					for i, id := range ev.Completed {
						names[i] = string(id)
					}
					fmt.Fprintf(os.Stderr, "%.0f%% [%s]\n", ev.Percentage, strings.Join(names, ", "))
				}
			}

			start := time.Now()
			result, cached, err := agg.Compare(ctx, prompt, seed, onProgress)
			if err != nil {
				return err
			}
			duration := time.Since(start)
			best := compare.BestModel(result)

			if !noRecord && !cached {
				key := models.ComparisonKey{Prompt: prompt, Seed: seed}
				_ = hist.Record(ctx, history.NewRecord(key, result, best, duration))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tQUALITY\tTIME\tTOKENS\tVERSION\tIMAGE")
			for _, id := range models.AllModels {
				r := result[id]
				marker := ""
				if id == best {
					marker = " *"
				}
				fmt.Fprintf(w, "%s%s\t%.2f\t%.2f\t%d\t%s\t%s\n",
					id, marker, r.Quality, r.Time, r.Tokens, r.ModelVersion, r.ImageURL)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\nBest: %s (%dms)\n", best, duration.Milliseconds())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "generation seed")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-backend timeout override")
	cmd.Flags().BoolVar(&progress, "progress", false, "print progress as backends complete")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not record the comparison in history")
	return cmd
}
