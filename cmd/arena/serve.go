package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/arena-ai/arena/pkg/audit"
	"github.com/arena-ai/arena/pkg/budget"
	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/history"
	"github.com/arena-ai/arena/pkg/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the comparison HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			hist, err := history.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init history: %w", err)
			}
			defer func() { _ = hist.Close() }()

			cache, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = cache.Close() }()

			agg := buildAggregator(cfg, cache)

			if cfg.Audit.Enabled {
				auditor, err := audit.New(cfg.Audit)
				if err != nil {
					return fmt.Errorf("init audit: %w", err)
				}
				defer func() { _ = auditor.Close() }()
				agg.SetAuditor(auditor)
			}

			var enforcer *budget.Enforcer
			if cfg.Budget.Enabled {
				enforcer = budget.New(cfg.Budget.Policies, hist)
			}

			srv := server.New(cfg, agg, hist, cache, enforcer)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Printf("starting arena server with config: %s", configPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	return cmd
}
