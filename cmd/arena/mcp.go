package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arena-ai/arena/pkg/budget"
	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/history"
	"github.com/arena-ai/arena/pkg/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start Arena as an MCP server on stdio",
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

			var enforcer *budget.Enforcer
			if cfg.Budget.Enabled {
				enforcer = budget.New(cfg.Budget.Policies, hist)
				agg.SetDispatchGate(enforcer.Check)
			}

			srv := mcp.New(agg, hist, cache, enforcer, version)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	return cmd
}
