package main

import (
	"fmt"

	"github.com/arena-ai/arena/pkg/config"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the comparison cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openPersistentCache(configPath)
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Println("Persistent cache is not configured (cache.backend: sqlite).")
				return nil
			}
			defer cleanup()

			stats, err := c.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached comparisons",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openPersistentCache(configPath)
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Println("Persistent cache is not configured (cache.backend: sqlite).")
				return nil
			}
			defer cleanup()

			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "arena.yaml", "path to config file")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

// openPersistentCache opens the sqlite cache when configured. It returns a
// nil store for the in-memory backend, which has no state between runs.
func openPersistentCache(configPath string) (cacheStore, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Cache.Backend != "sqlite" {
		return nil, nil, nil
	}
	c, err := openCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}
