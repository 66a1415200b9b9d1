package main

import (
	"fmt"
	"os"

	"github.com/arena-ai/arena/pkg/backends"
	"github.com/arena-ai/arena/pkg/cache/memory"
	cachepkg "github.com/arena-ai/arena/pkg/cache/sqlite"
	"github.com/arena-ai/arena/pkg/compare"
	"github.com/arena-ai/arena/pkg/config"
	"github.com/arena-ai/arena/pkg/models"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "arena",
		Short:   "Arena — side-by-side image model comparison",
		Version: version,
	}

	root.AddCommand(
		newCompareCmd(),
		newServeCmd(),
		newStatsCmd(),
		newCacheCmd(),
		newBudgetCmd(),
		newAuditCmd(),
		newMCPCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cacheStore is the full cache surface the commands need. Both the memory
// and sqlite stores satisfy it.
type cacheStore interface {
	Get(key models.ComparisonKey) (models.ComparisonResult, bool)
	Put(key models.ComparisonKey, result models.ComparisonResult) error
	Clear() error
	Stats() (models.CacheStats, error)
	Close() error
}

// openCache creates the comparison cache configured in cfg.
func openCache(cfg *config.Config) (cacheStore, error) {
	if cfg.Cache.Backend == "sqlite" {
		path := cfg.Cache.DBPath
		if path == "" {
			path = cfg.DBPath
		}
		c, err := cachepkg.New(path, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		return c, nil
	}
	return memory.New(cfg.Cache.TTL), nil
}

// buildAggregator wires a comparison aggregator from config.
func buildAggregator(cfg *config.Config, cache cacheStore) *compare.Aggregator {
	resolver := backends.New(cfg.BaseURL, cfg.AuthToken, cfg.Backends)
	agg := compare.New(resolver, cache, cfg.Timeout)
	agg.SetDedupeInFlight(cfg.DedupeInFlight)
	return agg
}
