package config

import (
	"fmt"
	"os"
	"time"

	"github.com/arena-ai/arena/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all Arena configuration.
type Config struct {
	Listen         string          `yaml:"listen"`
	DBPath         string          `yaml:"db_path"`
	BaseURL        string          `yaml:"base_url"`
	AuthToken      string          `yaml:"auth_token"`
	Timeout        time.Duration   `yaml:"timeout"`
	Backends       []BackendConfig `yaml:"backends"`
	Cache          CacheConfig     `yaml:"cache"`
	Budget         BudgetConfig    `yaml:"budget"`
	Audit          models.AuditConfig `yaml:"audit"`
	DedupeInFlight bool            `yaml:"dedupe_in_flight"`
}

// BackendConfig overrides the endpoint for a single model. URL and auth token
// fall back to the top-level base_url/auth_token when empty.
type BackendConfig struct {
	Model     models.ModelID `yaml:"model"`
	URL       string         `yaml:"url"`
	AuthToken string         `yaml:"auth_token"`
}

// CacheConfig controls the comparison cache.
// Backend is "memory" (default) or "sqlite". A zero TTL means entries live
// until cleared.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	DBPath  string        `yaml:"db_path"`
}

// BudgetConfig controls budget enforcement.
type BudgetConfig struct {
	Enabled  bool                  `yaml:"enabled"`
	Policies []models.BudgetPolicy `yaml:"policies"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:  ":8080",
		DBPath:  "arena.db",
		Timeout: 30 * time.Second,
		Cache: CacheConfig{
			Backend: "memory",
		},
		Budget: BudgetConfig{
			Enabled: false,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
