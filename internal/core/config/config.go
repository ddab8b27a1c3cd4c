// Package config handles configuration loading and validation for daycoach.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jmorrell/daycoach/internal/core/plan"
)

// Config holds the application configuration.
type Config struct {
	CatalogDir  string         `yaml:"catalog_dir"`
	PromptsDir  string         `yaml:"prompts_dir"`
	AvatarsFile string         `yaml:"avatars_file"`
	LogLevel    string         `yaml:"log_level"`
	Database    DatabaseConfig `yaml:"database"`
	AI          AIConfig       `yaml:"ai"`
	Planner     PlannerConfig  `yaml:"planner"`
	DataDir     string         `yaml:"-"` // set by caller, not from config file
}

// DatabaseConfig tunes the sqlite connection pool.
type DatabaseConfig struct {
	MaxOpenConns  int `yaml:"max_open_conns"`
	MaxIdleConns  int `yaml:"max_idle_conns"`
	BusyTimeoutMS int `yaml:"busy_timeout_ms"`
}

// AIConfig configures the generative capability.
type AIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"api_key"` // falls back to ANTHROPIC_API_KEY
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// Retries is a pointer so an explicit 0 (single attempt) is
	// distinguishable from unset (default 2).
	Retries *int `yaml:"retries"`
}

// PlannerConfig shapes daily selection.
type PlannerConfig struct {
	HistoryWindowDays      int            `yaml:"history_window_days"`
	DailyTimeBudgetMinutes int            `yaml:"daily_time_budget_minutes"`
	PerGroupQuotas         map[string]int `yaml:"per_group_quotas"`
	AntiRepetitionDays     int            `yaml:"anti_repetition_days"`
	Timezone               string         `yaml:"timezone"`
	MaxItemsTotal          int            `yaml:"max_items_total"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	policy := plan.DefaultPolicy()
	retries := 2
	return Config{
		LogLevel: "warn",
		Database: DatabaseConfig{
			MaxOpenConns:  10,
			MaxIdleConns:  5,
			BusyTimeoutMS: 5000,
		},
		AI: AIConfig{
			Enabled:   true,
			MaxTokens: 4096,
			Retries:   &retries,
		},
		Planner: PlannerConfig{
			HistoryWindowDays:      policy.HistoryWindowDays,
			DailyTimeBudgetMinutes: policy.DailyTimeBudgetMinutes,
			AntiRepetitionDays:     policy.AntiRepetitionDays,
			Timezone:               policy.Timezone,
			MaxItemsTotal:          policy.MaxItemsTotal,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.CatalogDir == "" && c.DataDir != "" {
		c.CatalogDir = filepath.Join(c.DataDir, "catalog")
	}
	if c.PromptsDir == "" && c.DataDir != "" {
		c.PromptsDir = filepath.Join(c.DataDir, "prompts")
	}
	if c.AvatarsFile == "" && c.DataDir != "" {
		c.AvatarsFile = filepath.Join(c.DataDir, "avatars.yaml")
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeoutMS == 0 {
		c.Database.BusyTimeoutMS = defaults.Database.BusyTimeoutMS
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = defaults.AI.MaxTokens
	}
	if c.AI.Retries == nil {
		c.AI.Retries = defaults.AI.Retries
	}
	if c.Planner.HistoryWindowDays == 0 {
		c.Planner.HistoryWindowDays = defaults.Planner.HistoryWindowDays
	}
	if c.Planner.DailyTimeBudgetMinutes == 0 {
		c.Planner.DailyTimeBudgetMinutes = defaults.Planner.DailyTimeBudgetMinutes
	}
	if c.Planner.AntiRepetitionDays == 0 {
		c.Planner.AntiRepetitionDays = defaults.Planner.AntiRepetitionDays
	}
	if c.Planner.Timezone == "" {
		c.Planner.Timezone = defaults.Planner.Timezone
	}
	if c.Planner.MaxItemsTotal == 0 {
		c.Planner.MaxItemsTotal = defaults.Planner.MaxItemsTotal
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.AI.Retries != nil && *c.AI.Retries < 0 {
		return fmt.Errorf("ai.retries cannot be negative")
	}

	if c.Planner.HistoryWindowDays < 1 {
		return fmt.Errorf("planner.history_window_days must be at least 1")
	}

	if c.Planner.DailyTimeBudgetMinutes < 1 {
		return fmt.Errorf("planner.daily_time_budget_minutes must be at least 1")
	}

	if c.Planner.AntiRepetitionDays < 0 {
		return fmt.Errorf("planner.anti_repetition_days cannot be negative")
	}

	if c.Planner.MaxItemsTotal < 1 {
		return fmt.Errorf("planner.max_items_total must be at least 1")
	}

	for group, quota := range c.Planner.PerGroupQuotas {
		if quota < 0 {
			return fmt.Errorf("planner.per_group_quotas[%q] cannot be negative", group)
		}
	}

	return nil
}

// Policy builds the selection policy from the planner settings.
func (c *Config) Policy() plan.Policy {
	return plan.Policy{
		UseGenerative:          c.AI.Enabled,
		HistoryWindowDays:      c.Planner.HistoryWindowDays,
		DailyTimeBudgetMinutes: c.Planner.DailyTimeBudgetMinutes,
		PerGroupQuotas:         c.Planner.PerGroupQuotas,
		AntiRepetitionDays:     c.Planner.AntiRepetitionDays,
		Timezone:               c.Planner.Timezone,
		MaxItemsTotal:          c.Planner.MaxItemsTotal,
	}
}

// DatabaseDir returns the directory holding the sqlite database.
func (c *Config) DatabaseDir() string {
	return c.DataDir
}
