package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmorrell/daycoach/internal/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()

	cfg, err := config.Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "catalog"), cfg.CatalogDir)
	assert.Equal(t, filepath.Join(dataDir, "prompts"), cfg.PromptsDir)
	assert.Equal(t, 14, cfg.Planner.HistoryWindowDays)
	assert.Equal(t, "UTC", cfg.Planner.Timezone)
	assert.True(t, cfg.AI.Enabled)
	require.NotNil(t, cfg.AI.Retries)
	assert.Equal(t, 2, *cfg.AI.Retries)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
catalog_dir: /srv/catalog
ai:
  enabled: false
  model: claude-3-5-haiku-latest
planner:
  history_window_days: 30
  timezone: America/Chicago
  per_group_quotas:
    fundamentals: 2
`), 0o644))

	cfg, err := config.Load(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, "/srv/catalog", cfg.CatalogDir)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, 30, cfg.Planner.HistoryWindowDays)
	assert.Equal(t, "America/Chicago", cfg.Planner.Timezone)
	assert.Equal(t, 2, cfg.Planner.PerGroupQuotas["fundamentals"])
	// untouched settings keep defaults
	assert.Equal(t, 120, cfg.Planner.DailyTimeBudgetMinutes)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMS)
}

func TestLoad_ExplicitZeroRetries(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
ai:
  retries: 0
`), 0o644))

	cfg, err := config.Load(configPath, t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, cfg.AI.Retries)
	assert.Equal(t, 0, *cfg.AI.Retries)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("/nonexistent/config.yaml", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Planner.HistoryWindowDays)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("planner: [not a map"), 0o644))

	_, err := config.Load(configPath, t.TempDir())
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*config.Config) {},
		},
		{
			name:    "empty data dir",
			mutate:  func(c *config.Config) { c.DataDir = "" },
			wantErr: "data directory",
		},
		{
			name:    "zero history window",
			mutate:  func(c *config.Config) { c.Planner.HistoryWindowDays = -1 },
			wantErr: "history_window_days",
		},
		{
			name:    "negative quota",
			mutate:  func(c *config.Config) { c.Planner.PerGroupQuotas = map[string]int{"x": -1} },
			wantErr: "per_group_quotas",
		},
		{
			name: "negative retries",
			mutate: func(c *config.Config) {
				neg := -1
				c.AI.Retries = &neg
			},
			wantErr: "ai.retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.DataDir = "/tmp/daycoach-test"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDeep(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dataDir, "catalog"), 0o755))

	cfg, err := config.Load("", dataDir)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateDeep(""))

	cfg.Planner.Timezone = "Mars/Olympus"
	err = cfg.ValidateDeep("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")

	cfg.Planner.Timezone = "UTC"
	cfg.CatalogDir = filepath.Join(dataDir, "missing")
	err = cfg.ValidateDeep("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog_dir")
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.AI.Enabled = false
	cfg.Planner.HistoryWindowDays = 21

	policy := cfg.Policy()
	assert.False(t, policy.UseGenerative)
	assert.Equal(t, 21, policy.HistoryWindowDays)
	assert.Equal(t, "UTC", policy.Timezone)
}
