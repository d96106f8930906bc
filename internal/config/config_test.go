package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultStrategy(), cfg.Strategy)
	// No scenario is defaulted here; callers fall back to the built-ins.
	assert.Zero(t, cfg.Scenario.InitialSupply)
	assert.Zero(t, cfg.Scenario.TargetSupply)
	assert.Equal(t, "data/operations.txt", cfg.Output.TranscriptPath)
	assert.Equal(t, "0 0 8 * * *", cfg.Schedule.RunCron)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
strategy:
  margin_normal: 0.65
  max_operations: 500
scenario:
  initial_supply: 250
  target_supply: 800
output:
  sqlite_path: data/history.db
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.65, cfg.Strategy.MarginNormal)
	assert.Equal(t, 500, cfg.Strategy.MaxOperations)
	// Untouched fields still get defaults.
	assert.Equal(t, 0.74, cfg.Strategy.HealthFactor)
	assert.Equal(t, 250.0, cfg.Scenario.InitialSupply)
	assert.Equal(t, 800.0, cfg.Scenario.TargetSupply)
	assert.Equal(t, "data/history.db", cfg.Output.SQLitePath)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitZeroSurvives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
strategy:
  platform_fee_rate: 0
  growth_limit: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// An explicit zero in the file is a valid setting, not "unset": the fee
	// rate's range is [0, 1) and zero disables the growth warning.
	assert.Zero(t, cfg.Strategy.PlatformFeeRate)
	assert.Zero(t, cfg.Strategy.GrowthLimit)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token-from-env")
	t.Setenv("TELEGRAM_CHAT_ID", "123456")
	t.Setenv("SQLITE_PATH", "/tmp/env.db")
	t.Setenv("RUN_CRON", "0 */5 * * * *")
	t.Setenv("DAEMON", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "token-from-env", cfg.Telegram.BotToken)
	assert.Equal(t, "123456", cfg.Telegram.ChatID)
	assert.Equal(t, "/tmp/env.db", cfg.Output.SQLitePath)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.RunCron)
	assert.True(t, cfg.Daemon)
}

func TestValidate_RejectsOutOfRangeStrategy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"health factor above 1", func(c *Config) { c.Strategy.HealthFactor = 1.5 }},
		{"min health below 1", func(c *Config) { c.Strategy.MinHealthRatio = 0.5 }},
		{"fee rate of 1", func(c *Config) { c.Strategy.PlatformFeeRate = 1 }},
		{"margin floor above normal", func(c *Config) { c.Strategy.MarginFloor = 0.80 }},
		{"normal margin above aggressive", func(c *Config) { c.Strategy.MarginNormal = 0.75 }},
		{"repayment floor above normal", func(c *Config) { c.Strategy.RepaymentFloor = 0.20 }},
		{"wallet usage above 1", func(c *Config) { c.Strategy.WalletUsageLimit = 1.2 }},
		{"negative relax attempts", func(c *Config) { c.Strategy.MaxRelaxAttempts = -1 }},
		{"daemon without token", func(c *Config) { c.Daemon = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Strategy: DefaultStrategy()}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
