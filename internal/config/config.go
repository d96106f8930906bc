package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Strategy holds the numeric constants of the lending loop. It is treated as
// immutable once a run starts; the planner receives it by value.
type Strategy struct {
	MinProfit         float64 `yaml:"min_profit"`
	MarginFloor       float64 `yaml:"margin_floor"`
	RepaymentFloor    float64 `yaml:"repayment_floor"`
	MaxRelaxAttempts  int     `yaml:"max_relax_attempts"`
	HealthFactor      float64 `yaml:"health_factor"`
	MinHealthRatio    float64 `yaml:"min_health_ratio"`
	FreeCollateral    float64 `yaml:"free_collateral_factor"`
	PlatformFeeRate   float64 `yaml:"platform_fee_rate"`
	ReinvestFar       float64 `yaml:"reinvest_far"`
	ReinvestMid       float64 `yaml:"reinvest_mid"`
	ReinvestNear      float64 `yaml:"reinvest_near"`
	ReinvestStagnant  float64 `yaml:"reinvest_stagnant"`
	ReinvestSluggish  float64 `yaml:"reinvest_sluggish"`
	MarginNormal      float64 `yaml:"margin_normal"`
	MarginAggressive  float64 `yaml:"margin_aggressive"`
	RepaymentNormal   float64 `yaml:"repayment_normal"`
	RepaymentModerate float64 `yaml:"repayment_moderate"`
	RepaymentCautious float64 `yaml:"repayment_cautious"`
	ProgressEpsilon   float64 `yaml:"progress_epsilon"`
	BorrowSupplyLimit float64 `yaml:"borrow_supply_limit"`
	GrowthLimit       float64 `yaml:"growth_limit"` // 0 disables the warning
	WalletUsageLimit  float64 `yaml:"wallet_usage_limit"`
	MaxOperations     int     `yaml:"max_operations"`
}

// Config holds all application configuration.
type Config struct {
	Strategy Strategy `yaml:"strategy"`
	Scenario struct {
		InitialSupply float64 `yaml:"initial_supply"`
		InitialDebt   float64 `yaml:"initial_debt"`
		TargetSupply  float64 `yaml:"target_supply"`
		WalletBalance float64 `yaml:"wallet_balance"`
		File          string  `yaml:"file"`
	} `yaml:"scenario"`
	Output struct {
		SQLitePath     string `yaml:"sqlite_path"`
		TranscriptPath string `yaml:"transcript_path"`
	} `yaml:"output"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RunCron string `yaml:"run_cron"`
	} `yaml:"schedule"`
	Daemon bool   `yaml:"daemon"`
	Proxy  string `yaml:"proxy"`
}

// DefaultStrategy returns the reference constants of the strategy.
func DefaultStrategy() Strategy {
	return Strategy{
		MinProfit:         1e-6,
		MarginFloor:       0.50,
		RepaymentFloor:    0.03,
		MaxRelaxAttempts:  50,
		HealthFactor:      0.74,
		MinHealthRatio:    1.01,
		FreeCollateral:    0.80,
		PlatformFeeRate:   0.0025,
		ReinvestFar:       0.60,
		ReinvestMid:       0.40,
		ReinvestNear:      0.20,
		ReinvestStagnant:  0.05,
		ReinvestSluggish:  0.10,
		MarginNormal:      0.69,
		MarginAggressive:  0.73,
		RepaymentNormal:   0.11,
		RepaymentModerate: 0.07,
		RepaymentCautious: 0.035,
		ProgressEpsilon:   3e-5,
		BorrowSupplyLimit: 0.95,
		GrowthLimit:       0,
		WalletUsageLimit:  1.00,
		MaxOperations:     10000,
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error: defaults apply.
// Strategy defaults are seeded before parsing so that a key present in the
// file always wins, including explicit zeros (e.g. platform_fee_rate: 0).
func Load(path string) (*Config, error) {
	cfg := &Config{Strategy: DefaultStrategy()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Output.SQLitePath = v
	}
	if v := os.Getenv("TRANSCRIPT_PATH"); v != "" {
		cfg.Output.TranscriptPath = v
	}
	if v := os.Getenv("SCENARIO_FILE"); v != "" {
		cfg.Scenario.File = v
	}
	if v := os.Getenv("RUN_CRON"); v != "" {
		cfg.Schedule.RunCron = v
	}
	if os.Getenv("DAEMON") == "true" {
		cfg.Daemon = true
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	// A scenario left entirely unset stays zero; callers fall back to the
	// built-in scenarios. Only the target is derived when a supply is given.
	if cfg.Scenario.InitialSupply > 0 && cfg.Scenario.TargetSupply == 0 {
		cfg.Scenario.TargetSupply = cfg.Scenario.InitialSupply * 1.5
	}
	if cfg.Output.TranscriptPath == "" {
		cfg.Output.TranscriptPath = "data/operations.txt"
	}
	if cfg.Schedule.RunCron == "" {
		cfg.Schedule.RunCron = "0 0 8 * * *"
	}
}

// Validate checks that the strategy constants are in their stated ranges.
func (c *Config) Validate() error {
	s := c.Strategy
	if s.HealthFactor <= 0 || s.HealthFactor > 1 {
		return fmt.Errorf("strategy.health_factor must be in (0, 1], got %v", s.HealthFactor)
	}
	if s.MinHealthRatio < 1 {
		return fmt.Errorf("strategy.min_health_ratio must be >= 1, got %v", s.MinHealthRatio)
	}
	if s.PlatformFeeRate < 0 || s.PlatformFeeRate >= 1 {
		return fmt.Errorf("strategy.platform_fee_rate must be in [0, 1), got %v", s.PlatformFeeRate)
	}
	if s.MarginFloor <= 0 || s.MarginFloor > s.MarginNormal {
		return fmt.Errorf("strategy.margin_floor must be in (0, %v], got %v", s.MarginNormal, s.MarginFloor)
	}
	if s.MarginNormal > s.MarginAggressive {
		return fmt.Errorf("strategy.margin_normal (%v) must not exceed margin_aggressive (%v)", s.MarginNormal, s.MarginAggressive)
	}
	if s.RepaymentFloor <= 0 || s.RepaymentFloor > s.RepaymentNormal {
		return fmt.Errorf("strategy.repayment_floor must be in (0, %v], got %v", s.RepaymentNormal, s.RepaymentFloor)
	}
	if s.WalletUsageLimit <= 0 || s.WalletUsageLimit > 1 {
		return fmt.Errorf("strategy.wallet_usage_limit must be in (0, 1], got %v", s.WalletUsageLimit)
	}
	if s.MaxRelaxAttempts <= 0 {
		return fmt.Errorf("strategy.max_relax_attempts must be positive, got %d", s.MaxRelaxAttempts)
	}
	if s.MaxOperations <= 0 {
		return fmt.Errorf("strategy.max_operations must be positive, got %d", s.MaxOperations)
	}
	if c.Daemon && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required in daemon mode")
	}
	if c.Daemon && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required in daemon mode")
	}
	return nil
}
