// Package config loads and validates backtest configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sologrid/engine"
	"sologrid/sweep"
)

// Config represents the complete backtest configuration.
type Config struct {
	Trading      TradingConfig      `json:"trading" yaml:"trading"`
	GridStrategy GridStrategyConfig `json:"grid_strategy" yaml:"grid_strategy"`
	Risk         RiskConfig         `json:"risk_management" yaml:"risk_management"`
	Optimization OptimizationConfig `json:"optimization" yaml:"optimization"`
	Journal      JournalConfig      `json:"journal" yaml:"journal"`
}

// TradingConfig contains capital and fee parameters. The fee fields are
// pointers so a missing key can be told apart from a legitimate zero fee.
type TradingConfig struct {
	InitialCapital float64  `json:"initial_capital" yaml:"initial_capital"`
	Leverage       float64  `json:"leverage" yaml:"leverage"`
	TradingFee     *float64 `json:"trading_fee" yaml:"trading_fee"`
	MakerFee       *float64 `json:"maker_fee" yaml:"maker_fee"`
}

// GridStrategyConfig contains grid geometry parameters.
type GridStrategyConfig struct {
	GridSize        int     `json:"grid_size" yaml:"grid_size"`
	GridRatio       float64 `json:"grid_ratio" yaml:"grid_ratio"`
	MaxPositionSize float64 `json:"max_position_size" yaml:"max_position_size"`
	MaxPositions    int     `json:"max_simultaneous_positions,omitempty" yaml:"max_simultaneous_positions,omitempty"`
	MinGridDistance float64 `json:"min_grid_distance,omitempty" yaml:"min_grid_distance,omitempty"`
}

// RiskConfig contains liquidation and drawdown parameters.
type RiskConfig struct {
	MaintenanceMargin    float64 `json:"maintenance_margin,omitempty" yaml:"maintenance_margin,omitempty"`
	SafetyBuffer         float64 `json:"safety_buffer,omitempty" yaml:"safety_buffer,omitempty"`
	MaxPortfolioDrawdown float64 `json:"max_portfolio_drawdown,omitempty" yaml:"max_portfolio_drawdown,omitempty"`
	AdaptiveLeverage     bool    `json:"adaptive_leverage,omitempty" yaml:"adaptive_leverage,omitempty"`
	VolatilityLookback   int     `json:"volatility_lookback,omitempty" yaml:"volatility_lookback,omitempty"`
}

// OptimizationConfig bounds parameter sweeps.
type OptimizationConfig struct {
	Preset          string      `json:"preset,omitempty" yaml:"preset,omitempty"` // quick, medium, extensive
	MaxCombinations int         `json:"max_combinations,omitempty" yaml:"max_combinations,omitempty"`
	Seed            int64       `json:"seed,omitempty" yaml:"seed,omitempty"`
	Workers         int         `json:"workers,omitempty" yaml:"workers,omitempty"`
	Space           sweep.Space `json:"space,omitempty" yaml:"space,omitempty"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type          string `json:"type,omitempty" yaml:"type,omitempty"` // "csv" or "sqlite"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
	SweepFile     string `json:"sweep_file,omitempty" yaml:"sweep_file,omitempty"`
}

// Default returns a runnable configuration with conservative settings.
func Default() *Config {
	tradingFee := 0.0006
	makerFee := 0.0002
	return &Config{
		Trading: TradingConfig{
			InitialCapital: 1000,
			Leverage:       2,
			TradingFee:     &tradingFee,
			MakerFee:       &makerFee,
		},
		GridStrategy: GridStrategyConfig{
			GridSize:        5,
			GridRatio:       0.02,
			MaxPositionSize: 0.2,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "sologrid.db",
		},
	}
}

// LoadFromFile reads a YAML or JSON configuration and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration; YAML for .yaml/.yml, JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate rejects missing or out-of-range values before any run starts.
func (c *Config) Validate() error {
	if c.Trading.InitialCapital <= 0 {
		return fmt.Errorf("trading.initial_capital must be positive")
	}
	if c.Trading.Leverage <= 0 {
		return fmt.Errorf("trading.leverage must be positive")
	}
	if c.Trading.TradingFee == nil {
		return fmt.Errorf("trading.trading_fee is required")
	}
	if c.Trading.MakerFee == nil {
		return fmt.Errorf("trading.maker_fee is required")
	}
	if *c.Trading.TradingFee < 0 || *c.Trading.MakerFee < 0 {
		return fmt.Errorf("trading fees cannot be negative")
	}
	if c.GridStrategy.GridSize < 1 {
		return fmt.Errorf("grid_strategy.grid_size must be at least 1")
	}
	if c.GridStrategy.GridRatio <= 0 || c.GridStrategy.GridRatio >= 1 {
		return fmt.Errorf("grid_strategy.grid_ratio must be in (0, 1)")
	}
	if c.GridStrategy.MaxPositionSize <= 0 || c.GridStrategy.MaxPositionSize > 1 {
		return fmt.Errorf("grid_strategy.max_position_size must be in (0, 1]")
	}
	if p := c.Optimization.Preset; p != "" && p != "quick" && p != "medium" && p != "extensive" {
		return fmt.Errorf("optimization.preset must be quick, medium or extensive, got %q", p)
	}
	if t := c.Journal.Type; t != "" && t != "csv" && t != "sqlite" {
		return fmt.Errorf("journal.type must be csv or sqlite, got %q", t)
	}
	return nil
}

// ToEngine maps the file configuration onto engine parameters.
func (c *Config) ToEngine() engine.Config {
	return engine.Config{
		Leverage:                 c.Trading.Leverage,
		GridSize:                 c.GridStrategy.GridSize,
		GridRatio:                c.GridStrategy.GridRatio,
		MaxPositionSize:          c.GridStrategy.MaxPositionSize,
		TradingFee:               *c.Trading.TradingFee,
		MakerFee:                 *c.Trading.MakerFee,
		MaxSimultaneousPositions: c.GridStrategy.MaxPositions,
		MinGridDistance:          c.GridStrategy.MinGridDistance,
		MaxPortfolioDrawdown:     c.Risk.MaxPortfolioDrawdown,
		MaintenanceMargin:        c.Risk.MaintenanceMargin,
		SafetyBuffer:             c.Risk.SafetyBuffer,
		AdaptiveLeverage:         c.Risk.AdaptiveLeverage,
		VolatilityLookback:       c.Risk.VolatilityLookback,
	}
}

// SweepOptions maps the optimization section onto sweep options.
func (c *Config) SweepOptions() sweep.Options {
	opts := sweep.DefaultOptions()
	if c.Optimization.MaxCombinations > 0 {
		opts.MaxCombinations = c.Optimization.MaxCombinations
	}
	if c.Optimization.Seed != 0 {
		opts.Seed = c.Optimization.Seed
	}
	if c.Optimization.Workers > 0 {
		opts.Workers = c.Optimization.Workers
	}
	opts.InitialCapital = c.Trading.InitialCapital
	opts.TradingFee = *c.Trading.TradingFee
	opts.MakerFee = *c.Trading.MakerFee
	return opts
}

// SweepSpace resolves the configured space, falling back to the preset,
// then to the medium preset.
func (c *Config) SweepSpace() sweep.Space {
	if c.Optimization.Space.Count() > 0 {
		return c.Optimization.Space
	}
	switch c.Optimization.Preset {
	case "quick":
		return sweep.Quick()
	case "extensive":
		return sweep.Extensive()
	default:
		return sweep.Medium()
	}
}
