package engine

import "fmt"

// Config holds every strategy parameter. Leverage, GridSize, GridRatio,
// MaxPositionSize and the two fee rates are required; the rest default via
// applyDefaults when left at zero.
type Config struct {
	Leverage        float64 `yaml:"leverage" json:"leverage"`
	GridSize        int     `yaml:"grid_size" json:"grid_size"`
	GridRatio       float64 `yaml:"grid_ratio" json:"grid_ratio"`
	MaxPositionSize float64 `yaml:"max_position_size" json:"max_position_size"`
	TradingFee      float64 `yaml:"trading_fee" json:"trading_fee"` // taker, charged on exit notional
	MakerFee        float64 `yaml:"maker_fee" json:"maker_fee"`     // charged on entry notional

	MaxSimultaneousPositions int     `yaml:"max_simultaneous_positions,omitempty" json:"max_simultaneous_positions,omitempty"`
	MinGridDistance          float64 `yaml:"min_grid_distance,omitempty" json:"min_grid_distance,omitempty"`
	AdaptiveSpacing          bool    `yaml:"adaptive_spacing,omitempty" json:"adaptive_spacing,omitempty"`

	MaxPortfolioDrawdown float64 `yaml:"max_portfolio_drawdown,omitempty" json:"max_portfolio_drawdown,omitempty"`
	MaintenanceMargin    float64 `yaml:"maintenance_margin,omitempty" json:"maintenance_margin,omitempty"`
	SafetyBuffer         float64 `yaml:"safety_buffer,omitempty" json:"safety_buffer,omitempty"`
	VolatilityLookback   int     `yaml:"volatility_lookback,omitempty" json:"volatility_lookback,omitempty"`

	AdaptiveLeverage       bool    `yaml:"adaptive_leverage,omitempty" json:"adaptive_leverage,omitempty"`
	LeverageMultiplierLow  float64 `yaml:"leverage_multiplier_low,omitempty" json:"leverage_multiplier_low,omitempty"`
	LeverageMultiplierHigh float64 `yaml:"leverage_multiplier_high,omitempty" json:"leverage_multiplier_high,omitempty"`
}

// Validate checks the required parameters. It is called by New before any
// state is built, so an invalid configuration can never start a run.
func (c Config) Validate() error {
	if c.Leverage <= 0 {
		return fmt.Errorf("config: leverage must be positive (got %v)", c.Leverage)
	}
	if c.GridSize < 1 {
		return fmt.Errorf("config: grid_size must be >= 1 (got %d)", c.GridSize)
	}
	if c.GridRatio <= 0 || c.GridRatio >= 1 {
		return fmt.Errorf("config: grid_ratio must be in (0,1) (got %v)", c.GridRatio)
	}
	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1 {
		return fmt.Errorf("config: max_position_size must be in (0,1] (got %v)", c.MaxPositionSize)
	}
	if c.TradingFee < 0 {
		return fmt.Errorf("config: trading_fee must be >= 0 (got %v)", c.TradingFee)
	}
	if c.MakerFee < 0 {
		return fmt.Errorf("config: maker_fee must be >= 0 (got %v)", c.MakerFee)
	}
	return nil
}

func (c Config) applyDefaults() Config {
	if c.MaxSimultaneousPositions == 0 {
		c.MaxSimultaneousPositions = c.GridSize
	}
	if c.MinGridDistance == 0 {
		c.MinGridDistance = 0.01
	}
	if c.MaxPortfolioDrawdown == 0 {
		c.MaxPortfolioDrawdown = 0.30
	}
	if c.MaintenanceMargin == 0 {
		c.MaintenanceMargin = 0.05
	}
	if c.SafetyBuffer == 0 {
		c.SafetyBuffer = 1.5
	}
	if c.VolatilityLookback == 0 {
		c.VolatilityLookback = 20
	}
	if c.LeverageMultiplierLow == 0 {
		c.LeverageMultiplierLow = 1.0
	}
	if c.LeverageMultiplierHigh == 0 {
		c.LeverageMultiplierHigh = 1.0
	}
	return c
}
