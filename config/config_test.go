package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"sologrid/sweep"
)

const yamlConfig = `
trading:
  initial_capital: 2000
  leverage: 3
  trading_fee: 0.0006
  maker_fee: 0
grid_strategy:
  grid_size: 8
  grid_ratio: 0.015
  max_position_size: 0.25
risk_management:
  adaptive_leverage: true
  volatility_lookback: 30
optimization:
  preset: quick
  max_combinations: 50
journal:
  type: csv
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "cfg.yaml", yamlConfig))
	assert.NoError(t, err)

	assert.InDelta(t, 2000.0, cfg.Trading.InitialCapital, 1e-12)
	assert.InDelta(t, 3.0, cfg.Trading.Leverage, 1e-12)
	// A zero fee is legitimate and distinct from a missing one.
	assert.NotNil(t, cfg.Trading.MakerFee)
	assert.InDelta(t, 0.0, *cfg.Trading.MakerFee, 1e-12)
	assert.Equal(t, 8, cfg.GridStrategy.GridSize)
	assert.Equal(t, "csv", cfg.Journal.Type)

	ecfg := cfg.ToEngine()
	assert.InDelta(t, 3.0, ecfg.Leverage, 1e-12)
	assert.True(t, ecfg.AdaptiveLeverage)
	assert.Equal(t, 30, ecfg.VolatilityLookback)

	opts := cfg.SweepOptions()
	assert.Equal(t, 50, opts.MaxCombinations)
	assert.InDelta(t, 2000.0, opts.InitialCapital, 1e-12)

	assert.Equal(t, sweep.Quick(), cfg.SweepSpace())
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()

	jsonConfig := `{
		"trading": {"initial_capital": 500, "leverage": 1, "trading_fee": 0.001, "maker_fee": 0.0005},
		"grid_strategy": {"grid_size": 3, "grid_ratio": 0.02, "max_position_size": 0.1}
	}`

	cfg, err := LoadFromFile(writeConfig(t, "cfg.json", jsonConfig))
	assert.NoError(t, err)
	assert.InDelta(t, 500.0, cfg.Trading.InitialCapital, 1e-12)
	assert.Equal(t, 3, cfg.GridStrategy.GridSize)
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		detail string
	}{
		{"missing trading fee", func(c *Config) { c.Trading.TradingFee = nil }, "trading_fee is required"},
		{"missing maker fee", func(c *Config) { c.Trading.MakerFee = nil }, "maker_fee is required"},
		{"zero capital", func(c *Config) { c.Trading.InitialCapital = 0 }, "initial_capital"},
		{"zero leverage", func(c *Config) { c.Trading.Leverage = 0 }, "leverage"},
		{"zero grid size", func(c *Config) { c.GridStrategy.GridSize = 0 }, "grid_size"},
		{"ratio out of range", func(c *Config) { c.GridStrategy.GridRatio = 1 }, "grid_ratio"},
		{"bad preset", func(c *Config) { c.Optimization.Preset = "exhaustive" }, "preset"},
		{"bad journal type", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tc.detail)
		})
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "bad.yaml", "::: not a config :::"))
	assert.Error(t, err)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Trading.Leverage = 7

	assert.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.InDelta(t, 7.0, got.Trading.Leverage, 1e-12)
}

func TestSweepSpaceExplicitOverridesPreset(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Optimization.Preset = "extensive"
	cfg.Optimization.Space = sweep.Space{
		Leverages:        []float64{2},
		GridSizes:        []int{5},
		GridRatios:       []float64{0.02},
		MaxPositionSizes: []float64{0.2},
	}

	assert.Equal(t, 1, cfg.SweepSpace().Count())
}
