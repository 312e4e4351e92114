package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseConfig() Config {
	return Config{
		Leverage:        1,
		GridSize:        1,
		GridRatio:       0.02,
		MaxPositionSize: 0.2,
		TradingFee:      0.001,
		MakerFee:        0.0005,
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(1000, 100, cfg)
	assert.NoError(t, err)
	return e
}

func step(t *testing.T, e *Engine, price float64) Snapshot {
	t.Helper()
	snap, err := e.Step(price, []float64{price}, time.Now())
	assert.NoError(t, err)
	return snap
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		capital float64
		price   float64
		mutate  func(*Config)
	}{
		{"zero leverage", 1000, 100, func(c *Config) { c.Leverage = 0 }},
		{"negative leverage", 1000, 100, func(c *Config) { c.Leverage = -2 }},
		{"zero grid size", 1000, 100, func(c *Config) { c.GridSize = 0 }},
		{"ratio too large", 1000, 100, func(c *Config) { c.GridRatio = 1 }},
		{"ratio zero", 1000, 100, func(c *Config) { c.GridRatio = 0 }},
		{"max position over 1", 1000, 100, func(c *Config) { c.MaxPositionSize = 1.5 }},
		{"negative trading fee", 1000, 100, func(c *Config) { c.TradingFee = -0.001 }},
		{"negative maker fee", 1000, 100, func(c *Config) { c.MakerFee = -0.001 }},
		{"zero capital", 0, 100, nil},
		{"negative capital", -5, 100, nil},
		{"zero price", 1000, 0, nil},
		{"nan price", 1000, math.NaN(), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			_, err := New(tc.capital, tc.price, cfg)
			assert.Error(t, err)
		})
	}
}

func TestInitialCollateralConversion(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	assert.InDelta(t, 10.0, e.Collateral(), 1e-12)
	assert.InDelta(t, 10.0, e.InitialCollateral(), 1e-12)
}

func TestBadPriceIsFatal(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	for _, price := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		_, err := e.Step(price, []float64{price}, time.Now())
		assert.ErrorIs(t, err, ErrBadPrice)
	}
}

func TestGridBuiltOnFirstBar(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.GridSize = 5
	e := newTestEngine(t, cfg)

	step(t, e, 100)

	levels := e.GridLevels()
	assert.Len(t, levels, 5)
	assert.InDelta(t, 98.0, levels[0], 1e-9)
	assert.InDelta(t, 98.0*(1-0.022), levels[1], 1e-9)
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i], levels[i-1])
	}
	// The first level sits exactly 2% away, which is outside the entry
	// band, so the seeding bar opens nothing.
	assert.Empty(t, e.Positions())
}

func TestOpenDeductsEntryFee(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	step(t, e, 100)
	snap := step(t, e, 98.5)

	positions := e.Positions()
	assert.Len(t, positions, 1)
	p := positions[0]

	// Size is computed before the fee: 10 * 0.2 = 2 asset units.
	assert.InDelta(t, 2.0, p.Size, 1e-12)
	assert.InDelta(t, 98.5, p.EntryPrice, 1e-12)
	assert.InDelta(t, 98.0, p.GridLevel, 1e-12)
	assert.InDelta(t, 98.5*1.075, p.LiquidationPrice, 1e-9)

	// Entry fee in asset units is size * makerFee.
	assert.InDelta(t, 10-2*0.0005, e.Collateral(), 1e-12)
	assert.Equal(t, 1, snap.ActivePositions)
}

func TestTakeProfitClose(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	step(t, e, 100)
	step(t, e, 98.5)
	collatAfterOpen := e.Collateral()

	// Threshold is gridLevel*0.98 = 96.04; one tick above holds.
	step(t, e, 96.05)
	assert.Len(t, e.Positions(), 1)
	assert.Empty(t, e.Trades())

	step(t, e, 96)
	assert.Empty(t, e.Positions())

	trades := e.Trades()
	assert.Len(t, trades, 1)
	tr := trades[0]

	exitFee := 2.0 * 96 * 0.001
	net := (98.5-96)*1*2.0 - exitFee
	assert.Equal(t, CloseTakeProfit, tr.Reason)
	assert.InDelta(t, net, tr.PnL, 1e-9)
	assert.InDelta(t, net/96, tr.PnLAsset, 1e-9)
	assert.InDelta(t, 2*98.5*0.0005+exitFee, tr.Fees, 1e-9)
	assert.InDelta(t, collatAfterOpen+net/96, e.Collateral(), 1e-9)
}

func TestRoundTripCostsOnlyFees(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	step(t, e, 100)
	step(t, e, 98.5)

	// Exit at the entry price: gross PnL is zero, so the whole round trip
	// reduces holdings by exactly the two fees in asset units.
	trades := e.CloseAll(98.5, time.Now())
	assert.Len(t, trades, 1)
	assert.Equal(t, CloseEndOfReplay, trades[0].Reason)

	entryFeeAsset := 2.0 * 0.0005
	exitFeeAsset := 2.0 * 0.001
	assert.InDelta(t, 10-entryFeeAsset-exitFeeAsset, e.Collateral(), 1e-12)
}

func TestLiquidationBoundary(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Leverage = 2
	e := newTestEngine(t, cfg)
	step(t, e, 100)
	step(t, e, 98.5)

	// liq = 98.5 * (1 + 2*0.05*1.5) = 98.5 * 1.15. Read back from the
	// position so the boundary matches to the last bit.
	liq := e.Positions()[0].LiquidationPrice
	assert.InDelta(t, 98.5*1.15, liq, 1e-9)

	snap := step(t, e, liq-0.001)
	assert.False(t, snap.Liquidated)
	assert.Len(t, e.Positions(), 1)

	snap = step(t, e, liq)
	assert.True(t, snap.Liquidated)
	assert.True(t, e.Liquidated())
}

func TestLiquidationEffects(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	step(t, e, 100)
	step(t, e, 98.5)
	before := e.Collateral()

	snap := step(t, e, e.Positions()[0].LiquidationPrice)

	assert.InDelta(t, before*0.2, e.Collateral(), 1e-12)
	assert.InDelta(t, before*0.2, snap.Collateral, 1e-12)
	assert.Empty(t, e.Positions())
	assert.Empty(t, e.Trades(), "liquidation produces no trade record")
	assert.Equal(t, 1, e.Liquidations())

	_, err := e.Step(98, []float64{98}, time.Now())
	assert.ErrorIs(t, err, ErrLiquidated)

	sum := e.Summary()
	assert.True(t, sum.Liquidated)
	assert.Equal(t, 1, sum.Liquidations)
	assert.InDelta(t, 80.0, sum.RealDrawdownPct, 1e-12)
}

func TestLiquidationSkipsRemainingManagement(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.GridSize = 2
	e := newTestEngine(t, cfg)

	step(t, e, 100)  // grid [98, 95.844]
	step(t, e, 98.5) // open #1 at 98.5
	step(t, e, 96.5) // open #2 at 96.5, no TP (threshold 96.04)
	assert.Len(t, e.Positions(), 2)

	// 104 breaches only #2's liquidation price (96.5*1.075 = 103.7375).
	snap := step(t, e, 104)
	assert.True(t, snap.Liquidated)
	assert.Len(t, e.Positions(), 1, "only the breached position is removed")
	assert.Empty(t, e.Trades())
}

func TestNoDuplicateEntryNearExistingPosition(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.GridSize = 3
	e := newTestEngine(t, cfg)

	step(t, e, 100)
	step(t, e, 98.5)
	assert.Len(t, e.Positions(), 1)

	// Within 1% of the open entry: no second position even though a grid
	// level is in range.
	step(t, e, 98.4)
	assert.Len(t, e.Positions(), 1)
}

func TestGridRebuildOnBreakdown(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	step(t, e, 100)
	assert.InDelta(t, 98.0, e.GridLevels()[0], 1e-9)

	// Above lowest*0.95 = 93.1 the grid holds.
	step(t, e, 94)
	assert.InDelta(t, 98.0, e.GridLevels()[0], 1e-9)

	step(t, e, 93)
	assert.InDelta(t, 93*0.98, e.GridLevels()[0], 1e-9)
}

func TestVolatilityFallbackAndMeasurement(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())

	snap := step(t, e, 100)
	assert.InDelta(t, fallbackVolatility, snap.Volatility, 1e-12)

	// A full flat window has zero return variance.
	window := make([]float64, 20)
	for i := range window {
		window[i] = 100
	}
	snap, err := e.Step(100, window, time.Now())
	assert.NoError(t, err)
	assert.InDelta(t, 0.0, snap.Volatility, 1e-12)
}

func TestAdaptiveLeverageNeverChangesPositions(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.Leverage = 4
	cfg.AdaptiveLeverage = true
	cfg.LeverageMultiplierLow = 0.5
	e := newTestEngine(t, cfg)

	// Flat window: vol 0 < 0.01 triggers the low multiplier.
	window := make([]float64, 20)
	for i := range window {
		window[i] = 100
	}
	_, err := e.Step(100, window, time.Now())
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, e.AdjustedLeverage(), 1e-12)

	step(t, e, 98.5)
	positions := e.Positions()
	assert.Len(t, positions, 1)

	// Sizing and liquidation pricing keep using the configured leverage.
	assert.InDelta(t, 4.0, positions[0].Leverage, 1e-12)
	assert.InDelta(t, 98.5*(1+4*0.05*1.5), positions[0].LiquidationPrice, 1e-9)
	assert.InDelta(t, 2.0, positions[0].Size, 1e-12)
}

func TestPositionCap(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.GridSize = 3
	cfg.MaxSimultaneousPositions = 1
	e := newTestEngine(t, cfg)

	step(t, e, 100)
	step(t, e, 98.5)
	assert.Len(t, e.Positions(), 1)

	// A deeper level is in range but the cap holds.
	step(t, e, 96.5)
	assert.Len(t, e.Positions(), 1)
}

func TestProfitableDipRecoverScenario(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.GridSize = 3
	e := newTestEngine(t, cfg)

	prices := []float64{100, 98.5, 96, 97, 98, 99}
	var window []float64
	for _, p := range prices {
		window = append(window, p)
		_, err := e.Step(p, window, time.Now())
		assert.NoError(t, err)
	}

	sum := e.Summary()
	assert.False(t, sum.Liquidated)
	assert.Greater(t, sum.TotalTrades, 0)
	assert.Greater(t, sum.FinalCollateral, sum.InitialCollateral,
		"short entries closed into the dip should grow holdings")
}

func TestSummaryAccounting(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, baseConfig())
	step(t, e, 100)
	step(t, e, 98.5)
	step(t, e, 96)

	sum := e.Summary()
	assert.Equal(t, 1, sum.TotalTrades)
	assert.Equal(t, 1, sum.WinningTrades)
	assert.InDelta(t, 100.0, sum.WinRate, 1e-12)
	assert.InDelta(t, 2*98.5*0.0005+2*96*0.001, sum.TotalFees, 1e-9)
	assert.InDelta(t, sum.FinalCollateral, sum.PeakCollateral, 1e-12)
	assert.InDelta(t, 0.0, sum.DrawdownPct, 1e-9)
	assert.InDelta(t, sum.RealDrawdownPct, sum.DrawdownPct, 1e-9)
	assert.InDelta(t, (sum.FinalCollateral-10)/10*100, sum.AssetChangePct, 1e-9)
}
