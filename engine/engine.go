package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"sologrid/internal/id"
)

var (
	// ErrLiquidated is returned by Step once the engine has entered its
	// terminal state. The liquidation bar itself returns a normal snapshot.
	ErrLiquidated = errors.New("engine: run terminated by liquidation")

	// ErrBadPrice aborts a run on a non-positive or non-finite price.
	// Skipping such a bar would silently desynchronize collateral
	// accounting, so it is fatal instead.
	ErrBadPrice = errors.New("engine: non-positive or non-finite price")
)

// fallbackVolatility is used while the trailing window is shorter than the
// configured lookback.
const fallbackVolatility = 0.02

// Engine is the short-only grid strategy state machine. Wealth is tracked
// as a single collateral balance in base asset units; every fee and every
// closed trade settles against that one pool, and a single liquidation
// wipes 80% of it regardless of which position breached.
//
// An Engine is not safe for concurrent use. A sweep runs one Engine per
// configuration instead of sharing one.
type Engine struct {
	cfg  Config
	risk RiskPolicy
	grid GridPolicy
	obs  Observer

	initialCollateral float64
	collateral        float64
	peak              float64

	positions  []Position
	trades     []Trade
	gridLevels []float64
	volHistory []float64

	feesPaid     float64 // quote currency
	liquidations int
	liquidated   bool

	adjustedLeverage float64
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithRiskPolicy replaces the default margin-based liquidation pricing.
func WithRiskPolicy(p RiskPolicy) Option {
	return func(e *Engine) { e.risk = p }
}

// WithGridPolicy replaces the default progressive grid.
func WithGridPolicy(p GridPolicy) Option {
	return func(e *Engine) { e.grid = p }
}

// WithObserver injects an event collector.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.obs = o }
}

// New builds an Engine holding initialCapital (quote currency) converted
// to base asset units at initialPrice. Configuration errors are fatal
// here, before any simulation starts.
func New(initialCapital, initialPrice float64, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if initialCapital <= 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return nil, fmt.Errorf("config: initial capital must be positive (got %v)", initialCapital)
	}
	if initialPrice <= 0 || math.IsNaN(initialPrice) || math.IsInf(initialPrice, 0) {
		return nil, fmt.Errorf("config: initial price must be positive (got %v)", initialPrice)
	}

	cfg = cfg.applyDefaults()
	collateral := initialCapital / initialPrice

	e := &Engine{
		cfg:               cfg,
		initialCollateral: collateral,
		collateral:        collateral,
		peak:              collateral,
		adjustedLeverage:  cfg.Leverage,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.risk == nil {
		e.risk = MarginPolicy{
			MaintenanceMargin: cfg.MaintenanceMargin,
			SafetyBuffer:      cfg.SafetyBuffer,
		}
	}
	if e.grid == nil {
		e.grid = ProgressiveGrid{
			GridSize:        cfg.GridSize,
			Ratio:           cfg.GridRatio,
			MinDistance:     cfg.MinGridDistance,
			MaxPositionSize: cfg.MaxPositionSize,
		}
	}
	if e.obs == nil {
		e.obs = NopObserver{}
	}

	return e, nil
}

// Step advances the strategy by one bar. window is the trailing price
// history up to and including price; the engine reads at most the last
// VolatilityLookback entries and never retains the slice.
//
// The order of operations within a bar is fixed: liquidation scan first
// (returning immediately on a breach, with no further position management
// that bar), then take-profit closes, then grid maintenance, then at most
// one new entry.
func (e *Engine) Step(price float64, window []float64, ts time.Time) (Snapshot, error) {
	if e.liquidated {
		return Snapshot{}, ErrLiquidated
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return Snapshot{}, fmt.Errorf("%w: %v at %s", ErrBadPrice, price, ts.Format(time.RFC3339))
	}

	vol := trailingVolatility(window, e.cfg.VolatilityLookback)
	e.volHistory = append(e.volHistory, vol)

	// Adaptive leverage is computed for observability only: it never
	// feeds back into sizing or open positions.
	if e.cfg.AdaptiveLeverage {
		e.adjustedLeverage = e.adjustLeverage(vol)
		e.obs.LeverageAdjusted(vol, e.adjustedLeverage)
	}

	// Liquidation scan. The first breach costs 80% of the whole pool and
	// ends the bar - and the run.
	for i, p := range e.positions {
		if price >= p.LiquidationPrice {
			e.collateral *= 0.2
			e.positions = append(e.positions[:i], e.positions[i+1:]...)
			e.liquidations++
			e.liquidated = true
			e.obs.Liquidation(price, e.collateral)
			return e.snapshot(price, ts, vol, true), nil
		}
	}

	// Take-profit pass.
	kept := e.positions[:0]
	for _, p := range e.positions {
		if price <= p.GridLevel*0.98 {
			e.closePosition(p, price, ts, CloseTakeProfit)
			continue
		}
		kept = append(kept, p)
	}
	e.positions = kept

	// Rebuild the grid when there is none, or price has fallen out the
	// bottom of the current band by more than 5%.
	if len(e.gridLevels) == 0 || price < lowest(e.gridLevels)*0.95 {
		e.gridLevels = e.grid.Levels(price)
		e.obs.GridRebuilt(e.gridLevels)
	}

	// Open at most one position per bar: the first level within 2% of
	// price that is not already covered by an open position within 1%.
	if len(e.positions) < e.cfg.MaxSimultaneousPositions {
		for _, level := range e.gridLevels {
			if math.Abs(price-level)/level >= 0.02 {
				continue
			}
			if e.hasPositionNear(price) {
				break
			}
			e.openPosition(price, level, ts)
			break
		}
	}

	return e.snapshot(price, ts, vol, false), nil
}

func (e *Engine) hasPositionNear(price float64) bool {
	for _, p := range e.positions {
		if math.Abs(p.EntryPrice-price)/price < 0.01 {
			return true
		}
	}
	return false
}

// openPosition opens a short at entry anchored to level. It rejects
// silently at the position cap or a non-positive computed size; those are
// normal strategy outcomes, not errors.
func (e *Engine) openPosition(entry, level float64, ts time.Time) bool {
	if len(e.positions) >= e.cfg.MaxSimultaneousPositions {
		return false
	}

	size := e.grid.Size(e.collateral, entry, len(e.positions))
	if size <= 0 {
		return false
	}

	entryFee := size * entry * e.cfg.MakerFee
	e.collateral -= entryFee / entry
	e.feesPaid += entryFee

	p := Position{
		ID:               id.New(),
		EntryPrice:       entry,
		Size:             size,
		Leverage:         e.cfg.Leverage,
		LiquidationPrice: e.risk.LiquidationPrice(entry, e.cfg.Leverage),
		GridLevel:        level,
		EntryTime:        ts,
		EntryFee:         entryFee,
	}
	e.positions = append(e.positions, p)
	e.obs.PositionOpened(p)

	return true
}

// closePosition realizes a short's PnL at exit. The quote-currency PnL is
// netted against the exit fee first, then converted to asset units at the
// exit price; this ordering is deliberate and load-bearing, since fee
// timing and conversion price do not commute.
func (e *Engine) closePosition(p Position, exit float64, ts time.Time, reason CloseReason) Trade {
	exitFee := p.Size * exit * e.cfg.TradingFee

	gross := (p.EntryPrice - exit) * p.Leverage * p.Size
	net := gross - exitFee
	pnlAsset := net / exit

	e.collateral += pnlAsset
	e.feesPaid += exitFee
	if e.collateral > e.peak {
		e.peak = e.collateral
	}

	t := Trade{
		ID:         p.ID,
		EntryTime:  p.EntryTime,
		ExitTime:   ts,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exit,
		Size:       p.Size,
		Leverage:   p.Leverage,
		PnL:        net,
		PnLAsset:   pnlAsset,
		Fees:       p.EntryFee + exitFee,
		Reason:     reason,
	}
	e.trades = append(e.trades, t)
	e.obs.PositionClosed(t)

	return t
}

// CloseAll closes every open position at price. Used by the replay
// harness at end of data; backtests and sweeps leave positions open.
func (e *Engine) CloseAll(price float64, ts time.Time) []Trade {
	if len(e.positions) == 0 {
		return nil
	}
	closed := make([]Trade, 0, len(e.positions))
	for _, p := range e.positions {
		closed = append(closed, e.closePosition(p, price, ts, CloseEndOfReplay))
	}
	e.positions = e.positions[:0]
	return closed
}

func (e *Engine) snapshot(price float64, ts time.Time, vol float64, liquidated bool) Snapshot {
	return Snapshot{
		Time:            ts,
		Price:           price,
		Collateral:      e.collateral,
		PortfolioValue:  e.collateral * price,
		ActivePositions: len(e.positions),
		TotalTrades:     len(e.trades),
		Liquidations:    e.liquidations,
		Liquidated:      liquidated,
		Volatility:      vol,
	}
}

// Summary reports the final state of the run. After any liquidation the
// "real" drawdown is reported as a flat 80%, matching the instantaneous
// wipeout model rather than the measured peak-to-trough path.
func (e *Engine) Summary() Summary {
	change := e.collateral - e.initialCollateral

	var exposed float64
	for _, p := range e.positions {
		exposed += math.Abs(p.Size)
	}

	var drawdownPct float64
	if e.peak > 0 {
		drawdownPct = (e.peak - e.collateral) / e.peak * 100
	}
	realDrawdownPct := drawdownPct
	if e.liquidations > 0 {
		realDrawdownPct = 80.0
	}

	wins := 0
	for _, t := range e.trades {
		if t.PnL > 0 {
			wins++
		}
	}
	var winRate float64
	if len(e.trades) > 0 {
		winRate = float64(wins) / float64(len(e.trades)) * 100
	}

	var avgVol float64
	if len(e.volHistory) > 0 {
		for _, v := range e.volHistory {
			avgVol += v
		}
		avgVol /= float64(len(e.volHistory))
	}

	return Summary{
		InitialCollateral: e.initialCollateral,
		FinalCollateral:   e.collateral,
		PeakCollateral:    e.peak,
		ExposedCollateral: exposed,
		AssetChange:       change,
		AssetChangePct:    change / e.initialCollateral * 100,
		TotalTrades:       len(e.trades),
		WinningTrades:     wins,
		WinRate:           winRate,
		TotalFees:         e.feesPaid,
		DrawdownPct:       drawdownPct,
		RealDrawdownPct:   realDrawdownPct,
		Liquidations:      e.liquidations,
		Liquidated:        e.liquidated,
		AvgVolatility:     avgVol,
	}
}

// Collateral returns the current balance in base asset units.
func (e *Engine) Collateral() float64 { return e.collateral }

// InitialCollateral returns the starting balance in base asset units.
func (e *Engine) InitialCollateral() float64 { return e.initialCollateral }

// Liquidated reports whether the engine has reached its terminal state.
func (e *Engine) Liquidated() bool { return e.liquidated }

// Liquidations returns the liquidation counter.
func (e *Engine) Liquidations() int { return e.liquidations }

// Positions returns a copy of the open position list.
func (e *Engine) Positions() []Position {
	out := make([]Position, len(e.positions))
	copy(out, e.positions)
	return out
}

// Trades returns a copy of the closed-trade log.
func (e *Engine) Trades() []Trade {
	out := make([]Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// GridLevels returns a copy of the current grid.
func (e *Engine) GridLevels() []float64 {
	out := make([]float64, len(e.gridLevels))
	copy(out, e.gridLevels)
	return out
}

// AdjustedLeverage returns the last volatility-adjusted leverage value.
// It equals the configured leverage unless adaptive leverage is enabled;
// either way it is purely informational.
func (e *Engine) AdjustedLeverage() float64 { return e.adjustedLeverage }

func (e *Engine) adjustLeverage(vol float64) float64 {
	switch {
	case vol < 0.01:
		return e.cfg.Leverage * e.cfg.LeverageMultiplierLow
	case vol > 0.05:
		return e.cfg.Leverage * e.cfg.LeverageMultiplierHigh
	default:
		return e.cfg.Leverage
	}
}

// trailingVolatility is the sample standard deviation of simple returns
// over the last lookback prices. While the window is shorter than the
// lookback, a flat fallback keeps early bars comparable.
func trailingVolatility(window []float64, lookback int) float64 {
	if len(window) < lookback {
		return fallbackVolatility
	}
	recent := window[len(window)-lookback:]

	returns := make([]float64, 0, len(recent)-1)
	for i := 1; i < len(recent); i++ {
		if recent[i-1] == 0 {
			continue
		}
		returns = append(returns, recent[i]/recent[i-1]-1)
	}
	if len(returns) < 2 {
		return fallbackVolatility
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance)
}

func lowest(levels []float64) float64 {
	low := levels[0]
	for _, l := range levels[1:] {
		if l < low {
			low = l
		}
	}
	return low
}
