// Package portfolio is the bookkeeping side of the replay path. It mirrors
// the engine's entities (engine.Position, engine.Trade) into an
// account-style ledger with realized/unrealized PnL views, so replay
// output stays numerically consistent with the engine's internal state.
package portfolio

import (
	"fmt"

	"sologrid/engine"
)

// Ledger tracks collateral in base asset units alongside an open-position
// list and a closed-trade log.
type Ledger struct {
	initialCapital float64 // quote currency
	initialPrice   float64

	initialCollateral float64
	collateral        float64
	peak              float64

	positions []engine.Position
	trades    []engine.Trade

	realizedPnL float64 // quote currency
	feesPaid    float64 // quote currency
}

func NewLedger(initialCapital, initialPrice float64) (*Ledger, error) {
	if initialCapital <= 0 {
		return nil, fmt.Errorf("portfolio: initial capital must be positive (got %v)", initialCapital)
	}
	if initialPrice <= 0 {
		return nil, fmt.Errorf("portfolio: initial price must be positive (got %v)", initialPrice)
	}
	collateral := initialCapital / initialPrice
	return &Ledger{
		initialCapital:    initialCapital,
		initialPrice:      initialPrice,
		initialCollateral: collateral,
		collateral:        collateral,
		peak:              collateral,
	}, nil
}

// Collateral returns the current balance in base asset units.
func (l *Ledger) Collateral() float64 { return l.collateral }

// Value returns the portfolio value in quote currency at price.
func (l *Ledger) Value(price float64) float64 {
	return l.collateral * price
}

// UnrealizedPnL sums the open shorts' mark-to-market PnL in quote
// currency at price.
func (l *Ledger) UnrealizedPnL(price float64) float64 {
	var total float64
	for _, p := range l.positions {
		total += (p.EntryPrice - price) * p.Size * p.Leverage
	}
	return total
}

// AddPosition registers an open position.
func (l *Ledger) AddPosition(p engine.Position) {
	l.positions = append(l.positions, p)
}

// RemovePosition drops the position with the given ID; unknown IDs are
// ignored.
func (l *Ledger) RemovePosition(id string) {
	for i, p := range l.positions {
		if p.ID == id {
			l.positions = append(l.positions[:i], l.positions[i+1:]...)
			return
		}
	}
}

// Settle applies a closed trade: asset-unit PnL to collateral, quote PnL
// and fees to the running stats, and the trade to the log.
func (l *Ledger) Settle(t engine.Trade) {
	l.collateral += t.PnLAsset
	l.realizedPnL += t.PnL
	l.feesPaid += t.Fees
	if l.collateral > l.peak {
		l.peak = l.collateral
	}
	l.RemovePosition(t.ID)
	l.trades = append(l.trades, t)
}

// ApplyTradePnL adjusts collateral by a quote-currency PnL converted at
// price, without recording a trade. Used when the fill source reports
// aggregate PnL only.
func (l *Ledger) ApplyTradePnL(pnlQuote, price float64) {
	l.collateral += pnlQuote / price
	l.realizedPnL += pnlQuote
	if l.collateral > l.peak {
		l.peak = l.collateral
	}
}

// Positions returns a copy of the open positions.
func (l *Ledger) Positions() []engine.Position {
	out := make([]engine.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// Trades returns a copy of the closed-trade log.
func (l *Ledger) Trades() []engine.Trade {
	out := make([]engine.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Summary is the ledger's end-of-replay report.
type Summary struct {
	InitialCapital    float64
	CurrentValue      float64
	InitialCollateral float64
	CurrentCollateral float64
	AssetChange       float64
	AssetChangePct    float64
	RealizedPnL       float64
	UnrealizedPnL     float64
	TotalPnL          float64
	DrawdownPct       float64
	ActivePositions   int
	TotalTrades       int
	WinningTrades     int
	WinRate           float64
	AvgTradePnL       float64
	TotalFees         float64
}

// Summarize computes the report at price.
func (l *Ledger) Summarize(price float64) Summary {
	unrealized := l.UnrealizedPnL(price)
	change := l.collateral - l.initialCollateral

	var drawdownPct float64
	if l.peak > 0 {
		drawdownPct = (l.peak - l.collateral) / l.peak * 100
	}

	wins := 0
	for _, t := range l.trades {
		if t.PnL > 0 {
			wins++
		}
	}
	var winRate, avgPnL float64
	if len(l.trades) > 0 {
		winRate = float64(wins) / float64(len(l.trades)) * 100
		avgPnL = l.realizedPnL / float64(len(l.trades))
	}

	return Summary{
		InitialCapital:    l.initialCapital,
		CurrentValue:      l.Value(price),
		InitialCollateral: l.initialCollateral,
		CurrentCollateral: l.collateral,
		AssetChange:       change,
		AssetChangePct:    change / l.initialCollateral * 100,
		RealizedPnL:       l.realizedPnL,
		UnrealizedPnL:     unrealized,
		TotalPnL:          l.realizedPnL + unrealized,
		DrawdownPct:       drawdownPct,
		ActivePositions:   len(l.positions),
		TotalTrades:       len(l.trades),
		WinningTrades:     wins,
		WinRate:           winRate,
		AvgTradePnL:       avgPnL,
		TotalFees:         l.feesPaid,
	}
}
