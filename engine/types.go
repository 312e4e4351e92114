package engine

import "time"

// CloseReason records why a position was closed. Liquidations do not
// produce a Trade; the collateral haircut is the whole record.
type CloseReason string

const (
	CloseTakeProfit  CloseReason = "take_profit"
	CloseEndOfReplay CloseReason = "end_of_replay"
)

// Position is an open short anchored to a grid level. Positions are owned
// exclusively by the engine; callers see copies.
type Position struct {
	ID               string
	EntryPrice       float64
	Size             float64 // base asset units (absolute short exposure)
	Leverage         float64
	LiquidationPrice float64
	GridLevel        float64
	EntryTime        time.Time
	EntryFee         float64 // quote currency
}

// Trade is the closed-position record.
type Trade struct {
	ID         string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	Leverage   float64
	PnL        float64 // quote currency, net of exit fee
	PnLAsset   float64 // converted at the exit price
	Fees       float64 // entry + exit, quote currency
	Reason     CloseReason
}

// Snapshot is the per-bar output of Step.
type Snapshot struct {
	Time            time.Time
	Price           float64
	Collateral      float64 // base asset units
	PortfolioValue  float64 // collateral * price
	ActivePositions int
	TotalTrades     int
	Liquidations    int
	Liquidated      bool
	Volatility      float64
}

// Summary is the end-of-run report.
type Summary struct {
	InitialCollateral float64
	FinalCollateral   float64
	PeakCollateral    float64
	ExposedCollateral float64 // sum of open position sizes
	AssetChange       float64
	AssetChangePct    float64
	TotalTrades       int
	WinningTrades     int
	WinRate           float64 // percent
	TotalFees         float64 // quote currency
	DrawdownPct       float64 // measured peak-to-current
	RealDrawdownPct   float64 // forced to 80 after any liquidation
	Liquidations      int
	Liquidated        bool
	AvgVolatility     float64
}
