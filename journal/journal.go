// Package journal persists backtest runs: closed trades, per-bar
// snapshots and sweep results, keyed by a run ID so multiple runs can
// share one store.
package journal

import "time"

type TradeRecord struct {
	RunID      string
	TradeID    string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	Leverage   float64
	PnL        float64
	PnLAsset   float64
	Fees       float64
	Reason     string
}

type SnapshotRecord struct {
	RunID           string
	Time            time.Time
	Price           float64
	Collateral      float64
	PortfolioValue  float64
	ActivePositions int
	TotalTrades     int
	Liquidated      bool
	Volatility      float64
}

type SweepRecord struct {
	RunID           string
	Leverage        float64
	GridSize        int
	GridRatio       float64
	MaxPositionSize float64
	FinalHoldings   float64
	ChangePct       float64
	TotalTrades     int
	Liquidations    int
	Liquidated      bool
	Sharpe          float64
	MaxDrawdownPct  float64
	FeesPaid        float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordSnapshot(SnapshotRecord) error
	RecordSweepResult(SweepRecord) error
	Close() error
}
