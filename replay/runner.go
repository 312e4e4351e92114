// Package replay drives a strategy engine bar by bar from a market feed,
// mirroring its activity into a ledger and an optional journal.
package replay

import (
	"context"
	"fmt"

	"sologrid/engine"
	"sologrid/internal/id"
	"sologrid/journal"
	"sologrid/market"
	"sologrid/portfolio"
)

// Runner wires an engine to a feed. Ledger and Journal are optional;
// when CloseEnd is set, positions still open at end of data are closed
// at the last price.
type Runner struct {
	Engine   *engine.Engine
	Feed     market.Feed
	Ledger   *portfolio.Ledger
	Journal  journal.Journal
	RunID    string
	CloseEnd bool
}

// Result summarizes a completed replay. Holdings is the per-bar
// collateral series in asset units, one entry per processed bar.
type Result struct {
	RunID         string
	Bars          int
	Holdings      []float64
	Summary       engine.Summary
	LedgerSummary *portfolio.Summary
}

// Run consumes the feed until end of data, liquidation, or context
// cancellation. The feed is not closed; that stays with the caller.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.RunID == "" {
		r.RunID = id.New()
	}

	var (
		prices   []float64
		holdings []float64
		bars     int
		lastBar  market.Bar
		recorded int
	)

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		bar, ok, err := r.Feed.Next()
		if err != nil {
			return Result{}, fmt.Errorf("replay: feed: %w", err)
		}
		if !ok {
			break
		}

		prices = append(prices, bar.Price)
		lastBar = bar
		bars++

		// The first bar is stepped too, anchoring the grid at its price.
		snap, err := r.Engine.Step(bar.Price, prices, bar.Time)
		if err != nil {
			return Result{}, fmt.Errorf("replay: bar %d: %w", bars, err)
		}

		recorded, err = r.settleNew(recorded)
		if err != nil {
			return Result{}, err
		}
		r.syncPositions()
		holdings = append(holdings, snap.Collateral)
		if err := r.recordSnapshot(snap); err != nil {
			return Result{}, err
		}
		if snap.Liquidated {
			break
		}
	}

	if r.CloseEnd && !r.Engine.Liquidated() && bars > 0 {
		r.Engine.CloseAll(lastBar.Price, lastBar.Time)
		var err error
		if recorded, err = r.settleNew(recorded); err != nil {
			return Result{}, err
		}
		r.syncPositions()
		if len(holdings) > 0 {
			holdings[len(holdings)-1] = r.Engine.Collateral()
		}
	}

	res := Result{
		RunID:    r.RunID,
		Bars:     bars,
		Holdings: holdings,
		Summary:  r.Engine.Summary(),
	}
	if r.Ledger != nil && bars > 0 {
		s := r.Ledger.Summarize(lastBar.Price)
		res.LedgerSummary = &s
	}
	return res, nil
}

// settleNew applies engine trades past index n to the ledger and journal,
// returning the new high-water mark.
func (r *Runner) settleNew(n int) (int, error) {
	trades := r.Engine.Trades()
	for _, t := range trades[n:] {
		if r.Ledger != nil {
			r.Ledger.Settle(t)
		}
		if r.Journal != nil {
			rec := journal.TradeRecord{
				RunID:      r.RunID,
				TradeID:    t.ID,
				EntryTime:  t.EntryTime,
				ExitTime:   t.ExitTime,
				EntryPrice: t.EntryPrice,
				ExitPrice:  t.ExitPrice,
				Size:       t.Size,
				Leverage:   t.Leverage,
				PnL:        t.PnL,
				PnLAsset:   t.PnLAsset,
				Fees:       t.Fees,
				Reason:     string(t.Reason),
			}
			if err := r.Journal.RecordTrade(rec); err != nil {
				return n, fmt.Errorf("replay: record trade: %w", err)
			}
		}
	}
	return len(trades), nil
}

// syncPositions reconciles the ledger's open positions with the engine's.
// Settle already removes closed positions; this adds new opens and drops
// positions the engine shed without a trade, such as a liquidation.
func (r *Runner) syncPositions() {
	if r.Ledger == nil {
		return
	}

	open := r.Engine.Positions()
	known := make(map[string]bool, len(open))
	for _, p := range open {
		known[p.ID] = true
	}

	held := make(map[string]bool)
	for _, p := range r.Ledger.Positions() {
		held[p.ID] = true
		if !known[p.ID] {
			r.Ledger.RemovePosition(p.ID)
		}
	}
	for _, p := range open {
		if !held[p.ID] {
			r.Ledger.AddPosition(p)
		}
	}
}

func (r *Runner) recordSnapshot(s engine.Snapshot) error {
	if r.Journal == nil {
		return nil
	}
	err := r.Journal.RecordSnapshot(journal.SnapshotRecord{
		RunID:           r.RunID,
		Time:            s.Time,
		Price:           s.Price,
		Collateral:      s.Collateral,
		PortfolioValue:  s.PortfolioValue,
		ActivePositions: s.ActivePositions,
		TotalTrades:     s.TotalTrades,
		Liquidated:      s.Liquidated,
		Volatility:      s.Volatility,
	})
	if err != nil {
		return fmt.Errorf("replay: record snapshot: %w", err)
	}
	return nil
}
