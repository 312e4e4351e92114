package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades *csv.Writer
	snaps  *csv.Writer
	sweeps *csv.Writer
	files  []*os.File
}

func NewCSV(tradesPath, snapshotsPath, sweepPath string) (*CSVJournal, error) {
	j := &CSVJournal{}

	open := func(path string, header []string) (*csv.Writer, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, f)
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	j.trades, err = open(tradesPath, []string{"run_id", "trade_id", "entry_time", "exit_time", "entry_price", "exit_price", "size", "leverage", "pnl", "pnl_asset", "fees", "reason"})
	if err != nil {
		j.Close()
		return nil, err
	}
	j.snaps, err = open(snapshotsPath, []string{"run_id", "time", "price", "collateral", "portfolio_value", "active_positions", "total_trades", "liquidated", "volatility"})
	if err != nil {
		j.Close()
		return nil, err
	}
	j.sweeps, err = open(sweepPath, []string{"run_id", "leverage", "grid_size", "grid_ratio", "max_position_size", "final_holdings", "change_pct", "total_trades", "liquidations", "liquidated", "sharpe", "max_drawdown_pct", "fees_paid"})
	if err != nil {
		j.Close()
		return nil, err
	}

	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.RunID,
		t.TradeID,
		t.EntryTime.Format(time.RFC3339),
		t.ExitTime.Format(time.RFC3339),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Size),
		f(t.Leverage),
		f(t.PnL),
		f(t.PnLAsset),
		f(t.Fees),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordSnapshot(s SnapshotRecord) error {
	err := j.snaps.Write([]string{
		s.RunID,
		s.Time.Format(time.RFC3339),
		f(s.Price),
		f(s.Collateral),
		f(s.PortfolioValue),
		strconv.Itoa(s.ActivePositions),
		strconv.Itoa(s.TotalTrades),
		strconv.FormatBool(s.Liquidated),
		f(s.Volatility),
	})
	if err != nil {
		return err
	}
	j.snaps.Flush()
	return j.snaps.Error()
}

func (j *CSVJournal) RecordSweepResult(r SweepRecord) error {
	err := j.sweeps.Write([]string{
		r.RunID,
		f(r.Leverage),
		strconv.Itoa(r.GridSize),
		f(r.GridRatio),
		f(r.MaxPositionSize),
		f(r.FinalHoldings),
		f(r.ChangePct),
		strconv.Itoa(r.TotalTrades),
		strconv.Itoa(r.Liquidations),
		strconv.FormatBool(r.Liquidated),
		f(r.Sharpe),
		f(r.MaxDrawdownPct),
		f(r.FeesPaid),
	})
	if err != nil {
		return err
	}
	j.sweeps.Flush()
	return j.sweeps.Error()
}

func (j *CSVJournal) Close() error {
	var firstErr error
	for _, w := range []*csv.Writer{j.trades, j.snaps, j.sweeps} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range j.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
