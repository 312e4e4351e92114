package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_id, entry_time, exit_time, entry_price, exit_price, size, leverage, pnl, pnl_asset, fees, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.EntryTime, t.ExitTime, t.EntryPrice,
		t.ExitPrice, t.Size, t.Leverage, t.PnL, t.PnLAsset, t.Fees, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordSnapshot(s SnapshotRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO snapshots
		(run_id, time, price, collateral, portfolio_value, active_positions, total_trades, liquidated, volatility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Time, s.Price, s.Collateral, s.PortfolioValue,
		s.ActivePositions, s.TotalTrades, s.Liquidated, s.Volatility,
	)
	return err
}

func (j *SQLiteJournal) RecordSweepResult(r SweepRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO sweep_results
		(run_id, leverage, grid_size, grid_ratio, max_position_size, final_holdings, change_pct, total_trades, liquidations, liquidated, sharpe, max_drawdown_pct, fees_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Leverage, r.GridSize, r.GridRatio, r.MaxPositionSize,
		r.FinalHoldings, r.ChangePct, r.TotalTrades, r.Liquidations,
		r.Liquidated, r.Sharpe, r.MaxDrawdownPct, r.FeesPaid,
	)
	return err
}

func (j *SQLiteJournal) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, entry_time, exit_time, entry_price, exit_price, size, leverage, pnl, pnl_asset, fees, reason
		FROM trades WHERE run_id = ? ORDER BY exit_time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.RunID, &t.TradeID, &t.EntryTime, &t.ExitTime,
			&t.EntryPrice, &t.ExitPrice, &t.Size, &t.Leverage,
			&t.PnL, &t.PnLAsset, &t.Fees, &t.Reason); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) ListSnapshotsByRun(runID string) ([]SnapshotRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, price, collateral, portfolio_value, active_positions, total_trades, liquidated, volatility
		FROM snapshots WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var s SnapshotRecord
		if err := rows.Scan(&s.RunID, &s.Time, &s.Price, &s.Collateral,
			&s.PortfolioValue, &s.ActivePositions, &s.TotalTrades,
			&s.Liquidated, &s.Volatility); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) TopSweepResults(n int) ([]SweepRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, leverage, grid_size, grid_ratio, max_position_size, final_holdings, change_pct, total_trades, liquidations, liquidated, sharpe, max_drawdown_pct, fees_paid
		FROM sweep_results ORDER BY final_holdings DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepRecord
	for rows.Next() {
		var r SweepRecord
		if err := rows.Scan(&r.RunID, &r.Leverage, &r.GridSize, &r.GridRatio,
			&r.MaxPositionSize, &r.FinalHoldings, &r.ChangePct,
			&r.TotalTrades, &r.Liquidations, &r.Liquidated,
			&r.Sharpe, &r.MaxDrawdownPct, &r.FeesPaid); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
