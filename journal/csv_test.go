package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCSV(t *testing.T) (*CSVJournal, string) {
	t.Helper()

	dir := t.TempDir()
	j, err := NewCSV(
		filepath.Join(dir, "trades.csv"),
		filepath.Join(dir, "snapshots.csv"),
		filepath.Join(dir, "sweep.csv"),
	)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, dir
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	return rows
}

func TestCSVHeadersWritten(t *testing.T) {
	t.Parallel()

	j, dir := newTestCSV(t)
	assert.NoError(t, j.Close())

	trades := readCSV(t, filepath.Join(dir, "trades.csv"))
	assert.Len(t, trades, 1)
	assert.Equal(t, "run_id", trades[0][0])
	assert.Equal(t, "reason", trades[0][len(trades[0])-1])

	snaps := readCSV(t, filepath.Join(dir, "snapshots.csv"))
	assert.Len(t, snaps, 1)
	assert.Equal(t, "volatility", snaps[0][len(snaps[0])-1])
}

func TestCSVTradeRow(t *testing.T) {
	t.Parallel()

	j, dir := newTestCSV(t)

	rec := testTrade("csvrun")
	assert.NoError(t, j.RecordTrade(rec))
	assert.NoError(t, j.Close())

	rows := readCSV(t, filepath.Join(dir, "trades.csv"))
	assert.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "csvrun", row[0])
	assert.Equal(t, rec.TradeID, row[1])
	assert.Equal(t, rec.EntryTime.Format(time.RFC3339), row[2])
	assert.Equal(t, "98.5", row[4])
	assert.Equal(t, "take_profit", row[11])
}

func TestCSVSnapshotAndSweepRows(t *testing.T) {
	t.Parallel()

	j, dir := newTestCSV(t)

	assert.NoError(t, j.RecordSnapshot(SnapshotRecord{
		RunID:           "r",
		Time:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Price:           100,
		Collateral:      10,
		PortfolioValue:  1000,
		ActivePositions: 2,
		TotalTrades:     3,
		Volatility:      0.02,
	}))
	assert.NoError(t, j.RecordSweepResult(SweepRecord{
		RunID:         "r",
		Leverage:      2,
		GridSize:      5,
		GridRatio:     0.02,
		FinalHoldings: 10.5,
		Liquidated:    true,
	}))
	assert.NoError(t, j.Close())

	snaps := readCSV(t, filepath.Join(dir, "snapshots.csv"))
	assert.Len(t, snaps, 2)
	assert.Equal(t, "2", snaps[1][5])
	assert.Equal(t, "false", snaps[1][7])

	sweeps := readCSV(t, filepath.Join(dir, "sweep.csv"))
	assert.Len(t, sweeps, 2)
	assert.Equal(t, "10.5", sweeps[1][5])
	assert.Equal(t, "true", sweeps[1][9])
}
