package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sologrid/config"
	"sologrid/engine"
	"sologrid/journal"
	"sologrid/market"
	"sologrid/metrics"
	"sologrid/portfolio"
	"sologrid/replay"
)

func newBacktestCmd(rc *RootConfig) *cobra.Command {
	var (
		dataPath   string
		capital    float64
		leverage   float64
		gridSize   int
		gridRatio  float64
		maxPos     float64
		tradingFee float64
		makerFee   float64
		closeEnd   bool
		record     bool
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the grid strategy once over a price dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataPath == "" {
				return fmt.Errorf("--data is required")
			}

			series, err := market.LoadCSV(dataPath)
			if err != nil {
				return err
			}
			if len(series) < 2 {
				return fmt.Errorf("dataset %s has too few bars", dataPath)
			}

			initialCapital := capital
			ecfg := engine.Config{
				Leverage:        leverage,
				GridSize:        gridSize,
				GridRatio:       gridRatio,
				MaxPositionSize: maxPos,
				TradingFee:      tradingFee,
				MakerFee:        makerFee,
			}
			if rc.ConfigPath != "" {
				fileCfg, err := config.LoadFromFile(rc.ConfigPath)
				if err != nil {
					return err
				}
				initialCapital = fileCfg.Trading.InitialCapital
				ecfg = fileCfg.ToEngine()
			}

			eng, err := engine.New(initialCapital, series[0].Price, ecfg,
				engine.WithObserver(engine.NewLogObserver(rc.Logger)))
			if err != nil {
				return err
			}
			ledger, err := portfolio.NewLedger(initialCapital, series[0].Price)
			if err != nil {
				return err
			}

			runner := &replay.Runner{
				Engine:   eng,
				Feed:     market.NewSliceFeed(series),
				Ledger:   ledger,
				CloseEnd: closeEnd,
			}
			if record {
				j, err := journal.NewSQLite(rc.DBPath)
				if err != nil {
					return err
				}
				defer j.Close()
				runner.Journal = j
			}

			res, err := runner.Run(context.Background())
			if err != nil {
				return err
			}

			rc.Logger.Info("backtest finished",
				zap.String("run_id", res.RunID),
				zap.Int("bars", res.Bars))

			printSummary(res, series)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Price dataset (.csv, .csv.gz, .csv.xz or .zip)")
	cmd.Flags().Float64Var(&capital, "capital", 1000, "Initial capital in quote currency")
	cmd.Flags().Float64Var(&leverage, "leverage", 2, "Position leverage")
	cmd.Flags().IntVar(&gridSize, "grid-size", 5, "Number of grid levels")
	cmd.Flags().Float64Var(&gridRatio, "grid-ratio", 0.02, "Base spacing between levels")
	cmd.Flags().Float64Var(&maxPos, "max-position", 0.2, "Max fraction of collateral per position")
	cmd.Flags().Float64Var(&tradingFee, "trading-fee", 0.0006, "Taker fee rate")
	cmd.Flags().Float64Var(&makerFee, "maker-fee", 0.0002, "Maker fee rate")
	cmd.Flags().BoolVar(&closeEnd, "close-end", false, "Close open positions at end of data")
	cmd.Flags().BoolVar(&record, "record", false, "Record trades and snapshots to the SQLite journal")

	return cmd
}

func printSummary(res replay.Result, series market.Series) {
	s := res.Summary

	fmt.Printf("Initial holdings:  %.6f\n", s.InitialCollateral)
	fmt.Printf("Final holdings:    %.6f (%+.2f%%)\n", s.FinalCollateral, s.AssetChangePct)
	fmt.Printf("Peak holdings:     %.6f\n", s.PeakCollateral)
	fmt.Printf("Trades:            %d (win rate %.1f%%)\n", s.TotalTrades, s.WinRate)
	fmt.Printf("Fees paid:         %.4f\n", s.TotalFees)
	fmt.Printf("Drawdown:          %.2f%% (real %.2f%%)\n", s.DrawdownPct, s.RealDrawdownPct)
	fmt.Printf("Liquidations:      %d\n", s.Liquidations)
	fmt.Printf("Avg volatility:    %.4f\n", s.AvgVolatility)

	if len(res.Holdings) >= 2 {
		dd := metrics.MaxDrawdown(res.Holdings)
		fmt.Printf("Sharpe:            %.2f\n", metrics.Sharpe(res.Holdings))
		fmt.Printf("Sortino:           %.2f\n", metrics.Sortino(res.Holdings))
		fmt.Printf("Max drawdown:      %.2f%% from peak %.6f (worst decline %.6f)\n", dd.Pct, dd.Peak, dd.Amount)
		if days := series.Span(); days > 0 {
			fmt.Printf("Calmar:            %.2f over %.1f days\n", metrics.Calmar(res.Holdings, days), days)
		}
	}
}
