package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sologrid/config"
	"sologrid/internal/id"
	"sologrid/journal"
	"sologrid/market"
	"sologrid/sweep"
)

func newSweepCmd(rc *RootConfig) *cobra.Command {
	var (
		dataPath   string
		preset     string
		capital    float64
		tradingFee float64
		makerFee   float64
		maxCombos  int
		seed       int64
		workers    int
		top        int
		record     bool
		saveBest   string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep strategy parameters over a price dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataPath == "" {
				return fmt.Errorf("--data is required")
			}

			series, err := market.LoadCSV(dataPath)
			if err != nil {
				return err
			}

			opts := sweep.Options{
				MaxCombinations: maxCombos,
				Seed:            seed,
				Workers:         workers,
				InitialCapital:  capital,
				TradingFee:      tradingFee,
				MakerFee:        makerFee,
			}
			space := spaceForPreset(preset)

			if rc.ConfigPath != "" {
				fileCfg, err := config.LoadFromFile(rc.ConfigPath)
				if err != nil {
					return err
				}
				opts = fileCfg.SweepOptions()
				space = fileCfg.SweepSpace()
			}

			ctrl, err := sweep.NewController(opts)
			if err != nil {
				return err
			}

			rc.Logger.Info("starting sweep",
				zap.Int("combinations", space.Count()),
				zap.Int("bars", len(series)))

			results, err := ctrl.Run(context.Background(), space, series)
			if err != nil {
				return err
			}

			if record {
				if err := recordSweep(rc.DBPath, results); err != nil {
					return err
				}
			}
			if saveBest != "" {
				if err := saveBestConfig(saveBest, results, opts); err != nil {
					return err
				}
				rc.Logger.Info("saved best configuration", zap.String("path", saveBest))
			}

			printSweep(results, top)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Price dataset (.csv, .csv.gz, .csv.xz or .zip)")
	cmd.Flags().StringVar(&preset, "preset", "medium", "Search space preset: quick|medium|extensive")
	cmd.Flags().Float64Var(&capital, "capital", 1000, "Initial capital in quote currency")
	cmd.Flags().Float64Var(&tradingFee, "trading-fee", 0.0006, "Taker fee rate")
	cmd.Flags().Float64Var(&makerFee, "maker-fee", 0.0002, "Maker fee rate")
	cmd.Flags().IntVar(&maxCombos, "max-combinations", 1000, "Cap on sampled combinations")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Sampling seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker count (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&top, "top", 10, "Rows to print")
	cmd.Flags().BoolVar(&record, "record", false, "Record results to the SQLite journal")
	cmd.Flags().StringVar(&saveBest, "save-best", "", "Write the best surviving configuration to this file")

	return cmd
}

// saveBestConfig writes the best surviving combination as a runnable
// config file.
func saveBestConfig(path string, results []sweep.Result, opts sweep.Options) error {
	zone := sweep.Survival(results)
	if zone.Best == nil {
		return fmt.Errorf("no surviving configuration to save")
	}

	cfg := config.Default()
	cfg.Trading.InitialCapital = opts.InitialCapital
	cfg.Trading.Leverage = zone.Best.Params.Leverage
	cfg.Trading.TradingFee = &opts.TradingFee
	cfg.Trading.MakerFee = &opts.MakerFee
	cfg.GridStrategy.GridSize = zone.Best.Params.GridSize
	cfg.GridStrategy.GridRatio = zone.Best.Params.GridRatio
	cfg.GridStrategy.MaxPositionSize = zone.Best.Params.MaxPositionSize

	return cfg.SaveToFile(path)
}

func spaceForPreset(preset string) sweep.Space {
	switch preset {
	case "quick":
		return sweep.Quick()
	case "extensive":
		return sweep.Extensive()
	default:
		return sweep.Medium()
	}
}

func recordSweep(dbPath string, results []sweep.Result) error {
	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer j.Close()

	runID := id.New()
	for _, r := range results {
		rec := journal.SweepRecord{
			RunID:           runID,
			Leverage:        r.Params.Leverage,
			GridSize:        r.Params.GridSize,
			GridRatio:       r.Params.GridRatio,
			MaxPositionSize: r.Params.MaxPositionSize,
			FinalHoldings:   r.FinalHoldings,
			ChangePct:       r.ChangePct,
			TotalTrades:     r.TotalTrades,
			Liquidations:    r.Liquidations,
			Liquidated:      r.Liquidated,
			Sharpe:          r.Sharpe,
			MaxDrawdownPct:  r.MaxDrawdownPct,
			FeesPaid:        r.FeesPaid,
		}
		if err := j.RecordSweepResult(rec); err != nil {
			return err
		}
	}
	return nil
}

func printSweep(results []sweep.Result, top int) {
	if top > len(results) {
		top = len(results)
	}

	fmt.Printf("%-8s %-6s %-8s %-8s %12s %9s %7s %8s %7s\n",
		"lev", "grid", "ratio", "maxpos", "holdings", "change%", "trades", "maxdd%", "liq")
	for _, r := range results[:top] {
		liq := "-"
		if r.Liquidated {
			liq = "LIQ"
		}
		fmt.Printf("%-8.1f %-6d %-8.3f %-8.2f %12.6f %9.2f %7d %8.2f %7s\n",
			r.Params.Leverage, r.Params.GridSize, r.Params.GridRatio,
			r.Params.MaxPositionSize, r.FinalHoldings, r.ChangePct,
			r.TotalTrades, r.MaxDrawdownPct, liq)
	}

	zone := sweep.Survival(results)
	fmt.Printf("\n%d/%d configurations survived (%.0f%%)\n",
		zone.Survivors, zone.Total, zone.Rate*100)
	if zone.Best != nil {
		fmt.Printf("survival zone: leverage %.1f-%.1f, max position %.2f-%.2f, median holdings %.6f\n",
			zone.MinLeverage, zone.MaxLeverage, zone.MinPosition, zone.MaxPosition,
			zone.MedianHoldings)
		fmt.Printf("best: lev %.1f grid %d ratio %.3f maxpos %.2f -> %.6f (%+.2f%%)\n",
			zone.Best.Params.Leverage, zone.Best.Params.GridSize,
			zone.Best.Params.GridRatio, zone.Best.Params.MaxPositionSize,
			zone.Best.FinalHoldings, zone.Best.ChangePct)
	}

	fmt.Println("\nLeverage frontier:")
	for _, row := range sweep.Frontier(results) {
		fmt.Printf("  lev %-5.1f n=%-4d mean=%.6f best=%.6f sharpe=%.2f dd=%.1f%% liq-rate=%.0f%%\n",
			row.Leverage, row.Count, row.MeanHoldings, row.BestHoldings,
			row.MeanSharpe, row.MeanDrawdownPct, row.LiquidationRate*100)
	}
}
