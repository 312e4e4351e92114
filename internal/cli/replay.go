package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sologrid/config"
	"sologrid/engine"
	"sologrid/journal"
	"sologrid/market"
	"sologrid/portfolio"
	"sologrid/replay"
)

func newReplayCmd(rc *RootConfig) *cobra.Command {
	var (
		dataPath    string
		journalKind string
		outDir      string
		closeEnd    bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a dataset bar by bar, journaling every trade and snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataPath == "" {
				return fmt.Errorf("--data is required")
			}

			fileCfg := config.Default()
			if rc.ConfigPath != "" {
				var err error
				fileCfg, err = config.LoadFromFile(rc.ConfigPath)
				if err != nil {
					return err
				}
			}
			if journalKind == "" {
				journalKind = fileCfg.Journal.Type
			}

			series, err := market.LoadCSV(dataPath)
			if err != nil {
				return err
			}
			if len(series) < 2 {
				return fmt.Errorf("dataset %s has too few bars", dataPath)
			}

			j, err := openJournal(journalKind, rc.DBPath, outDir)
			if err != nil {
				return err
			}
			defer j.Close()

			eng, err := engine.New(fileCfg.Trading.InitialCapital, series[0].Price,
				fileCfg.ToEngine(),
				engine.WithObserver(engine.NewLogObserver(rc.Logger)))
			if err != nil {
				return err
			}
			ledger, err := portfolio.NewLedger(fileCfg.Trading.InitialCapital, series[0].Price)
			if err != nil {
				return err
			}

			runner := &replay.Runner{
				Engine:   eng,
				Feed:     market.NewSliceFeed(series),
				Ledger:   ledger,
				Journal:  j,
				CloseEnd: closeEnd,
			}

			res, err := runner.Run(context.Background())
			if err != nil {
				return err
			}

			rc.Logger.Info("replay finished",
				zap.String("run_id", res.RunID),
				zap.Int("bars", res.Bars),
				zap.Bool("liquidated", res.Summary.Liquidated))

			printSummary(res, series)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Price dataset (.csv, .csv.gz, .csv.xz or .zip)")
	cmd.Flags().StringVar(&journalKind, "journal", "", "Journal backend: sqlite|csv (default from config)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory for CSV journal files")
	cmd.Flags().BoolVar(&closeEnd, "close-end", true, "Close open positions at end of data")

	return cmd
}

func openJournal(kind, dbPath, outDir string) (journal.Journal, error) {
	switch kind {
	case "csv":
		return journal.NewCSV(
			filepath.Join(outDir, "trades.csv"),
			filepath.Join(outDir, "snapshots.csv"),
			filepath.Join(outDir, "sweep.csv"),
		)
	case "", "sqlite":
		return journal.NewSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unknown journal backend %q", kind)
	}
}
