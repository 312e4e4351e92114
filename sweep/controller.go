package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"sologrid/engine"
	"sologrid/market"
	"sologrid/metrics"
)

// Options bound and seed a sweep run.
type Options struct {
	MaxCombinations int
	Seed            int64
	Workers         int
	InitialCapital  float64
	TradingFee      float64
	MakerFee        float64
}

// DefaultOptions caps the product at 1000 combinations with a fixed seed
// so reruns over the same space reproduce the same subset.
func DefaultOptions() Options {
	return Options{
		MaxCombinations: 1000,
		Seed:            42,
		Workers:         runtime.GOMAXPROCS(0),
		InitialCapital:  1000,
	}
}

// Result is the outcome of one combination.
type Result struct {
	Params        Params  `json:"params"`
	FinalHoldings float64 `json:"final_holdings"`
	ChangePct     float64 `json:"change_pct"`
	TotalTrades   int     `json:"total_trades"`
	Liquidations  int     `json:"liquidations"`
	Liquidated    bool    `json:"liquidated"`
	// SurvivalRate is the fraction of bars stepped before the run
	// terminated: 1.0 means the full series was traded.
	SurvivalRate   float64 `json:"survival_rate"`
	Sharpe         float64 `json:"sharpe"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	FeesPaid       float64 `json:"fees_paid"`
}

// Controller fans combinations out over a worker pool and collects
// ranked results.
type Controller struct {
	opts Options
}

// NewController validates options and fills zero fields from defaults.
func NewController(opts Options) (*Controller, error) {
	def := DefaultOptions()
	if opts.MaxCombinations <= 0 {
		opts.MaxCombinations = def.MaxCombinations
	}
	if opts.Seed == 0 {
		opts.Seed = def.Seed
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.InitialCapital <= 0 {
		return nil, fmt.Errorf("sweep: initial capital must be positive, got %v", opts.InitialCapital)
	}
	if opts.TradingFee < 0 || opts.MakerFee < 0 {
		return nil, errors.New("sweep: fees cannot be negative")
	}
	return &Controller{opts: opts}, nil
}

// Run replays every sampled combination over series and returns results
// sorted by final holdings, best first. Combinations whose engine fails
// to start are skipped rather than failing the sweep.
func (c *Controller) Run(ctx context.Context, space Space, series market.Series) ([]Result, error) {
	if len(series) < 2 {
		return nil, errors.New("sweep: series too short")
	}

	combos := Sample(space.Combos(), c.opts.MaxCombinations, c.opts.Seed)
	if len(combos) == 0 {
		return nil, errors.New("sweep: empty parameter space")
	}

	prices := series.Prices()
	results := make([]*Result, len(combos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i, p := range combos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := c.runOne(p, series, prices)
			if err != nil {
				return nil // skip broken combos
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalHoldings > out[j].FinalHoldings
	})
	return out, nil
}

func (c *Controller) runOne(p Params, series market.Series, prices []float64) (*Result, error) {
	cfg := engine.Config{
		Leverage:        p.Leverage,
		GridSize:        p.GridSize,
		GridRatio:       p.GridRatio,
		MaxPositionSize: p.MaxPositionSize,
		TradingFee:      c.opts.TradingFee,
		MakerFee:        c.opts.MakerFee,
	}

	eng, err := engine.New(c.opts.InitialCapital, prices[0], cfg)
	if err != nil {
		return nil, err
	}

	holdings := make([]float64, 0, len(series))

	// Every bar is stepped, including the first, so the grid anchors at
	// the first bar's price.
	bars := 0
	for i := range series {
		snap, err := eng.Step(series[i].Price, prices[:i+1], series[i].Time)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, snap.Collateral)
		bars++
		if snap.Liquidated {
			break
		}
	}

	sum := eng.Summary()
	dd := metrics.MaxDrawdown(holdings)

	return &Result{
		Params:         p,
		FinalHoldings:  sum.FinalCollateral,
		ChangePct:      sum.AssetChangePct,
		TotalTrades:    sum.TotalTrades,
		Liquidations:   sum.Liquidations,
		Liquidated:     sum.Liquidated,
		SurvivalRate:   float64(bars) / float64(len(series)),
		Sharpe:         metrics.Sharpe(holdings),
		MaxDrawdownPct: dd.Pct,
		FeesPaid:       sum.TotalFees,
	}, nil
}
