package sweep

import "sort"

// SurvivalZone filters out configurations that were liquidated, keeping
// the incoming order.
func SurvivalZone(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if !r.Liquidated {
			out = append(out, r)
		}
	}
	return out
}

// Zone summarizes where in the parameter space configurations survive.
type Zone struct {
	Survivors      int     `json:"survivors"`
	Total          int     `json:"total"`
	Rate           float64 `json:"rate"`
	Best           *Result `json:"best,omitempty"`
	MinLeverage    float64 `json:"min_leverage"`
	MaxLeverage    float64 `json:"max_leverage"`
	MinPosition    float64 `json:"min_position"`
	MaxPosition    float64 `json:"max_position"`
	MedianHoldings float64 `json:"median_holdings"`
}

// Survival reports the surviving region: count, rate, the best surviving
// configuration and the parameter ranges it spans.
func Survival(results []Result) Zone {
	z := Zone{Total: len(results)}
	survivors := SurvivalZone(results)
	z.Survivors = len(survivors)
	if len(results) > 0 {
		z.Rate = float64(len(survivors)) / float64(len(results))
	}
	if len(survivors) == 0 {
		return z
	}

	best := survivors[0]
	z.MinLeverage, z.MaxLeverage = best.Params.Leverage, best.Params.Leverage
	z.MinPosition, z.MaxPosition = best.Params.MaxPositionSize, best.Params.MaxPositionSize

	holdings := make([]float64, 0, len(survivors))
	for _, r := range survivors {
		if r.FinalHoldings > best.FinalHoldings {
			best = r
		}
		z.MinLeverage = min(z.MinLeverage, r.Params.Leverage)
		z.MaxLeverage = max(z.MaxLeverage, r.Params.Leverage)
		z.MinPosition = min(z.MinPosition, r.Params.MaxPositionSize)
		z.MaxPosition = max(z.MaxPosition, r.Params.MaxPositionSize)
		holdings = append(holdings, r.FinalHoldings)
	}
	z.Best = &best

	sort.Float64s(holdings)
	mid := len(holdings) / 2
	if len(holdings)%2 == 1 {
		z.MedianHoldings = holdings[mid]
	} else {
		z.MedianHoldings = (holdings[mid-1] + holdings[mid]) / 2
	}
	return z
}

// FrontierRow aggregates every result sharing one leverage.
type FrontierRow struct {
	Leverage        float64 `json:"leverage"`
	Count           int     `json:"count"`
	MeanHoldings    float64 `json:"mean_holdings"`
	MeanChangePct   float64 `json:"mean_change_pct"`
	MeanSharpe      float64 `json:"mean_sharpe"`
	MeanDrawdownPct float64 `json:"mean_drawdown_pct"`
	BestHoldings    float64 `json:"best_holdings"`
	LiquidationRate float64 `json:"liquidation_rate"`
}

// Frontier groups results by leverage and reports how outcome and
// liquidation risk trade off along that axis. Rows come back sorted by
// leverage ascending.
func Frontier(results []Result) []FrontierRow {
	byLev := make(map[float64]*FrontierRow)
	for _, r := range results {
		row := byLev[r.Params.Leverage]
		if row == nil {
			row = &FrontierRow{Leverage: r.Params.Leverage}
			byLev[r.Params.Leverage] = row
		}
		row.Count++
		row.MeanHoldings += r.FinalHoldings
		row.MeanChangePct += r.ChangePct
		row.MeanSharpe += r.Sharpe
		row.MeanDrawdownPct += r.MaxDrawdownPct
		if r.FinalHoldings > row.BestHoldings {
			row.BestHoldings = r.FinalHoldings
		}
		if r.Liquidated {
			row.LiquidationRate++
		}
	}

	out := make([]FrontierRow, 0, len(byLev))
	for _, row := range byLev {
		n := float64(row.Count)
		row.MeanHoldings /= n
		row.MeanChangePct /= n
		row.MeanSharpe /= n
		row.MeanDrawdownPct /= n
		row.LiquidationRate /= n
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Leverage < out[j].Leverage })
	return out
}
