// Package metrics computes risk-adjusted statistics over asset-unit
// holdings series. Wealth here is measured in units of the traded asset,
// not quote currency; a flat holdings curve in a falling market is a flat
// curve, not a loss.
package metrics

import "math"

// periodsPerYear annualizes bar returns assuming daily bars.
const periodsPerYear = 365.0

// Returns computes simple period returns of a holdings series. Bars
// following a non-positive value are skipped.
func Returns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		if series[i-1] <= 0 {
			continue
		}
		out = append(out, series[i]/series[i-1]-1)
	}
	return out
}

// Sharpe is mean return over sample standard deviation, annualized.
// Degenerate series (too short, or zero variance) report 0.
func Sharpe(series []float64) float64 {
	returns := Returns(series)
	if len(returns) < 2 {
		return 0
	}

	mean := meanOf(returns)
	std := stddev(returns, mean)
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(periodsPerYear)
}

// Sortino penalizes downside volatility only. With no losing periods it
// reports +Inf for a positive mean and 0 otherwise.
func Sortino(series []float64) float64 {
	returns := Returns(series)
	if len(returns) == 0 {
		return 0
	}

	mean := meanOf(returns)

	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}

	downStd := stddev(downside, meanOf(downside))
	if downStd == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}

	return mean / downStd * math.Sqrt(periodsPerYear)
}

// Drawdown describes the deepest peak-to-trough decline of a series.
// Pct, Peak and Trough belong to the worst percentage decline; Amount is
// the largest absolute decline, which can fall on a different bar.
type Drawdown struct {
	Pct    float64 // percent of peak
	Amount float64 // asset units
	Peak   float64
	Trough float64
}

// MaxDrawdown scans the running peak and returns the worst decline.
func MaxDrawdown(series []float64) Drawdown {
	if len(series) == 0 {
		return Drawdown{}
	}

	peak := series[0]
	worst := Drawdown{Peak: peak, Trough: series[0]}

	for _, v := range series {
		if v > peak {
			peak = v
		}
		if amt := peak - v; amt > worst.Amount {
			worst.Amount = amt
		}
		if peak <= 0 {
			continue
		}
		pct := (peak - v) / peak * 100
		if pct > worst.Pct {
			worst.Pct = pct
			worst.Peak = peak
			worst.Trough = v
		}
	}
	return worst
}

// Calmar is annualized return over max drawdown. days is the span of the
// series in days; a zero-drawdown series reports +Inf for positive return
// and 0 otherwise.
func Calmar(series []float64, days float64) float64 {
	if len(series) < 2 || days <= 0 || series[0] <= 0 {
		return 0
	}

	total := series[len(series)-1]/series[0] - 1
	annual := math.Pow(1+total, periodsPerYear/days) - 1

	dd := MaxDrawdown(series)
	if dd.Pct == 0 {
		if annual > 0 {
			return math.Inf(1)
		}
		return 0
	}

	return annual * 100 / dd.Pct
}

// WinStats summarizes per-trade asset-unit PnLs.
type WinStats struct {
	WinRate      float64 // percent
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor float64
}

// Wins computes win-rate statistics over per-trade PnLs. With no losing
// trades the profit factor is +Inf.
func Wins(pnls []float64) WinStats {
	if len(pnls) == 0 {
		return WinStats{}
	}

	var wins, losses int
	var winSum, lossSum float64
	for _, p := range pnls {
		if p > 0 {
			wins++
			winSum += p
		} else if p < 0 {
			losses++
			lossSum += -p
		}
	}

	s := WinStats{WinRate: float64(wins) / float64(len(pnls)) * 100}
	if wins > 0 {
		s.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = -(lossSum / float64(losses))
	}
	if lossSum > 0 {
		s.ProfitFactor = winSum / lossSum
	} else if winSum > 0 {
		s.ProfitFactor = math.Inf(1)
	}
	return s
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1).
func stddev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}
