package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturns(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Returns(nil))
	assert.Nil(t, Returns([]float64{10}))

	r := Returns([]float64{10, 11, 9.9})
	assert.Len(t, r, 2)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.InDelta(t, -0.1, r[1], 1e-12)
}

func TestSharpeDegenerate(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Sharpe(nil))
	assert.Zero(t, Sharpe([]float64{10, 11}))
	// A flat series has zero return variance.
	assert.Zero(t, Sharpe([]float64{10, 10, 10, 10}))
}

func TestSharpeSign(t *testing.T) {
	t.Parallel()

	up := Sharpe([]float64{10, 10.5, 10.4, 11, 11.2})
	down := Sharpe([]float64{10, 9.5, 9.6, 9, 8.8})

	assert.Greater(t, up, 0.0)
	assert.Less(t, down, 0.0)
}

func TestSortino(t *testing.T) {
	t.Parallel()

	// Monotonic growth: no downside periods, positive mean.
	assert.True(t, math.IsInf(Sortino([]float64{10, 11, 12, 13}), 1))
	assert.Zero(t, Sortino([]float64{10, 10, 10}))

	mixed := Sortino([]float64{10, 11, 10.5, 11.5, 10.8, 12})
	assert.False(t, math.IsInf(mixed, 0))
	assert.Greater(t, mixed, 0.0)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	assert.Zero(t, MaxDrawdown(nil).Pct)

	dd := MaxDrawdown([]float64{10, 12, 9, 11, 8, 14})
	assert.InDelta(t, (12.0-8.0)/12.0*100, dd.Pct, 1e-9)
	assert.InDelta(t, 4.0, dd.Amount, 1e-9)
	assert.InDelta(t, 12.0, dd.Peak, 1e-9)
	assert.InDelta(t, 8.0, dd.Trough, 1e-9)

	flat := MaxDrawdown([]float64{5, 5, 5})
	assert.Zero(t, flat.Pct)

	// The worst percentage and worst absolute declines can land on
	// different bars: 10 -> 2 is 80% but only 8 units, 100 -> 50 is 50
	// units but only 50%.
	split := MaxDrawdown([]float64{10, 2, 100, 50})
	assert.InDelta(t, 80.0, split.Pct, 1e-9)
	assert.InDelta(t, 10.0, split.Peak, 1e-9)
	assert.InDelta(t, 2.0, split.Trough, 1e-9)
	assert.InDelta(t, 50.0, split.Amount, 1e-9)
}

func TestCalmar(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Calmar(nil, 30))
	assert.Zero(t, Calmar([]float64{10, 11}, 0))

	// No drawdown and positive return.
	assert.True(t, math.IsInf(Calmar([]float64{10, 11, 12}, 365), 1))

	c := Calmar([]float64{10, 12, 9, 11}, 365)
	annual := 11.0/10.0 - 1
	ddPct := (12.0 - 9.0) / 12.0 * 100
	assert.InDelta(t, annual*100/ddPct, c, 1e-9)
}

func TestWins(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Wins(nil).WinRate)

	s := Wins([]float64{2, -1, 4, -3})
	assert.InDelta(t, 50.0, s.WinRate, 1e-12)
	assert.InDelta(t, 3.0, s.AvgWin, 1e-12)
	assert.InDelta(t, -2.0, s.AvgLoss, 1e-12)
	assert.InDelta(t, 1.5, s.ProfitFactor, 1e-12)

	allWins := Wins([]float64{1, 2})
	assert.InDelta(t, 100.0, allWins.WinRate, 1e-12)
	assert.True(t, math.IsInf(allWins.ProfitFactor, 1))
}
