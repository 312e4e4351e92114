package engine

import "math"

// RiskPolicy supplies the liquidation price for a new short. The engine's
// default and the standalone risk.Calculator implement the same formula so
// there is exactly one place the math lives per policy value.
type RiskPolicy interface {
	LiquidationPrice(entry, leverage float64) float64
}

// MarginPolicy is the default RiskPolicy:
//
//	liq = entry * (1 + leverage*maintenanceMargin*safetyBuffer)
//
// For a short this always lies above the entry price.
type MarginPolicy struct {
	MaintenanceMargin float64
	SafetyBuffer      float64
}

func (p MarginPolicy) LiquidationPrice(entry, leverage float64) float64 {
	return entry * (1 + leverage*p.MaintenanceMargin*p.SafetyBuffer)
}

// GridPolicy generates entry levels below the current price and sizes new
// positions. Two implementations consolidate what used to be two parallel
// strategy code paths.
type GridPolicy interface {
	// Levels returns target prices sorted descending (closest level first).
	Levels(price float64) []float64
	// Size returns the position size in base asset units for a new entry,
	// given current collateral, price and the number of open positions.
	Size(collateral, price float64, open int) float64
}

// ProgressiveGrid widens spacing with depth: level i uses
// ratio*(1+0.1*i), floored at MinDistance, compounding downward. Sizing
// shrinks as positions stack up, never below 30% of the base fraction.
type ProgressiveGrid struct {
	GridSize        int
	Ratio           float64
	MinDistance     float64
	MaxPositionSize float64
}

func (g ProgressiveGrid) Levels(price float64) []float64 {
	levels := make([]float64, 0, g.GridSize)
	level := price
	for i := 0; i < g.GridSize; i++ {
		spacing := g.Ratio * (1 + float64(i)*0.1)
		if spacing < g.MinDistance {
			spacing = g.MinDistance
		}
		level *= 1 - spacing
		levels = append(levels, level)
	}
	// Built top-down, so already descending.
	return levels
}

func (g ProgressiveGrid) Size(collateral, price float64, open int) float64 {
	factor := math.Max(0.3, 1-0.1*float64(open))
	value := collateral * price * g.MaxPositionSize * factor
	return value / price
}

// UniformGrid spaces levels at a constant ratio and sizes every entry at a
// flat fraction of portfolio value.
type UniformGrid struct {
	GridSize int
	Ratio    float64
	Fraction float64
}

func (g UniformGrid) Levels(price float64) []float64 {
	levels := make([]float64, 0, g.GridSize)
	level := price
	for i := 0; i < g.GridSize; i++ {
		level *= 1 - g.Ratio
		levels = append(levels, level)
	}
	return levels
}

func (g UniformGrid) Size(collateral, price float64, open int) float64 {
	return collateral * g.Fraction
}
