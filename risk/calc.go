// Package risk provides pre-trade validation and drawdown monitoring
// independent of the strategy engine. The Calculator shares the engine's
// liquidation formula (it satisfies engine.RiskPolicy) but carries its own,
// more conservative margin defaults for standalone use.
package risk

import "fmt"

const (
	DefaultMaintenanceMargin = 0.08
	DefaultSafetyBuffer      = 1.3

	// maxNotionalFraction caps a single order's notional relative to
	// portfolio value.
	maxNotionalFraction = 0.8

	// minLiquidationMargin is the minimum distance between current price
	// and liquidation price, as a fraction of current price.
	minLiquidationMargin = 0.40
)

type Calculator struct {
	MaintenanceMargin float64
	SafetyBuffer      float64
}

// NewCalculator returns a Calculator with the standalone defaults.
func NewCalculator() Calculator {
	return Calculator{
		MaintenanceMargin: DefaultMaintenanceMargin,
		SafetyBuffer:      DefaultSafetyBuffer,
	}
}

// LiquidationPrice returns the forced-close price for a short:
//
//	entry * (1 + leverage*margin*buffer)
//
// which always lies above the entry price.
func (c Calculator) LiquidationPrice(entry, leverage float64) float64 {
	return entry * (1 + leverage*c.MaintenanceMargin*c.SafetyBuffer)
}

// LiquidationPriceLong is the mirror for longs, below the entry price.
func (c Calculator) LiquidationPriceLong(entry, leverage float64) float64 {
	return entry * (1 - leverage*c.MaintenanceMargin*c.SafetyBuffer)
}

// ValidateOrder rejects a prospective short whose notional would exceed
// 80% of portfolio value, or whose liquidation price would sit closer than
// 40% above the current price.
func (c Calculator) ValidateOrder(portfolioValue, price, size, leverage float64) error {
	notional := size * price * leverage
	if notional > portfolioValue*maxNotionalFraction {
		return fmt.Errorf("risk: order notional %.2f exceeds %.0f%% of portfolio value %.2f",
			notional, maxNotionalFraction*100, portfolioValue)
	}

	liq := c.LiquidationPrice(price, leverage)
	margin := (liq - price) / price
	if margin < minLiquidationMargin {
		return fmt.Errorf("risk: liquidation margin %.1f%% below required %.0f%%",
			margin*100, minLiquidationMargin*100)
	}

	return nil
}
