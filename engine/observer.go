package engine

import "go.uber.org/zap"

// Observer receives structured strategy events. The engine itself never
// logs or prints; anything that wants visibility injects an Observer.
type Observer interface {
	PositionOpened(p Position)
	PositionClosed(t Trade)
	Liquidation(price, collateral float64)
	GridRebuilt(levels []float64)
	LeverageAdjusted(volatility, leverage float64)
}

// NopObserver discards all events. It is the default.
type NopObserver struct{}

func (NopObserver) PositionOpened(Position) {}

func (NopObserver) PositionClosed(Trade) {}

func (NopObserver) Liquidation(float64, float64) {}

func (NopObserver) GridRebuilt([]float64) {}

func (NopObserver) LeverageAdjusted(float64, float64) {}

// LogObserver adapts events to a zap logger.
type LogObserver struct {
	log *zap.Logger
}

func NewLogObserver(log *zap.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) PositionOpened(p Position) {
	o.log.Debug("position opened",
		zap.Float64("entry", p.EntryPrice),
		zap.Float64("size", p.Size),
		zap.Float64("leverage", p.Leverage),
		zap.Float64("liquidation", p.LiquidationPrice),
		zap.Float64("grid_level", p.GridLevel),
	)
}

func (o *LogObserver) PositionClosed(t Trade) {
	o.log.Debug("position closed",
		zap.Float64("entry", t.EntryPrice),
		zap.Float64("exit", t.ExitPrice),
		zap.Float64("pnl", t.PnL),
		zap.Float64("pnl_asset", t.PnLAsset),
		zap.String("reason", string(t.Reason)),
	)
}

func (o *LogObserver) Liquidation(price, collateral float64) {
	o.log.Error("liquidation",
		zap.Float64("price", price),
		zap.Float64("collateral", collateral),
	)
}

func (o *LogObserver) GridRebuilt(levels []float64) {
	o.log.Debug("grid rebuilt", zap.Int("levels", len(levels)))
}

func (o *LogObserver) LeverageAdjusted(volatility, leverage float64) {
	o.log.Debug("adaptive leverage",
		zap.Float64("volatility", volatility),
		zap.Float64("leverage", leverage),
	)
}
