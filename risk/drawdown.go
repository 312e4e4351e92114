package risk

// Status classifies an observed drawdown against configured thresholds.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// warningFraction is the share of the max drawdown at which the monitor
// starts warning.
const warningFraction = 0.7

// Report is the outcome of a drawdown or position-risk check.
type Report struct {
	Status     Status
	Drawdown   float64 // fraction of peak
	ShouldStop bool
}

// DrawdownMonitor tracks a running peak and classifies each new value
// against a maximum acceptable drawdown. Zero value is not usable; build
// with NewDrawdownMonitor.
type DrawdownMonitor struct {
	max     float64
	peak    float64
	started bool
}

func NewDrawdownMonitor(maxDrawdown float64) *DrawdownMonitor {
	return &DrawdownMonitor{max: maxDrawdown}
}

// Check updates the peak and classifies the current value. Values above
// the running peak reset it.
func (m *DrawdownMonitor) Check(value float64) Report {
	if !m.started || value > m.peak {
		m.peak = value
		m.started = true
	}

	var dd float64
	if m.peak > 0 {
		dd = (m.peak - value) / m.peak
	}

	r := Report{Status: StatusOK, Drawdown: dd}
	switch {
	case dd > m.max:
		r.Status = StatusCritical
		r.ShouldStop = true
	case dd > m.max*warningFraction:
		r.Status = StatusWarning
	}
	return r
}

// Peak returns the running peak value.
func (m *DrawdownMonitor) Peak() float64 { return m.peak }

// PositionReport classifies a single position's distance to liquidation.
type PositionReport struct {
	Status                Status
	DistanceToLiquidation float64 // fraction of current price
	ShouldClose           bool
}

// PositionRisk evaluates an open short: distance from current price up to
// its liquidation price. Under 10% is critical, under 20% a warning.
func PositionRisk(liquidationPrice, price float64) PositionReport {
	distance := (liquidationPrice - price) / price

	r := PositionReport{Status: StatusOK, DistanceToLiquidation: distance}
	switch {
	case distance < 0.10:
		r.Status = StatusCritical
		r.ShouldClose = true
	case distance < 0.20:
		r.Status = StatusWarning
	}
	return r
}
