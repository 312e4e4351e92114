package market

import "time"

// Bar is a single observation in a historical price series.
type Bar struct {
	Time  time.Time
	Price float64
}

// Series is a chronologically ordered price history. The core does not
// enforce uniqueness of timestamps; it only assumes ascending order.
type Series []Bar

// Prices returns the raw price column. The slice is freshly allocated so
// callers can pass growing prefixes of it as trailing windows without
// touching the Series itself.
func (s Series) Prices() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Price
	}
	return out
}

// Span returns the duration covered by the series in days. Used for
// annualizing ratios; 0 for series shorter than two bars.
func (s Series) Span() float64 {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].Time.Sub(s[0].Time).Hours() / 24
}
