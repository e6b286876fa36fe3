// Package indicators provides streaming technical indicators over closed bars.
package indicators

import "github.com/quantfx/smctrader/market"

// Indicator computes a single streaming value from bars. Updates are
// deterministic, so the same bar sequence always yields the same values in
// live, replay, and backtest runs.
type Indicator interface {
	// Name returns a stable identifier like "ATR(14)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value; callers should check Ready() first.
	Value() float64
}
