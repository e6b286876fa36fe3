// Package risk converts signals into position sizes under a fixed risk
// budget and derives stop-loss/take-profit levels from volatility and
// structure.
package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRiskInput marks degenerate sizing inputs for a single signal.
// The signal is skipped; the run continues.
var ErrInvalidRiskInput = errors.New("risk: invalid sizing input")

// Sizer computes position sizes so that a stop-out loses at most
// equity * RiskPct, before costs.
type Sizer struct {
	RiskPct      float64 // fraction of equity risked per trade, (0,1]
	MinIncrement float64 // instrument's smallest tradable increment in units
}

// Size returns units = equity*riskPct / |entry-stop|, floored to the
// instrument increment. The floor guarantees realized risk never exceeds the
// configured percentage.
func (s Sizer) Size(equity, entry, stop float64) (float64, error) {
	if equity <= 0 {
		return 0, fmt.Errorf("%w: equity %g", ErrInvalidRiskInput, equity)
	}
	dist := math.Abs(entry - stop)
	if dist == 0 {
		return 0, fmt.Errorf("%w: stop equals entry at %g", ErrInvalidRiskInput, entry)
	}

	units := equity * s.RiskPct / dist

	inc := s.MinIncrement
	if inc <= 0 {
		inc = 1
	}
	// One part per billion of slack keeps representation noise in the
	// division from flooring an exact multiple one increment low.
	ratio := units / inc
	units = math.Floor(ratio*(1+1e-9)) * inc

	if units <= 0 {
		return 0, fmt.Errorf("%w: size rounds to zero (equity=%g dist=%g)", ErrInvalidRiskInput, equity, dist)
	}
	return units, nil
}
