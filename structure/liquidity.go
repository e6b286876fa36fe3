package structure

import (
	"time"

	"github.com/quantfx/smctrader/market"
)

// LiquidityGrab marks a stop-hunt bar: a wick sweeps a prior swing extreme by
// at least a fraction of ATR and the bar closes back inside the prior range.
// A sweep below a swing low takes sell-side liquidity and biases long, so its
// direction is bullish; a sweep above a swing high is bearish.
type LiquidityGrab struct {
	Level     float64 // the swept swing extreme
	Index     int
	Time      time.Time
	Direction market.Direction
}

// detectGrab tests the current bar against the most recent swing extremes.
func detectGrab(b market.Bar, idx int, swings *SwingLedger, atr, minFraction float64) (LiquidityGrab, bool) {
	if atr <= 0 {
		return LiquidityGrab{}, false
	}
	excess := atr * minFraction

	if low, ok := swings.LastLow(); ok && idx > low.Index {
		if b.Low < low.Price-excess && b.Close > low.Price {
			return LiquidityGrab{Level: low.Price, Index: idx, Time: b.Time, Direction: market.Bullish}, true
		}
	}
	if high, ok := swings.LastHigh(); ok && idx > high.Index {
		if b.High > high.Price+excess && b.Close < high.Price {
			return LiquidityGrab{Level: high.Price, Index: idx, Time: b.Time, Direction: market.Bearish}, true
		}
	}
	return LiquidityGrab{}, false
}
