package structure

import (
	"time"

	"github.com/quantfx/smctrader/market"
)

// OrderBlock is the last opposite-direction candle immediately preceding an
// impulsive move that broke a swing point. Its full range acts as a future
// support/resistance zone until price trades back through it.
type OrderBlock struct {
	Low         float64
	High        float64
	Index       int
	Time        time.Time
	Direction   market.Direction // direction of the move it fuels, not of the candle
	Mitigated   bool
	MitigatedAt int
}

// findOrderBlock scans back from the impulse bar for the last candle whose
// body runs against dir. Returns ok=false when no opposing candle exists
// within lookback bars.
func findOrderBlock(bars []market.Bar, impulseIdx int, dir market.Direction, lookback int) (OrderBlock, bool) {
	stop := impulseIdx - lookback
	if stop < 0 {
		stop = 0
	}
	for i := impulseIdx - 1; i >= stop; i-- {
		if bars[i].Direction() == dir.Opposite() {
			return OrderBlock{
				Low:       bars[i].Low,
				High:      bars[i].High,
				Index:     i,
				Time:      bars[i].Time,
				Direction: dir,
			}, true
		}
	}
	return OrderBlock{}, false
}

// mitigate marks the block once price trades back through its full range:
// below the low of a bullish block, above the high of a bearish one.
func (ob *OrderBlock) mitigate(b market.Bar, idx int) {
	if ob.Mitigated {
		return
	}
	switch ob.Direction {
	case market.Bullish:
		if b.Low < ob.Low {
			ob.Mitigated = true
			ob.MitigatedAt = idx
		}
	case market.Bearish:
		if b.High > ob.High {
			ob.Mitigated = true
			ob.MitigatedAt = idx
		}
	}
}
