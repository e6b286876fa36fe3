package structure

import (
	"time"

	"github.com/quantfx/smctrader/market"
)

// FairValueGap is a three-bar imbalance: the first bar's extreme does not
// overlap the third bar's opposite extreme, leaving a price void.
type FairValueGap struct {
	Low         float64
	High        float64
	Index       int // index of the third (closing) bar
	Time        time.Time
	Direction   market.Direction
	Mitigated   bool
	MitigatedAt int
}

// detectFVG checks whether the bar at idx closes a three-bar imbalance.
// A bullish gap needs bar idx-2's high below bar idx's low; bearish is the
// mirror image.
func detectFVG(bars []market.Bar, idx int) (FairValueGap, bool) {
	if idx < 2 {
		return FairValueGap{}, false
	}
	first, third := bars[idx-2], bars[idx]

	if first.High < third.Low {
		return FairValueGap{
			Low:       first.High,
			High:      third.Low,
			Index:     idx,
			Time:      third.Time,
			Direction: market.Bullish,
		}, true
	}
	if first.Low > third.High {
		return FairValueGap{
			Low:       third.High,
			High:      first.Low,
			Index:     idx,
			Time:      third.Time,
			Direction: market.Bearish,
		}, true
	}
	return FairValueGap{}, false
}

// mitigate marks the gap once a bar closes back inside its range.
func (g *FairValueGap) mitigate(b market.Bar, idx int) {
	if g.Mitigated || idx <= g.Index {
		return
	}
	if b.Close > g.Low && b.Close < g.High {
		g.Mitigated = true
		g.MitigatedAt = idx
	}
}
