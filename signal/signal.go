// Package signal fuses structural context into a single directional trade
// signal. Aggregation is a pure function of the snapshot: no history, no
// randomness, the same structural state always yields the same signal.
package signal

import (
	"time"

	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/structure"
)

// Evidence names one structural object that contributed to a signal.
type Evidence struct {
	Kind  string // "order-block", "fvg", "bos", "choch", "daily-bias", "kill-zone", "ote", "liquidity-grab"
	Index int
	Level float64
}

// Signal is the fused directional decision for one bar. It is transient:
// recomputed every bar, never mutated after creation.
type Signal struct {
	Direction market.Direction
	Strength  float64 // 0..1
	Time      time.Time
	Evidence  []Evidence
}

// Actionable reports whether the signal carries a tradable direction.
func (s Signal) Actionable() bool { return s.Direction != market.NoDirection }

type Config struct {
	RequireKillZone bool // only act inside a kill zone
	RequireOTE      bool // only act when price sits in the OTE zone
	TrendEMAPeriod  int  // bars; 0 disables the strategy's trend filter
}

// Aggregator applies the confluence rule: a tradable signal needs an
// unmitigated zone (order block or FVG) plus agreeing momentum (BOS/CHOCH or
// daily bias), with optional session timing filters on top.
type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate evaluates both directions against the snapshot. Conflicting
// confluence (both directions qualify) resolves to no signal.
func (g *Aggregator) Aggregate(snap structure.Snapshot) Signal {
	long, longEv := g.qualify(snap, market.Long)
	short, shortEv := g.qualify(snap, market.Short)

	none := Signal{Direction: market.NoDirection, Time: snap.Time}
	switch {
	case long && short:
		return none
	case long:
		return build(snap, market.Long, longEv)
	case short:
		return build(snap, market.Short, shortEv)
	}
	return none
}

func (g *Aggregator) qualify(snap structure.Snapshot, dir market.Direction) (bool, []Evidence) {
	var ev []Evidence

	if ob, ok := snap.LiveOrderBlock(dir); ok {
		ev = append(ev, Evidence{Kind: "order-block", Index: ob.Index, Level: ob.High})
	}
	if gap, ok := snap.LiveGap(dir); ok {
		ev = append(ev, Evidence{Kind: "fvg", Index: gap.Index, Level: gap.Low})
	}
	zones := len(ev)
	if zones == 0 {
		return false, nil
	}

	momentum := 0
	if e := snap.LastEvent; e != nil && e.Direction == dir {
		kind := "bos"
		if e.Kind == structure.CHOCH {
			kind = "choch"
		}
		ev = append(ev, Evidence{Kind: kind, Index: e.Index, Level: e.Level})
		momentum++
	}
	if snap.DailyBias == dir {
		ev = append(ev, Evidence{Kind: "daily-bias", Index: snap.Index})
		momentum++
	}
	if momentum == 0 {
		return false, nil
	}

	if g.cfg.RequireKillZone && !snap.InKillZone {
		return false, nil
	}
	if g.cfg.RequireOTE && !(snap.InOTE && snap.OTEDirection == dir) {
		return false, nil
	}

	// Timing context that is present but not required still strengthens the
	// signal.
	if snap.InKillZone {
		ev = append(ev, Evidence{Kind: "kill-zone", Index: snap.Index})
	}
	if snap.InOTE && snap.OTEDirection == dir {
		ev = append(ev, Evidence{Kind: "ote", Index: snap.Index})
	}
	for _, grab := range snap.Grabs {
		if grab.Direction == dir {
			ev = append(ev, Evidence{Kind: "liquidity-grab", Index: grab.Index, Level: grab.Level})
			break
		}
	}

	return true, ev
}

func build(snap structure.Snapshot, dir market.Direction, ev []Evidence) Signal {
	// Two pieces of evidence are the entry ticket; everything beyond adds
	// conviction.
	strength := 0.5 + 0.1*float64(len(ev)-2)
	if strength > 1 {
		strength = 1
	}
	return Signal{Direction: dir, Strength: strength, Time: snap.Time, Evidence: ev}
}
