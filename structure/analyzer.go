// Package structure detects SMC/ICT price-structure primitives from an
// ordered bar series: swing points, order blocks, fair value gaps, liquidity
// grabs, BOS/CHOCH events, and session-based timing context.
package structure

import (
	"time"

	"github.com/quantfx/smctrader/indicators"
	"github.com/quantfx/smctrader/market"
)

type Config struct {
	SwingWindow        int // fractal bars each side
	ATRPeriod          int
	GrabATRFraction    float64 // minimum sweep beyond a swing, in ATRs
	OrderBlockLookback int     // bars to scan back for the opposing candle
	GrabRecencyBars    int     // how long a grab stays live in the snapshot
	BiasLookbackDays   int
	OTELow             float64 // retracement zone, e.g. 0.618
	OTEHigh            float64 // e.g. 0.79
	KillZones          []KillZone
}

func (c Config) withDefaults() Config {
	if c.SwingWindow <= 0 {
		c.SwingWindow = 2
	}
	if c.ATRPeriod <= 0 {
		c.ATRPeriod = 14
	}
	if c.GrabATRFraction <= 0 {
		c.GrabATRFraction = 0.1
	}
	if c.OrderBlockLookback <= 0 {
		c.OrderBlockLookback = 10
	}
	if c.GrabRecencyBars <= 0 {
		c.GrabRecencyBars = 10
	}
	if c.BiasLookbackDays <= 0 {
		c.BiasLookbackDays = 1
	}
	if c.OTELow <= 0 {
		c.OTELow = 0.618
	}
	if c.OTEHigh <= 0 {
		c.OTEHigh = 0.79
	}
	if len(c.KillZones) == 0 {
		c.KillZones = DefaultKillZones()
	}
	return c
}

// Snapshot is the structural state after the latest bar. It is a value: the
// contained slices are copies, safe to hold across bars.
type Snapshot struct {
	Index int
	Time  time.Time

	Trend     market.Direction
	LastEvent *StructuralEvent

	OrderBlocks []OrderBlock    // unmitigated only
	Gaps        []FairValueGap  // unmitigated only
	Grabs       []LiquidityGrab // within the recency window

	DailyBias market.Direction
	ATR       float64
	ATRReady  bool

	KillZone   string
	InKillZone bool
	JudasSwing bool

	OTEDirection market.Direction
	InOTE        bool
}

// LiveOrderBlock returns the most recent unmitigated block in dir.
func (s Snapshot) LiveOrderBlock(dir market.Direction) (OrderBlock, bool) {
	for i := len(s.OrderBlocks) - 1; i >= 0; i-- {
		if s.OrderBlocks[i].Direction == dir {
			return s.OrderBlocks[i], true
		}
	}
	return OrderBlock{}, false
}

// LiveGap returns the most recent unmitigated fair value gap in dir.
func (s Snapshot) LiveGap(dir market.Direction) (FairValueGap, bool) {
	for i := len(s.Gaps) - 1; i >= 0; i-- {
		if s.Gaps[i].Direction == dir {
			return s.Gaps[i], true
		}
	}
	return FairValueGap{}, false
}

// Analyzer incrementally maintains the structural state of one instrument.
type Analyzer struct {
	cfg    Config
	swings *SwingLedger
	atr    *indicators.ATR
	trend  TrendState

	blocks []OrderBlock
	gaps   []FairValueGap
	grabs  []LiquidityGrab

	lastEvent *StructuralEvent

	// Ledger indexes of the last broken swings; each swing level produces at
	// most one structural event.
	brokenHighIdx int
	brokenLowIdx  int
}

func NewAnalyzer(cfg Config) *Analyzer {
	cfg = cfg.withDefaults()
	return &Analyzer{
		cfg:           cfg,
		swings:        NewSwingLedger(cfg.SwingWindow),
		atr:           indicators.NewATR(cfg.ATRPeriod),
		brokenHighIdx: -1,
		brokenLowIdx:  -1,
	}
}

// Swings exposes the rolling swing ledger (read-only).
func (a *Analyzer) Swings() *SwingLedger { return a.swings }

// Update consumes the latest bar of the series and returns the refreshed
// snapshot. Call exactly once per appended bar. With insufficient history the
// snapshot simply carries no structures, never an error.
func (a *Analyzer) Update(s *market.Series) Snapshot {
	bars := s.Bars()
	n := len(bars)
	if n == 0 {
		return Snapshot{Index: -1}
	}
	idx := n - 1
	b := bars[idx]

	a.atr.Update(b)
	a.swings.Confirm(bars)

	for i := range a.blocks {
		a.blocks[i].mitigate(b, idx)
	}
	for i := range a.gaps {
		a.gaps[i].mitigate(b, idx)
	}

	if gap, ok := detectFVG(bars, idx); ok {
		a.gaps = append(a.gaps, gap)
	}

	a.detectBreak(bars, idx)

	if g, ok := detectGrab(b, idx, a.swings, a.atr.Value(), a.cfg.GrabATRFraction); ok {
		a.grabs = append(a.grabs, g)
	}

	return a.snapshot(bars, idx)
}

// detectBreak emits at most one BOS/CHOCH per qualifying swing-level break.
func (a *Analyzer) detectBreak(bars []market.Bar, idx int) {
	b := bars[idx]

	if high, ok := a.swings.LastHigh(); ok && high.Index > a.brokenHighIdx && b.Close > high.Price {
		kind := a.trend.applyBreak(market.Bullish)
		ev := StructuralEvent{Kind: kind, Direction: market.Bullish, Index: idx, Time: b.Time, Level: high.Price}
		a.lastEvent = &ev
		a.brokenHighIdx = high.Index
		if ob, ok := findOrderBlock(bars, idx, market.Bullish, a.cfg.OrderBlockLookback); ok {
			a.blocks = append(a.blocks, ob)
		}
		return
	}

	if low, ok := a.swings.LastLow(); ok && low.Index > a.brokenLowIdx && b.Close < low.Price {
		kind := a.trend.applyBreak(market.Bearish)
		ev := StructuralEvent{Kind: kind, Direction: market.Bearish, Index: idx, Time: b.Time, Level: low.Price}
		a.lastEvent = &ev
		a.brokenLowIdx = low.Index
		if ob, ok := findOrderBlock(bars, idx, market.Bearish, a.cfg.OrderBlockLookback); ok {
			a.blocks = append(a.blocks, ob)
		}
	}
}

func (a *Analyzer) snapshot(bars []market.Bar, idx int) Snapshot {
	b := bars[idx]

	snap := Snapshot{
		Index:     idx,
		Time:      b.Time,
		Trend:     a.trend.Direction,
		LastEvent: a.lastEvent,
		DailyBias: dailyBias(bars, a.cfg.BiasLookbackDays),
		ATR:       a.atr.Value(),
		ATRReady:  a.atr.Ready(),
	}

	for _, ob := range a.blocks {
		if !ob.Mitigated {
			snap.OrderBlocks = append(snap.OrderBlocks, ob)
		}
	}
	for _, g := range a.gaps {
		if !g.Mitigated {
			snap.Gaps = append(snap.Gaps, g)
		}
	}
	for _, g := range a.grabs {
		if idx-g.Index <= a.cfg.GrabRecencyBars {
			snap.Grabs = append(snap.Grabs, g)
		}
	}

	snap.KillZone, snap.InKillZone = activeKillZone(b.Time, a.cfg.KillZones)
	// A Judas swing is a liquidity grab printed during a kill zone.
	snap.JudasSwing = snap.InKillZone && len(snap.Grabs) > 0
	snap.OTEDirection, snap.InOTE = oteState(b.Close, a.swings, a.cfg.OTELow, a.cfg.OTEHigh)

	return snap
}
