// Package exits watches open positions for reversal conditions and emits
// exit decisions. The monitor never touches the position itself; the
// simulator (or live runner) performs the close.
package exits

import (
	"github.com/quantfx/smctrader/indicators"
	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/structure"
)

// Reason tags why an early exit fired.
type Reason string

const (
	ReasonCHOCH          Reason = "choch-against"
	ReasonRSI            Reason = "rsi-extreme"
	ReasonBOSInvalidated Reason = "bos-invalidated"
)

// Decision is final for the bar it was made on: once the monitor says exit,
// nothing later in the same bar revokes it.
type Decision struct {
	Exit   bool
	Reason Reason
}

type Config struct {
	RSIPeriod     int
	RSIOverbought float64 // e.g. 70
	RSIOversold   float64 // e.g. 30

	// MinProfitPct gates all exit checks until the position has at least this
	// much unrealized profit, in percent of entry. Zero disables the gate.
	MinProfitPct float64
}

func (c Config) withDefaults() Config {
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = 14
	}
	if c.RSIOverbought <= 0 {
		c.RSIOverbought = 70
	}
	if c.RSIOversold <= 0 {
		c.RSIOversold = 30
	}
	return c
}

// PositionView is the read-only slice of position state the monitor needs.
type PositionView struct {
	Direction  market.Direction
	EntryPrice float64
	OpenedAt   int // bar index of the fill
	EntryEvent *structure.StructuralEvent
}

// Monitor evaluates one open position per bar. It owns its RSI state, so
// Update must be called once per bar whether or not a position is open.
type Monitor struct {
	cfg       Config
	rsi       *indicators.RSI
	prevRSI   float64
	prevReady bool
}

func NewMonitor(cfg Config) *Monitor {
	cfg = cfg.withDefaults()
	return &Monitor{cfg: cfg, rsi: indicators.NewRSI(cfg.RSIPeriod)}
}

func (m *Monitor) Reset() {
	m.rsi.Reset()
	m.prevReady = false
}

// Update feeds the monitor the latest closed bar, keeping the previous RSI
// value so Check can detect a cross into an extreme zone.
func (m *Monitor) Update(b market.Bar) {
	if m.rsi.Ready() {
		m.prevRSI = m.rsi.Value()
		m.prevReady = true
	}
	m.rsi.Update(b)
}

// Check evaluates the exit conditions against the latest bar and structural
// snapshot. Any one condition triggers an exit.
func (m *Monitor) Check(pos PositionView, b market.Bar, snap structure.Snapshot) Decision {
	if pos.Direction == market.NoDirection {
		return Decision{}
	}

	if m.cfg.MinProfitPct > 0 {
		profitPct := float64(pos.Direction) * (b.Close - pos.EntryPrice) / pos.EntryPrice * 100
		if profitPct < m.cfg.MinProfitPct {
			return Decision{}
		}
	}

	// (a) fresh CHOCH against the position.
	if e := snap.LastEvent; e != nil && e.Kind == structure.CHOCH &&
		e.Direction == pos.Direction.Opposite() && e.Index >= pos.OpenedAt {
		return Decision{Exit: true, Reason: ReasonCHOCH}
	}

	// (b) RSI crossing from neutral into the extreme zone against the
	// position.
	if m.rsi.Ready() && m.prevReady {
		cur := m.rsi.Value()
		prevNeutral := m.prevRSI < m.cfg.RSIOverbought && m.prevRSI > m.cfg.RSIOversold
		if prevNeutral {
			if pos.Direction == market.Long && cur > m.cfg.RSIOverbought {
				return Decision{Exit: true, Reason: ReasonRSI}
			}
			if pos.Direction == market.Short && cur < m.cfg.RSIOversold {
				return Decision{Exit: true, Reason: ReasonRSI}
			}
		}
	}

	// (c) the entry BOS invalidated by a close back through its level.
	if e := pos.EntryEvent; e != nil {
		if pos.Direction == market.Long && b.Close < e.Level {
			return Decision{Exit: true, Reason: ReasonBOSInvalidated}
		}
		if pos.Direction == market.Short && b.Close > e.Level {
			return Decision{Exit: true, Reason: ReasonBOSInvalidated}
		}
	}

	return Decision{}
}
