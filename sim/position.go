// Package sim runs the bar-driven trading simulation: one position per
// instrument moving FLAT -> PENDING_ENTRY -> OPEN -> FLAT, with spread,
// slippage and commission applied on the way through.
package sim

import (
	"time"

	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/structure"
)

// state of the per-instrument position machine.
type state int

const (
	stateFlat state = iota
	statePendingEntry
	stateOpen
)

// Costs models transaction friction. All values are deterministic so a rerun
// over the same bars produces the same ledger.
type Costs struct {
	Spread         float64 // full spread in price terms; entries pay half
	Slippage       float64 // adverse fill adjustment in price terms
	CommissionRate float64 // commission per unit, charged each side
}

// entryAdjust is the total adverse price adjustment for a market fill.
func (c Costs) entryAdjust() float64 { return c.Spread/2 + c.Slippage }

// Position is an open exposure. It exists only between a fill and its close.
type Position struct {
	ID         string
	Instrument string
	Direction  market.Direction
	Units      float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	OpenTime   time.Time
	OpenedAt   int // bar index of the fill

	EntryEvent *structure.StructuralEvent

	entryCommission float64
}

// Unrealized returns the mark-to-market profit at price.
func (p *Position) Unrealized(price float64) float64 {
	return float64(p.Direction) * (price - p.EntryPrice) * p.Units
}

// Trade is one completed round trip. PL is gross; NetPL subtracts both
// commissions.
type Trade struct {
	ID         string
	Instrument string
	Direction  market.Direction
	Units      float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	PL         float64
	Commission float64
	NetPL      float64
	Reason     string
}

// EquityPoint is the mark-to-market account value after one bar.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// sideString renders a direction the way the ledger stores it.
func sideString(d market.Direction) string {
	if d == market.Short {
		return "short"
	}
	return "long"
}
