package exits

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/structure"
)

var t0 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func closeBar(i int, c float64) market.Bar {
	return market.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c}
}

func longPos() PositionView {
	return PositionView{Direction: market.Long, EntryPrice: 1.1000, OpenedAt: 10}
}

func TestCHOCHAgainstPosition(t *testing.T) {
	m := NewMonitor(Config{})
	b := closeBar(20, 1.1010)

	snap := structure.Snapshot{
		Index: 20,
		LastEvent: &structure.StructuralEvent{
			Kind: structure.CHOCH, Direction: market.Bearish, Index: 20, Level: 1.0990,
		},
	}

	d := m.Check(longPos(), b, snap)
	require.True(t, d.Exit)
	assert.Equal(t, ReasonCHOCH, d.Reason)

	// A CHOCH in the position's own direction is not an exit.
	snap.LastEvent.Direction = market.Bullish
	d = m.Check(longPos(), b, snap)
	assert.False(t, d.Exit)

	// A stale CHOCH from before the entry is not an exit.
	snap.LastEvent.Direction = market.Bearish
	snap.LastEvent.Index = 5
	d = m.Check(longPos(), b, snap)
	assert.False(t, d.Exit)
}

func TestRSICrossIntoExtreme(t *testing.T) {
	m := NewMonitor(Config{RSIPeriod: 3, RSIOverbought: 70, RSIOversold: 30})

	// Mixed closes keep RSI neutral, then a run of strong gains pushes it
	// above 70.
	closes := []float64{1.1000, 1.1002, 1.1000, 1.1003, 1.1001}
	for i, c := range closes {
		m.Update(closeBar(i, c))
	}

	pos := longPos()
	snap := structure.Snapshot{Index: 10}

	// Neutral so far: no exit.
	d := m.Check(pos, closeBar(4, 1.1001), snap)
	require.False(t, d.Exit)

	// One strong gain bar pushes RSI from neutral into overbought.
	m.Update(closeBar(5, 1.1010))

	d = m.Check(pos, closeBar(5, 1.1010), snap)
	require.True(t, d.Exit)
	assert.Equal(t, ReasonRSI, d.Reason)

	// A short benefits from overbought RSI; no exit for it here.
	short := PositionView{Direction: market.Short, EntryPrice: 1.1050, OpenedAt: 0}
	d = m.Check(short, closeBar(5, 1.1010), snap)
	assert.False(t, d.Exit)
}

func TestBOSInvalidation(t *testing.T) {
	m := NewMonitor(Config{})

	pos := longPos()
	pos.EntryEvent = &structure.StructuralEvent{
		Kind: structure.BOS, Direction: market.Bullish, Index: 9, Level: 1.0995,
	}
	snap := structure.Snapshot{Index: 15}

	// Close back below the broken level invalidates the entry thesis.
	d := m.Check(pos, closeBar(15, 1.0990), snap)
	require.True(t, d.Exit)
	assert.Equal(t, ReasonBOSInvalidated, d.Reason)

	d = m.Check(pos, closeBar(15, 1.1005), snap)
	assert.False(t, d.Exit)
}

func TestMinProfitGate(t *testing.T) {
	m := NewMonitor(Config{MinProfitPct: 0.1})

	pos := longPos()
	snap := structure.Snapshot{
		Index: 20,
		LastEvent: &structure.StructuralEvent{
			Kind: structure.CHOCH, Direction: market.Bearish, Index: 20, Level: 1.0990,
		},
	}

	// Unrealized profit below the gate: conditions are not even evaluated.
	d := m.Check(pos, closeBar(20, 1.1001), snap)
	assert.False(t, d.Exit)

	// 0.2% up: the gate opens and the CHOCH fires.
	d = m.Check(pos, closeBar(20, 1.1022), snap)
	assert.True(t, d.Exit)
}

func TestNoPositionNoDecision(t *testing.T) {
	m := NewMonitor(Config{})
	d := m.Check(PositionView{}, closeBar(0, 1.1), structure.Snapshot{})
	assert.False(t, d.Exit)
}
