package structure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfx/smctrader/market"
)

var t0 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func mkBar(i int, o, h, l, c float64) market.Bar {
	return market.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func feed(t *testing.T, a *Analyzer, s *market.Series, bars ...market.Bar) Snapshot {
	t.Helper()
	var snap Snapshot
	for _, b := range bars {
		require.NoError(t, s.Append(b))
		snap = a.Update(s)
	}
	return snap
}

func TestAnalyzerEmptyAndShortSeries(t *testing.T) {
	a := NewAnalyzer(Config{})
	s := market.NewSeries("EUR_USD")

	snap := a.Update(s)
	assert.Equal(t, -1, snap.Index)

	snap = feed(t, a, s, mkBar(0, 1.10, 1.11, 1.09, 1.105))
	assert.Empty(t, snap.OrderBlocks)
	assert.Empty(t, snap.Gaps)
	assert.Nil(t, snap.LastEvent)
	assert.Equal(t, market.NoDirection, snap.Trend)
}

func TestFairValueGapScenario(t *testing.T) {
	a := NewAnalyzer(Config{SwingWindow: 2})
	s := market.NewSeries("EUR_USD")

	snap := feed(t, a, s,
		mkBar(0, 1.0690, 1.0700, 1.0685, 1.0695),
		mkBar(1, 1.0695, 1.0715, 1.0695, 1.0714),
		mkBar(2, 1.0722, 1.0730, 1.0720, 1.0728),
	)

	gap, ok := snap.LiveGap(market.Bullish)
	require.True(t, ok, "bullish FVG must register")
	assert.InDelta(t, 1.0700, gap.Low, 1e-9)
	assert.InDelta(t, 1.0720, gap.High, 1e-9)
	assert.False(t, gap.Mitigated)

	// A wick into the gap without a close inside leaves it live. The low
	// meets the prior bar's high, so no second imbalance prints.
	snap = feed(t, a, s, mkBar(3, 1.0728, 1.0729, 1.0715, 1.0727))
	_, ok = snap.LiveGap(market.Bullish)
	assert.True(t, ok)

	// Closing back inside the gap mitigates it.
	snap = feed(t, a, s, mkBar(4, 1.0725, 1.0726, 1.0705, 1.0710))
	_, ok = snap.LiveGap(market.Bullish)
	assert.False(t, ok)
	assert.Empty(t, snap.Gaps)
}

func TestSwingTieBreaksToEarliestBar(t *testing.T) {
	l := NewSwingLedger(1)
	bars := []market.Bar{
		mkBar(0, 1, 1, 1, 1),
		mkBar(1, 2, 2, 2, 2),
		mkBar(2, 2, 2, 2, 2),
		mkBar(3, 1, 1, 1, 1),
	}
	for i := range bars {
		l.Confirm(bars[:i+1])
	}

	highs := l.Highs()
	require.Len(t, highs, 1)
	assert.Equal(t, 1, highs[0].Index)
	assert.Equal(t, 2.0, highs[0].Price)
}

func TestBOSThenCHOCH(t *testing.T) {
	a := NewAnalyzer(Config{SwingWindow: 1})
	s := market.NewSeries("EUR_USD")

	snap := feed(t, a, s,
		mkBar(0, 9.5, 10.0, 9.0, 9.6),
		mkBar(1, 10.0, 11.0, 10.0, 10.8),
		mkBar(2, 10.4, 10.5, 9.8, 9.9), // bearish; confirms swing high at 11.0
		mkBar(3, 10.4, 11.6, 10.3, 11.5),
	)

	require.NotNil(t, snap.LastEvent)
	assert.Equal(t, BOS, snap.LastEvent.Kind)
	assert.Equal(t, market.Bullish, snap.LastEvent.Direction)
	assert.InDelta(t, 11.0, snap.LastEvent.Level, 1e-9)
	assert.Equal(t, market.Bullish, snap.Trend)

	// Order block: last bearish candle before the impulse.
	ob, ok := snap.LiveOrderBlock(market.Bullish)
	require.True(t, ok)
	assert.Equal(t, 2, ob.Index)
	assert.InDelta(t, 9.8, ob.Low, 1e-9)
	assert.InDelta(t, 10.5, ob.High, 1e-9)

	// Close below the confirmed swing low flips the trend: CHOCH.
	snap = feed(t, a, s, mkBar(4, 11.4, 11.45, 9.5, 9.6))
	require.NotNil(t, snap.LastEvent)
	assert.Equal(t, CHOCH, snap.LastEvent.Kind)
	assert.Equal(t, market.Bearish, snap.LastEvent.Direction)
	assert.Equal(t, market.Bearish, snap.Trend)

	// The dip through 9.8 also mitigates the bullish block.
	_, ok = snap.LiveOrderBlock(market.Bullish)
	assert.False(t, ok)
	_, ok = snap.LiveOrderBlock(market.Bearish)
	assert.True(t, ok)
}

func TestBreakEmittedOncePerSwing(t *testing.T) {
	a := NewAnalyzer(Config{SwingWindow: 1})
	s := market.NewSeries("EUR_USD")

	snap := feed(t, a, s,
		mkBar(0, 9.5, 10.0, 9.0, 9.6),
		mkBar(1, 10.0, 11.0, 10.0, 10.8),
		mkBar(2, 10.4, 10.5, 9.8, 9.9),
		mkBar(3, 10.4, 11.6, 10.3, 11.5),
	)
	require.NotNil(t, snap.LastEvent)
	first := *snap.LastEvent

	// Another close above the same level must not re-emit.
	snap = feed(t, a, s, mkBar(4, 11.5, 11.8, 11.4, 11.7))
	require.NotNil(t, snap.LastEvent)
	assert.Equal(t, first.Index, snap.LastEvent.Index)
}

func TestLiquidityGrab(t *testing.T) {
	a := NewAnalyzer(Config{SwingWindow: 1, ATRPeriod: 2, GrabATRFraction: 0.1})
	s := market.NewSeries("EUR_USD")

	// Establish a swing low at 9.0 (bar 1), with ATR warmed up.
	snap := feed(t, a, s,
		mkBar(0, 9.6, 9.8, 9.4, 9.5),
		mkBar(1, 9.4, 9.5, 9.0, 9.3),
		mkBar(2, 9.4, 9.7, 9.3, 9.6), // confirms swing low 9.0
		// Wick sweeps well below 9.0, closes back above: bullish grab.
		mkBar(3, 9.5, 9.55, 8.7, 9.4),
	)

	require.Len(t, snap.Grabs, 1)
	assert.Equal(t, market.Bullish, snap.Grabs[0].Direction)
	assert.InDelta(t, 9.0, snap.Grabs[0].Level, 1e-9)

	// 09:03 UTC sits inside the London window, so the grab is a Judas swing.
	assert.True(t, snap.InKillZone)
	assert.True(t, snap.JudasSwing)
}

func TestKillZoneAndJudas(t *testing.T) {
	zone, err := ParseKillZone("london", "08:00", "11:00")
	require.NoError(t, err)

	name, ok := activeKillZone(time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC), []KillZone{zone})
	assert.True(t, ok)
	assert.Equal(t, "london", name)

	_, ok = activeKillZone(time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC), []KillZone{zone})
	assert.False(t, ok)

	_, err = ParseKillZone("bad", "11:00", "08:00")
	assert.Error(t, err)
}

func TestDailyBias(t *testing.T) {
	day := 24 * time.Hour
	bars := []market.Bar{
		{Time: t0, Open: 1.0, High: 1.1, Low: 0.9, Close: 1.0},
		{Time: t0.Add(day), Open: 1.0, High: 1.2, Low: 1.0, Close: 1.1},
		{Time: t0.Add(2 * day), Open: 1.1, High: 1.3, Low: 1.1, Close: 1.2},
	}
	assert.Equal(t, market.Bullish, dailyBias(bars, 1))
	assert.Equal(t, market.Bullish, dailyBias(bars, 2))
	assert.Equal(t, market.NoDirection, dailyBias(bars, 5), "no anchor bar far enough back")
}

func TestOTEZone(t *testing.T) {
	l := NewSwingLedger(1)
	bars := []market.Bar{
		mkBar(0, 10.2, 10.3, 10.0, 10.1), // swing low 10.0
		mkBar(1, 10.1, 10.2, 9.95, 10.0),
		mkBar(2, 10.3, 10.5, 10.2, 10.4),
		mkBar(3, 10.6, 11.0, 10.5, 10.9), // swing high 11.0
		mkBar(4, 10.8, 10.85, 10.6, 10.7),
	}
	for i := range bars {
		l.Confirm(bars[:i+1])
	}
	_, okL := l.LastLow()
	_, okH := l.LastHigh()
	require.True(t, okL)
	require.True(t, okH)

	// Leg 9.95 -> 11.0, span 1.05; OTE zone [11.0-0.79*1.05, 11.0-0.618*1.05]
	// = [10.1705, 10.3511].
	dir, in := oteState(10.25, l, 0.618, 0.79)
	assert.True(t, in)
	assert.Equal(t, market.Bullish, dir)

	_, in = oteState(10.8, l, 0.618, 0.79)
	assert.False(t, in)
}
