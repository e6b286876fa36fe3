package live

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfx/smctrader/broker"
	"github.com/quantfx/smctrader/exits"
	"github.com/quantfx/smctrader/feed"
	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/risk"
	"github.com/quantfx/smctrader/signal"
	"github.com/quantfx/smctrader/sim"
	"github.com/quantfx/smctrader/structure"
)

type fireOnce struct {
	at  int
	dir market.Direction
}

func (f fireOnce) Name() string { return "fire-once" }

func (f fireOnce) OnBar(snap structure.Snapshot, _ *market.Series) signal.Signal {
	if snap.Index == f.at {
		return signal.Signal{Direction: f.dir, Strength: 1, Time: snap.Time}
	}
	return signal.Signal{}
}

// scriptSink records calls and fails the first openFails/closeFails attempts.
type scriptSink struct {
	openCalls  int
	closeCalls int
	openFails  int
	closeFails int

	lastReq    broker.OrderRequest
	lastReason string
}

func (s *scriptSink) Open(_ context.Context, req broker.OrderRequest) (broker.Fill, error) {
	s.openCalls++
	if s.openCalls <= s.openFails {
		return broker.Fill{}, fmt.Errorf("venue: %w", broker.ErrExecutionFailure)
	}
	s.lastReq = req
	return broker.Fill{TradeID: "T1", Price: 1.1001, Time: time.Now().UTC()}, nil
}

func (s *scriptSink) Close(_ context.Context, tradeID, reason string) (broker.Fill, error) {
	s.closeCalls++
	if s.closeCalls <= s.closeFails {
		return broker.Fill{}, fmt.Errorf("venue: %w", broker.ErrExecutionFailure)
	}
	s.lastReason = reason
	return broker.Fill{TradeID: tradeID, Price: 1.1050, Time: time.Now().UTC()}, nil
}

type fixedAccount struct {
	equity float64
	err    error
	calls  int
}

func (a *fixedAccount) Equity(context.Context) (float64, error) {
	a.calls++
	return a.equity, a.err
}

func liveConfig() sim.Config {
	return sim.Config{
		Instrument:    "EUR_USD",
		InitialEquity: 10000,
		RiskPct:       0.01,
		Structure:     structure.Config{ATRPeriod: 2},
		Levels: risk.LevelConfig{
			ATRMultiplier: 1,
			RewardRisk:    2,
			SRWindow:      50,
		},
		Exits: exits.Config{},
		Costs: sim.Costs{Spread: 0.0002},
	}
}

func bar(t0 time.Time, i int, o, h, l, c float64) market.Bar {
	return market.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: o, High: h, Low: l, Close: c}
}

// liveBars: ATR(2) ready with 0.0100 at index 2, then a bar that reaches the
// capped target 1.1050.
func liveBars(t0 time.Time) []market.Bar {
	return []market.Bar{
		bar(t0, 0, 1.1000, 1.1050, 1.0950, 1.1000),
		bar(t0, 1, 1.1000, 1.1050, 1.0950, 1.1000),
		bar(t0, 2, 1.1000, 1.1050, 1.0950, 1.1000),
		bar(t0, 3, 1.1000, 1.1060, 1.0990, 1.1000),
	}
}

func TestRunnerOpensAndClosesAtTarget(t *testing.T) {
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	sink := &scriptSink{}
	acct := &fixedAccount{equity: 10000}

	r := NewRunner(liveConfig(), fireOnce{at: 2, dir: market.Long},
		feed.FromBars(liveBars(t0)), sink, acct, nil)
	require.NoError(t, r.Run(context.Background()))

	require.Equal(t, 1, sink.openCalls)
	assert.Equal(t, market.Long, sink.lastReq.Direction)
	// Entry estimate close+half spread = 1.1001; ATR stop 0.0100 below.
	assert.InDelta(t, 1.0901, sink.lastReq.StopLoss, 1e-9)
	assert.InDelta(t, 1.1050, sink.lastReq.TakeProfit, 1e-9)
	// Units = 100 risk / 0.0100 stop distance, exactly on the increment
	// boundary.
	assert.InDelta(t, 10000, sink.lastReq.Units, 1e-9)

	require.Equal(t, 1, sink.closeCalls)
	assert.Equal(t, sim.ReasonTarget, sink.lastReason)
}

func TestRunnerFailsClosedWithoutAccount(t *testing.T) {
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	sink := &scriptSink{}
	acct := &fixedAccount{err: errors.New("account api down")}

	r := NewRunner(liveConfig(), fireOnce{at: 2, dir: market.Long},
		feed.FromBars(liveBars(t0)), sink, acct, nil)
	require.NoError(t, r.Run(context.Background()))

	assert.Positive(t, acct.calls)
	assert.Zero(t, sink.openCalls)
}

func TestRunnerSkipsEntryAfterFailedRetry(t *testing.T) {
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	sink := &scriptSink{openFails: 2}
	acct := &fixedAccount{equity: 10000}

	r := NewRunner(liveConfig(), fireOnce{at: 2, dir: market.Long},
		feed.FromBars(liveBars(t0)), sink, acct, nil)
	require.NoError(t, r.Run(context.Background()))

	// One attempt plus one retry, no position, no close.
	assert.Equal(t, 2, sink.openCalls)
	assert.Zero(t, sink.closeCalls)
}

func TestRunnerRetriesCloseNextBar(t *testing.T) {
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	bars := append(liveBars(t0),
		bar(t0, 4, 1.1000, 1.1060, 1.0990, 1.1000), // target touched again
	)
	sink := &scriptSink{closeFails: 2}
	acct := &fixedAccount{equity: 10000}

	r := NewRunner(liveConfig(), fireOnce{at: 2, dir: market.Long},
		feed.FromBars(bars), sink, acct, nil)
	require.NoError(t, r.Run(context.Background()))

	// Bar 3: attempt + retry both fail, position stays open. Bar 4: third
	// call succeeds.
	assert.Equal(t, 3, sink.closeCalls)
	assert.Equal(t, sim.ReasonTarget, sink.lastReason)
}

func TestRunnerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	r := NewRunner(liveConfig(), fireOnce{at: 2, dir: market.Long},
		feed.FromBars(liveBars(t0)), &scriptSink{}, &fixedAccount{equity: 10000}, nil)
	require.ErrorIs(t, r.Run(ctx), context.Canceled)
}
