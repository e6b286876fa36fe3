// Package live runs the same bar pipeline as the simulator against broker
// interfaces: bars in from a feed, orders out through an execution sink,
// sizing from a live account equity source.
package live

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantfx/smctrader/broker"
	"github.com/quantfx/smctrader/exits"
	"github.com/quantfx/smctrader/feed"
	"github.com/quantfx/smctrader/internal/id"
	"github.com/quantfx/smctrader/internal/logging"
	"github.com/quantfx/smctrader/journal"
	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/risk"
	"github.com/quantfx/smctrader/sim"
	"github.com/quantfx/smctrader/structure"
)

var log = logging.New("live")

// Runner drives one instrument live. Execution failures are retried once by
// the wrapped sink; a second failure skips the decision for the bar. An
// unavailable account provider fails closed: no new entries open while exits
// keep being monitored.
type Runner struct {
	cfg   sim.Config
	strat sim.Strategy
	feed  feed.BarFeed
	sink  broker.ExecutionSink
	acct  broker.AccountProvider
	jnl   journal.Journal

	analyzer *structure.Analyzer
	monitor  *exits.Monitor
	series   *market.Series

	runID string
	pos   *openPosition
}

// openPosition mirrors the broker-side position locally.
type openPosition struct {
	tradeID    string
	direction  market.Direction
	units      float64
	entryPrice float64
	stop       float64
	target     float64
	openedAt   int
	entryEvent *structure.StructuralEvent
	openTime   broker.Fill
}

func NewRunner(cfg sim.Config, strat sim.Strategy, f feed.BarFeed, sink broker.ExecutionSink,
	acct broker.AccountProvider, jnl journal.Journal) *Runner {
	if jnl == nil {
		jnl = journal.Discard{}
	}
	return &Runner{
		cfg:      cfg,
		strat:    strat,
		feed:     f,
		sink:     broker.RetrySink{Sink: sink},
		acct:     acct,
		jnl:      jnl,
		analyzer: structure.NewAnalyzer(cfg.Structure),
		monitor:  exits.NewMonitor(cfg.Exits),
		series:   market.NewSeries(cfg.Instrument),
		runID:    id.New(),
	}
}

// Run consumes the feed until exhaustion or cancellation. A live feed blocks
// in Next until the next bar closes.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bar, ok, err := r.feed.Next()
		if err != nil {
			return fmt.Errorf("bar feed: %w", err)
		}
		if !ok {
			return nil
		}
		if err := r.step(ctx, bar); err != nil {
			return err
		}
	}
}

func (r *Runner) step(ctx context.Context, bar market.Bar) error {
	if err := r.series.Append(bar); err != nil {
		return err
	}
	idx := r.series.Len() - 1

	snap := r.analyzer.Update(r.series)
	r.monitor.Update(bar)
	sig := r.strat.OnBar(snap, r.series)

	if r.pos != nil {
		r.manage(ctx, bar, snap)
	}

	if r.pos == nil && snap.ATRReady && sig.Actionable() {
		r.open(ctx, bar, idx, snap, sig.Direction)
	}
	return nil
}

// open sizes and routes a market entry. Any failure here is per-bar: the
// runner logs it and stays flat.
func (r *Runner) open(ctx context.Context, bar market.Bar, idx int, snap structure.Snapshot, dir market.Direction) {
	equity, err := r.acct.Equity(ctx)
	if err != nil {
		log.Warn("account unavailable, entry suppressed", "err", err)
		return
	}

	entry := bar.Close + float64(dir)*r.cfg.Costs.Spread/2
	support, resistance, _ := risk.SupportResistance(r.series.Bars(), r.cfg.Levels.SRWindow)
	levels, err := risk.ComputeLevels(entry, dir, snap.ATR, support, resistance, r.cfg.Levels)
	if err != nil {
		log.Error("level computation failed", "err", err)
		return
	}

	meta := market.Instrument(r.cfg.Instrument)
	sizer := risk.Sizer{RiskPct: r.cfg.RiskPct, MinIncrement: meta.MinimumTradeSize}
	units, err := sizer.Size(equity, entry, levels.Stop)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidRiskInput) {
			log.Warn("entry skipped", "err", err)
			return
		}
		log.Error("sizing failed", "err", err)
		return
	}

	fill, err := r.sink.Open(ctx, broker.OrderRequest{
		Instrument: r.cfg.Instrument,
		Direction:  dir,
		Units:      units,
		StopLoss:   levels.Stop,
		TakeProfit: levels.Target,
	})
	if err != nil {
		log.Warn("entry skipped after retry", "err", err)
		return
	}

	var ev *structure.StructuralEvent
	if le := snap.LastEvent; le != nil && le.Direction == dir {
		ev = le
	}
	r.pos = &openPosition{
		tradeID:    fill.TradeID,
		direction:  dir,
		units:      units,
		entryPrice: fill.Price,
		stop:       levels.Stop,
		target:     levels.Target,
		openedAt:   idx,
		entryEvent: ev,
		openTime:   fill,
	}
	log.Info("opened", "trade", fill.TradeID, "dir", dir, "units", units, "price", fill.Price)
}

// manage closes on a touched protective level or an early-exit decision. A
// close that still fails after the retry leaves the position open for the
// next bar.
func (r *Runner) manage(ctx context.Context, bar market.Bar, snap structure.Snapshot) {
	p := r.pos

	reason := ""
	switch p.direction {
	case market.Long:
		if bar.Low <= p.stop {
			reason = sim.ReasonStop
		} else if bar.High >= p.target {
			reason = sim.ReasonTarget
		}
	case market.Short:
		if bar.High >= p.stop {
			reason = sim.ReasonStop
		} else if bar.Low <= p.target {
			reason = sim.ReasonTarget
		}
	}

	if reason == "" {
		view := exits.PositionView{
			Direction:  p.direction,
			EntryPrice: p.entryPrice,
			OpenedAt:   p.openedAt,
			EntryEvent: p.entryEvent,
		}
		if dec := r.monitor.Check(view, bar, snap); dec.Exit {
			reason = string(dec.Reason)
		}
	}
	if reason == "" {
		return
	}

	fill, err := r.sink.Close(ctx, p.tradeID, reason)
	if err != nil {
		log.Warn("close failed after retry, position stays open", "trade", p.tradeID, "err", err)
		return
	}

	gross := float64(p.direction) * (fill.Price - p.entryPrice) * p.units
	if err := r.jnl.RecordTrade(journal.TradeRecord{
		TradeID:    p.tradeID,
		RunID:      r.runID,
		Instrument: r.cfg.Instrument,
		Direction:  directionString(p.direction),
		Units:      p.units,
		EntryPrice: p.entryPrice,
		ExitPrice:  fill.Price,
		OpenTime:   p.openTime.Time,
		CloseTime:  fill.Time,
		PL:         gross,
		NetPL:      gross,
		Reason:     reason,
	}); err != nil {
		log.Error("journal trade", "trade", p.tradeID, "err", err)
	}

	log.Info("closed", "trade", p.tradeID, "reason", reason, "pl", gross)
	r.pos = nil
}

func directionString(d market.Direction) string {
	if d == market.Short {
		return "short"
	}
	return "long"
}
