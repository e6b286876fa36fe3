package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantfx/smctrader/exits"
	"github.com/quantfx/smctrader/feed"
	"github.com/quantfx/smctrader/internal/id"
	"github.com/quantfx/smctrader/internal/logging"
	"github.com/quantfx/smctrader/journal"
	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/risk"
	"github.com/quantfx/smctrader/structure"
)

var log = logging.New("sim")

// Close reasons written to the trade ledger. Early-exit closures carry the
// monitor's reason instead.
const (
	ReasonStop      = "stop"
	ReasonTarget    = "target"
	ReasonEndOfData = "end-of-data"
	ReasonCanceled  = "canceled"
)

type Config struct {
	Instrument    string
	InitialEquity float64
	RiskPct       float64

	Structure structure.Config
	Levels    risk.LevelConfig
	Exits     exits.Config
	Costs     Costs
}

// Result is the complete outcome of one run.
type Result struct {
	RunID         string
	InitialEquity float64
	FinalEquity   float64
	Trades        []Trade
	Equity        []EquityPoint
	Metrics       Metrics
}

// pendingEntry is a decision awaiting its fill at the next bar open.
type pendingEntry struct {
	Direction market.Direction
	Event     *structure.StructuralEvent
}

// Engine drives one instrument through the position state machine. Engines
// are single-use: make a new one per run.
type Engine struct {
	cfg   Config
	strat Strategy
	jnl   journal.Journal

	analyzer *structure.Analyzer
	monitor  *exits.Monitor
	sizer    risk.Sizer
	series   *market.Series

	state   state
	pending pendingEntry
	pos     *Position
	equity  float64

	res *Result
}

func NewEngine(cfg Config, strat Strategy, jnl journal.Journal) *Engine {
	if jnl == nil {
		jnl = journal.Discard{}
	}
	meta := market.Instrument(cfg.Instrument)
	return &Engine{
		cfg:      cfg,
		strat:    strat,
		jnl:      jnl,
		analyzer: structure.NewAnalyzer(cfg.Structure),
		monitor:  exits.NewMonitor(cfg.Exits),
		sizer:    risk.Sizer{RiskPct: cfg.RiskPct, MinIncrement: meta.MinimumTradeSize},
		series:   market.NewSeries(cfg.Instrument),
		equity:   cfg.InitialEquity,
		res: &Result{
			RunID:         id.New(),
			InitialEquity: cfg.InitialEquity,
		},
	}
}

// Run consumes the feed to exhaustion. An empty feed yields zero trades and
// unchanged equity. Cancellation is honored at bar boundaries only; a
// canceled run still returns the partial result alongside ctx.Err().
func (e *Engine) Run(ctx context.Context, f feed.BarFeed) (*Result, error) {
	log.Info("run started", "run", e.res.RunID, "instrument", e.cfg.Instrument,
		"strategy", e.strat.Name(), "equity", e.equity)

	for {
		select {
		case <-ctx.Done():
			e.forceClose(ReasonCanceled)
			e.finish()
			return e.res, ctx.Err()
		default:
		}

		bar, ok, err := f.Next()
		if err != nil {
			return e.res, fmt.Errorf("bar feed: %w", err)
		}
		if !ok {
			break
		}
		if err := e.step(bar); err != nil {
			return e.res, err
		}
	}

	e.forceClose(ReasonEndOfData)
	e.finish()
	return e.res, nil
}

// step processes one bar through the full pipeline.
func (e *Engine) step(bar market.Bar) error {
	if err := e.series.Append(bar); err != nil {
		return err
	}
	idx := e.series.Len() - 1

	snap := e.analyzer.Update(e.series)
	e.monitor.Update(bar)
	sig := e.strat.OnBar(snap, e.series)

	if e.state == statePendingEntry {
		if err := e.fill(bar, idx, snap); err != nil {
			return err
		}
	} else if e.state == stateOpen {
		e.manage(bar, snap)
	}

	if e.state == stateFlat && snap.ATRReady && sig.Actionable() {
		var ev *structure.StructuralEvent
		if le := snap.LastEvent; le != nil && le.Direction == sig.Direction {
			ev = le
		}
		e.pending = pendingEntry{Direction: sig.Direction, Event: ev}
		e.state = statePendingEntry
		log.Debug("entry queued", "dir", sig.Direction, "strength", sig.Strength, "bar", idx)
	}

	e.markEquity(bar)
	return nil
}

// fill executes the pending decision at this bar's open, adjusted adversely
// for half-spread and slippage. Degenerate sizing skips the entry and the
// run continues; a level-side violation aborts the run.
func (e *Engine) fill(bar market.Bar, idx int, snap structure.Snapshot) error {
	dir := e.pending.Direction
	entry := bar.Open + float64(dir)*e.cfg.Costs.entryAdjust()

	support, resistance, _ := risk.SupportResistance(e.series.Bars(), e.cfg.Levels.SRWindow)
	levels, err := risk.ComputeLevels(entry, dir, snap.ATR, support, resistance, e.cfg.Levels)
	if err != nil {
		return fmt.Errorf("levels for %s entry at %g: %w", sideString(dir), entry, err)
	}

	units, err := e.sizer.Size(e.equity, entry, levels.Stop)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidRiskInput) {
			log.Warn("entry skipped", "bar", idx, "err", err)
			e.state = stateFlat
			return nil
		}
		return err
	}

	com := units * e.cfg.Costs.CommissionRate
	e.equity -= com

	e.pos = &Position{
		ID:              id.New(),
		Instrument:      e.cfg.Instrument,
		Direction:       dir,
		Units:           units,
		EntryPrice:      entry,
		StopLoss:        levels.Stop,
		TakeProfit:      levels.Target,
		OpenTime:        bar.Time,
		OpenedAt:        idx,
		EntryEvent:      e.pending.Event,
		entryCommission: com,
	}
	e.state = stateOpen
	log.Debug("filled", "trade", e.pos.ID, "dir", dir, "units", units,
		"entry", entry, "stop", levels.Stop, "target", levels.Target)

	// The fill bar itself can reach the stop or target.
	e.manage(bar, snap)
	return nil
}

// manage checks intrabar stop/target, then the early-exit monitor. When the
// bar touches both protective levels the stop wins (worst case).
func (e *Engine) manage(bar market.Bar, snap structure.Snapshot) {
	p := e.pos

	switch p.Direction {
	case market.Long:
		if bar.Low <= p.StopLoss {
			e.close(p.StopLoss, bar, ReasonStop)
			return
		}
		if bar.High >= p.TakeProfit {
			e.close(p.TakeProfit, bar, ReasonTarget)
			return
		}
	case market.Short:
		if bar.High >= p.StopLoss {
			e.close(p.StopLoss, bar, ReasonStop)
			return
		}
		if bar.Low <= p.TakeProfit {
			e.close(p.TakeProfit, bar, ReasonTarget)
			return
		}
	}

	view := exits.PositionView{
		Direction:  p.Direction,
		EntryPrice: p.EntryPrice,
		OpenedAt:   p.OpenedAt,
		EntryEvent: p.EntryEvent,
	}
	if dec := e.monitor.Check(view, bar, snap); dec.Exit {
		exit := bar.Close - float64(p.Direction)*e.cfg.Costs.entryAdjust()
		e.close(exit, bar, string(dec.Reason))
	}
}

// close realizes the position at price and appends the trade to the ledger.
func (e *Engine) close(price float64, bar market.Bar, reason string) {
	p := e.pos
	gross := float64(p.Direction) * (price - p.EntryPrice) * p.Units
	exitCom := p.Units * e.cfg.Costs.CommissionRate
	e.equity += gross - exitCom

	t := Trade{
		ID:         p.ID,
		Instrument: p.Instrument,
		Direction:  p.Direction,
		Units:      p.Units,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		OpenTime:   p.OpenTime,
		CloseTime:  bar.Time,
		PL:         gross,
		Commission: p.entryCommission + exitCom,
		Reason:     reason,
	}
	t.NetPL = t.PL - t.Commission
	e.res.Trades = append(e.res.Trades, t)

	if err := e.jnl.RecordTrade(journal.TradeRecord{
		TradeID:    t.ID,
		RunID:      e.res.RunID,
		Instrument: t.Instrument,
		Direction:  sideString(t.Direction),
		Units:      t.Units,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		OpenTime:   t.OpenTime,
		CloseTime:  t.CloseTime,
		PL:         t.PL,
		Commission: t.Commission,
		NetPL:      t.NetPL,
		Reason:     t.Reason,
	}); err != nil {
		log.Error("journal trade", "trade", t.ID, "err", err)
	}

	log.Debug("closed", "trade", t.ID, "reason", reason, "net", t.NetPL)
	e.pos = nil
	e.state = stateFlat
}

// forceClose marks an open position to the last close, costs applied, as a
// market exit.
func (e *Engine) forceClose(reason string) {
	if e.pos == nil {
		return
	}
	last, ok := e.series.Last()
	if !ok {
		e.pos = nil
		e.state = stateFlat
		return
	}
	exit := last.Close - float64(e.pos.Direction)*e.cfg.Costs.entryAdjust()
	e.close(exit, last, reason)

	// The final equity point must reflect the forced closure.
	if n := len(e.res.Equity); n > 0 {
		e.res.Equity[n-1].Equity = e.equity
	}
}

// markEquity appends exactly one mark-to-market point per processed bar.
func (e *Engine) markEquity(bar market.Bar) {
	v := e.equity
	if e.pos != nil {
		v += e.pos.Unrealized(bar.Close)
	}
	e.res.Equity = append(e.res.Equity, EquityPoint{Time: bar.Time, Equity: v})
}

// finish computes metrics over the completed ledger and journals them.
func (e *Engine) finish() {
	e.res.FinalEquity = e.equity
	e.res.Metrics = ComputeMetrics(e.res.InitialEquity, e.res.Trades, e.res.Equity)

	// The curve reaches the journal only now: a forced closure rewrites the
	// last point, and the journaled curve has to match the returned one.
	for _, p := range e.res.Equity {
		if err := e.jnl.RecordEquity(journal.EquityRecord{
			RunID: e.res.RunID, Time: p.Time, Equity: p.Equity,
		}); err != nil {
			log.Error("journal equity", "err", err)
		}
	}

	for _, row := range e.res.Metrics.rows() {
		if err := e.jnl.RecordMetric(journal.MetricRecord{
			RunID: e.res.RunID, Name: row.Name, Value: row.Value,
		}); err != nil {
			log.Error("journal metric", "name", row.Name, "err", err)
		}
	}

	log.Info("run finished", "run", e.res.RunID, "trades", len(e.res.Trades),
		"final", e.res.FinalEquity, "net", e.res.FinalEquity-e.res.InitialEquity)
}
