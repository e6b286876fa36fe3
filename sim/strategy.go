package sim

import (
	"github.com/quantfx/smctrader/indicators"
	"github.com/quantfx/smctrader/market"
	"github.com/quantfx/smctrader/signal"
	"github.com/quantfx/smctrader/structure"
)

// Strategy decides whether the engine should open a position. OnBar is
// called once for every bar, so strategies can stream their own indicators;
// the engine acts on the returned signal only while flat.
type Strategy interface {
	Name() string
	OnBar(snap structure.Snapshot, s *market.Series) signal.Signal
}

// SMCStrategy trades the confluence signal: unmitigated zone plus agreeing
// momentum, with optional kill-zone and OTE timing filters. A configured
// trend EMA additionally drops entries on the wrong side of the average.
type SMCStrategy struct {
	agg   *signal.Aggregator
	trend *indicators.ExponentialMA
}

func NewSMCStrategy(cfg signal.Config) *SMCStrategy {
	s := &SMCStrategy{agg: signal.NewAggregator(cfg)}
	if cfg.TrendEMAPeriod > 0 {
		s.trend = indicators.NewEMA(cfg.TrendEMAPeriod)
	}
	return s
}

func (s *SMCStrategy) Name() string { return "smc-confluence" }

func (s *SMCStrategy) OnBar(snap structure.Snapshot, series *market.Series) signal.Signal {
	last, ok := series.Last()
	if s.trend != nil && ok {
		s.trend.Update(last)
	}

	sig := s.agg.Aggregate(snap)
	if !sig.Actionable() || s.trend == nil || !s.trend.Ready() {
		return sig
	}
	if float64(sig.Direction)*(last.Close-s.trend.Value()) < 0 {
		return signal.Signal{Direction: market.NoDirection, Time: snap.Time}
	}
	return sig
}
