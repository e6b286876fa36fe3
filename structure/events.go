package structure

import (
	"time"

	"github.com/quantfx/smctrader/market"
)

// EventKind distinguishes a trend-continuation break (BOS) from a
// trend-reversal break (CHOCH).
type EventKind uint8

const (
	BOS EventKind = iota + 1
	CHOCH
)

func (k EventKind) String() string {
	switch k {
	case BOS:
		return "BOS"
	case CHOCH:
		return "CHOCH"
	}
	return "unknown"
}

// StructuralEvent records a close beyond a confirmed swing level. Each swing
// level produces at most one event.
type StructuralEvent struct {
	Kind      EventKind
	Direction market.Direction
	Index     int
	Time      time.Time
	Level     float64 // the swing level that broke
}

// TrendState is the prevailing structural trend, threaded explicitly through
// the analyzer so backtest and live runs share the same pure update path.
type TrendState struct {
	Direction market.Direction
}

// applyBreak classifies a swing break against the prevailing trend and
// updates it. The first break against the trend is a CHOCH and flips the
// trend; anything else, including the very first break, is a BOS.
func (t *TrendState) applyBreak(dir market.Direction) EventKind {
	kind := BOS
	if t.Direction == dir.Opposite() {
		kind = CHOCH
	}
	t.Direction = dir
	return kind
}
