package structure

import (
	"time"

	"github.com/quantfx/smctrader/market"
)

// SwingPoint is a confirmed fractal extreme: a bar whose high (or low) stands
// out against a fixed window of bars on each side.
type SwingPoint struct {
	Index int
	Time  time.Time
	Price float64
	High  bool // swing high when true, swing low otherwise
}

// SwingLedger tracks confirmed swing points as the series advances. A swing
// is only confirmed once the full right-hand window has printed, so the
// ledger always lags the current bar by `window` bars.
type SwingLedger struct {
	window int
	highs  []SwingPoint
	lows   []SwingPoint
}

func NewSwingLedger(window int) *SwingLedger {
	return &SwingLedger{window: window}
}

// Confirm inspects whether the bar `window` bars behind the current one is a
// fractal extreme. Call once per appended bar with the full bar history.
// Ties are broken in favour of the earliest bar: the pivot must strictly
// exceed earlier bars but only match-or-exceed later ones.
func (l *SwingLedger) Confirm(bars []market.Bar) {
	pivot := len(bars) - 1 - l.window
	if pivot < l.window {
		return
	}

	pb := bars[pivot]

	isHigh := true
	isLow := true
	for j := pivot - l.window; j < pivot; j++ {
		if bars[j].High >= pb.High {
			isHigh = false
		}
		if bars[j].Low <= pb.Low {
			isLow = false
		}
	}
	for j := pivot + 1; j <= pivot+l.window; j++ {
		if bars[j].High > pb.High {
			isHigh = false
		}
		if bars[j].Low < pb.Low {
			isLow = false
		}
	}

	if isHigh {
		l.highs = append(l.highs, SwingPoint{Index: pivot, Time: pb.Time, Price: pb.High, High: true})
	}
	if isLow {
		l.lows = append(l.lows, SwingPoint{Index: pivot, Time: pb.Time, Price: pb.Low, High: false})
	}
}

// LastHigh returns the most recently confirmed swing high.
func (l *SwingLedger) LastHigh() (SwingPoint, bool) {
	if len(l.highs) == 0 {
		return SwingPoint{}, false
	}
	return l.highs[len(l.highs)-1], true
}

// LastLow returns the most recently confirmed swing low.
func (l *SwingLedger) LastLow() (SwingPoint, bool) {
	if len(l.lows) == 0 {
		return SwingPoint{}, false
	}
	return l.lows[len(l.lows)-1], true
}

// Highs and Lows expose the confirmed ledgers; callers must not mutate them.
func (l *SwingLedger) Highs() []SwingPoint { return l.highs }
func (l *SwingLedger) Lows() []SwingPoint  { return l.lows }
