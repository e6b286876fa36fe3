package market

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfOrder is returned when a bar's timestamp does not advance the
	// series. Everything downstream depends on ordered history, so callers
	// must treat this as fatal for the run.
	ErrOutOfOrder = errors.New("market: out-of-order bar")

	// ErrBadBar is returned when a bar violates low <= open,close <= high.
	ErrBadBar = errors.New("market: malformed bar")
)

// Series is an append-only, strictly time-ordered sequence of bars for a
// single instrument. Gaps between timestamps are valid; reordering is not.
type Series struct {
	Instrument string
	bars       []Bar
}

func NewSeries(instrument string) *Series {
	return &Series{Instrument: instrument}
}

// Append adds a bar to the series. The timestamp must be strictly greater
// than the last stored bar's.
func (s *Series) Append(b Bar) error {
	if !b.sane() {
		return fmt.Errorf("%w: O=%g H=%g L=%g C=%g at %s",
			ErrBadBar, b.Open, b.High, b.Low, b.Close, b.Time)
	}
	if n := len(s.bars); n > 0 && !b.Time.After(s.bars[n-1].Time) {
		return fmt.Errorf("%w: %s does not advance past %s",
			ErrOutOfOrder, b.Time, s.bars[n-1].Time)
	}
	s.bars = append(s.bars, b)
	return nil
}

func (s *Series) Len() int { return len(s.bars) }

// At returns the bar at index i. Panics on out-of-range access, matching
// slice semantics.
func (s *Series) At(i int) Bar { return s.bars[i] }

// Last returns the most recent bar, or ok=false for an empty series.
func (s *Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Window returns a read-only view of the last n bars (fewer if the series is
// shorter). Callers must not mutate the returned slice.
func (s *Series) Window(n int) []Bar {
	if n >= len(s.bars) {
		return s.bars
	}
	return s.bars[len(s.bars)-n:]
}

// Bars returns the full read-only view of the series.
func (s *Series) Bars() []Bar { return s.bars }
