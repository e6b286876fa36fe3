// Package feed supplies bars to the engine one at a time. The engine only
// depends on the BarFeed contract, so backtests over CSV files and live
// polling share the same consumption loop.
package feed

import "github.com/quantfx/smctrader/market"

// BarFeed yields bars in strictly increasing time order. Next returns
// ok=false once the feed is exhausted; err is non-nil for malformed or
// out-of-order source data.
type BarFeed interface {
	Next() (bar market.Bar, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory bar slice. Used by tests and by the live
// runner's warmup replay.
type SliceFeed struct {
	bars []market.Bar
	pos  int
}

func FromBars(bars []market.Bar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

func (f *SliceFeed) Next() (market.Bar, bool, error) {
	if f.pos >= len(f.bars) {
		return market.Bar{}, false, nil
	}
	b := f.bars[f.pos]
	f.pos++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }
