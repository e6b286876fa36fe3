package market

import (
	"math"
	"time"
)

// Direction is a signed trade/structure direction. Bullish and Long are the
// same value, as are Bearish and Short; structural code reads better with
// the former, position code with the latter.
type Direction int8

const (
	NoDirection Direction = 0
	Bullish     Direction = +1
	Bearish     Direction = -1

	Long  = Bullish
	Short = Bearish
)

func (d Direction) String() string {
	switch d {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	}
	return "none"
}

// Opposite returns the flipped direction; NoDirection stays NoDirection.
func (d Direction) Opposite() Direction { return -d }

// Bar is a single OHLCV candle. Bars are immutable once stored in a Series.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (b Bar) Bullish() bool { return b.Close > b.Open }
func (b Bar) Bearish() bool { return b.Close < b.Open }

// Range is the full high-low extent of the bar.
func (b Bar) Range() float64 { return b.High - b.Low }

// Body is the absolute open-close distance.
func (b Bar) Body() float64 { return math.Abs(b.Close - b.Open) }

// Direction reports the candle body direction, NoDirection for dojis.
func (b Bar) Direction() Direction {
	switch {
	case b.Close > b.Open:
		return Bullish
	case b.Close < b.Open:
		return Bearish
	}
	return NoDirection
}

// sane reports whether low <= open,close <= high holds.
func (b Bar) sane() bool {
	return b.Low <= b.Open && b.Low <= b.Close &&
		b.Open <= b.High && b.Close <= b.High &&
		b.Low <= b.High
}
