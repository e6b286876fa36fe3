package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(t time.Time, o, h, l, c float64) Bar {
	return Bar{Time: t, Open: o, High: h, Low: l, Close: c, Volume: 100}
}

func TestSeriesAppendOrdering(t *testing.T) {
	s := NewSeries("EUR_USD")
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(bar(t0, 1.10, 1.11, 1.09, 1.105)))
	require.NoError(t, s.Append(bar(t0.Add(time.Minute), 1.105, 1.12, 1.10, 1.11)))

	// Equal timestamp must be rejected, not just earlier ones.
	err := s.Append(bar(t0.Add(time.Minute), 1.11, 1.12, 1.10, 1.11))
	require.ErrorIs(t, err, ErrOutOfOrder)

	err = s.Append(bar(t0, 1.11, 1.12, 1.10, 1.11))
	require.ErrorIs(t, err, ErrOutOfOrder)

	assert.Equal(t, 2, s.Len())
}

func TestSeriesAppendRejectsMalformedBar(t *testing.T) {
	s := NewSeries("EUR_USD")
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	// Close above high.
	err := s.Append(bar(t0, 1.10, 1.11, 1.09, 1.115))
	require.ErrorIs(t, err, ErrBadBar)

	// Open below low.
	err = s.Append(bar(t0, 1.08, 1.11, 1.09, 1.10))
	require.ErrorIs(t, err, ErrBadBar)

	assert.Equal(t, 0, s.Len())
}

func TestSeriesWindow(t *testing.T) {
	s := NewSeries("EUR_USD")
	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(bar(t0.Add(time.Duration(i)*time.Minute), 1.10, 1.11, 1.09, 1.105)))
	}

	assert.Len(t, s.Window(3), 3)
	assert.Len(t, s.Window(10), 5)
	assert.Equal(t, s.At(2), s.Window(3)[0])

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, t0.Add(4*time.Minute), last.Time)
}

func TestInstrumentFallback(t *testing.T) {
	known := Instrument("USD_JPY")
	assert.Equal(t, -2, known.PipLocation)

	// Names outside the table trade with conservative defaults.
	meta := Instrument("AUD_NZD")
	assert.Equal(t, "AUD_NZD", meta.Name)
	assert.Equal(t, -4, meta.PipLocation)
	assert.InDelta(t, 1, meta.MinimumTradeSize, 1e-12)
}

func TestBarHelpers(t *testing.T) {
	b := Bar{Open: 1.0, High: 1.5, Low: 0.9, Close: 1.4}
	assert.True(t, b.Bullish())
	assert.Equal(t, Bullish, b.Direction())
	assert.InDelta(t, 0.6, b.Range(), 1e-12)
	assert.InDelta(t, 0.4, b.Body(), 1e-12)

	doji := Bar{Open: 1.0, High: 1.1, Low: 0.9, Close: 1.0}
	assert.Equal(t, NoDirection, doji.Direction())
	assert.Equal(t, Bearish, Bullish.Opposite())
}
