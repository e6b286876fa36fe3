package structure

import (
	"fmt"
	"time"

	"github.com/quantfx/smctrader/market"
)

// KillZone is an intraday UTC time window with elevated institutional
// activity. Minutes are measured from midnight UTC; the window is inclusive
// on both ends, matching the common session definitions.
type KillZone struct {
	Name        string
	StartMinute int
	EndMinute   int
}

// ParseKillZone builds a zone from "HH:MM" boundaries.
func ParseKillZone(name, start, end string) (KillZone, error) {
	s, err := parseMinutes(start)
	if err != nil {
		return KillZone{}, fmt.Errorf("kill zone %s start: %w", name, err)
	}
	e, err := parseMinutes(end)
	if err != nil {
		return KillZone{}, fmt.Errorf("kill zone %s end: %w", name, err)
	}
	if e <= s {
		return KillZone{}, fmt.Errorf("kill zone %s: end %s not after start %s", name, end, start)
	}
	return KillZone{Name: name, StartMinute: s, EndMinute: e}, nil
}

func parseMinutes(v string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("bad time %q: %w", v, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad time %q", v)
	}
	return h*60 + m, nil
}

// DefaultKillZones covers the London and New York open sessions.
func DefaultKillZones() []KillZone {
	return []KillZone{
		{Name: "london", StartMinute: 8 * 60, EndMinute: 11 * 60},
		{Name: "new_york", StartMinute: 13 * 60, EndMinute: 16 * 60},
	}
}

// activeKillZone reports which zone, if any, contains t (UTC).
func activeKillZone(t time.Time, zones []KillZone) (string, bool) {
	utc := t.UTC()
	m := utc.Hour()*60 + utc.Minute()
	for _, z := range zones {
		if m >= z.StartMinute && m <= z.EndMinute {
			return z.Name, true
		}
	}
	return "", false
}

// dailyBias is the sign of the close-to-close displacement across the last
// lookback days. It is computed purely from timestamps, independent of
// intrabar structural state.
func dailyBias(bars []market.Bar, lookbackDays int) market.Direction {
	n := len(bars)
	if n == 0 || lookbackDays <= 0 {
		return market.NoDirection
	}
	last := bars[n-1]
	cutoff := last.Time.Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	// Latest bar at or before the cutoff anchors the displacement.
	for i := n - 1; i >= 0; i-- {
		if !bars[i].Time.After(cutoff) {
			switch {
			case last.Close > bars[i].Close:
				return market.Bullish
			case last.Close < bars[i].Close:
				return market.Bearish
			}
			return market.NoDirection
		}
	}
	return market.NoDirection
}

// oteState reports whether the close sits inside the optimal-trade-entry
// retracement zone (e.g. 61.8%-79%) of the most recent impulsive leg between
// the last confirmed swing low and swing high.
func oteState(close float64, swings *SwingLedger, lowFrac, highFrac float64) (market.Direction, bool) {
	high, okH := swings.LastHigh()
	low, okL := swings.LastLow()
	if !okH || !okL || high.Price <= low.Price {
		return market.NoDirection, false
	}
	span := high.Price - low.Price

	if low.Index < high.Index {
		// Bullish leg low->high; OTE is the pullback under the high.
		zoneLow := high.Price - span*highFrac
		zoneHigh := high.Price - span*lowFrac
		if close >= zoneLow && close <= zoneHigh {
			return market.Bullish, true
		}
		return market.NoDirection, false
	}

	// Bearish leg high->low; OTE is the bounce above the low.
	zoneLow := low.Price + span*lowFrac
	zoneHigh := low.Price + span*highFrac
	if close >= zoneLow && close <= zoneHigh {
		return market.Bearish, true
	}
	return market.NoDirection, false
}
