package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quantfx/smctrader/market"
)

// timeLayouts are tried in order when parsing the timestamp column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// CSVFeed streams bars from a CSV file with columns
// timestamp,open,high,low,close,volume. A header row is detected and
// skipped. Rows must be in strictly increasing time order; gaps are fine.
type CSVFeed struct {
	f        *os.File
	r        *csv.Reader
	lastTime time.Time
	row      int
}

func OpenCSV(path string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bar file: %w", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return &CSVFeed{f: f, r: r}, nil
}

func (c *CSVFeed) Next() (market.Bar, bool, error) {
	for {
		rec, err := c.r.Read()
		if err == io.EOF {
			return market.Bar{}, false, nil
		}
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("read bar row: %w", err)
		}
		c.row++
		if c.row == 1 && isHeader(rec) {
			continue
		}
		bar, err := parseRow(rec)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("row %d: %w", c.row, err)
		}
		if !c.lastTime.IsZero() && !bar.Time.After(c.lastTime) {
			return market.Bar{}, false, fmt.Errorf("row %d: %w: %s does not advance past %s",
				c.row, market.ErrOutOfOrder, bar.Time, c.lastTime)
		}
		c.lastTime = bar.Time
		return bar, true, nil
	}
}

func (c *CSVFeed) Close() error { return c.f.Close() }

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[len(rec)-1]), 64)
	return err != nil
}

func parseRow(rec []string) (market.Bar, error) {
	if len(rec) < 5 {
		return market.Bar{}, fmt.Errorf("%w: need timestamp,o,h,l,c[,volume], got %d fields",
			market.ErrBadBar, len(rec))
	}
	ts, err := parseTime(strings.TrimSpace(rec[0]))
	if err != nil {
		return market.Bar{}, err
	}

	vals := make([]float64, 0, 5)
	for _, s := range rec[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("%w: bad number %q", market.ErrBadBar, s)
		}
		vals = append(vals, v)
	}

	bar := market.Bar{Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
	if len(vals) > 4 {
		bar.Volume = vals[4]
	}
	if bar.Low > bar.Open || bar.Low > bar.Close || bar.Open > bar.High ||
		bar.Close > bar.High || bar.Low > bar.High {
		return market.Bar{}, fmt.Errorf("%w: O=%g H=%g L=%g C=%g at %s",
			market.ErrBadBar, bar.Open, bar.High, bar.Low, bar.Close, bar.Time)
	}
	return bar, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	// unix seconds as a last resort
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", market.ErrBadBar, s)
}
