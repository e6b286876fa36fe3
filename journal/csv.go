package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes trades, equity, and metrics into three CSV files.
type CSVJournal struct {
	trades  *csv.Writer
	equity  *csv.Writer
	metrics *csv.Writer
	tf      *os.File
	ef      *os.File
	mf      *os.File
}

func NewCSV(tradesPath, equityPath, metricsPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}
	mf, err := os.Create(metricsPath)
	if err != nil {
		tf.Close()
		ef.Close()
		return nil, err
	}

	j := &CSVJournal{
		trades:  csv.NewWriter(tf),
		equity:  csv.NewWriter(ef),
		metrics: csv.NewWriter(mf),
		tf:      tf,
		ef:      ef,
		mf:      mf,
	}

	headers := []struct {
		w   *csv.Writer
		row []string
	}{
		{j.trades, []string{"trade_id", "run_id", "instrument", "direction", "units",
			"entry_price", "exit_price", "open_time", "close_time", "pl", "commission", "net_pl", "reason"}},
		{j.equity, []string{"run_id", "time", "equity"}},
		{j.metrics, []string{"run_id", "name", "value"}},
	}
	for _, h := range headers {
		if err := h.w.Write(h.row); err != nil {
			j.Close()
			return nil, err
		}
		h.w.Flush()
		if err := h.w.Error(); err != nil {
			j.Close()
			return nil, err
		}
	}

	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write([]string{
		t.TradeID,
		t.RunID,
		t.Instrument,
		t.Direction,
		f(t.Units),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.PL),
		f(t.Commission),
		f(t.NetPL),
		t.Reason,
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityRecord) error {
	if err := j.equity.Write([]string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Equity),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) RecordMetric(m MetricRecord) error {
	if err := j.metrics.Write([]string{m.RunID, m.Name, f(m.Value)}); err != nil {
		return err
	}
	j.metrics.Flush()
	return j.metrics.Error()
}

func (j *CSVJournal) Close() error {
	var firstErr error
	for _, w := range []*csv.Writer{j.trades, j.equity, j.metrics} {
		w.Flush()
		if err := w.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, fh := range []*os.File{j.tf, j.ef, j.mf} {
		if err := fh.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
