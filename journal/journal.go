// Package journal persists backtest and live-run output as flat tabular
// records: one row per trade, equity point, and metric. The engine hands
// records over and knows nothing about file formats.
package journal

import "time"

// TradeRecord is one closed trade.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Instrument string
	Direction  string // "long" or "short"
	Units      float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	PL         float64 // gross, before costs
	Commission float64 // both sides
	NetPL      float64
	Reason     string // "stop", "target", early-exit reason, "end-of-data"
}

// EquityRecord is one mark-to-market equity point, one per processed bar.
type EquityRecord struct {
	RunID  string
	Time   time.Time
	Equity float64
}

// MetricRecord is one summary statistic of a finished run.
type MetricRecord struct {
	RunID string
	Name  string
	Value float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	RecordMetric(MetricRecord) error
	Close() error
}

// Discard is a Journal that drops everything; handy for tests and dry runs.
type Discard struct{}

func (Discard) RecordTrade(TradeRecord) error   { return nil }
func (Discard) RecordEquity(EquityRecord) error { return nil }
func (Discard) RecordMetric(MetricRecord) error { return nil }
func (Discard) Close() error                    { return nil }
