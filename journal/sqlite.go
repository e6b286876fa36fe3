package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal persists runs into a local SQLite database so past backtests
// can be queried and compared.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, instrument, direction, units, entry_price, exit_price,
		 open_time, close_time, pl, commission, net_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Instrument, t.Direction, t.Units, t.EntryPrice,
		t.ExitPrice, t.OpenTime, t.CloseTime, t.PL, t.Commission, t.NetPL, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`INSERT INTO equity (run_id, time, equity) VALUES (?, ?, ?)`,
		e.RunID, e.Time, e.Equity)
	return err
}

func (j *SQLiteJournal) RecordMetric(m MetricRecord) error {
	_, err := j.db.Exec(`INSERT INTO metrics (run_id, name, value) VALUES (?, ?, ?)`,
		m.RunID, m.Name, m.Value)
	return err
}

// ListTrades returns the trades of one run ordered by close time.
func (j *SQLiteJournal) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, instrument, direction, units, entry_price, exit_price,
		       open_time, close_time, pl, commission, net_pl, reason
		FROM trades WHERE run_id = ? ORDER BY close_time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.TradeID, &t.RunID, &t.Instrument, &t.Direction, &t.Units,
			&t.EntryPrice, &t.ExitPrice, &t.OpenTime, &t.CloseTime,
			&t.PL, &t.Commission, &t.NetPL, &t.Reason); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquity returns the equity curve of one run in time order.
func (j *SQLiteJournal) ListEquity(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`SELECT run_id, time, equity FROM equity WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var e EquityRecord
		if err := rows.Scan(&e.RunID, &e.Time, &e.Equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListTradesClosedBetween returns trades of any run closed in [from, to).
func (j *SQLiteJournal) ListTradesClosedBetween(from, to time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, instrument, direction, units, entry_price, exit_price,
		       open_time, close_time, pl, commission, net_pl, reason
		FROM trades WHERE close_time >= ? AND close_time < ? ORDER BY close_time`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.TradeID, &t.RunID, &t.Instrument, &t.Direction, &t.Units,
			&t.EntryPrice, &t.ExitPrice, &t.OpenTime, &t.CloseTime,
			&t.PL, &t.Commission, &t.NetPL, &t.Reason); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
