package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordCycle(c CycleRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO cycles
		(cycle_id, instrument, time, bar_time, kind, reason, signal, strength, bid, ask,
		 fast, slow, atr, units, entry, stop_loss, take_profit, error, advanced, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CycleID, c.Instrument, c.Time.UTC(), c.BarTime.UTC(), c.Kind, c.Reason, c.Signal, c.Strength, c.Bid, c.Ask,
		c.Fast, c.Slow, c.ATR, c.Units, c.Entry, c.StopLoss, c.TakeProfit, c.Error, c.Advanced, c.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("record cycle %s: %w", c.CycleID, err)
	}
	return nil
}

func (j *SQLite) RecordOrder(o OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(cycle_id, time, instrument, side, units, stop_loss, take_profit, status, price, order_id, trade_id, client_tag, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.CycleID, o.Time.UTC(), o.Instrument, o.Side, o.Units, o.StopLoss, o.TakeProfit,
		o.Status, o.Price, o.OrderID, o.TradeID, o.ClientTag, o.Reason,
	)
	if err != nil {
		return fmt.Errorf("record order %s: %w", o.CycleID, err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
