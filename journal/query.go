package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const cycleColumns = `cycle_id, instrument, time, bar_time, kind, reason, signal, strength, bid, ask,
	fast, slow, atr, units, entry, stop_loss, take_profit, error, advanced, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(s scanner) (CycleRecord, error) {
	var rec CycleRecord
	err := s.Scan(
		&rec.CycleID,
		&rec.Instrument,
		&rec.Time,
		&rec.BarTime,
		&rec.Kind,
		&rec.Reason,
		&rec.Signal,
		&rec.Strength,
		&rec.Bid,
		&rec.Ask,
		&rec.Fast,
		&rec.Slow,
		&rec.ATR,
		&rec.Units,
		&rec.Entry,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.Error,
		&rec.Advanced,
		&rec.DurationMS,
	)
	return rec, err
}

// GetCycle returns a single cycle record by ID.
func (j *SQLite) GetCycle(cycleID string) (CycleRecord, error) {
	row := j.db.QueryRow(`SELECT `+cycleColumns+` FROM cycles WHERE cycle_id = ?`, cycleID)
	rec, err := scanCycle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CycleRecord{}, fmt.Errorf("cycle %q not found", cycleID)
		}
		return CycleRecord{}, err
	}
	return rec, nil
}

// ListRecentCycles returns up to limit cycles, newest first.
func (j *SQLite) ListRecentCycles(limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`SELECT `+cycleColumns+` FROM cycles
		ORDER BY time DESC, cycle_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		rec, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOrdersBetween returns orders whose time is within [start, end).
func (j *SQLite) ListOrdersBetween(start, end time.Time) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT cycle_id, time, instrument, side, units, stop_loss, take_profit, status, price, order_id, trade_id, client_tag, reason
		FROM orders
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(
			&rec.CycleID,
			&rec.Time,
			&rec.Instrument,
			&rec.Side,
			&rec.Units,
			&rec.StopLoss,
			&rec.TakeProfit,
			&rec.Status,
			&rec.Price,
			&rec.OrderID,
			&rec.TradeID,
			&rec.ClientTag,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByKind tallies cycles by outcome kind.
func (j *SQLite) CountByKind() (map[string]int, error) {
	rows, err := j.db.Query(`SELECT kind, COUNT(*) FROM cycles GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}
