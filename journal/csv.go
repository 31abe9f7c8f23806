package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	cycleHeader = []string{
		"cycle_id", "instrument", "time", "bar_time", "kind", "reason", "signal", "strength",
		"bid", "ask", "fast", "slow", "atr", "units", "entry", "stop_loss", "take_profit",
		"error", "advanced", "duration_ms",
	}
	orderHeader = []string{
		"cycle_id", "time", "instrument", "side", "units", "stop_loss", "take_profit",
		"status", "price", "order_id", "trade_id", "client_tag", "reason",
	}
)

// CSVJournal appends records to two CSV files. Headers are written once,
// when a file is new or empty.
type CSVJournal struct {
	cycles *csv.Writer
	orders *csv.Writer
	cf, of *os.File
}

func NewCSV(cyclesPath, ordersPath string) (*CSVJournal, error) {
	cf, cw, err := openCSV(cyclesPath, cycleHeader)
	if err != nil {
		return nil, err
	}
	of, ow, err := openCSV(ordersPath, orderHeader)
	if err != nil {
		_ = cf.Close()
		return nil, err
	}
	return &CSVJournal{cycles: cw, orders: ow, cf: cf, of: of}, nil
}

func openCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, nil, err
	}

	w := csv.NewWriter(fh)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			_ = fh.Close()
			return nil, nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = fh.Close()
			return nil, nil, fmt.Errorf("write header %s: %w", path, err)
		}
	}
	return fh, w, nil
}

func (j *CSVJournal) RecordCycle(c CycleRecord) error {
	err := j.cycles.Write([]string{
		c.CycleID,
		c.Instrument,
		ts(c.Time),
		ts(c.BarTime),
		c.Kind,
		c.Reason,
		c.Signal,
		f(c.Strength),
		f(c.Bid),
		f(c.Ask),
		f(c.Fast),
		f(c.Slow),
		f(c.ATR),
		strconv.FormatInt(c.Units, 10),
		f(c.Entry),
		f(c.StopLoss),
		f(c.TakeProfit),
		c.Error,
		strconv.FormatBool(c.Advanced),
		strconv.FormatInt(c.DurationMS, 10),
	})
	if err != nil {
		return err
	}
	j.cycles.Flush()
	return j.cycles.Error()
}

func (j *CSVJournal) RecordOrder(o OrderRecord) error {
	err := j.orders.Write([]string{
		o.CycleID,
		ts(o.Time),
		o.Instrument,
		o.Side,
		strconv.FormatInt(o.Units, 10),
		f(o.StopLoss),
		f(o.TakeProfit),
		o.Status,
		f(o.Price),
		o.OrderID,
		o.TradeID,
		o.ClientTag,
		o.Reason,
	})
	if err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) Close() error {
	j.cycles.Flush()
	if err := j.cycles.Error(); err != nil {
		return err
	}
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}

	if err := j.cf.Close(); err != nil {
		return err
	}
	return j.of.Close()
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
