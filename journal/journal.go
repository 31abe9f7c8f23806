// journal/journal.go
package journal

import (
	"errors"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/fxloop/loop"
)

// CycleRecord is the flattened outcome of one decision cycle.
type CycleRecord struct {
	CycleID    string
	Instrument string
	Time       time.Time
	BarTime    time.Time
	Kind       string
	Reason     string
	Signal     string
	Strength   float64
	Bid        float64
	Ask        float64
	Fast       float64
	Slow       float64
	ATR        float64
	Units      int64
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Error      string
	Advanced   bool
	DurationMS int64
}

// OrderRecord is one order submission and how the broker answered it.
type OrderRecord struct {
	CycleID    string
	Time       time.Time
	Instrument string
	Side       string
	Units      int64
	StopLoss   float64
	TakeProfit float64
	Status     string
	Price      float64
	OrderID    string
	TradeID    string
	ClientTag  string
	Reason     string
}

type Journal interface {
	RecordCycle(CycleRecord) error
	RecordOrder(OrderRecord) error
	Close() error
}

// FromOutcome flattens a loop outcome. The order record is present only
// when the cycle tried to submit an order.
func FromOutcome(o loop.Outcome) (CycleRecord, optional.Option[OrderRecord]) {
	rec := CycleRecord{
		CycleID:    o.CycleID,
		Instrument: o.Instrument,
		Time:       o.Started.UTC(),
		BarTime:    o.BarTime.UTC(),
		Kind:       string(o.Kind),
		Reason:     o.Reason,
		Signal:     o.Signal.Direction.String(),
		Strength:   o.Signal.Strength,
		Bid:        o.Quote.Bid,
		Ask:        o.Quote.Ask,
		Fast:       orZero(o.Indicators.Fast),
		Slow:       orZero(o.Indicators.Slow),
		ATR:        orZero(o.Indicators.ATR),
		Advanced:   o.Advanced,
		DurationMS: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	if p := o.Plan; p != nil {
		rec.Units = p.Units
		rec.Entry = p.Entry
		rec.StopLoss = p.Stop
		rec.TakeProfit = p.Target
	}

	if o.Order == nil || o.Plan == nil {
		return rec, optional.None[OrderRecord]()
	}

	side := "BUY"
	if o.Plan.Units < 0 {
		side = "SELL"
	}
	ord := OrderRecord{
		CycleID:    o.CycleID,
		Time:       o.Started.UTC(),
		Instrument: o.Instrument,
		Side:       side,
		Units:      o.Plan.Units,
		StopLoss:   o.Plan.Stop,
		TakeProfit: o.Plan.Target,
		Status:     string(o.Order.Status),
		Price:      o.Order.Price,
		OrderID:    o.Order.OrderID,
		TradeID:    o.Order.TradeID,
		ClientTag:  o.Order.ClientTag,
		Reason:     o.Order.Reason,
	}
	if ord.Status == "" {
		ord.Status = "ERROR"
		ord.Reason = rec.Error
	}
	return rec, optional.Some(ord)
}

func orZero(v optional.Option[float64]) float64 {
	if v.IsNone() {
		return 0
	}
	return v.Unwrap()
}

// Multi writes every record to each journal.
type Multi []Journal

func (m Multi) RecordCycle(c CycleRecord) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordCycle(c))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordOrder(o OrderRecord) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordOrder(o))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}
