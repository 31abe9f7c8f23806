// Package execution turns a sized decision into a broker order and
// classifies what came back.
package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/fxloop/broker"
	"github.com/rustyeddy/fxloop/pkg/id"
)

type Status string

const (
	Filled   Status = "FILLED"
	Pending  Status = "PENDING"
	Canceled Status = "CANCELED"
	Unknown  Status = "UNKNOWN"
)

// Order is one bracketed market order proposal.
type Order struct {
	CycleID    string
	Instrument string
	Units      int64
	StopLoss   float64
	TakeProfit float64
	Precision  int32
}

func (o Order) Validate() error {
	if o.Instrument == "" {
		return errors.New("order: missing instrument")
	}
	if o.Units == 0 {
		return errors.New("order: zero units")
	}
	if o.StopLoss <= 0 || o.TakeProfit <= 0 {
		return fmt.Errorf("order: stop %v and target %v must be positive", o.StopLoss, o.TakeProfit)
	}
	if o.Units > 0 && !(o.StopLoss < o.TakeProfit) {
		return fmt.Errorf("order: long stop %v must be below target %v", o.StopLoss, o.TakeProfit)
	}
	if o.Units < 0 && !(o.StopLoss > o.TakeProfit) {
		return fmt.Errorf("order: short stop %v must be above target %v", o.StopLoss, o.TakeProfit)
	}
	return nil
}

type Result struct {
	Status    Status
	Price     float64
	OrderID   string
	TradeID   string
	Units     int64
	Reason    string
	ClientTag string
}

type Dispatcher struct {
	Broker broker.Broker
	Log    zerolog.Logger
}

func NewDispatcher(b broker.Broker, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{Broker: b, Log: log}
}

// Dispatch submits the order once. Transport and API errors are returned
// as is; an unrecognised response is a Result with status Unknown.
func (d *Dispatcher) Dispatch(ctx context.Context, o Order) (Result, error) {
	if err := o.Validate(); err != nil {
		return Result{}, err
	}

	req := broker.BracketOrderRequest{
		Instrument: o.Instrument,
		Units:      o.Units,
		StopLoss:   o.StopLoss,
		TakeProfit: o.TakeProfit,
		Precision:  o.Precision,
	}
	if o.CycleID != "" {
		req.ClientTag = id.OrderTag(o.CycleID)
	}

	d.Log.Info().
		Str("instrument", req.Instrument).
		Str("side", req.Side()).
		Int64("units", req.Units).
		Float64("sl", req.StopLoss).
		Float64("tp", req.TakeProfit).
		Str("tag", req.ClientTag).
		Msg("submitting order")

	resp, err := d.Broker.CreateBracketOrder(ctx, req)
	if err != nil {
		return Result{ClientTag: req.ClientTag}, err
	}

	res := Classify(resp)
	res.ClientTag = req.ClientTag
	return res, nil
}

// Classify maps a broker response onto a Result. A fill wins over a
// cancel, a cancel over a bare create.
func Classify(resp broker.OrderResponse) Result {
	switch {
	case resp.Fill != nil:
		r := Result{
			Status:  Filled,
			Price:   resp.Fill.Price,
			OrderID: resp.Fill.ID,
			TradeID: resp.Fill.TradeID,
			Units:   resp.Fill.Units,
		}
		if resp.Create != nil {
			r.OrderID = resp.Create.ID
		}
		return r
	case resp.Cancel != nil:
		r := Result{
			Status:  Canceled,
			OrderID: resp.Cancel.ID,
			Reason:  resp.Cancel.Reason,
		}
		if resp.Create != nil {
			r.OrderID = resp.Create.ID
			r.Price = resp.Create.Price
		}
		return r
	case resp.Create != nil:
		return Result{
			Status:  Pending,
			Price:   resp.Create.Price,
			OrderID: resp.Create.ID,
			Units:   resp.Create.Units,
		}
	default:
		return Result{Status: Unknown, Reason: "no transaction in response"}
	}
}
