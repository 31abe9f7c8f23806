package broker

import (
	"context"
	"encoding/json"

	"github.com/rustyeddy/fxloop/market"
)

// Broker is everything the decision loop needs from a brokerage.
type Broker interface {
	GetQuote(ctx context.Context, instrument string) (market.Quote, error)
	GetCandles(ctx context.Context, instrument, granularity string, count int) ([]market.Candle, error)
	GetAccount(ctx context.Context) (Account, error)
	// ExchangeRate returns how many units of to one unit of from buys.
	ExchangeRate(ctx context.Context, from, to string) (float64, error)
	CreateBracketOrder(ctx context.Context, req BracketOrderRequest) (OrderResponse, error)
}

type Account struct {
	ID         string
	Currency   string
	NAV        float64
	Balance    float64
	MarginUsed float64
	OpenTrades int
}

// BracketOrderRequest is a fill-or-kill market order with stop loss and
// take profit attached on fill. Units is signed: positive buys, negative
// sells.
type BracketOrderRequest struct {
	Instrument string
	Units      int64
	StopLoss   float64
	TakeProfit float64
	// Precision is the number of decimals prices are sent with.
	Precision int32
	ClientTag string
}

func (r BracketOrderRequest) Side() string {
	switch {
	case r.Units > 0:
		return "BUY"
	case r.Units < 0:
		return "SELL"
	default:
		return "NONE"
	}
}

// Transaction is the subset of a broker transaction the dispatcher reads.
type Transaction struct {
	ID      string
	Type    string
	Price   float64
	Units   int64
	TradeID string
	Reason  string
}

// OrderResponse carries whichever transactions the broker reported for an
// order submission. Any of them may be nil.
type OrderResponse struct {
	Create *Transaction
	Fill   *Transaction
	Cancel *Transaction
	Raw    json.RawMessage
}

// Trade is an open position as reported by the broker.
type Trade struct {
	ID           string
	Instrument   string
	Units        int64
	Price        float64
	UnrealizedPL float64
	StopLoss     float64
	TakeProfit   float64
}
