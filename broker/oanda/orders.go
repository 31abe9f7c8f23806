package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/fxloop/broker"
)

var _ broker.Broker = (*Client)(nil)

type priceDetails struct {
	Price string `json:"price"`
}

type clientExtensions struct {
	Tag string `json:"tag,omitempty"`
}

type marketOrder struct {
	Type             string            `json:"type"`
	Instrument       string            `json:"instrument"`
	Units            string            `json:"units"`
	TimeInForce      string            `json:"timeInForce"`
	PositionFill     string            `json:"positionFill"`
	StopLossOnFill   *priceDetails     `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill *priceDetails     `json:"takeProfitOnFill,omitempty"`
	ClientExtensions *clientExtensions `json:"clientExtensions,omitempty"`
}

type orderRequest struct {
	Order marketOrder `json:"order"`
}

type apiTransaction struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Price      string `json:"price"`
	PriceBound string `json:"priceBound"`
	Units      string `json:"units"`
	Reason     string `json:"reason"`

	TradeOpened *struct {
		TradeID string `json:"tradeID"`
	} `json:"tradeOpened,omitempty"`
}

type orderResponse struct {
	Create *apiTransaction `json:"orderCreateTransaction"`
	Fill   *apiTransaction `json:"orderFillTransaction"`
	Cancel *apiTransaction `json:"orderCancelTransaction"`
}

// FormatPrice renders a price with exactly precision decimals.
func FormatPrice(p float64, precision int32) string {
	return decimal.NewFromFloat(p).StringFixed(precision)
}

func buildOrder(req broker.BracketOrderRequest) (orderRequest, error) {
	if req.Instrument == "" {
		return orderRequest{}, errors.New("order: instrument is required")
	}
	if req.Units == 0 {
		return orderRequest{}, errors.New("order: units must be non-zero")
	}
	if req.StopLoss <= 0 || req.TakeProfit <= 0 {
		return orderRequest{}, fmt.Errorf("order: stop %v and target %v must be positive", req.StopLoss, req.TakeProfit)
	}

	o := marketOrder{
		Type:             "MARKET",
		Instrument:       req.Instrument,
		Units:            strconv.FormatInt(req.Units, 10),
		TimeInForce:      "FOK",
		PositionFill:     "DEFAULT",
		StopLossOnFill:   &priceDetails{Price: FormatPrice(req.StopLoss, req.Precision)},
		TakeProfitOnFill: &priceDetails{Price: FormatPrice(req.TakeProfit, req.Precision)},
	}
	if req.ClientTag != "" {
		o.ClientExtensions = &clientExtensions{Tag: req.ClientTag}
	}
	return orderRequest{Order: o}, nil
}

// CreateBracketOrder submits a FOK market order with stop loss and take
// profit on fill. It is sent exactly once.
func (c *Client) CreateBracketOrder(ctx context.Context, req broker.BracketOrderRequest) (broker.OrderResponse, error) {
	path, err := c.accountPath("/orders")
	if err != nil {
		return broker.OrderResponse{}, err
	}
	body, err := buildOrder(req)
	if err != nil {
		return broker.OrderResponse{}, err
	}

	raw, err := c.postJSON(ctx, path, body)
	if err != nil {
		return broker.OrderResponse{}, fmt.Errorf("create order %s: %w", req.Instrument, err)
	}

	// The order was accepted once we get here. Decoding problems are
	// reported in the response, never as an error, so the caller cannot
	// mistake an open position for a failed submission.
	out := broker.OrderResponse{Raw: raw}
	var resp orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Warn().Err(err).Str("instrument", req.Instrument).Msg("undecodable order response")
		return out, nil
	}

	out.Create = resp.Create.transaction()
	out.Fill = resp.Fill.transaction()
	out.Cancel = resp.Cancel.transaction()
	for _, tx := range []*broker.Transaction{out.Create, out.Fill, out.Cancel} {
		if tx != nil && strings.Contains(tx.Reason, "unparsed") {
			c.log.Warn().Str("instrument", req.Instrument).Str("transaction", tx.ID).Str("reason", tx.Reason).Msg("order transaction partly unparsed")
		}
	}
	return out, nil
}

// transaction converts t, leaving any price or units that fail to parse
// at zero and noting the bad field in Reason.
func (t *apiTransaction) transaction() *broker.Transaction {
	if t == nil {
		return nil
	}
	tx := &broker.Transaction{ID: t.ID, Type: t.Type, Reason: t.Reason}
	if t.TradeOpened != nil {
		tx.TradeID = t.TradeOpened.TradeID
	}

	var problems []string
	price := t.Price
	if price == "" {
		price = t.PriceBound
	}
	if p, err := parseFloat(price); err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		problems = append(problems, fmt.Sprintf("unparsed price %q", price))
	} else {
		tx.Price = p
	}
	if u, err := parseUnits(t.Units); err != nil {
		problems = append(problems, fmt.Sprintf("unparsed units %q", t.Units))
	} else {
		tx.Units = u
	}

	if len(problems) > 0 {
		if tx.Reason != "" {
			problems = append([]string{tx.Reason}, problems...)
		}
		tx.Reason = strings.Join(problems, "; ")
	}
	return tx
}
