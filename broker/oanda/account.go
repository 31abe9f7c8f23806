package oanda

import (
	"context"
	"fmt"

	"github.com/rustyeddy/fxloop/broker"
)

type accountSummary struct {
	Account struct {
		ID             string `json:"id"`
		Currency       string `json:"currency"`
		NAV            string `json:"NAV"`
		Balance        string `json:"balance"`
		MarginUsed     string `json:"marginUsed"`
		OpenTradeCount int    `json:"openTradeCount"`
	} `json:"account"`
}

// GetAccount reads the account summary. NAV is the equity risk is sized
// against.
func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	path, err := c.accountPath("/summary")
	if err != nil {
		return broker.Account{}, err
	}

	var resp accountSummary
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return broker.Account{}, fmt.Errorf("account summary: %w", err)
	}

	a := resp.Account
	if a.Currency == "" {
		return broker.Account{}, fmt.Errorf("account summary: missing currency")
	}
	nav, err := parseFloat(a.NAV)
	if err != nil {
		return broker.Account{}, fmt.Errorf("account summary: parse NAV: %w", err)
	}
	bal, err := parseFloat(a.Balance)
	if err != nil {
		return broker.Account{}, fmt.Errorf("account summary: parse balance: %w", err)
	}
	margin, err := parseFloat(a.MarginUsed)
	if err != nil {
		return broker.Account{}, fmt.Errorf("account summary: parse margin: %w", err)
	}

	return broker.Account{
		ID:         a.ID,
		Currency:   a.Currency,
		NAV:        nav,
		Balance:    bal,
		MarginUsed: margin,
		OpenTrades: a.OpenTradeCount,
	}, nil
}

type apiTrade struct {
	ID           string `json:"id"`
	Instrument   string `json:"instrument"`
	Price        string `json:"price"`
	CurrentUnits string `json:"currentUnits"`
	UnrealizedPL string `json:"unrealizedPL"`
	StopLoss     *struct {
		Price string `json:"price"`
	} `json:"stopLossOrder,omitempty"`
	TakeProfit *struct {
		Price string `json:"price"`
	} `json:"takeProfitOrder,omitempty"`
}

// OpenTrades lists the account's open trades.
func (c *Client) OpenTrades(ctx context.Context) ([]broker.Trade, error) {
	path, err := c.accountPath("/openTrades")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Trades []apiTrade `json:"trades"`
	}
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}

	trades := make([]broker.Trade, 0, len(resp.Trades))
	for _, at := range resp.Trades {
		tr := broker.Trade{ID: at.ID, Instrument: at.Instrument}
		if tr.Units, err = parseUnits(at.CurrentUnits); err != nil {
			return nil, fmt.Errorf("trade %s: parse units: %w", at.ID, err)
		}
		if tr.Price, err = parseFloat(at.Price); err != nil {
			return nil, fmt.Errorf("trade %s: parse price: %w", at.ID, err)
		}
		if tr.UnrealizedPL, err = parseFloat(at.UnrealizedPL); err != nil {
			return nil, fmt.Errorf("trade %s: parse pl: %w", at.ID, err)
		}
		if at.StopLoss != nil {
			tr.StopLoss, _ = parseFloat(at.StopLoss.Price)
		}
		if at.TakeProfit != nil {
			tr.TakeProfit, _ = parseFloat(at.TakeProfit.Price)
		}
		trades = append(trades, tr)
	}
	return trades, nil
}
