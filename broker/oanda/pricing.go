package oanda

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rustyeddy/fxloop/market"
)

type priceBucket struct {
	Price string `json:"price"`
}

type apiPrice struct {
	Instrument string        `json:"instrument"`
	Time       string        `json:"time"`
	Tradeable  bool          `json:"tradeable"`
	Bids       []priceBucket `json:"bids"`
	Asks       []priceBucket `json:"asks"`
}

type pricingResponse struct {
	Prices []apiPrice `json:"prices"`
}

// GetQuote returns the current top of book for an instrument.
func (c *Client) GetQuote(ctx context.Context, instrument string) (market.Quote, error) {
	path, err := c.accountPath("/pricing")
	if err != nil {
		return market.Quote{}, err
	}
	q := url.Values{}
	q.Set("instruments", instrument)

	var resp pricingResponse
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return market.Quote{}, fmt.Errorf("pricing %s: %w", instrument, err)
	}

	for _, p := range resp.Prices {
		if p.Instrument != instrument {
			continue
		}
		return p.quote()
	}
	return market.Quote{}, fmt.Errorf("pricing %s: instrument missing from response", instrument)
}

func (p apiPrice) quote() (market.Quote, error) {
	if len(p.Bids) == 0 || len(p.Asks) == 0 {
		return market.Quote{}, fmt.Errorf("pricing %s: empty book", p.Instrument)
	}
	bid, err := parseFloat(p.Bids[0].Price)
	if err != nil {
		return market.Quote{}, fmt.Errorf("parse bid: %w", err)
	}
	ask, err := parseFloat(p.Asks[0].Price)
	if err != nil {
		return market.Quote{}, fmt.Errorf("parse ask: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, p.Time)
	if err != nil {
		return market.Quote{}, fmt.Errorf("parse time %s: %w", p.Time, err)
	}
	return market.Quote{Instrument: p.Instrument, Time: t, Bid: bid, Ask: ask}, nil
}

// ExchangeRate prices whichever of FROM_TO or TO_FROM the broker lists and
// orients the mid so the result is units of to per unit of from.
func (c *Client) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}

	direct := market.PairName(from, to)
	inverse := market.PairName(to, from)
	candidates := []string{direct, inverse}
	if _, ok := market.Instruments[direct]; !ok {
		if _, ok := market.Instruments[inverse]; ok {
			candidates = []string{inverse, direct}
		}
	}

	var errs []error
	for _, name := range candidates {
		meta, err := market.Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		q, err := c.GetQuote(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return 0, err
			}
			errs = append(errs, err)
			continue
		}
		return market.RateFromPair(meta, q.Mid(), from, to)
	}
	return 0, fmt.Errorf("exchange rate %s->%s: %w", from, to, errors.Join(errs...))
}
