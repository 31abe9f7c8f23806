package market

import (
	"fmt"
)

// Conversion turns amounts in From into amounts in To. Rate is the number
// of To units bought by one From unit.
type Conversion struct {
	From string
	To   string
	Rate float64
}

// Identity is the conversion used when quote and account currency match.
func Identity(currency string) Conversion {
	return Conversion{From: currency, To: currency, Rate: 1}
}

func (c Conversion) Convert(amount float64) float64 {
	return amount * c.Rate
}

// Invert converts an amount in To back into From.
func (c Conversion) Invert(amount float64) float64 {
	if c.Rate == 0 {
		return 0
	}
	return amount / c.Rate
}

func (c Conversion) Validate() error {
	if !Finite(c.Rate) || c.Rate <= 0 {
		return fmt.Errorf("conversion %s->%s: rate must be positive, got %v", c.From, c.To, c.Rate)
	}
	return nil
}

// RateFromPair derives the from->to rate from the mid price of a pair that
// quotes the two currencies in either orientation.
//
// GBP_USD at 1.25 means one GBP buys 1.25 USD, so GBP->USD is 1.25 and
// USD->GBP is 0.8.
func RateFromPair(p InstrumentMeta, mid float64, from, to string) (float64, error) {
	if !Finite(mid) || mid <= 0 {
		return 0, fmt.Errorf("pair %s: mid must be positive, got %v", p.Name, mid)
	}
	switch {
	case p.BaseCurrency == from && p.QuoteCurrency == to:
		return mid, nil
	case p.BaseCurrency == to && p.QuoteCurrency == from:
		return 1.0 / mid, nil
	default:
		return 0, fmt.Errorf("pair %s does not quote %s against %s", p.Name, from, to)
	}
}
