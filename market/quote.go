package market

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the top of book for one instrument.
type Quote struct {
	Instrument string
	Time       time.Time
	Bid        float64
	Ask        float64
}

func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// SpreadPips expresses the spread in pips of the given size. The
// arithmetic is decimal so a quote exactly N pips wide reports N, not a
// hair above it. Non-finite prices report +Inf.
func (q Quote) SpreadPips(pip float64) float64 {
	if !Finite(q.Bid, q.Ask, pip) {
		return math.Inf(1)
	}
	if pip <= 0 {
		return 0
	}
	spread := decimal.NewFromFloat(q.Ask).Sub(decimal.NewFromFloat(q.Bid))
	return spread.Div(decimal.NewFromFloat(pip)).InexactFloat64()
}

// Finite reports whether every value is a real number (not NaN or ±Inf).
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (q Quote) Validate() error {
	if !Finite(q.Bid, q.Ask) {
		return fmt.Errorf("quote %s: non-finite price bid=%v ask=%v", q.Instrument, q.Bid, q.Ask)
	}
	if q.Bid <= 0 || q.Ask <= 0 {
		return fmt.Errorf("quote %s: non-positive price bid=%v ask=%v", q.Instrument, q.Bid, q.Ask)
	}
	if q.Ask < q.Bid {
		return fmt.Errorf("quote %s: ask %v below bid %v", q.Instrument, q.Ask, q.Bid)
	}
	return nil
}
