package risk

// Units are sized so that losing the stop distance costs RiskFraction of
// equity in the account currency:
//
//	units = floor(equity * riskFraction / (|entry - stop| * quoteToAccount))
//
// EUR_USD in a USD account → QuoteToAccount = 1.0
// EUR_USD in a GBP account → QuoteToAccount = USD->GBP = 1 / GBPUSD mid

import (
	"math"

	"github.com/shopspring/decimal"
)

type Inputs struct {
	Equity         float64 // account currency
	RiskFraction   float64 // 0.005
	EntryPrice     float64
	StopPrice      float64
	QuoteToAccount float64
	MinUnits       int64
	Direction      int // +1 long, -1 short
}

type Result struct {
	Units        int64 // signed
	StopDistance float64
	RiskBudget   float64 // account currency
	PerUnitRisk  float64 // account currency
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func pipSize(loc int) float64 {
	return math.Pow(10, float64(loc))
}

// PipSize returns the pip size for a given pip location.
func PipSize(loc int) float64 {
	return pipSize(loc)
}

// Size computes the order quantity. A zero stop distance, zero direction
// or non-positive budget gives zero units: there is nothing sensible to
// risk. Otherwise the magnitude is raised to MinUnits when below it.
// Non-finite inputs also give zero units.
func Size(in Inputs) Result {
	if !finite(in.Equity, in.RiskFraction, in.EntryPrice, in.StopPrice, in.QuoteToAccount) {
		return Result{}
	}
	entry := decimal.NewFromFloat(in.EntryPrice)
	stop := decimal.NewFromFloat(in.StopPrice)
	dist := entry.Sub(stop).Abs()
	budget := decimal.NewFromFloat(in.Equity).Mul(decimal.NewFromFloat(in.RiskFraction))
	perUnit := dist.Mul(decimal.NewFromFloat(in.QuoteToAccount))

	res := Result{
		StopDistance: dist.InexactFloat64(),
		RiskBudget:   budget.InexactFloat64(),
		PerUnitRisk:  perUnit.InexactFloat64(),
	}

	if in.Direction == 0 || dist.Sign() <= 0 || perUnit.Sign() <= 0 || budget.Sign() <= 0 {
		return res
	}

	units := budget.Div(perUnit).Floor().IntPart()
	if units < in.MinUnits {
		units = in.MinUnits
	}
	if in.Direction < 0 {
		units = -units
	}
	res.Units = units
	return res
}
