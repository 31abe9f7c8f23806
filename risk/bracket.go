package risk

import "github.com/shopspring/decimal"

// Bracket places the protective stop and the profit target around entry
// at ATR multiples, on the losing and winning side of dir respectively.
// Prices are rounded to the instrument's display precision. Non-finite
// inputs collapse both levels onto entry, which sizes to zero units.
func Bracket(entry, atr float64, dir int, stopMult, targetMult float64, precision int32) (stop, target float64) {
	if !finite(entry, atr, stopMult, targetMult) {
		return entry, entry
	}
	e := decimal.NewFromFloat(entry)
	a := decimal.NewFromFloat(atr)
	stopOff := a.Mul(decimal.NewFromFloat(stopMult))
	targetOff := a.Mul(decimal.NewFromFloat(targetMult))

	var s, t decimal.Decimal
	if dir >= 0 {
		s = e.Sub(stopOff)
		t = e.Add(targetOff)
	} else {
		s = e.Add(stopOff)
		t = e.Sub(targetOff)
	}
	return s.Round(precision).InexactFloat64(), t.Round(precision).InexactFloat64()
}

// RoundPrice rounds a price to precision decimal places.
func RoundPrice(price float64, precision int32) float64 {
	if !finite(price) {
		return price
	}
	return decimal.NewFromFloat(price).Round(precision).InexactFloat64()
}
