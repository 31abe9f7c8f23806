// market/instruments.go
package market

import (
	"fmt"
	"math"
	"strings"
)

type InstrumentMeta struct {
	Name                string
	BaseCurrency        string
	QuoteCurrency       string
	PipLocation         int
	DisplayPrecision    int
	TradeUnitsPrecision int
	MinimumTradeSize    float64
}

// PipSize is 10^PipLocation, e.g. 0.0001 for EUR_USD.
func (m InstrumentMeta) PipSize() float64 {
	return math.Pow(10, float64(m.PipLocation))
}

func pair(base, quote string) InstrumentMeta {
	m := InstrumentMeta{
		Name:             PairName(base, quote),
		BaseCurrency:     base,
		QuoteCurrency:    quote,
		PipLocation:      -4,
		DisplayPrecision: 5,
		MinimumTradeSize: 1,
	}
	if quote == "JPY" {
		m.PipLocation = -2
		m.DisplayPrecision = 3
	}
	return m
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": pair("EUR", "USD"),
	"GBP_USD": pair("GBP", "USD"),
	"AUD_USD": pair("AUD", "USD"),
	"NZD_USD": pair("NZD", "USD"),
	"USD_JPY": pair("USD", "JPY"),
	"USD_CHF": pair("USD", "CHF"),
	"USD_CAD": pair("USD", "CAD"),
	"EUR_GBP": pair("EUR", "GBP"),
	"EUR_JPY": pair("EUR", "JPY"),
	"EUR_CHF": pair("EUR", "CHF"),
	"GBP_JPY": pair("GBP", "JPY"),
}

// Lookup returns the metadata for an instrument. Names missing from the
// table are derived from their BASE_QUOTE form: JPY-quoted pairs get a
// 0.01 pip, everything else 0.0001.
func Lookup(name string) (InstrumentMeta, error) {
	if m, ok := Instruments[name]; ok {
		return m, nil
	}
	base, quote, ok := strings.Cut(name, "_")
	if !ok || len(base) != 3 || len(quote) != 3 || strings.ToUpper(name) != name {
		return InstrumentMeta{}, fmt.Errorf("unknown instrument %q (want BASE_QUOTE, e.g. EUR_USD)", name)
	}
	return pair(base, quote), nil
}

func PairName(base, quote string) string {
	return base + "_" + quote
}
