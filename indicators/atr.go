package indicators

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/fxloop/market"
)

// trueRange calculates the True Range for a candle given the previous candle
func trueRange(current, previous market.Candle) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}

// TrueRanges returns the TR of every bar that has a predecessor, so the
// result is one shorter than the input. Bar 0 contributes nothing.
func TrueRanges(candles []market.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		out = append(out, trueRange(candles[i], candles[i-1]))
	}
	return out
}

// ATR is the simple mean of the last period true ranges. It needs
// period+1 candles because each TR looks at the previous close.
func ATR(candles []market.Candle, period int) optional.Option[float64] {
	if period <= 0 || len(candles) < period+1 {
		return optional.None[float64]()
	}

	trs := TrueRanges(candles[len(candles)-period-1:])
	sum := 0.0
	for _, tr := range trs {
		sum += tr
	}
	return optional.Some(sum / float64(period))
}
