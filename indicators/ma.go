package indicators

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/fxloop/market"
)

// SMA returns the simple moving average of Close at every index of the
// series. Indices with fewer than period bars behind them are None.
func SMA(candles []market.Candle, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(candles))
	if period <= 0 {
		return out
	}

	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out[i] = optional.Some(sum / float64(period))
		}
	}
	return out
}

// SMALast is the simple moving average ending at the last bar.
func SMALast(candles []market.Candle, period int) optional.Option[float64] {
	if period <= 0 || len(candles) < period {
		return optional.None[float64]()
	}
	sum := 0.0
	for _, c := range candles[len(candles)-period:] {
		sum += c.Close
	}
	return optional.Some(sum / float64(period))
}

// MA calculates the Simple Moving Average for the given period.
func MA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}
	return SMALast(candles, period).Unwrap(), nil
}

// EMA calculates the Exponential Moving Average for the given period,
// seeded with the SMA of the first period closes.
func EMA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for i := 0; i < period; i++ {
		sma += candles[i].Close
	}
	ema := sma / float64(period)

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
	}

	return ema, nil
}
