package market

import (
	"fmt"
	"time"
)

// Candle represents one OHLC bar. The bar at the end of a live feed may
// still be forming; Complete is false until its interval has elapsed.
type Candle struct {
	time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Complete bool
}

// CompleteOnly returns the complete candles of a series, preserving order.
func CompleteOnly(candles []Candle) []Candle {
	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if c.Complete {
			out = append(out, c)
		}
	}
	return out
}

// ValidateSeries checks that open times strictly increase and that every
// price is positive with a sane high/low envelope.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if !Finite(c.Open, c.High, c.Low, c.Close, c.Volume) {
			return fmt.Errorf("candle %d (%s): non-finite value", i, c.Time.Format(time.RFC3339))
		}
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("candle %d (%s): non-positive price", i, c.Time.Format(time.RFC3339))
		}
		if c.High < c.Low {
			return fmt.Errorf("candle %d (%s): high %.5f below low %.5f", i, c.Time.Format(time.RFC3339), c.High, c.Low)
		}
		if i > 0 && !c.Time.After(candles[i-1].Time) {
			return fmt.Errorf("candle %d (%s): time not after previous candle", i, c.Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Last returns the final candle of a series and whether one exists.
func Last(candles []Candle) (Candle, bool) {
	if len(candles) == 0 {
		return Candle{}, false
	}
	return candles[len(candles)-1], true
}
