package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/market"
)

// MACross signals when the fast simple moving average crosses the slow
// one between the previous and the latest complete candle.
type MACross struct {
	params indicators.Params
}

func NewMACross(p indicators.Params) *MACross {
	return &MACross{params: p}
}

func (s *MACross) Name() string {
	return fmt.Sprintf("ma-cross(%d,%d)", s.params.FastPeriod, s.params.SlowPeriod)
}

// Warmup needs one candle beyond the slow window so the previous bar has
// both averages too.
func (s *MACross) Warmup() int {
	return s.params.SlowPeriod + 1
}

func (s *MACross) Evaluate(candles []market.Candle) (Signal, error) {
	if len(candles) < 2 {
		return NoSignal(InsufficientHistory), nil
	}

	prevFast := indicators.SMALast(candles[:len(candles)-1], s.params.FastPeriod)
	prevSlow := indicators.SMALast(candles[:len(candles)-1], s.params.SlowPeriod)
	fast := indicators.SMALast(candles, s.params.FastPeriod)
	slow := indicators.SMALast(candles, s.params.SlowPeriod)

	if prevFast.IsNone() || prevSlow.IsNone() || fast.IsNone() || slow.IsNone() {
		return NoSignal(InsufficientHistory), nil
	}

	dir := Cross(prevFast.Unwrap(), prevSlow.Unwrap(), fast.Unwrap(), slow.Unwrap())
	if dir == None {
		return NoSignal("no cross"), nil
	}

	reason := "BullCross"
	if dir == Sell {
		reason = "BearCross"
	}
	return Signal{
		Direction: dir,
		Strength:  math.Abs(fast.Unwrap() - slow.Unwrap()),
		Reason:    reason,
	}, nil
}

// Cross compares the fast/slow relationship on two consecutive bars.
//   - Bull cross: fast goes from <= slow to > slow
//   - Bear cross: fast goes from >= slow to < slow
func Cross(prevFast, prevSlow, fast, slow float64) Direction {
	switch {
	case prevFast <= prevSlow && fast > slow:
		return Buy
	case prevFast >= prevSlow && fast < slow:
		return Sell
	default:
		return None
	}
}
