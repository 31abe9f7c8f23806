// Package indicators provides the price-series indicators the decision
// loop trades on. Every function is pure: the same candles always give
// the same values.
package indicators

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/fxloop/market"
)

type Params struct {
	FastPeriod int `json:"fast_period" yaml:"fast_period"`
	SlowPeriod int `json:"slow_period" yaml:"slow_period"`
	ATRPeriod  int `json:"atr_period" yaml:"atr_period"`
}

func (p Params) Validate() error {
	if p.FastPeriod <= 0 {
		return fmt.Errorf("fast period must be positive, got %d", p.FastPeriod)
	}
	if p.SlowPeriod <= 0 {
		return fmt.Errorf("slow period must be positive, got %d", p.SlowPeriod)
	}
	if p.FastPeriod >= p.SlowPeriod {
		return fmt.Errorf("fast period %d must be shorter than slow period %d", p.FastPeriod, p.SlowPeriod)
	}
	if p.ATRPeriod <= 0 {
		return fmt.Errorf("atr period must be positive, got %d", p.ATRPeriod)
	}
	return nil
}

// Warmup is the number of complete candles after which every value of a
// Snapshot is defined.
func (p Params) Warmup() int {
	return max(p.SlowPeriod, p.FastPeriod, p.ATRPeriod+1)
}

// Snapshot holds the indicator values at the latest bar of a series.
// Values stay None until the series is long enough for them.
type Snapshot struct {
	Fast optional.Option[float64]
	Slow optional.Option[float64]
	ATR  optional.Option[float64]
}

// Compute evaluates all indicators at the last candle. Callers pass
// complete candles only.
func Compute(candles []market.Candle, p Params) Snapshot {
	return Snapshot{
		Fast: SMALast(candles, p.FastPeriod),
		Slow: SMALast(candles, p.SlowPeriod),
		ATR:  ATR(candles, p.ATRPeriod),
	}
}

// Ready reports whether the moving averages are both defined.
func (s Snapshot) Ready() bool {
	return s.Fast.IsSome() && s.Slow.IsSome()
}

func (s Snapshot) String() string {
	return fmt.Sprintf("fast=%s slow=%s atr=%s", fmtOpt(s.Fast), fmtOpt(s.Slow), fmtOpt(s.ATR))
}

func fmtOpt(v optional.Option[float64]) string {
	if v.IsNone() {
		return "n/a"
	}
	return fmt.Sprintf("%.5f", v.Unwrap())
}
