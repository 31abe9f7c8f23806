// Package guard holds the pre-trade filters that can veto a decision
// cycle before an order is sent.
package guard

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/fxloop/market"
)

const (
	DuplicateBar     = "DUPLICATE_BAR"
	SpreadTooWide    = "SPREAD_TOO_WIDE"
	VolatilityTooLow = "VOLATILITY_TOO_LOW"
	DataInsufficient = "DATA_INSUFFICIENT"
	RiskInconclusive = "RISK_INCONCLUSIVE"
)

type Violation struct {
	Code string
	Msg  string
}

func (v *Violation) Error() string {
	return v.Code + ": " + v.Msg
}

// Advances reports whether a veto still consumes the bar. Only the
// duplicate-bar filter leaves the processed-bar marker where it was.
func (v *Violation) Advances() bool {
	return v.Code != DuplicateBar
}

type Guard struct {
	MaxSpreadPips float64 `json:"max_spread_pips" yaml:"max_spread_pips"`
	MinATR        float64 `json:"min_atr" yaml:"min_atr"`
}

func (g Guard) Validate() error {
	if g.MaxSpreadPips <= 0 {
		return fmt.Errorf("max spread must be positive, got %v pips", g.MaxSpreadPips)
	}
	if g.MinATR < 0 {
		return fmt.Errorf("min atr must not be negative, got %v", g.MinATR)
	}
	return nil
}

// CheckNewBar vetoes a bar that is not strictly after the last one the
// loop acted on.
func (g Guard) CheckNewBar(last optional.Option[time.Time], bar time.Time) *Violation {
	if last.IsNone() {
		return nil
	}
	if !bar.After(last.Unwrap()) {
		return &Violation{
			Code: DuplicateBar,
			Msg: fmt.Sprintf("no new closed candle: latest %s, last processed %s",
				bar.UTC().Format(time.RFC3339), last.Unwrap().UTC().Format(time.RFC3339)),
		}
	}
	return nil
}

// CheckSpread vetoes when the quoted spread is wider than MaxSpreadPips.
// A spread equal to the max passes.
func (g Guard) CheckSpread(q market.Quote, pip float64) *Violation {
	pips := q.SpreadPips(pip)
	if pips > g.MaxSpreadPips {
		return &Violation{
			Code: SpreadTooWide,
			Msg:  fmt.Sprintf("spread %.1f pips exceeds max %.1f", pips, g.MaxSpreadPips),
		}
	}
	return nil
}

// CheckVolatility vetoes when ATR is undefined or below MinATR.
func (g Guard) CheckVolatility(atr optional.Option[float64]) *Violation {
	if atr.IsNone() {
		return &Violation{Code: VolatilityTooLow, Msg: "atr undefined"}
	}
	if v := atr.Unwrap(); v < g.MinATR {
		return &Violation{
			Code: VolatilityTooLow,
			Msg:  fmt.Sprintf("atr %.5f below min %.5f", v, g.MinATR),
		}
	}
	return nil
}
