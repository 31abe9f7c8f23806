package risk

import (
	"fmt"
	"math"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RR is the reward to risk ratio of a bracket.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// StopPips is the stop distance expressed in pips.
func StopPips(entry, stop float64, pipLocation int) float64 {
	return abs(entry-stop) / pipSize(pipLocation)
}

type Params struct {
	StopATRMultiple   float64 `json:"stop_atr_multiple" yaml:"stop_atr_multiple"`
	TargetATRMultiple float64 `json:"target_atr_multiple" yaml:"target_atr_multiple"`
	RiskFraction      float64 `json:"risk_fraction" yaml:"risk_fraction"`
	MinUnits          int64   `json:"min_units" yaml:"min_units"`
}

func (p Params) Validate() error {
	if p.StopATRMultiple <= 0 {
		return fmt.Errorf("stop atr multiple must be positive, got %v", p.StopATRMultiple)
	}
	if p.TargetATRMultiple <= 0 {
		return fmt.Errorf("target atr multiple must be positive, got %v", p.TargetATRMultiple)
	}
	if p.RiskFraction <= 0 || p.RiskFraction > 1 {
		return fmt.Errorf("risk fraction must be in (0, 1], got %v", p.RiskFraction)
	}
	if p.MinUnits < 0 {
		return fmt.Errorf("min units must not be negative, got %d", p.MinUnits)
	}
	return nil
}

// Plan is a fully sized bracket order proposal.
type Plan struct {
	Entry    float64
	Stop     float64
	Target   float64
	ATR      float64
	StopPips float64
	RR       float64
	Result
}

// Account is what sizing needs to know about the account.
type Account struct {
	Equity         float64
	QuoteToAccount float64
}

// NewPlan places the bracket around entry and sizes the position.
func NewPlan(p Params, entry, atr float64, dir int, pipLocation int, precision int32, acct Account) Plan {
	stop, target := Bracket(entry, atr, dir, p.StopATRMultiple, p.TargetATRMultiple, precision)

	res := Size(Inputs{
		Equity:         acct.Equity,
		RiskFraction:   p.RiskFraction,
		EntryPrice:     entry,
		StopPrice:      stop,
		QuoteToAccount: acct.QuoteToAccount,
		MinUnits:       p.MinUnits,
		Direction:      dir,
	})

	return Plan{
		Entry:    entry,
		Stop:     stop,
		Target:   target,
		ATR:      atr,
		StopPips: math.Round(StopPips(entry, stop, pipLocation)*10) / 10,
		RR:       RR(entry, stop, target),
		Result:   res,
	}
}
