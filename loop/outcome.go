package loop

import (
	"errors"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rustyeddy/fxloop/execution"
	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/market"
	"github.com/rustyeddy/fxloop/risk"
	"github.com/rustyeddy/fxloop/strategies"
)

var (
	// ErrDataInsufficient: no complete bar to evaluate yet.
	ErrDataInsufficient = errors.New("data insufficient")
	// ErrMarketUnfavorable: spread or volatility veto.
	ErrMarketUnfavorable = errors.New("market unfavorable")
	// ErrTransientIO: a broker call failed; the bar is retried next tick.
	ErrTransientIO = errors.New("transient io failure")
	// ErrAmbiguousOrder: the order was accepted but the response could not
	// be classified.
	ErrAmbiguousOrder = errors.New("ambiguous order response")
	// ErrMalformedData: the broker returned prices that fail validation.
	ErrMalformedData = errors.New("malformed market data")
)

type Kind string

const (
	Skipped  Kind = "SKIPPED"
	NoSignal Kind = "NO_SIGNAL"
	NoTrade  Kind = "NO_TRADE"
	DryRun   Kind = "DRY_RUN"
	Ordered  Kind = "ORDERED"
	Failed   Kind = "FAILED"
)

// Failure reasons.
const (
	ReasonTransientIO   = "TRANSIENT_IO"
	ReasonMalformedData = "MALFORMED_DATA"
	ReasonStrategy      = "STRATEGY_ERROR"
	ReasonOrderFailed   = "ORDER_FAILED"
)

// Outcome is the single observable result of one decision cycle.
type Outcome struct {
	CycleID    string
	Instrument string
	Started    time.Time
	Duration   time.Duration

	Kind   Kind
	Reason string
	Err    error

	// BarTime is the open time of the latest complete bar, zero when the
	// cycle never got that far.
	BarTime    time.Time
	Quote      market.Quote
	Indicators indicators.Snapshot
	Signal     strategies.Signal

	AccountCurrency string
	QuoteToAccount  float64
	Plan            *risk.Plan
	Order           *execution.Result

	// Advanced reports whether the cycle moved CycleState to BarTime.
	Advanced bool
}

func (o Outcome) Units() int64 {
	if o.Plan == nil {
		return 0
	}
	return o.Plan.Units
}

// CycleState is the only state carried from one cycle to the next.
type CycleState struct {
	LastBarTime optional.Option[time.Time]
}

// advance moves the marker forward, never back.
func (s CycleState) advance(bar time.Time) CycleState {
	if s.LastBarTime.IsSome() && !bar.After(s.LastBarTime.Unwrap()) {
		return s
	}
	return CycleState{LastBarTime: optional.Some(bar)}
}

// Phase is the loop's coarse state.
type Phase int32

const (
	Idle Phase = iota
	Evaluating
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Evaluating:
		return "EVALUATING"
	default:
		return "UNKNOWN"
	}
}
