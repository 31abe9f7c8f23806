package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/market"
)

type Direction int

const (
	None Direction = iota
	Buy
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Sign is +1 for Buy, -1 for Sell and 0 otherwise.
func (d Direction) Sign() int {
	switch d {
	case Buy:
		return 1
	case Sell:
		return -1
	default:
		return 0
	}
}

// Signal is what a strategy concludes from one evaluation.
type Signal struct {
	Direction Direction
	Strength  float64
	Reason    string
}

// InsufficientHistory is the Reason a strategy gives when the series is
// shorter than its Warmup.
const InsufficientHistory = "insufficient history"

func NoSignal(reason string) Signal {
	return Signal{Direction: None, Reason: reason}
}

// Strategy turns a series of complete candles into a Signal. It is chosen
// once at startup; the decision loop never cares which one is active.
type Strategy interface {
	Name() string

	// Warmup is the number of complete candles needed before Evaluate can
	// return anything but None.
	Warmup() int

	// Evaluate looks at the latest candle of the series. Short history is
	// a None signal, not an error.
	Evaluate(candles []market.Candle) (Signal, error)
}

type Config struct {
	Name      string
	Params    indicators.Params
	Threshold float64
}

// ByName builds the strategy named in cfg. predictor is only used by the
// predictive strategy and may be nil otherwise.
func ByName(cfg Config, predictor Predictor) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "ma-cross", "macross", "crossover":
		if err := cfg.Params.Validate(); err != nil {
			return nil, fmt.Errorf("ma-cross: %w", err)
		}
		return NewMACross(cfg.Params), nil

	case "predictive", "model", "ai":
		if predictor == nil {
			return nil, fmt.Errorf("predictive: no model configured")
		}
		return NewPredictive(cfg.Params, predictor, cfg.Threshold)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: ma-cross, predictive)", cfg.Name)
	}
}
