package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/market"
)

// Predictor scores a feature vector with the probability that price moves
// up next. Implementations live in the model package.
type Predictor interface {
	Predict(features []float32) (float64, error)
}

// FeatureNames is the order of the vector handed to the Predictor. It
// must match the column order the model was trained with.
var FeatureNames = []string{"ret_1", "ret_3", "ema_fast", "ema_slow", "atr"}

// Predictive trades on a model's directional edge. The edge is 2p-1 for
// an up-probability p: BUY above +threshold, SELL below -threshold.
type Predictive struct {
	params    indicators.Params
	model     Predictor
	threshold float64
}

func NewPredictive(p indicators.Params, model Predictor, threshold float64) (*Predictive, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("predictive: %w", err)
	}
	if threshold < 0 || threshold >= 1 {
		return nil, fmt.Errorf("predictive: threshold must be in [0, 1), got %v", threshold)
	}
	return &Predictive{params: p, model: model, threshold: threshold}, nil
}

func (s *Predictive) Name() string {
	return fmt.Sprintf("predictive(%.2f)", s.threshold)
}

func (s *Predictive) Warmup() int {
	return max(s.params.SlowPeriod, s.params.ATRPeriod+1, 4)
}

// Features builds the model input from the latest candles. ok is false
// when the series is too short.
func (s *Predictive) Features(candles []market.Candle) (features []float32, ok bool) {
	n := len(candles)
	if n < s.Warmup() {
		return nil, false
	}

	emaFast, err := indicators.EMA(candles, s.params.FastPeriod)
	if err != nil {
		return nil, false
	}
	emaSlow, err := indicators.EMA(candles, s.params.SlowPeriod)
	if err != nil {
		return nil, false
	}
	atr := indicators.ATR(candles, s.params.ATRPeriod)
	if atr.IsNone() {
		return nil, false
	}

	last := candles[n-1].Close
	ret1 := last/candles[n-2].Close - 1
	ret3 := last/candles[n-4].Close - 1

	return []float32{
		float32(ret1),
		float32(ret3),
		float32(emaFast),
		float32(emaSlow),
		float32(atr.Unwrap()),
	}, true
}

func (s *Predictive) Evaluate(candles []market.Candle) (Signal, error) {
	features, ok := s.Features(candles)
	if !ok {
		return NoSignal(InsufficientHistory), nil
	}

	p, err := s.model.Predict(features)
	if err != nil {
		return Signal{}, fmt.Errorf("predictive: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Signal{}, fmt.Errorf("predictive: model returned probability %v outside [0, 1]", p)
	}

	edge := 2*p - 1
	switch {
	case edge > s.threshold:
		return Signal{Direction: Buy, Strength: edge, Reason: fmt.Sprintf("p_up=%.3f", p)}, nil
	case edge < -s.threshold:
		return Signal{Direction: Sell, Strength: -edge, Reason: fmt.Sprintf("p_up=%.3f", p)}, nil
	default:
		return NoSignal(fmt.Sprintf("edge %.3f within threshold", edge)), nil
	}
}
