// Package loop runs the guarded decision cycle: one trading decision per
// completed bar at most.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/fxloop/broker"
	"github.com/rustyeddy/fxloop/execution"
	"github.com/rustyeddy/fxloop/guard"
	"github.com/rustyeddy/fxloop/indicators"
	"github.com/rustyeddy/fxloop/market"
	"github.com/rustyeddy/fxloop/pkg/id"
	"github.com/rustyeddy/fxloop/risk"
	"github.com/rustyeddy/fxloop/strategies"
)

type Config struct {
	Instrument   string
	Granularity  string
	CandleCount  int
	PollInterval time.Duration
	Indicators   indicators.Params
	Risk         risk.Params
	DryRun       bool
}

func (c Config) Validate() error {
	if c.Instrument == "" {
		return errors.New("loop: missing instrument")
	}
	if c.Granularity == "" {
		return errors.New("loop: missing granularity")
	}
	if c.CandleCount <= 0 {
		return fmt.Errorf("loop: candle count must be positive, got %d", c.CandleCount)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("loop: poll interval must be positive, got %s", c.PollInterval)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	return nil
}

// Deps are the collaborators of an Engine. Reporter, Logger and Clock are
// optional.
type Deps struct {
	Broker   broker.Broker
	Strategy strategies.Strategy
	Guard    guard.Guard
	Reporter Reporter
	Logger   zerolog.Logger
	Clock    func() time.Time
}

type Engine struct {
	cfg        Config
	meta       market.InstrumentMeta
	broker     broker.Broker
	strategy   strategies.Strategy
	guard      guard.Guard
	dispatcher *execution.Dispatcher
	reporter   Reporter
	now        func() time.Time
	log        zerolog.Logger

	// cycle serialises RunCycle; state is only touched while it is held.
	cycle sync.Mutex
	state CycleState
	phase atomic.Int32
}

func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Broker == nil {
		return nil, errors.New("loop: missing broker")
	}
	if deps.Strategy == nil {
		return nil, errors.New("loop: missing strategy")
	}
	if err := deps.Guard.Validate(); err != nil {
		return nil, fmt.Errorf("loop: guard: %w", err)
	}
	if need := deps.Strategy.Warmup() + 1; cfg.CandleCount < need {
		return nil, fmt.Errorf("loop: candle count %d too small for %s (need %d)", cfg.CandleCount, deps.Strategy.Name(), need)
	}

	meta, err := market.Lookup(cfg.Instrument)
	if err != nil {
		return nil, fmt.Errorf("loop: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		meta:     meta,
		broker:   deps.Broker,
		strategy: deps.Strategy,
		guard:    deps.Guard,
		reporter: deps.Reporter,
		now:      deps.Clock,
		log:      deps.Logger,
	}
	if e.reporter == nil {
		e.reporter = LogReporter{Log: deps.Logger}
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.dispatcher = execution.NewDispatcher(deps.Broker, deps.Logger)
	return e, nil
}

// State reports whether a cycle is in progress.
func (e *Engine) State() Phase {
	return Phase(e.phase.Load())
}

// CycleState returns a copy of the state carried between cycles.
func (e *Engine) CycleState() CycleState {
	e.cycle.Lock()
	defer e.cycle.Unlock()
	return e.state
}

// Run evaluates a cycle immediately and then one per poll interval until
// ctx is done. A slow cycle delays the next tick rather than overlapping it.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().
		Str("instrument", e.cfg.Instrument).
		Str("granularity", e.cfg.Granularity).
		Str("strategy", e.strategy.Name()).
		Dur("poll", e.cfg.PollInterval).
		Bool("dry_run", e.cfg.DryRun).
		Msg("decision loop started")

	t := time.NewTicker(e.cfg.PollInterval)
	defer t.Stop()

	for {
		if ctx.Err() == nil {
			e.RunCycle(ctx)
		}
		select {
		case <-ctx.Done():
			e.log.Info().Msg("decision loop stopped")
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunCycle performs one full decision cycle and reports its outcome
// exactly once. It never returns an error: failures are outcomes.
func (e *Engine) RunCycle(ctx context.Context) Outcome {
	e.cycle.Lock()
	defer e.cycle.Unlock()

	e.phase.Store(int32(Evaluating))
	defer e.phase.Store(int32(Idle))

	start := e.now()
	out := Outcome{
		CycleID:    id.NewAt(start),
		Instrument: e.cfg.Instrument,
		Started:    start,
	}

	e.evaluate(ctx, &out)

	if out.Advanced {
		e.state = e.state.advance(out.BarTime)
	}
	out.Duration = e.now().Sub(start)

	// The outcome of an abandoned cycle is still recorded.
	if err := e.reporter.Report(context.WithoutCancel(ctx), out); err != nil {
		e.log.Error().Err(err).Str("cycle", out.CycleID).Msg("report outcome")
	}
	return out
}

func fail(out *Outcome, reason string, err error) {
	out.Kind = Failed
	out.Reason = reason
	out.Err = err
}

func skip(out *Outcome, v *guard.Violation, class error) {
	out.Kind = Skipped
	out.Reason = v.Code
	if class != nil {
		out.Err = fmt.Errorf("%w: %w", class, v)
	}
	out.Advanced = v.Advances()
}

func (e *Engine) evaluate(ctx context.Context, out *Outcome) {
	quote, err := e.broker.GetQuote(ctx, e.cfg.Instrument)
	if err != nil {
		fail(out, ReasonTransientIO, fmt.Errorf("%w: quote: %w", ErrTransientIO, err))
		return
	}
	out.Quote = quote

	candles, err := e.broker.GetCandles(ctx, e.cfg.Instrument, e.cfg.Granularity, e.cfg.CandleCount)
	if err != nil {
		fail(out, ReasonTransientIO, fmt.Errorf("%w: candles: %w", ErrTransientIO, err))
		return
	}

	if err := quote.Validate(); err != nil {
		fail(out, ReasonMalformedData, fmt.Errorf("%w: %w", ErrMalformedData, err))
		return
	}
	if err := market.ValidateSeries(candles); err != nil {
		fail(out, ReasonMalformedData, fmt.Errorf("%w: %w", ErrMalformedData, err))
		return
	}

	complete := market.CompleteOnly(candles)
	bar, ok := market.Last(complete)
	if !ok {
		v := &guard.Violation{Code: guard.DataInsufficient, Msg: "no complete candle"}
		skip(out, v, ErrDataInsufficient)
		out.Advanced = false
		return
	}
	out.BarTime = bar.Time

	if v := e.guard.CheckNewBar(e.state.LastBarTime, bar.Time); v != nil {
		skip(out, v, nil)
		return
	}
	if v := e.guard.CheckSpread(quote, e.meta.PipSize()); v != nil {
		skip(out, v, ErrMarketUnfavorable)
		return
	}

	out.Indicators = indicators.Compute(complete, e.cfg.Indicators)
	sig, err := e.strategy.Evaluate(complete)
	if err != nil {
		fail(out, ReasonStrategy, fmt.Errorf("strategy %s: %w", e.strategy.Name(), err))
		return
	}
	out.Signal = sig

	if sig.Direction == strategies.None {
		out.Kind = NoSignal
		out.Reason = sig.Reason
		out.Advanced = true
		return
	}

	if v := e.guard.CheckVolatility(out.Indicators.ATR); v != nil {
		skip(out, v, ErrMarketUnfavorable)
		return
	}

	acct, err := e.broker.GetAccount(ctx)
	if err != nil {
		fail(out, ReasonTransientIO, fmt.Errorf("%w: account: %w", ErrTransientIO, err))
		return
	}
	out.AccountCurrency = acct.Currency
	if !market.Finite(acct.NAV) {
		fail(out, ReasonMalformedData, fmt.Errorf("%w: account NAV %v", ErrMalformedData, acct.NAV))
		return
	}

	conv := market.Identity(acct.Currency)
	if e.meta.QuoteCurrency != acct.Currency {
		rate, err := e.broker.ExchangeRate(ctx, e.meta.QuoteCurrency, acct.Currency)
		if err != nil {
			fail(out, ReasonTransientIO, fmt.Errorf("%w: exchange rate: %w", ErrTransientIO, err))
			return
		}
		conv = market.Conversion{From: e.meta.QuoteCurrency, To: acct.Currency, Rate: rate}
	}
	if err := conv.Validate(); err != nil {
		fail(out, ReasonMalformedData, fmt.Errorf("%w: %w", ErrMalformedData, err))
		return
	}
	out.QuoteToAccount = conv.Rate

	plan := risk.NewPlan(
		e.cfg.Risk,
		quote.Mid(),
		out.Indicators.ATR.Unwrap(),
		sig.Direction.Sign(),
		e.meta.PipLocation,
		int32(e.meta.DisplayPrecision),
		risk.Account{Equity: acct.NAV, QuoteToAccount: conv.Rate},
	)
	out.Plan = &plan
	// The bar is consumed from here on, even when the order later fails.
	// Submission is not idempotent: a request that errored may still have
	// opened a position, so the same bar must never be submitted twice.
	out.Advanced = true

	if plan.Units == 0 {
		out.Kind = NoTrade
		out.Reason = guard.RiskInconclusive
		return
	}

	if e.cfg.DryRun {
		out.Kind = DryRun
		out.Reason = sig.Direction.String()
		return
	}

	res, err := e.dispatcher.Dispatch(ctx, execution.Order{
		CycleID:    out.CycleID,
		Instrument: e.cfg.Instrument,
		Units:      plan.Units,
		StopLoss:   plan.Stop,
		TakeProfit: plan.Target,
		Precision:  int32(e.meta.DisplayPrecision),
	})
	out.Order = &res
	if err != nil {
		fail(out, ReasonOrderFailed, fmt.Errorf("%w: order: %w", ErrTransientIO, err))
		return
	}

	out.Kind = Ordered
	out.Reason = string(res.Status)
	if res.Status == execution.Unknown {
		out.Err = fmt.Errorf("%w: %s", ErrAmbiguousOrder, res.Reason)
	}
}
