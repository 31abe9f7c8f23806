package loop

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/fxloop/strategies"
)

// Reporter is the channel through which every cycle outcome is made
// observable. The loop calls it exactly once per cycle.
type Reporter interface {
	Report(ctx context.Context, o Outcome) error
}

type ReporterFunc func(ctx context.Context, o Outcome) error

func (f ReporterFunc) Report(ctx context.Context, o Outcome) error {
	return f(ctx, o)
}

// MultiReporter fans an outcome out to several reporters. Every reporter
// is called even if an earlier one fails.
type MultiReporter []Reporter

func (m MultiReporter) Report(ctx context.Context, o Outcome) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogReporter writes one structured log line per cycle.
type LogReporter struct {
	Log zerolog.Logger
}

func (r LogReporter) Report(_ context.Context, o Outcome) error {
	ev := r.Log.Info()
	switch {
	case o.Kind == Failed:
		ev = r.Log.Error()
	case o.Err != nil:
		ev = r.Log.Warn()
	}

	ev = ev.
		Str("cycle", o.CycleID).
		Str("instrument", o.Instrument).
		Str("kind", string(o.Kind)).
		Str("reason", o.Reason).
		Dur("took", o.Duration).
		Bool("advanced", o.Advanced)

	if !o.BarTime.IsZero() {
		ev = ev.Time("bar", o.BarTime)
	}
	if o.Quote.Bid > 0 {
		ev = ev.Float64("bid", o.Quote.Bid).Float64("ask", o.Quote.Ask)
	}
	if o.Indicators.Ready() {
		ev = ev.Str("indicators", o.Indicators.String())
	}
	if o.Kind == NoSignal || o.Signal.Direction != strategies.None {
		ev = ev.Str("signal", o.Signal.Direction.String()).Float64("strength", o.Signal.Strength)
	}
	if p := o.Plan; p != nil {
		ev = ev.
			Int64("units", p.Units).
			Float64("entry", p.Entry).
			Float64("sl", p.Stop).
			Float64("tp", p.Target).
			Float64("stop_pips", p.StopPips).
			Float64("risk", p.RiskBudget).
			Str("ccy", o.AccountCurrency)
	}
	if r := o.Order; r != nil && r.Status != "" {
		ev = ev.
			Str("status", string(r.Status)).
			Float64("price", r.Price).
			Str("trade", r.TradeID)
	}
	if o.Err != nil {
		ev = ev.Err(o.Err)
	}
	ev.Msg("cycle")
	return nil
}
