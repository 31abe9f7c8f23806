package journal

import (
	"context"
	"errors"

	"github.com/rustyeddy/fxloop/loop"
)

// Reporter records every cycle outcome in a Journal.
type Reporter struct {
	J Journal
}

var _ loop.Reporter = Reporter{}

func (r Reporter) Report(_ context.Context, o loop.Outcome) error {
	rec, ord := FromOutcome(o)
	err := r.J.RecordCycle(rec)
	if ord.IsSome() {
		err = errors.Join(err, r.J.RecordOrder(ord.Unwrap()))
	}
	return err
}
