package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, RR(1.1000, 1.0990, 1.1020), 1e-9)
	assert.InDelta(t, 2.0, RR(1.1000, 1.1010, 1.0980), 1e-9)
	assert.Equal(t, 0.0, RR(1.1, 1.1, 1.2))
}

func TestStopPips(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 20.0, StopPips(1.1050, 1.1030, -4), 1e-9)
	assert.InDelta(t, 50.0, StopPips(150.00, 149.50, -2), 1e-9)
}

func TestNewPlan(t *testing.T) {
	t.Parallel()

	p := Params{StopATRMultiple: 1.5, TargetATRMultiple: 2.5, RiskFraction: 0.005, MinUnits: 100}
	plan := NewPlan(p, 1.1050, 0.0010, 1, -4, 5, Account{Equity: 10000, QuoteToAccount: 0.8})

	assert.Equal(t, 1.1035, plan.Stop)
	assert.Equal(t, 1.1075, plan.Target)
	assert.InDelta(t, 15.0, plan.StopPips, 1e-9)
	assert.InDelta(t, 2.5/1.5, plan.RR, 1e-9)
	// 50 GBP / (0.0015 * 0.8) = 41666.67
	assert.Equal(t, int64(41666), plan.Units)

	short := NewPlan(p, 1.1050, 0.0010, -1, -4, 5, Account{Equity: 10000, QuoteToAccount: 0.8})
	assert.Equal(t, 1.1065, short.Stop)
	assert.Equal(t, 1.1025, short.Target)
	assert.Equal(t, int64(-41666), short.Units)
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	good := Params{StopATRMultiple: 1.5, TargetATRMultiple: 2.5, RiskFraction: 0.005, MinUnits: 100}
	assert.NoError(t, good.Validate())

	tests := []struct {
		name string
		mut  func(*Params)
	}{
		{"zero stop multiple", func(p *Params) { p.StopATRMultiple = 0 }},
		{"negative target multiple", func(p *Params) { p.TargetATRMultiple = -1 }},
		{"zero risk", func(p *Params) { p.RiskFraction = 0 }},
		{"risk above one", func(p *Params) { p.RiskFraction = 1.5 }},
		{"negative min units", func(p *Params) { p.MinUnits = -1 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := good
			tt.mut(&p)
			assert.Error(t, p.Validate())
		})
	}
}
