package guard

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxloop/market"
)

func TestCheckNewBar(t *testing.T) {
	t.Parallel()

	g := Guard{MaxSpreadPips: 2, MinATR: 0.0001}
	bar := time.Date(2024, 1, 2, 10, 5, 0, 0, time.UTC)

	assert.Nil(t, g.CheckNewBar(optional.None[time.Time](), bar))
	assert.Nil(t, g.CheckNewBar(optional.Some(bar.Add(-5*time.Minute)), bar))

	v := g.CheckNewBar(optional.Some(bar), bar)
	require.NotNil(t, v)
	assert.Equal(t, DuplicateBar, v.Code)
	assert.False(t, v.Advances())

	v = g.CheckNewBar(optional.Some(bar.Add(time.Minute)), bar)
	require.NotNil(t, v)
	assert.Equal(t, DuplicateBar, v.Code)
}

func TestCheckSpread(t *testing.T) {
	t.Parallel()

	g := Guard{MaxSpreadPips: 2.0}

	wide := market.Quote{Instrument: "EUR_USD", Bid: 1.10000, Ask: 1.10030}
	v := g.CheckSpread(wide, 0.0001)
	require.NotNil(t, v)
	assert.Equal(t, SpreadTooWide, v.Code)
	assert.True(t, v.Advances())
	assert.Contains(t, v.Error(), "spread 3.0 pips exceeds max 2.0")

	tight := market.Quote{Instrument: "EUR_USD", Bid: 1.10000, Ask: 1.10010}
	assert.Nil(t, g.CheckSpread(tight, 0.0001))

	jpy := market.Quote{Instrument: "USD_JPY", Bid: 150.000, Ask: 150.015}
	assert.Nil(t, g.CheckSpread(jpy, 0.01))

	atMax := market.Quote{Instrument: "EUR_USD", Bid: 1.10004, Ask: 1.10024}
	assert.Nil(t, g.CheckSpread(atMax, 0.0001))

	bad := market.Quote{Instrument: "EUR_USD", Bid: math.NaN(), Ask: 1.10024}
	require.NotNil(t, g.CheckSpread(bad, 0.0001))
}

func TestCheckSpreadExactlyAtMax(t *testing.T) {
	t.Parallel()

	g := Guard{MaxSpreadPips: 2.0}
	for i := 0; i < 1000; i++ {
		q := market.Quote{
			Instrument: "EUR_USD",
			Bid:        float64(110000+i) / 1e5,
			Ask:        float64(110020+i) / 1e5,
		}
		if v := g.CheckSpread(q, 0.0001); v != nil {
			t.Fatalf("bid %.5f ask %.5f: %v", q.Bid, q.Ask, v)
		}
	}

	jpy := Guard{MaxSpreadPips: 1.5}
	for i := 0; i < 1000; i++ {
		q := market.Quote{
			Instrument: "USD_JPY",
			Bid:        float64(150000+i) / 1e3,
			Ask:        float64(150015+i) / 1e3,
		}
		if v := jpy.CheckSpread(q, 0.01); v != nil {
			t.Fatalf("bid %.3f ask %.3f: %v", q.Bid, q.Ask, v)
		}
	}
}

func TestCheckVolatility(t *testing.T) {
	t.Parallel()

	g := Guard{MaxSpreadPips: 2, MinATR: 0.0002}

	assert.Nil(t, g.CheckVolatility(optional.Some(0.0005)))
	assert.Nil(t, g.CheckVolatility(optional.Some(0.0002)))

	v := g.CheckVolatility(optional.Some(0.0001))
	require.NotNil(t, v)
	assert.Equal(t, VolatilityTooLow, v.Code)
	assert.True(t, v.Advances())

	v = g.CheckVolatility(optional.None[float64]())
	require.NotNil(t, v)
	assert.Equal(t, VolatilityTooLow, v.Code)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Guard{MaxSpreadPips: 2, MinATR: 0}.Validate())
	assert.Error(t, Guard{MaxSpreadPips: 0}.Validate())
	assert.Error(t, Guard{MaxSpreadPips: 2, MinATR: -1}.Validate())
}
