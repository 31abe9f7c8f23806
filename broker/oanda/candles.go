package oanda

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/fxloop/market"
)

// Granularity represents the time frame for candles
type Granularity string

const (
	S5  Granularity = "S5"
	M1  Granularity = "M1"
	M5  Granularity = "M5"
	M15 Granularity = "M15"
	M30 Granularity = "M30"
	H1  Granularity = "H1"
	H4  Granularity = "H4"
	D   Granularity = "D"
)

var granularities = map[Granularity]time.Duration{
	S5:  5 * time.Second,
	M1:  time.Minute,
	M5:  5 * time.Minute,
	M15: 15 * time.Minute,
	M30: 30 * time.Minute,
	H1:  time.Hour,
	H4:  4 * time.Hour,
	D:   24 * time.Hour,
}

// Duration is the bar length of a granularity.
func (g Granularity) Duration() (time.Duration, error) {
	d, ok := granularities[g]
	if !ok {
		return 0, fmt.Errorf("unsupported granularity %q", g)
	}
	return d, nil
}

// MaxCandles is the largest count the candles endpoint accepts.
const MaxCandles = 5000

type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool        `json:"complete"`
	Volume   int         `json:"volume"`
	Time     string      `json:"time"`
	Mid      *candleData `json:"mid,omitempty"`
}

type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// GetCandles fetches the most recent count mid-price candles. The still
// forming candle is returned with Complete set to false.
func (c *Client) GetCandles(ctx context.Context, instrument, granularity string, count int) ([]market.Candle, error) {
	if instrument == "" {
		return nil, fmt.Errorf("instrument is required")
	}
	if count <= 0 || count > MaxCandles {
		return nil, fmt.Errorf("count must be in [1, %d], got %d", MaxCandles, count)
	}
	if _, err := Granularity(granularity).Duration(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("price", "M")
	q.Set("granularity", granularity)
	q.Set("count", strconv.Itoa(count))

	var resp candlesResponse
	path := "/v3/instruments/" + url.PathEscape(instrument) + "/candles"
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return nil, fmt.Errorf("candles %s: %w", instrument, err)
	}

	candles := make([]market.Candle, 0, len(resp.Candles))
	for _, ac := range resp.Candles {
		cd, err := ac.candle()
		if err != nil {
			return nil, fmt.Errorf("candles %s: %w", instrument, err)
		}
		candles = append(candles, cd)
	}
	return candles, nil
}

func (ac apiCandle) candle() (market.Candle, error) {
	if ac.Mid == nil {
		return market.Candle{}, fmt.Errorf("candle %s: missing mid prices", ac.Time)
	}
	t, err := time.Parse(time.RFC3339Nano, ac.Time)
	if err != nil {
		return market.Candle{}, fmt.Errorf("parse time %s: %w", ac.Time, err)
	}

	var ohlc [4]float64
	for i, s := range []string{ac.Mid.O, ac.Mid.H, ac.Mid.L, ac.Mid.C} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("candle %s: parse price %q: %w", ac.Time, s, err)
		}
		ohlc[i] = v
	}

	return market.Candle{
		Time:     t,
		Open:     ohlc[0],
		High:     ohlc[1],
		Low:      ohlc[2],
		Close:    ohlc[3],
		Volume:   float64(ac.Volume),
		Complete: ac.Complete,
	}, nil
}
