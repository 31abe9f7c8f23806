package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxloop/broker"
	"github.com/rustyeddy/fxloop/execution"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	c, err := NewClient("test-token", "101-004-1", Options{
		BaseURL:        server.URL,
		RequestsPerSec: 1000,
		Burst:          100,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxElapsed:     time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	u, err := BaseURL("practice", false)
	require.NoError(t, err)
	assert.Equal(t, PracticeURL, u)

	u, err = BaseURL("", false)
	require.NoError(t, err)
	assert.Equal(t, PracticeURL, u)

	_, err = BaseURL("live", false)
	assert.ErrorIs(t, err, ErrLiveNotAllowed)

	u, err = BaseURL("LIVE", true)
	require.NoError(t, err)
	assert.Equal(t, LiveURL, u)

	_, err = BaseURL("paper", false)
	assert.Error(t, err)
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Parallel()

	_, err := NewClient("", "acct", Options{})
	assert.Error(t, err)

	_, err = NewClient("tok", "acct", Options{Env: "live"})
	assert.ErrorIs(t, err, ErrLiveNotAllowed)
}

func TestGetQuote(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/v3/accounts/101-004-1/pricing", r.URL.Path)
		assert.Equal(t, "EUR_USD", r.URL.Query().Get("instruments"))
		w.Write([]byte(`{"prices":[{"instrument":"EUR_USD","time":"2024-01-02T10:04:31.123456789Z",
			"tradeable":true,"bids":[{"price":"1.10495"}],"asks":[{"price":"1.10505"}]}]}`))
	})

	q, err := c.GetQuote(context.Background(), "EUR_USD")
	require.NoError(t, err)
	assert.Equal(t, "EUR_USD", q.Instrument)
	assert.Equal(t, 1.10495, q.Bid)
	assert.Equal(t, 1.10505, q.Ask)
	assert.Equal(t, 2024, q.Time.Year())
}

func TestGetCandles(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/instruments/EUR_USD/candles", r.URL.Path)
		assert.Equal(t, "M", r.URL.Query().Get("price"))
		assert.Equal(t, "M5", r.URL.Query().Get("granularity"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))

		resp := candlesResponse{
			Instrument:  "EUR_USD",
			Granularity: "M5",
			Candles: []apiCandle{
				{Complete: true, Volume: 100, Time: "2024-01-01T10:00:00.000000000Z",
					Mid: &candleData{O: "1.0850", H: "1.0860", L: "1.0840", C: "1.0855"}},
				{Complete: true, Volume: 150, Time: "2024-01-01T10:05:00.000000000Z",
					Mid: &candleData{O: "1.0855", H: "1.0870", L: "1.0850", C: "1.0865"}},
				{Complete: false, Volume: 20, Time: "2024-01-01T10:10:00.000000000Z",
					Mid: &candleData{O: "1.0865", H: "1.0866", L: "1.0861", C: "1.0862"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	candles, err := c.GetCandles(context.Background(), "EUR_USD", "M5", 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, 1.0855, candles[0].Close)
	assert.Equal(t, 150.0, candles[1].Volume)
	assert.True(t, candles[1].Complete)
	assert.False(t, candles[2].Complete)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC), candles[1].Time)
}

func TestGetCandles_BadArgs(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()

	_, err := c.GetCandles(ctx, "", "M5", 10)
	assert.Error(t, err)
	_, err = c.GetCandles(ctx, "EUR_USD", "M5", MaxCandles+1)
	assert.Error(t, err)
	_, err = c.GetCandles(ctx, "EUR_USD", "M7", 10)
	assert.Error(t, err)
}

func TestGetCandles_MalformedPrice(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candles":[{"complete":true,"time":"2024-01-01T10:00:00Z","mid":{"o":"x","h":"1","l":"1","c":"1"}}]}`))
	})
	_, err := c.GetCandles(context.Background(), "EUR_USD", "M5", 1)
	assert.Error(t, err)
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"account":{"id":"101-004-1","currency":"GBP","NAV":"10000.0000","balance":"9990.5","marginUsed":"0","openTradeCount":1}}`))
	})

	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "GBP", acct.Currency)
	assert.Equal(t, 10000.0, acct.NAV)
	assert.Equal(t, 9990.5, acct.Balance)
	assert.Equal(t, 1, acct.OpenTrades)
}

func TestGetJSON_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessage":"Insufficient authorization to perform request."}`))
	})

	_, err := c.GetAccount(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, apiErr.Temporary())
	assert.Contains(t, apiErr.Error(), "Insufficient authorization")
}

func TestGetJSON_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetQuote(context.Background(), "EUR_USD")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Temporary())
}

func TestExchangeRate(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("instruments") {
		case "GBP_USD":
			w.Write([]byte(`{"prices":[{"instrument":"GBP_USD","time":"2024-01-02T10:00:00Z","bids":[{"price":"1.24995"}],"asks":[{"price":"1.25005"}]}]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorMessage":"Invalid value specified for 'instruments'"}`))
		}
	})
	ctx := context.Background()

	rate, err := c.ExchangeRate(ctx, "USD", "GBP")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, rate, 1e-9)

	rate, err = c.ExchangeRate(ctx, "GBP", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, rate, 1e-9)

	rate, err = c.ExchangeRate(ctx, "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	_, err = c.ExchangeRate(ctx, "USD", "SEK")
	assert.Error(t, err)
}

func TestCreateBracketOrder_Filled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/accounts/101-004-1/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body orderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "MARKET", body.Order.Type)
		assert.Equal(t, "FOK", body.Order.TimeInForce)
		assert.Equal(t, "-31250", body.Order.Units)
		assert.Equal(t, "1.10650", body.Order.StopLossOnFill.Price)
		assert.Equal(t, "1.10250", body.Order.TakeProfitOnFill.Price)
		assert.Equal(t, "fx-01HQ", body.Order.ClientExtensions.Tag)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"orderCreateTransaction":{"id":"6368","type":"MARKET_ORDER","units":"-31250","priceBound":"1.1040"},
			"orderFillTransaction":{"id":"6369","type":"ORDER_FILL","price":"1.10497","units":"-31250","tradeOpened":{"tradeID":"6369"}},
			"lastTransactionID":"6371"}`))
	})

	resp, err := c.CreateBracketOrder(context.Background(), broker.BracketOrderRequest{
		Instrument: "EUR_USD",
		Units:      -31250,
		StopLoss:   1.1065,
		TakeProfit: 1.1025,
		Precision:  5,
		ClientTag:  "fx-01HQ",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Create)
	require.NotNil(t, resp.Fill)
	assert.Nil(t, resp.Cancel)
	assert.Equal(t, 1.10497, resp.Fill.Price)
	assert.Equal(t, "6369", resp.Fill.TradeID)
	assert.Equal(t, int64(-31250), resp.Fill.Units)
	assert.Equal(t, 1.1040, resp.Create.Price)
	assert.NotEmpty(t, resp.Raw)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateBracketOrder_Canceled(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"orderCreateTransaction":{"id":"10","type":"MARKET_ORDER","units":"1000"},
			"orderCancelTransaction":{"id":"11","type":"ORDER_CANCEL","reason":"MARKET_HALTED"}}`))
	})

	resp, err := c.CreateBracketOrder(context.Background(), broker.BracketOrderRequest{
		Instrument: "EUR_USD", Units: 1000, StopLoss: 1.1, TakeProfit: 1.2, Precision: 5,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Fill)
	require.NotNil(t, resp.Cancel)
	assert.Equal(t, "MARKET_HALTED", resp.Cancel.Reason)
}

func TestCreateBracketOrder_AcceptedWithBadFields(t *testing.T) {
	t.Parallel()

	req := broker.BracketOrderRequest{Instrument: "EUR_USD", Units: 1000, StopLoss: 1.1, TakeProfit: 1.2, Precision: 5}

	t.Run("unparsable fill price", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{
				"orderCreateTransaction":{"id":"20","type":"MARKET_ORDER","units":"1000"},
				"orderFillTransaction":{"id":"21","type":"ORDER_FILL","price":"abc","units":"1000","tradeOpened":{"tradeID":"21"}}}`))
		})

		resp, err := c.CreateBracketOrder(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, resp.Fill)
		assert.Zero(t, resp.Fill.Price)
		assert.Equal(t, int64(1000), resp.Fill.Units)
		assert.Contains(t, resp.Fill.Reason, `unparsed price "abc"`)

		res := execution.Classify(resp)
		assert.Equal(t, execution.Filled, res.Status)
		assert.Equal(t, "21", res.TradeID)
	})

	t.Run("unparsable create units", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"orderCreateTransaction":{"id":"30","type":"MARKET_ORDER","units":"lots","priceBound":"NaN"}}`))
		})

		resp, err := c.CreateBracketOrder(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, resp.Create)
		assert.Zero(t, resp.Create.Units)
		assert.Zero(t, resp.Create.Price)
		assert.Contains(t, resp.Create.Reason, `unparsed units "lots"`)
		assert.Contains(t, resp.Create.Reason, `unparsed price "NaN"`)
		assert.Equal(t, execution.Pending, execution.Classify(resp).Status)
	})

	t.Run("undecodable body", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`<html>gateway hiccup</html>`))
		})

		resp, err := c.CreateBracketOrder(context.Background(), req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Raw)

		res := execution.Classify(resp)
		assert.Equal(t, execution.Unknown, res.Status)
		assert.Equal(t, "no transaction in response", res.Reason)
	})
}

func TestCreateBracketOrder_NeverRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateBracketOrder(context.Background(), broker.BracketOrderRequest{
		Instrument: "EUR_USD", Units: 1000, StopLoss: 1.1, TakeProfit: 1.2, Precision: 5,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuildOrder_Rejects(t *testing.T) {
	t.Parallel()

	_, err := buildOrder(broker.BracketOrderRequest{Instrument: "EUR_USD", Units: 0, StopLoss: 1, TakeProfit: 2})
	assert.Error(t, err)
	_, err = buildOrder(broker.BracketOrderRequest{Units: 10, StopLoss: 1, TakeProfit: 2})
	assert.Error(t, err)
	_, err = buildOrder(broker.BracketOrderRequest{Instrument: "EUR_USD", Units: 10, StopLoss: 0, TakeProfit: 2})
	assert.Error(t, err)

	o, err := buildOrder(broker.BracketOrderRequest{Instrument: "USD_JPY", Units: 10, StopLoss: 149.9375, TakeProfit: 150.4, Precision: 3})
	require.NoError(t, err)
	assert.Equal(t, "149.938", o.Order.StopLossOnFill.Price)
	assert.Equal(t, "150.400", o.Order.TakeProfitOnFill.Price)
	assert.Nil(t, o.Order.ClientExtensions)
}

func TestOpenTrades(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/accounts/101-004-1/openTrades", r.URL.Path)
		w.Write([]byte(`{"trades":[{"id":"6369","instrument":"EUR_USD","price":"1.10497","currentUnits":"-31250",
			"unrealizedPL":"-3.1250","stopLossOrder":{"price":"1.10650"},"takeProfitOrder":{"price":"1.10250"}}]}`))
	})

	trades, err := c.OpenTrades(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(-31250), trades[0].Units)
	assert.Equal(t, 1.1065, trades[0].StopLoss)
	assert.Equal(t, 1.1025, trades[0].TakeProfit)
	assert.Equal(t, -3.125, trades[0].UnrealizedPL)
}
