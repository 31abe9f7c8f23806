package execution

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxloop/broker"
	"github.com/rustyeddy/fxloop/broker/brokertest"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	create := &broker.Transaction{ID: "100", Type: "MARKET_ORDER", Price: 1.1040, Units: 1000}
	fill := &broker.Transaction{ID: "101", Type: "ORDER_FILL", Price: 1.10502, Units: 1000, TradeID: "101"}
	cancel := &broker.Transaction{ID: "102", Type: "ORDER_CANCEL", Reason: "INSUFFICIENT_LIQUIDITY"}

	tests := []struct {
		name   string
		resp   broker.OrderResponse
		status Status
		price  float64
		reason string
		order  string
	}{
		{"fill", broker.OrderResponse{Create: create, Fill: fill}, Filled, 1.10502, "", "100"},
		{"fill wins over cancel", broker.OrderResponse{Create: create, Fill: fill, Cancel: cancel}, Filled, 1.10502, "", "100"},
		{"cancel", broker.OrderResponse{Create: create, Cancel: cancel}, Canceled, 1.1040, "INSUFFICIENT_LIQUIDITY", "100"},
		{"cancel only", broker.OrderResponse{Cancel: cancel}, Canceled, 0, "INSUFFICIENT_LIQUIDITY", "102"},
		{"create only", broker.OrderResponse{Create: create}, Pending, 1.1040, "", "100"},
		{"empty", broker.OrderResponse{}, Unknown, 0, "no transaction in response", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.resp)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.price, got.Price)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.order, got.OrderID)
		})
	}
}

func TestDispatch_Filled(t *testing.T) {
	t.Parallel()

	b := new(brokertest.MockBroker)
	b.On("CreateBracketOrder", mock.Anything, mock.MatchedBy(func(req broker.BracketOrderRequest) bool {
		return req.Instrument == "EUR_USD" &&
			req.Units == 31250 &&
			req.StopLoss == 1.1030 &&
			req.TakeProfit == 1.1080 &&
			req.Precision == 5 &&
			strings.HasPrefix(req.ClientTag, "fxloop-01HQ")
	})).Return(broker.OrderResponse{
		Create: &broker.Transaction{ID: "7"},
		Fill:   &broker.Transaction{ID: "8", Price: 1.10503, Units: 31250, TradeID: "8"},
	}, nil).Once()

	d := NewDispatcher(b, zerolog.Nop())
	res, err := d.Dispatch(context.Background(), Order{
		CycleID:    "01HQ0000000000000000000000",
		Instrument: "EUR_USD",
		Units:      31250,
		StopLoss:   1.1030,
		TakeProfit: 1.1080,
		Precision:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, Filled, res.Status)
	assert.Equal(t, 1.10503, res.Price)
	assert.Equal(t, "8", res.TradeID)
	assert.Equal(t, "fxloop-01HQ0000000000000000000000", res.ClientTag)
	b.AssertExpectations(t)
}

func TestDispatch_UnknownIsNotAnError(t *testing.T) {
	t.Parallel()

	b := new(brokertest.MockBroker)
	b.On("CreateBracketOrder", mock.Anything, mock.Anything).Return(broker.OrderResponse{}, nil).Once()

	res, err := NewDispatcher(b, zerolog.Nop()).Dispatch(context.Background(), Order{
		Instrument: "EUR_USD", Units: -500, StopLoss: 1.11, TakeProfit: 1.10, Precision: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Status)
	assert.Empty(t, res.ClientTag)
}

func TestDispatch_TransportErrorReturned(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	b := new(brokertest.MockBroker)
	b.On("CreateBracketOrder", mock.Anything, mock.Anything).Return(broker.OrderResponse{}, boom).Once()

	_, err := NewDispatcher(b, zerolog.Nop()).Dispatch(context.Background(), Order{
		Instrument: "EUR_USD", Units: 1000, StopLoss: 1.10, TakeProfit: 1.11, Precision: 5,
	})
	assert.ErrorIs(t, err, boom)
	b.AssertNumberOfCalls(t, "CreateBracketOrder", 1)
}

func TestOrderValidate(t *testing.T) {
	t.Parallel()

	good := Order{Instrument: "EUR_USD", Units: 1000, StopLoss: 1.10, TakeProfit: 1.11}
	assert.NoError(t, good.Validate())

	tests := []struct {
		name string
		mut  func(*Order)
	}{
		{"no instrument", func(o *Order) { o.Instrument = "" }},
		{"zero units", func(o *Order) { o.Units = 0 }},
		{"zero stop", func(o *Order) { o.StopLoss = 0 }},
		{"long bracket inverted", func(o *Order) { o.StopLoss, o.TakeProfit = 1.11, 1.10 }},
		{"short bracket inverted", func(o *Order) { o.Units = -1000 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := good
			tt.mut(&o)
			assert.Error(t, o.Validate())
		})
	}

	b := new(brokertest.MockBroker)
	_, err := NewDispatcher(b, zerolog.Nop()).Dispatch(context.Background(), Order{Instrument: "EUR_USD"})
	assert.Error(t, err)
	b.AssertNotCalled(t, "CreateBracketOrder", mock.Anything, mock.Anything)
}
