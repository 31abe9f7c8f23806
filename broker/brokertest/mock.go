// Package brokertest provides a testify mock of broker.Broker.
package brokertest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rustyeddy/fxloop/broker"
	"github.com/rustyeddy/fxloop/market"
)

// MockBroker is a mock implementation of broker.Broker for testing
type MockBroker struct {
	mock.Mock
}

var _ broker.Broker = (*MockBroker)(nil)

func (m *MockBroker) GetQuote(ctx context.Context, instrument string) (market.Quote, error) {
	args := m.Called(ctx, instrument)
	return args.Get(0).(market.Quote), args.Error(1)
}

func (m *MockBroker) GetCandles(ctx context.Context, instrument, granularity string, count int) ([]market.Candle, error) {
	args := m.Called(ctx, instrument, granularity, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Candle), args.Error(1)
}

func (m *MockBroker) GetAccount(ctx context.Context) (broker.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).(broker.Account), args.Error(1)
}

func (m *MockBroker) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockBroker) CreateBracketOrder(ctx context.Context, req broker.BracketOrderRequest) (broker.OrderResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(broker.OrderResponse), args.Error(1)
}
