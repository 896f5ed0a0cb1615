package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

type MockAdapter struct {
	mock.Mock
	name string
}

func newMockAdapter(name string) *MockAdapter {
	return &MockAdapter{name: name}
}

func (m *MockAdapter) Name() string { return m.name }

func (m *MockAdapter) Resolve(ctx context.Context, base, target currency.Code) Result {
	args := m.Called(ctx, base, target)
	return args.Get(0).(Result)
}

func liveRate(name string, base, target currency.Code, r string, ts time.Time) rate.ExchangeRate {
	er, err := rate.New(base, target, decimal.RequireFromString(r), ts, rate.LiveProvider, rate.WithProvider(name))
	if err != nil {
		panic(err)
	}
	return er
}
