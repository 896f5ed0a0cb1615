package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"fxresolver/internal/currency"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
)

type MockAdapter struct {
	mock.Mock
	name string
}

func (m *MockAdapter) Name() string { return m.name }

func (m *MockAdapter) Resolve(ctx context.Context, base, target currency.Code) provider.Result {
	args := m.Called(ctx, base, target)
	return args.Get(0).(provider.Result)
}

// tableAdapter answers from a fixed map and counts calls.
type tableAdapter struct {
	name  string
	rates map[string]string
	at    map[string]time.Time
	calls atomic.Int32
}

func newTableAdapter(name string, rates map[string]string) *tableAdapter {
	return &tableAdapter{name: name, rates: rates, at: map[string]time.Time{}}
}

func (a *tableAdapter) Name() string { return a.name }

func (a *tableAdapter) Resolve(_ context.Context, base, target currency.Code) provider.Result {
	a.calls.Add(1)
	key := base.String() + "/" + target.String()
	s, ok := a.rates[key]
	if !ok {
		return provider.Fail(provider.RateNotFound, a.name, errors.New("no rate for "+key))
	}
	ts, ok := a.at[key]
	if !ok {
		ts = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	}
	r, err := rate.New(base, target, decimal.RequireFromString(s), ts, rate.LiveProvider, rate.WithProvider(a.name))
	if err != nil {
		return provider.Fail(provider.InvalidResponse, a.name, err)
	}
	return provider.Success(r)
}

// blockingAdapter waits for release or ctx, whichever comes first.
type blockingAdapter struct {
	name    string
	release chan struct{}
	rate    string
	calls   atomic.Int32
}

func (a *blockingAdapter) Name() string { return a.name }

func (a *blockingAdapter) Resolve(ctx context.Context, base, target currency.Code) provider.Result {
	a.calls.Add(1)
	select {
	case <-a.release:
	case <-ctx.Done():
		return provider.Fail(provider.Timeout, a.name, ctx.Err())
	}
	r, err := rate.New(base, target, decimal.RequireFromString(a.rate), time.Now(), rate.LiveProvider, rate.WithProvider(a.name))
	if err != nil {
		return provider.Fail(provider.InvalidResponse, a.name, err)
	}
	return provider.Success(r)
}

// downAdapter always reports the upstream as unreachable.
type downAdapter struct{ name string }

func (a downAdapter) Name() string { return a.name }

func (a downAdapter) Resolve(context.Context, currency.Code, currency.Code) provider.Result {
	return provider.Fail(provider.Unreachable, a.name, errors.New("connection refused"))
}

func decimalOf(t interface{ Helper() }, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}
