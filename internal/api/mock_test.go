package api

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fxresolver/internal/advisory"
	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
	"fxresolver/internal/service"
)

// mockResolver implements RateResolver for testing.
type mockResolver struct {
	resolveFunc func(ctx context.Context, base, target string) (rate.ExchangeRate, error)
}

func (m *mockResolver) Resolve(ctx context.Context, base, target string) (rate.ExchangeRate, error) {
	return m.resolveFunc(ctx, base, target)
}

// mockAdvisor implements Advisor for testing.
type mockAdvisor struct {
	convertFunc      func(ctx context.Context, amount decimal.Decimal, base, target string) (rate.Conversion, error)
	convertBatchFunc func(ctx context.Context, amount decimal.Decimal, base string, targets []string) (advisory.Ranking, error)
	historyFunc      func(ctx context.Context, base, target string, start, end time.Time) (advisory.Series, error)
}

func (m *mockAdvisor) Convert(ctx context.Context, amount decimal.Decimal, base, target string) (rate.Conversion, error) {
	return m.convertFunc(ctx, amount, base, target)
}

func (m *mockAdvisor) ConvertBatch(ctx context.Context, amount decimal.Decimal, base string, targets []string) (advisory.Ranking, error) {
	return m.convertBatchFunc(ctx, amount, base, targets)
}

func (m *mockAdvisor) HistoricalSeries(ctx context.Context, base, target string, start, end time.Time) (advisory.Series, error) {
	return m.historyFunc(ctx, base, target, start, end)
}

func (m *mockAdvisor) Currencies() []currency.Info {
	return currency.List()
}

// mockRefreshService implements service.RefreshServiceInterface for testing.
type mockRefreshService struct {
	requestRefreshFunc func(ctx context.Context, pair string) (string, string, error)
	getRefreshFunc     func(ctx context.Context, refreshID string) (*service.RefreshResult, error)
}

func (m *mockRefreshService) RequestRefresh(ctx context.Context, pair string) (string, string, error) {
	return m.requestRefreshFunc(ctx, pair)
}

func (m *mockRefreshService) GetRefresh(ctx context.Context, refreshID string) (*service.RefreshResult, error) {
	return m.getRefreshFunc(ctx, refreshID)
}

func (m *mockRefreshService) ProcessRefresh(_ context.Context, _, _, _ string) error {
	return nil // Not used in handler tests
}
