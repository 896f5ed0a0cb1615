//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
	"fxresolver/internal/testkit"
)

// resetTestData truncates the service tables and flushes Redis.
func resetTestData(t *testing.T) {
	t.Helper()
	testkit.Global().Reset(t, "rate_snapshots", "refresh_requests")
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func mustRate(t *testing.T, base, target, r string, ts time.Time, src rate.Source) rate.ExchangeRate {
	t.Helper()
	er, err := rate.New(currency.Code(base), currency.Code(target), decimal.RequireFromString(r), ts, src, rate.WithProvider("fake"))
	if err != nil {
		t.Fatalf("rate.New: %v", err)
	}
	return er
}

// fakeAdapter answers from a fixed table of "BASE/TARGET" rates.
type fakeAdapter struct {
	rates map[string]string
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Resolve(_ context.Context, base, target currency.Code) provider.Result {
	raw, ok := f.rates[base.String()+"/"+target.String()]
	if !ok {
		return provider.Fail(provider.RateNotFound, f.Name(), nil)
	}
	r, err := rate.New(base, target, decimal.RequireFromString(raw), time.Now(), rate.LiveProvider, rate.WithProvider(f.Name()))
	if err != nil {
		return provider.Fail(provider.InvalidResponse, f.Name(), err)
	}
	return provider.Success(r)
}

var _ provider.Adapter = (*fakeAdapter)(nil)
