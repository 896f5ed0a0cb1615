package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fxresolver/internal/currency"
	"fxresolver/internal/metrics"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
	"fxresolver/internal/reference"
)

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestService(adapters []provider.Adapter, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(adapters, reference.Default(), zap.NewNop().Sugar(), opts...)
}

func TestService_Resolve_Validation(t *testing.T) {
	s := newTestService(nil)

	for _, tc := range []struct{ base, target string }{
		{"XXX", "USD"},
		{"CNY", "XXX"},
		{"usdx", "CNY"},
		{"", "CNY"},
	} {
		_, err := s.Resolve(context.Background(), tc.base, tc.target)
		assert.ErrorIs(t, err, currency.ErrInvalidCode, "%s/%s", tc.base, tc.target)
	}
}

func TestService_Resolve_Identity(t *testing.T) {
	m := &MockAdapter{name: "m"}
	s := newTestService([]provider.Adapter{m})

	for _, code := range []string{"CNY", "USD", "thb"} {
		r, err := s.Resolve(context.Background(), code, code)
		require.NoError(t, err)
		assert.True(t, r.Rate().Equal(rate.Identity(r.Base(), fixedNow).Rate()))
		assert.Equal(t, "1", r.Rate().String())
		assert.Equal(t, rate.Reference, r.Source())
	}
	m.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Resolve_Direct(t *testing.T) {
	m1 := &MockAdapter{name: "primary"}
	m2 := &MockAdapter{name: "secondary"}
	m1.On("Resolve", mock.Anything, currency.Code("CNY"), currency.Code("JPY")).
		Return(provider.Fail(provider.Timeout, "primary", context.DeadlineExceeded))
	live, err := rate.New("CNY", "JPY", decimalOf(t, "20.61"), fixedNow, rate.LiveProvider, rate.WithProvider("secondary"))
	require.NoError(t, err)
	m2.On("Resolve", mock.Anything, currency.Code("CNY"), currency.Code("JPY")).Return(provider.Success(live))

	reg := prometheus.NewRegistry()
	rm := metrics.NewResolverMetrics(reg)
	s := newTestService([]provider.Adapter{m1, m2}, WithMetrics(rm))

	r, err := s.Resolve(context.Background(), "cny", "jpy")
	require.NoError(t, err)
	assert.Equal(t, rate.LiveProvider, r.Source())
	assert.Equal(t, "secondary", r.Provider())
	assert.Equal(t, "20.61", r.Rate().String())
	assert.False(t, r.Degraded())

	assert.Equal(t, 1.0, testutil.ToFloat64(rm.ResolutionsTotal.WithLabelValues("LiveProvider")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rm.AdapterFailuresTotal.WithLabelValues("primary", "Timeout")))
	m1.AssertExpectations(t)
	m2.AssertExpectations(t)
}

func TestService_Resolve_PivotEqualsProduct(t *testing.T) {
	a := newTableAdapter("fx", map[string]string{
		"CNY/USD": "0.138",
		"USD/KRW": "1344.2",
	})
	s := newTestService([]provider.Adapter{a})

	r, err := s.Resolve(context.Background(), "CNY", "KRW")
	require.NoError(t, err)

	leg1 := a.Resolve(context.Background(), "CNY", "USD")
	leg2 := a.Resolve(context.Background(), "USD", "KRW")
	assert.True(t, r.Rate().Equal(leg1.Rate.Rate().Mul(leg2.Rate.Rate())))
	assert.Equal(t, rate.PivotComposed, r.Source())
	assert.True(t, r.Degraded())
}

func TestService_Resolve_PivotSideSkipsComposition(t *testing.T) {
	a := newTableAdapter("fx", map[string]string{})
	s := newTestService([]provider.Adapter{a})

	r, err := s.Resolve(context.Background(), "USD", "KRW")
	require.NoError(t, err)
	assert.Equal(t, rate.Reference, r.Source())
	assert.Equal(t, "1344.2", r.Rate().String())
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestService_Resolve_AllDown(t *testing.T) {
	s := newTestService([]provider.Adapter{downAdapter{"a"}, downAdapter{"b"}})

	t.Run("reference", func(t *testing.T) {
		r, err := s.Resolve(context.Background(), "CNY", "JPY")
		require.NoError(t, err)
		assert.Equal(t, rate.Reference, r.Source())
		assert.Equal(t, "20.5", r.Rate().String())
		assert.Equal(t, "reference:"+reference.DefaultVersion, r.Provider())
		assert.Equal(t, fixedNow, r.Timestamp())
	})

	t.Run("reference inverse", func(t *testing.T) {
		r, err := s.Resolve(context.Background(), "KRW", "EUR")
		require.NoError(t, err)
		assert.Equal(t, rate.Reference, r.Source())
		expected, _ := reference.Default().Lookup("KRW", "EUR")
		assert.True(t, r.Rate().Equal(expected))
	})

	t.Run("mock", func(t *testing.T) {
		r, err := s.Resolve(context.Background(), "CHF", "MXN")
		require.NoError(t, err)
		assert.Equal(t, rate.Mock, r.Source())
		assert.Equal(t, "1", r.Rate().String())
		assert.Equal(t, rate.NoteUnsupportedPair, r.Note())
		assert.True(t, r.Degraded())
	})
}

func TestService_Resolve_NoAdaptersNoTable(t *testing.T) {
	s := NewService(nil, nil, zap.NewNop().Sugar())

	r, err := s.Resolve(context.Background(), "CNY", "JPY")
	require.NoError(t, err)
	assert.Equal(t, rate.Mock, r.Source())
	assert.Equal(t, 0, s.AdapterCount())
	assert.Equal(t, "", s.ReferenceVersion())
}

func TestService_Resolve_SlowAdaptersDegrade(t *testing.T) {
	slow := &blockingAdapter{name: "slow", release: make(chan struct{}), rate: "20.6"}
	defer close(slow.release)
	s := newTestService([]provider.Adapter{slow}, WithRequestTimeout(50*time.Millisecond))

	start := time.Now()
	r, err := s.Resolve(context.Background(), "CNY", "JPY")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, rate.Reference, r.Source())
}

func TestService_Resolve_CallerCancel(t *testing.T) {
	t.Run("before resolution", func(t *testing.T) {
		m := &MockAdapter{name: "m"}
		s := newTestService([]provider.Adapter{m})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r, err := s.Resolve(ctx, "CNY", "USD")
		require.NoError(t, err)
		assert.Equal(t, rate.Reference, r.Source())
		m.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("during resolution", func(t *testing.T) {
		slow := &blockingAdapter{name: "slow", release: make(chan struct{}), rate: "0.14"}
		defer close(slow.release)
		s := newTestService([]provider.Adapter{slow}, WithRequestTimeout(10*time.Second))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		start := time.Now()
		r, err := s.Resolve(ctx, "CNY", "USD")
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
		assert.Equal(t, rate.Reference, r.Source())
	})
}

func TestService_Resolve_CollapsesInflight(t *testing.T) {
	a := &blockingAdapter{name: "fx", release: make(chan struct{}), rate: "20.6"}
	s := newTestService([]provider.Adapter{a})

	const callers = 8
	results := make([]rate.ExchangeRate, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Resolve(context.Background(), "CNY", "JPY")
			assert.NoError(t, err)
			results[i] = r
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(a.release)
	wg.Wait()

	assert.Equal(t, int32(1), a.calls.Load())
	for _, r := range results {
		assert.Equal(t, rate.LiveProvider, r.Source())
		assert.Equal(t, "20.6", r.Rate().String())
	}
}

func TestService_Resolve_RoundTripReference(t *testing.T) {
	s := newTestService(nil)
	tolerance := decimalOf(t, "0.005")
	one := decimalOf(t, "1")

	pairs := [][2]string{{"CNY", "USD"}, {"USD", "JPY"}, {"JPY", "EUR"}, {"EUR", "CNY"}, {"KRW", "USD"}}
	for _, p := range pairs {
		ab, err := s.Resolve(context.Background(), p[0], p[1])
		require.NoError(t, err)
		ba, err := s.Resolve(context.Background(), p[1], p[0])
		require.NoError(t, err)
		product := ab.Rate().Mul(ba.Rate())
		assert.True(t, product.Sub(one).Abs().LessThanOrEqual(tolerance), "%s/%s round trip %s", p[0], p[1], product)
	}
}

func TestService_Resolve_PivotOverReference(t *testing.T) {
	// GBP/KRW has no row in either direction; both legs through USD do.
	expected := decimalOf(t, "1").DivRound(decimalOf(t, "0.797"), rate.InversePrecision).Mul(decimalOf(t, "1344.2"))

	t.Run("no adapters", func(t *testing.T) {
		s := newTestService(nil)

		r, err := s.Resolve(context.Background(), "GBP", "KRW")
		require.NoError(t, err)
		assert.Equal(t, rate.PivotComposed, r.Source())
		assert.True(t, r.Rate().Equal(expected), "got %s", r.Rate())
		assert.Equal(t, "pivot:USD(reference:2026.1,reference:2026.1)", r.Provider())
		assert.Equal(t, rate.NoteReferenceLeg, r.Note())
		assert.Equal(t, fixedNow, r.Timestamp())
	})

	t.Run("adapters down", func(t *testing.T) {
		s := newTestService([]provider.Adapter{downAdapter{"a"}})

		for _, p := range [][2]string{{"GBP", "KRW"}, {"HKD", "SGD"}, {"KRW", "AUD"}} {
			r, err := s.Resolve(context.Background(), p[0], p[1])
			require.NoError(t, err)
			assert.Equal(t, rate.PivotComposed, r.Source(), "%s/%s", p[0], p[1])
		}
	})

	t.Run("direct reference row wins", func(t *testing.T) {
		s := newTestService(nil)

		r, err := s.Resolve(context.Background(), "CNY", "JPY")
		require.NoError(t, err)
		assert.Equal(t, rate.Reference, r.Source())
	})

	t.Run("live leg with reference leg", func(t *testing.T) {
		a := newTableAdapter("fx", map[string]string{"USD/KRW": "1350"})
		s := newTestService([]provider.Adapter{a})

		r, err := s.Resolve(context.Background(), "GBP", "KRW")
		require.NoError(t, err)
		assert.Equal(t, rate.PivotComposed, r.Source())
		assert.Equal(t, "pivot:USD(reference:2026.1,fx)", r.Provider())
		assert.Equal(t, rate.NoteReferenceLeg, r.Note())
	})
}
