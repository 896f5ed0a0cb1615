package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxresolver/internal/currency"
	"fxresolver/internal/provider"
	"fxresolver/internal/rate"
)

func TestPivotResolver_Compose(t *testing.T) {
	t.Run("composes through USD exactly", func(t *testing.T) {
		a := newTableAdapter("fx", map[string]string{
			"CNY/USD": "0.138",
			"USD/KRW": "1344.2",
		})
		older := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		a.at["USD/KRW"] = older

		res := NewPivotResolver(provider.NewChain(a), "").Compose(context.Background(), "CNY", "KRW")

		require.True(t, res.OK(), "%v", res.Err)
		assert.Equal(t, "185.4996", res.Rate.Rate().String())
		assert.Equal(t, rate.PivotComposed, res.Rate.Source())
		assert.Equal(t, older, res.Rate.Timestamp())
		assert.Equal(t, "pivot:USD(fx,fx)", res.Rate.Provider())
	})

	t.Run("missing leg is not found", func(t *testing.T) {
		a := newTableAdapter("fx", map[string]string{"CNY/USD": "0.138"})

		res := NewPivotResolver(provider.NewChain(a), "USD").Compose(context.Background(), "CNY", "THB")

		require.False(t, res.OK())
		assert.Equal(t, provider.RateNotFound, res.Err.Kind)
		assert.Equal(t, "pivot:USD", res.Err.Provider)
	})

	t.Run("no second hop", func(t *testing.T) {
		// CNY/EUR and EUR/THB exist, but only USD is a pivot.
		a := newTableAdapter("fx", map[string]string{
			"CNY/EUR": "0.127",
			"EUR/THB": "38.9",
		})

		res := NewPivotResolver(provider.NewChain(a), "USD").Compose(context.Background(), "CNY", "THB")

		require.False(t, res.OK())
		assert.Equal(t, int32(2), a.calls.Load())
	})

	t.Run("pivot side is a single direct lookup", func(t *testing.T) {
		a := newTableAdapter("fx", map[string]string{"USD/JPY": "148.5"})

		res := NewPivotResolver(provider.NewChain(a), "USD").Compose(context.Background(), "USD", "JPY")

		require.True(t, res.OK())
		assert.Equal(t, rate.LiveProvider, res.Rate.Source())
		assert.Equal(t, int32(1), a.calls.Load())
	})

	t.Run("custom pivot", func(t *testing.T) {
		a := newTableAdapter("fx", map[string]string{
			"CNY/EUR": "0.127",
			"EUR/THB": "38.9",
		})

		p := NewPivotResolver(provider.NewChain(a), "EUR")
		res := p.Compose(context.Background(), "CNY", "THB")

		require.True(t, res.OK())
		assert.Equal(t, "4.9403", res.Rate.Rate().String())
		assert.Equal(t, "EUR", p.Pivot().String())
	})
}

func TestPivotResolver_ComposeLocal(t *testing.T) {
	local := func(base, target currency.Code) (rate.ExchangeRate, bool) {
		rates := map[string]string{"GBP/USD": "1.25", "USD/KRW": "1344.2"}
		v, ok := rates[base.String()+"/"+target.String()]
		if !ok {
			return rate.ExchangeRate{}, false
		}
		r, err := rate.New(base, target, decimal.RequireFromString(v), time.Now(), rate.Reference, rate.WithProvider("ref"))
		return r, err == nil
	}
	p := NewPivotResolver(provider.NewChain(), "USD").WithLocalLegs(local)

	res := p.ComposeLocal("GBP", "KRW")
	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, "1680.25", res.Rate.Rate().String())
	assert.Equal(t, rate.PivotComposed, res.Rate.Source())
	assert.Equal(t, rate.NoteReferenceLeg, res.Rate.Note())

	res = p.ComposeLocal("GBP", "THB")
	require.False(t, res.OK())
	assert.Equal(t, provider.RateNotFound, res.Err.Kind)

	res = p.ComposeLocal("USD", "KRW")
	assert.False(t, res.OK())
}
