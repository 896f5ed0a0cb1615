package rate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Now()

	t.Run("computes inverse once", func(t *testing.T) {
		r, err := New("CNY", "JPY", decimal.RequireFromString("20.5"), now, LiveProvider, WithProvider("frankfurter"))
		require.NoError(t, err)

		product := r.Rate().Mul(r.Inverse())
		assert.True(t, product.Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.New(1, -20)), product.String())
		assert.Equal(t, "frankfurter", r.Provider())
		assert.False(t, r.Degraded())
	})

	t.Run("rejects zero and negative", func(t *testing.T) {
		_, err := New("CNY", "JPY", decimal.Zero, now, LiveProvider)
		assert.ErrorIs(t, err, ErrNonPositiveRate)

		_, err = New("CNY", "JPY", decimal.NewFromInt(-2), now, LiveProvider)
		assert.ErrorIs(t, err, ErrNonPositiveRate)
	})
}

func TestIdentityAndUnsupported(t *testing.T) {
	now := time.Now()

	id := Identity("EUR", now)
	assert.True(t, id.Rate().Equal(decimal.NewFromInt(1)))
	assert.Equal(t, Reference, id.Source())
	assert.Empty(t, id.Note())

	m := Unsupported("CHF", "MXN", now)
	assert.True(t, m.Rate().Equal(decimal.NewFromInt(1)))
	assert.Equal(t, Mock, m.Source())
	assert.Equal(t, NoteUnsupportedPair, m.Note())
	assert.True(t, m.Degraded())
}

func TestMarshalJSON(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := Unsupported("CHF", "MXN", ts)

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "Mock", got["source"])
	assert.Equal(t, "2026-03-01T10:00:00Z", got["timestamp"])
	assert.Equal(t, NoteUnsupportedPair, got["note"])
	assert.Equal(t, "1", got["rate"])
}

func TestSourceText(t *testing.T) {
	for _, s := range []Source{LiveProvider, PivotComposed, Reference, Mock} {
		got, err := ParseSource(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSource("RealAPI")
	assert.Error(t, err)
}

func TestLowest(t *testing.T) {
	assert.Equal(t, PivotComposed, Lowest(LiveProvider, PivotComposed))
	assert.Equal(t, Reference, Lowest(Reference, PivotComposed))
	assert.Equal(t, LiveProvider, Lowest(0, LiveProvider))
	assert.Equal(t, LiveProvider, Lowest(LiveProvider, 0))
}

func TestNewConversion(t *testing.T) {
	r, err := New("CNY", "USD", decimal.RequireFromString("0.138"), time.Now(), Reference)
	require.NoError(t, err)

	c, err := NewConversion(decimal.RequireFromString("10000"), r, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1380", c.Converted.String())
	assert.Equal(t, "CNY", c.From.String())
	assert.Equal(t, "USD", c.To.String())

	c, err = NewConversion(decimal.RequireFromString("33.333"), r, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "4.599954", c.Converted.String())
	assert.Equal(t, "4.6", c.DisplayAmount().String())

	_, err = NewConversion(decimal.NewFromInt(-1), r, time.Now())
	assert.ErrorIs(t, err, ErrNegativeAmount)
}
