package advisory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

type MockHistory struct {
	mock.Mock
	name string
}

func (m *MockHistory) Name() string { return m.name }

func (m *MockHistory) History(ctx context.Context, base, target currency.Code, start, end time.Time) ([]rate.Point, error) {
	args := m.Called(ctx, base, target, start, end)
	points, _ := args.Get(0).([]rate.Point)
	return points, args.Error(1)
}

func day(n int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestEngine_HistoricalSeries_Synthetic(t *testing.T) {
	e := newEngine(nil)

	s, err := e.HistoricalSeries(context.Background(), "CNY", "JPY", day(0), day(4).Add(15*time.Hour))
	require.NoError(t, err)

	assert.True(t, s.Synthetic)
	assert.Equal(t, rate.Reference, s.Source)
	require.Len(t, s.Points, 5)

	want := []string{"20.4959", "20.49795", "20.5", "20.50205", "20.5041"}
	for i, p := range s.Points {
		assert.Equal(t, day(i), p.Date)
		assert.True(t, p.Rate.Equal(decimal.RequireFromString(want[i])), "day %d: %s", i, p.Rate)
	}

	again, err := e.HistoricalSeries(context.Background(), "CNY", "JPY", day(0), day(4))
	require.NoError(t, err)
	assert.Equal(t, s.Points, again.Points)
}

func TestEngine_HistoricalSeries_SingleDay(t *testing.T) {
	e := newEngine(nil)

	s, err := e.HistoricalSeries(context.Background(), "CNY", "USD", day(3), day(3))
	require.NoError(t, err)
	require.Len(t, s.Points, 1)
	assert.Equal(t, "0.138", s.Points[0].Rate.String())
}

func TestEngine_HistoricalSeries_InvalidRange(t *testing.T) {
	e := newEngine(nil)

	_, err := e.HistoricalSeries(context.Background(), "CNY", "JPY", day(5), day(1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.HistoricalSeries(context.Background(), "CNY", "JPY", day(0), day(MaxSeriesDays))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.HistoricalSeries(context.Background(), "CNY", "XXX", day(0), day(1))
	assert.ErrorIs(t, err, currency.ErrInvalidCode)
}

func TestEngine_HistoricalSeries_Providers(t *testing.T) {
	broken := &MockHistory{name: "broken"}
	broken.On("History", mock.Anything, currency.Code("CNY"), currency.Code("JPY"), day(0), day(2)).
		Return(nil, errors.New("upstream down"))
	observed := []rate.Point{
		{Date: day(0), Rate: decimal.RequireFromString("20.4")},
		{Date: day(2), Rate: decimal.RequireFromString("20.6")},
	}
	good := &MockHistory{name: "snapshots"}
	good.On("History", mock.Anything, currency.Code("CNY"), currency.Code("JPY"), day(0), day(2)).
		Return(observed, nil)

	e := newEngine(nil, WithHistory(broken, good))

	s, err := e.HistoricalSeries(context.Background(), "CNY", "JPY", day(0), day(2))
	require.NoError(t, err)
	assert.False(t, s.Synthetic)
	assert.Equal(t, "snapshots", s.Provider)
	assert.Equal(t, rate.LiveProvider, s.Source)
	assert.Equal(t, observed, s.Points)
	broken.AssertExpectations(t)
	good.AssertExpectations(t)
}

func TestEngine_HistoricalSeries_ComposedPointsTagSeries(t *testing.T) {
	observed := []rate.Point{
		{Date: day(0), Rate: decimal.RequireFromString("20.4"), Source: rate.LiveProvider},
		{Date: day(1), Rate: decimal.RequireFromString("20.5"), Source: rate.PivotComposed},
		{Date: day(2), Rate: decimal.RequireFromString("20.6"), Source: rate.LiveProvider},
	}
	snapshots := &MockHistory{name: "snapshots"}
	snapshots.On("History", mock.Anything, currency.Code("CNY"), currency.Code("JPY"), day(0), day(2)).
		Return(observed, nil)

	e := newEngine(nil, WithHistory(snapshots))

	s, err := e.HistoricalSeries(context.Background(), "CNY", "JPY", day(0), day(2))
	require.NoError(t, err)
	assert.False(t, s.Synthetic)
	assert.Equal(t, rate.PivotComposed, s.Source)
}

func TestEngine_HistoricalSeries_EmptyHistoryFallsBack(t *testing.T) {
	empty := &MockHistory{name: "empty"}
	empty.On("History", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]rate.Point{}, nil)

	e := newEngine(nil, WithHistory(empty))

	s, err := e.HistoricalSeries(context.Background(), "CNY", "JPY", day(0), day(1))
	require.NoError(t, err)
	assert.True(t, s.Synthetic)
	assert.Len(t, s.Points, 2)
}

func TestSynthesize_Clamped(t *testing.T) {
	points := Synthesize(decimal.NewFromInt(100), day(0), 600)

	require.Len(t, points, 601)
	assert.True(t, points[0].Rate.Equal(decimal.NewFromInt(98)))
	assert.True(t, points[600].Rate.Equal(decimal.NewFromInt(102)))
	assert.True(t, points[300].Rate.Equal(decimal.NewFromInt(100)))
}
