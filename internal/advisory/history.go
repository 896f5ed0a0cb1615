package advisory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fxresolver/internal/currency"
	"fxresolver/internal/rate"
)

// MaxSeriesDays bounds the span of a historical series, inclusive of both ends.
const MaxSeriesDays = 366

// ErrInvalidRange is returned when end is before start or the span is too long.
var ErrInvalidRange = errors.New("invalid date range")

var (
	dailyStep    = decimal.RequireFromString("0.0001")
	maxVariation = decimal.RequireFromString("0.02")
)

// Series is an ordered daily rate series. Synthetic series are derived
// from the current rate for illustration only; they are not a forecast.
type Series struct {
	Base      currency.Code
	Target    currency.Code
	Start     time.Time
	End       time.Time
	Points    []rate.Point
	Synthetic bool
	Source    rate.Source
	Provider  string
}

// HistoricalSeries returns the daily rates for base/target between start
// and end. Observed history is preferred; without it a deterministic
// synthetic series is built around today's rate.
func (e *Engine) HistoricalSeries(ctx context.Context, base, target string, start, end time.Time) (Series, error) {
	b, err := currency.Parse(base)
	if err != nil {
		return Series{}, err
	}
	t, err := currency.Parse(target)
	if err != nil {
		return Series{}, err
	}
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return Series{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	days := int(end.Sub(start).Hours() / 24)
	if days+1 > MaxSeriesDays {
		return Series{}, fmt.Errorf("%w: %d days exceeds %d", ErrInvalidRange, days+1, MaxSeriesDays)
	}

	for _, h := range e.history {
		points, err := h.History(ctx, b, t, start, end)
		if err != nil {
			e.log.Warnw("History provider failed", "provider", h.Name(), "base", b, "target", t, "error", err)
			continue
		}
		if len(points) == 0 {
			continue
		}
		return Series{
			Base: b, Target: t, Start: start, End: end,
			Points:   points,
			Source:   seriesSource(points),
			Provider: h.Name(),
		}, nil
	}

	current := e.resolver.ResolveCodes(ctx, b, t)
	if err := ctx.Err(); err != nil {
		return Series{}, fmt.Errorf("%w: %w", ErrRequestTimeout, err)
	}
	return Series{
		Base: b, Target: t, Start: start, End: end,
		Points:    Synthesize(current.Rate(), start, days),
		Synthetic: true,
		Source:    current.Source(),
		Provider:  current.Provider(),
	}, nil
}

// Synthesize builds days+1 points oscillating linearly around r, centered
// on the middle day and clamped to ±2%.
func Synthesize(r decimal.Decimal, start time.Time, days int) []rate.Point {
	points := make([]rate.Point, 0, days+1)
	one := decimal.NewFromInt(1)
	for d := 0; d <= days; d++ {
		variation := dailyStep.Mul(decimal.NewFromInt(int64(d - days/2)))
		if variation.GreaterThan(maxVariation) {
			variation = maxVariation
		} else if variation.LessThan(maxVariation.Neg()) {
			variation = maxVariation.Neg()
		}
		points = append(points, rate.Point{
			Date: start.AddDate(0, 0, d),
			Rate: r.Mul(one.Add(variation)),
		})
	}
	return points
}

// seriesSource is the least trusted tier among the observed points.
func seriesSource(points []rate.Point) rate.Source {
	src := rate.LiveProvider
	for _, p := range points {
		src = rate.Lowest(src, p.Source)
	}
	return src
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
